package systems

import (
	"strings"

	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/math"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

const (
	// AttachedMarker tags the container of an engine-attached accessory.
	AttachedMarker = "lurekit:attached"
	// AttachedVariantKey records family and variant on the container.
	AttachedVariantKey = "lurekit:variant"
)

// IsAttached reports whether n is an engine-managed accessory instance.
func IsAttached(n *scene.Node) bool {
	_, ok := n.Property(AttachedMarker)
	return ok
}

// SocketAttacher instantiates resolved accessories under host sockets.
type SocketAttacher struct {
	// sizes are the labels a socket name may carry as its last token.
	sizes []string
}

func NewSocketAttacher(sizes []string) *SocketAttacher {
	return &SocketAttacher{sizes: sizes}
}

func (sa *SocketAttacher) matches(name, want string) bool {
	name = strings.ToLower(name)
	if name == want {
		return true
	}
	base, size := splitSizeSuffix(name, sa.sizes)
	return size != "" && base == want
}

// Sockets returns the nodes answering to socketName: an exact match or a size
// variant such as "socket_belly_l". "socket_belly_rear" is a different socket.
// Visible ones come first.
func (sa *SocketAttacher) Sockets(host *scene.Node, socketName string) []*scene.Node {
	want := strings.ToLower(socketName)
	var visible, hidden []*scene.Node
	host.WalkPre(func(n *scene.Node) bool {
		if IsAttached(n) {
			return scene.Break
		}
		if sa.matches(n.Name, want) {
			if n.VisibleInTree() {
				visible = append(visible, n)
			} else {
				hidden = append(hidden, n)
			}
		}
		return scene.Continue
	})
	return append(visible, hidden...)
}

// Detach removes every engine-attached child from the sockets named
// socketName. Authored children are kept.
func (sa *SocketAttacher) Detach(host *scene.Node, socketName string) int {
	removed := 0
	for _, socket := range sa.Sockets(host, socketName) {
		children := append([]*scene.Node(nil), socket.Children()...)
		for _, child := range children {
			if IsAttached(child) {
				socket.RemoveChild(child)
				removed++
			}
		}
	}
	return removed
}

// Attach replaces the accessory under socketName with a fresh instance of
// resolved. A nil resolved only detaches. The instance is scaled by
// 1/hostScale and shifted so the anchor sits at the socket origin. Returns
// false when nothing was attached.
func (sa *SocketAttacher) Attach(host *scene.Node, socketName string, resolved *Resolved, hostScale float32) bool {
	sockets := sa.Sockets(host, socketName)
	if len(sockets) == 0 {
		core.LogDebug("%s: '%s'", core.ErrMissingSocket, socketName)
		return false
	}
	sa.Detach(host, socketName)
	if resolved == nil || resolved.Library == nil || resolved.Anchor == nil {
		return false
	}
	if hostScale <= 0 {
		hostScale = 1
	}

	instance, mapping := resolved.Library.Root.CloneWithMap()
	keep := make(map[*scene.Node]bool, len(resolved.Cluster))
	for _, n := range resolved.Cluster {
		if c, ok := mapping[n]; ok {
			keep[c] = true
		}
	}
	for _, n := range instance.MeshNodes() {
		if !keep[n] {
			n.Visible = false
		}
	}
	instance.CloneMaterials()

	anchor := mapping[resolved.Anchor]
	offset := math.NewVec3Zero().Transform(anchor.MatrixUpTo(instance))
	instance.Transform.SetPosition(instance.Transform.Position.Sub(offset))

	container := scene.NewNode(resolved.Family + "_" + resolved.Variant)
	container.Transform.SetScale(math.NewVec3Scalar(1 / hostScale))
	container.SetProperty(AttachedMarker, core.NewID())
	container.SetProperty(AttachedVariantKey, resolved.Family+"/"+resolved.Variant)
	container.AddChild(instance)

	sockets[0].AddChild(container)
	core.LogDebug("attached %s '%s' to '%s'", resolved.Family, resolved.Variant, sockets[0].Name)
	return true
}

// Attached returns the engine-attached container under socketName, if any.
func (sa *SocketAttacher) Attached(host *scene.Node, socketName string) *scene.Node {
	for _, socket := range sa.Sockets(host, socketName) {
		for _, child := range socket.Children() {
			if IsAttached(child) {
				return child
			}
		}
	}
	return nil
}
