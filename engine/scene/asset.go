package scene

import (
	"strings"
	"time"

	"github.com/spaghettifunk/lurekit/engine/core"
)

// Asset is a loaded scene graph treated as an immutable template. Anything
// that needs to mutate its nodes works on a clone.
type Asset struct {
	// ID identifies this loaded instance. A reload produces a new ID.
	ID       string
	Path     string
	Root     *Node
	LoadedAt time.Time

	byName map[string][]*Node
}

// NewAsset wraps root as an asset and indexes its nodes by lower-cased name.
func NewAsset(path string, root *Node) *Asset {
	a := &Asset{
		ID:       core.NewID(),
		Path:     path,
		Root:     root,
		LoadedAt: time.Now(),
		byName:   make(map[string][]*Node),
	}
	root.WalkPre(func(n *Node) bool {
		key := strings.ToLower(n.Name)
		a.byName[key] = append(a.byName[key], n)
		return Continue
	})
	return a
}

// Lookup returns every node whose name matches name ignoring case, in pre-order.
func (a *Asset) Lookup(name string) []*Node {
	return a.byName[strings.ToLower(name)]
}

// Node returns the first node named name ignoring case.
func (a *Asset) Node(name string) *Node {
	nodes := a.Lookup(name)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Names returns the distinct lower-cased node names in the asset.
func (a *Asset) Names() []string {
	out := make([]string, 0, len(a.byName))
	for k := range a.byName {
		out = append(out, k)
	}
	return out
}

// MeshNodes returns every mesh node of the template.
func (a *Asset) MeshNodes() []*Node {
	return a.Root.MeshNodes()
}

// Materials returns the distinct materials referenced by the template.
func (a *Asset) Materials() []*Material {
	seen := make(map[*Material]bool)
	var out []*Material
	a.Root.WalkPre(func(n *Node) bool {
		if n.Material != nil && !seen[n.Material] {
			seen[n.Material] = true
			out = append(out, n.Material)
		}
		return Continue
	})
	return out
}
