package scene

import (
	"strings"

	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/math"
)

// Walk control values returned by WalkPre callbacks.
const (
	Continue = true
	Break    = false
)

// Node is the single element type of the scene graph. Groups, meshes and
// sockets are all Nodes; a node is a mesh when Mesh is set.
//
// A node's parent owns it exclusively: AddChild detaches the child from any
// previous parent first. The world transform is derived on demand from the
// chain of local transforms and never stored.
type Node struct {
	// ID is unique per node instance, including clones.
	ID string `copier:"-"`
	// Name is the author-supplied name. Not guaranteed unique.
	Name string

	Transform math.Transform

	// Visible hides the node and its subtree from the final render.
	Visible bool

	// Mesh is shared between clones; geometry is never mutated after load.
	Mesh *Mesh `copier:"-"`
	// Material may be shared between clones until explicitly cloned.
	Material *Material `copier:"-"`

	// Properties holds author-supplied custom properties and engine markers.
	Properties map[string]any

	parent   *Node
	children []*Node
}

// NewNode creates an empty group node with an identity transform.
func NewNode(name string) *Node {
	return &Node{
		ID:        core.NewID(),
		Name:      name,
		Transform: math.TransformCreate(),
		Visible:   true,
	}
}

// NewMeshNode creates a node rendering the given mesh with the given material.
func NewMeshNode(name string, mesh *Mesh, material *Material) *Node {
	n := NewNode(name)
	n.Mesh = mesh
	n.Material = material
	return n
}

func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the owned children in authored order. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

func (n *Node) IsMesh() bool {
	return n.Mesh != nil
}

// AddChild appends child, transferring ownership from its previous parent.
func (n *Node) AddChild(child *Node) *Node {
	if child == nil || child == n {
		return n
	}
	child.RemoveFromParent()
	child.parent = n
	n.children = append(n.children, child)
	return n
}

// RemoveChild detaches child from n. It reports whether child was found.
func (n *Node) RemoveChild(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			child.parent = nil
			return true
		}
	}
	return false
}

// RemoveFromParent detaches n from its parent, if any.
func (n *Node) RemoveFromParent() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// Root returns the top-most ancestor of n.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// SetProperty stores a custom property, allocating the map on first use.
func (n *Node) SetProperty(key string, value any) {
	if n.Properties == nil {
		n.Properties = make(map[string]any)
	}
	n.Properties[key] = value
}

func (n *Node) Property(key string) (any, bool) {
	if n.Properties == nil {
		return nil, false
	}
	v, ok := n.Properties[key]
	return v, ok
}

// StringProperty returns the property as a string when it is one.
func (n *Node) StringProperty(key string) (string, bool) {
	v, ok := n.Property(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (n *Node) DeleteProperty(key string) {
	delete(n.Properties, key)
}

// WalkPre visits n and its descendants depth-first in pre-order. Returning
// Break from fn skips the children of the visited node.
func (n *Node) WalkPre(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.WalkPre(fn)
	}
}

// FindFunc returns the first node in pre-order for which match is true.
func (n *Node) FindFunc(match func(*Node) bool) *Node {
	var found *Node
	n.WalkPre(func(c *Node) bool {
		if found != nil {
			return Break
		}
		if match(c) {
			found = c
			return Break
		}
		return Continue
	})
	return found
}

// Find returns the first node named exactly name.
func (n *Node) Find(name string) *Node {
	return n.FindFunc(func(c *Node) bool { return c.Name == name })
}

// FindFold returns the first node whose name equals name ignoring case.
func (n *Node) FindFold(name string) *Node {
	return n.FindFunc(func(c *Node) bool { return strings.EqualFold(c.Name, name) })
}

// MeshNodes returns every mesh node in the subtree in pre-order.
func (n *Node) MeshNodes() []*Node {
	var out []*Node
	n.WalkPre(func(c *Node) bool {
		if c.IsMesh() {
			out = append(out, c)
		}
		return Continue
	})
	return out
}

// VisibleInTree reports whether n and all of its ancestors are visible.
func (n *Node) VisibleInTree() bool {
	for c := n; c != nil; c = c.parent {
		if !c.Visible {
			return false
		}
	}
	return true
}
