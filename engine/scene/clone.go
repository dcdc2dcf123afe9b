package scene

import (
	"github.com/jinzhu/copier"
	"github.com/spaghettifunk/lurekit/engine/core"
)

// Clone returns a deep copy of the subtree rooted at n. The copy has no
// parent, fresh IDs and its own property maps; meshes and materials are
// shared with the original until the caller clones them.
func (n *Node) Clone() *Node {
	c, _ := n.CloneWithMap()
	return c
}

// CloneWithMap clones the subtree and also returns the mapping from every
// original node to its copy.
func (n *Node) CloneWithMap() (*Node, map[*Node]*Node) {
	mapping := make(map[*Node]*Node)
	return n.cloneInto(mapping), mapping
}

func (n *Node) cloneInto(mapping map[*Node]*Node) *Node {
	out := &Node{}
	if err := copier.CopyWithOption(out, n, copier.Option{DeepCopy: true}); err != nil {
		core.LogError("failed to copy node '%s': %s", n.Name, err.Error())
		out.Name = n.Name
		out.Transform = n.Transform
		out.Visible = n.Visible
		if n.Properties != nil {
			out.Properties = make(map[string]any, len(n.Properties))
			for k, v := range n.Properties {
				out.Properties[k] = v
			}
		}
	}
	out.ID = core.NewID()
	out.Mesh = n.Mesh
	out.Material = n.Material
	mapping[n] = out
	for _, child := range n.children {
		out.AddChild(child.cloneInto(mapping))
	}
	return out
}

// CloneMaterials replaces every material in the subtree with its own copy so
// no material object is shared with another instance. Materials shared by
// several nodes inside the subtree stay shared with each other.
func (n *Node) CloneMaterials() {
	cloned := make(map[*Material]*Material)
	n.WalkPre(func(c *Node) bool {
		if c.Material == nil {
			return Continue
		}
		m, ok := cloned[c.Material]
		if !ok {
			m = c.Material.Clone()
			cloned[c.Material] = m
		}
		c.Material = m
		return Continue
	})
}
