package scene

import "github.com/spaghettifunk/lurekit/engine/math"

// MatrixUpTo returns the product of the local matrices from n up to and
// including top. A nil top (or one that is not an ancestor) yields the full
// world matrix.
func (n *Node) MatrixUpTo(top *Node) math.Mat4 {
	m := n.Transform.GetLocal()
	if n == top {
		return m
	}
	for p := n.parent; p != nil; p = p.parent {
		m = m.Mul(p.Transform.GetLocal())
		if p == top {
			break
		}
	}
	return m
}

// WorldMatrix derives the world transform from the chain of local transforms.
func (n *Node) WorldMatrix() math.Mat4 {
	return n.MatrixUpTo(nil)
}

// WorldPosition returns the world-space origin of n.
func (n *Node) WorldPosition() math.Vec3 {
	return n.WorldMatrix().Translation()
}

// WorldBounds returns the world-space box of the mesh itself, ignoring children.
func (n *Node) WorldBounds() math.Extents3D {
	if n.Mesh == nil {
		return math.NewExtents3DEmpty()
	}
	return meshBounds(n.Mesh, n.WorldMatrix())
}

// SubtreeBounds returns the world-space box around every mesh in the subtree.
// Nodes for which include returns false are skipped along with their
// descendants; a nil include accepts everything.
func (n *Node) SubtreeBounds(include func(*Node) bool) math.Extents3D {
	out := math.NewExtents3DEmpty()
	n.WalkPre(func(c *Node) bool {
		if include != nil && !include(c) {
			return Break
		}
		if c.Mesh != nil {
			out = out.Union(meshBounds(c.Mesh, c.WorldMatrix()))
		}
		return Continue
	})
	return out
}

// ProjectedRange projects the world-space vertices of the given mesh nodes
// onto dir and returns the covered interval. ok is false when no vertex exists.
func ProjectedRange(nodes []*Node, dir math.Vec3) (lo, hi float32, ok bool) {
	lo, hi = math.K_INFINITY, -math.K_INFINITY
	visit := func(p math.Vec3) {
		d := p.Dot(dir)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
		ok = true
	}
	for _, n := range nodes {
		if n.Mesh == nil {
			continue
		}
		world := n.WorldMatrix()
		if len(n.Mesh.Positions) == 0 {
			if n.Mesh.Bounds.IsEmpty() {
				continue
			}
			for _, c := range n.Mesh.Bounds.Corners() {
				visit(c.Transform(world))
			}
			continue
		}
		for _, p := range n.Mesh.Positions {
			visit(p.Transform(world))
		}
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

func meshBounds(m *Mesh, world math.Mat4) math.Extents3D {
	if len(m.Positions) == 0 {
		return m.Bounds.Transform(world)
	}
	out := math.NewExtents3DEmpty()
	for _, p := range m.Positions {
		out = out.ExpandByPoint(p.Transform(world))
	}
	return out
}
