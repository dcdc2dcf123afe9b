package scene

import "github.com/spaghettifunk/lurekit/engine/math"

// Mesh is loaded geometry. Only vertex positions are kept: the composition
// core needs bounds and projections, never topology.
type Mesh struct {
	Name      string
	Positions []math.Vec3
	// Bounds is the local-space bounding box of Positions.
	Bounds math.Extents3D
}

// NewMesh creates a mesh from vertex positions and computes its bounds.
func NewMesh(name string, positions []math.Vec3) *Mesh {
	m := &Mesh{Name: name, Positions: positions}
	m.ComputeBounds()
	return m
}

// NewBoxMesh creates an axis-aligned box mesh of the given size around center.
func NewBoxMesh(name string, size math.Vec3, center math.Vec3) *Mesh {
	box := math.NewExtents3DFromSize(size)
	corners := box.Corners()
	positions := make([]math.Vec3, 0, len(corners))
	for _, c := range corners {
		positions = append(positions, c.Add(center))
	}
	return NewMesh(name, positions)
}

// ComputeBounds recomputes the local bounding box from the vertex positions.
func (m *Mesh) ComputeBounds() {
	b := math.NewExtents3DEmpty()
	for _, p := range m.Positions {
		b = b.ExpandByPoint(p)
	}
	m.Bounds = b
}
