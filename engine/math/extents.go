package math

// NewExtents3DEmpty returns a box that contains nothing. Expanding it by any
// point yields a box around that point.
func NewExtents3DEmpty() Extents3D {
	return Extents3D{
		Min: NewVec3Scalar(K_INFINITY),
		Max: NewVec3Scalar(-K_INFINITY),
	}
}

// NewExtents3DFromSize returns a box of the given size centered at the origin.
func NewExtents3DFromSize(size Vec3) Extents3D {
	half := size.MulScalar(0.5)
	return Extents3D{Min: half.MulScalar(-1), Max: half}
}

// IsEmpty reports whether the box contains no points.
func (e Extents3D) IsEmpty() bool {
	return e.Min.X > e.Max.X || e.Min.Y > e.Max.Y || e.Min.Z > e.Max.Z
}

// ExpandByPoint grows the box so it contains p.
func (e Extents3D) ExpandByPoint(p Vec3) Extents3D {
	return Extents3D{
		Min: Vec3{Min(e.Min.X, p.X), Min(e.Min.Y, p.Y), Min(e.Min.Z, p.Z)},
		Max: Vec3{Max(e.Max.X, p.X), Max(e.Max.Y, p.Y), Max(e.Max.Z, p.Z)},
	}
}

// Union returns the smallest box containing both e and other.
func (e Extents3D) Union(other Extents3D) Extents3D {
	if other.IsEmpty() {
		return e
	}
	if e.IsEmpty() {
		return other
	}
	return e.ExpandByPoint(other.Min).ExpandByPoint(other.Max)
}

// Size returns the edge lengths of the box; an empty box has zero size.
func (e Extents3D) Size() Vec3 {
	if e.IsEmpty() {
		return Vec3{}
	}
	return e.Max.Sub(e.Min)
}

// Center returns the midpoint of the box.
func (e Extents3D) Center() Vec3 {
	if e.IsEmpty() {
		return Vec3{}
	}
	return e.Min.Add(e.Max).MulScalar(0.5)
}

// LongestAxis returns the axis with the largest extent and that extent.
func (e Extents3D) LongestAxis() (Axis, float32) {
	size, axis := e.Size().MaxComponent()
	return axis, size
}

// Corners returns the eight corner points of the box.
func (e Extents3D) Corners() [8]Vec3 {
	return [8]Vec3{
		{e.Min.X, e.Min.Y, e.Min.Z},
		{e.Max.X, e.Min.Y, e.Min.Z},
		{e.Min.X, e.Max.Y, e.Min.Z},
		{e.Max.X, e.Max.Y, e.Min.Z},
		{e.Min.X, e.Min.Y, e.Max.Z},
		{e.Max.X, e.Min.Y, e.Max.Z},
		{e.Min.X, e.Max.Y, e.Max.Z},
		{e.Max.X, e.Max.Y, e.Max.Z},
	}
}

// Transform returns the axis-aligned box enclosing e after transforming it by m.
func (e Extents3D) Transform(m Mat4) Extents3D {
	if e.IsEmpty() {
		return e
	}
	out := NewExtents3DEmpty()
	for _, c := range e.Corners() {
		out = out.ExpandByPoint(c.Transform(m))
	}
	return out
}
