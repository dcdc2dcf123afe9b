package scene

import (
	"sort"

	"github.com/jinzhu/copier"
	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/math"
)

/** @brief The name of the default material. */
const DefaultMaterialName string = "default"

// GradientMaterialName names materials swapped in by the gradient controller.
const GradientMaterialName string = "lure_gradient"

type MaterialKind uint8

const (
	// MaterialStandard is a plain colour/metalness surface.
	MaterialStandard MaterialKind = iota
	// MaterialGradient is the multi-stop gradient shader.
	MaterialGradient
)

func (k MaterialKind) String() string {
	switch k {
	case MaterialStandard:
		return "standard"
	case MaterialGradient:
		return "gradient"
	default:
		return "unknown"
	}
}

// GradientAxis is one of the three fixed gradient orientations.
type GradientAxis uint8

const (
	// GradientAxisVertical runs bottom to top (world +Y).
	GradientAxisVertical GradientAxis = iota
	// GradientAxisLongitudinal runs tail to nose (world +X).
	GradientAxisLongitudinal
	// GradientAxisDiagonal runs along (+X, +Y) at 45 degrees.
	GradientAxisDiagonal
)

// Direction returns the unit world direction the gradient is projected on.
func (a GradientAxis) Direction() math.Vec3 {
	switch a {
	case GradientAxisLongitudinal:
		return math.NewVec3Right()
	case GradientAxisDiagonal:
		return math.NewVec3(1, 1, 0).Normalized()
	default:
		return math.NewVec3Up()
	}
}

func (a GradientAxis) String() string {
	switch a {
	case GradientAxisVertical:
		return "vertical"
	case GradientAxisLongitudinal:
		return "longitudinal"
	case GradientAxisDiagonal:
		return "diagonal"
	default:
		return "unknown"
	}
}

type RepeatMode uint8

const (
	RepeatWrap RepeatMode = iota
	RepeatMirror
	RepeatClamp
)

func (r RepeatMode) String() string {
	switch r {
	case RepeatWrap:
		return "repeat"
	case RepeatMirror:
		return "mirror"
	case RepeatClamp:
		return "clamp"
	default:
		return "unknown"
	}
}

// TextureSlot is the shader state of one sampled texture.
type TextureSlot struct {
	Name     string
	Bound    bool
	Rotation float32
	Scale    float32
	Offset   math.Vec2
	Repeat   RepeatMode
	Strength float32
}

// GradientUniforms is the uniform block of the gradient shader.
type GradientUniforms struct {
	TopColor    math.Vec4
	MidColor    math.Vec4
	BottomColor math.Vec4

	// Boundary1 separates bottom from mid, Boundary2 mid from top. Both are
	// normalized positions along Axis.
	Boundary1 float32
	Boundary2 float32
	// Smooth1 and Smooth2 are the blend widths of each boundary; 0 is a hard step.
	Smooth1 float32
	Smooth2 float32

	Axis          GradientAxis
	AxisDirection math.Vec3
	// BoundsMin and BoundsMax are the world projections of the shaded
	// geometry on AxisDirection.
	BoundsMin float32
	BoundsMax float32

	Pattern TextureSlot
	Scales  TextureSlot
	// TextureStrength is the overall visibility of both textures.
	TextureStrength float32

	MarkColor    math.Vec4
	MarkStrength float32
}

// NormalizedPosition maps a world point to its [0, 1] position along the axis.
func (g *GradientUniforms) NormalizedPosition(p math.Vec3) float32 {
	span := g.BoundsMax - g.BoundsMin
	if span <= 0 {
		return 0
	}
	return math.Clamp((p.Dot(g.AxisDirection)-g.BoundsMin)/span, 0, 1)
}

// ColorAt evaluates the gradient at normalized position t the same way the
// shader does: bottom blends into mid at the lower boundary and mid into top
// at the upper one.
func (g *GradientUniforms) ColorAt(t float32) math.Vec4 {
	type stop struct{ at, width float32 }
	stops := []stop{{g.Boundary1, g.Smooth1}, {g.Boundary2, g.Smooth2}}
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].at < stops[j].at })

	c := g.BottomColor.Lerp(g.MidColor, boundaryWeight(stops[0].at, stops[0].width, t))
	return c.Lerp(g.TopColor, boundaryWeight(stops[1].at, stops[1].width, t))
}

func boundaryWeight(at, width, t float32) float32 {
	if width <= 0 {
		return math.Step(at, t)
	}
	half := width * 0.5
	return math.SmoothStep(at-half, at+half, t)
}

/**
 * @brief A material, which represents various properties
 * of a surface such as colour, metalness and gradient state.
 */
type Material struct {
	/** @brief The material id. Unique per instance, including clones. */
	ID string `copier:"-"`
	/** @brief The material generation. Incremented every time the material is changed. */
	Generation uint32
	/** @brief The material name. */
	Name string
	Kind MaterialKind
	/** @brief The diffuse colour. */
	Color math.Vec4
	/** @brief Glow colour, independent of lighting. */
	Emissive  math.Vec4
	Metalness float32
	Roughness float32
	// Gradient is set for MaterialGradient materials.
	Gradient *GradientUniforms
}

// NewMaterial creates a standard material with the given diffuse colour.
func NewMaterial(name string, color math.Vec4) *Material {
	return &Material{
		ID:        core.NewID(),
		Name:      name,
		Kind:      MaterialStandard,
		Color:     color,
		Roughness: 0.5,
	}
}

// NewGradientMaterial creates a gradient material seeded from base, which may be nil.
func NewGradientMaterial(base *Material) *Material {
	m := NewMaterial(GradientMaterialName, math.NewVec4One())
	if base != nil {
		m.Color = base.Color
		m.Emissive = base.Emissive
		m.Metalness = base.Metalness
		m.Roughness = base.Roughness
	}
	m.Kind = MaterialGradient
	m.Gradient = &GradientUniforms{Scales: TextureSlot{Scale: 1}, Pattern: TextureSlot{Scale: 1}}
	return m
}

// Clone returns a deep copy with a fresh ID; the gradient block is not shared.
func (m *Material) Clone() *Material {
	if m == nil {
		return nil
	}
	out := &Material{}
	if err := copier.CopyWithOption(out, m, copier.Option{DeepCopy: true}); err != nil {
		core.LogError("failed to clone material '%s': %s", m.Name, err.Error())
		out = &Material{
			Generation: m.Generation, Name: m.Name, Kind: m.Kind, Color: m.Color,
			Emissive: m.Emissive, Metalness: m.Metalness, Roughness: m.Roughness,
		}
		if m.Gradient != nil {
			g := *m.Gradient
			out.Gradient = &g
		}
	}
	out.ID = core.NewID()
	return out
}

// Touch marks the material as changed for the renderer.
func (m *Material) Touch() {
	m.Generation++
}
