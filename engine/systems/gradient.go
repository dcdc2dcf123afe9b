package systems

import (
	"sort"

	"github.com/spaghettifunk/lurekit/engine/config"
	"github.com/spaghettifunk/lurekit/engine/math"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

// GradientBounds is the projection of the shaded geometry on the gradient axis.
type GradientBounds struct {
	Min float32
	Max float32
}

// GradientMaterialController pushes gradient parameters into the uniform
// block of gradient materials. Every call rewrites the full state.
type GradientMaterialController struct {
	textures scene.TextureSource
}

func NewGradientMaterialController(textures scene.TextureSource) *GradientMaterialController {
	return &GradientMaterialController{textures: textures}
}

// SetTextureSource replaces the texture registry used to decide whether a
// texture id is bound.
func (gc *GradientMaterialController) SetTextureSource(textures scene.TextureSource) {
	gc.textures = textures
}

func (gc *GradientMaterialController) bound(id string) bool {
	if id == "" || gc.textures == nil {
		return false
	}
	_, ok := gc.textures.Texture(id)
	return ok
}

// Apply swaps n to a gradient material if needed and writes colours,
// boundaries, axis, bounds and texture state into it.
func (gc *GradientMaterialController) Apply(n *scene.Node, p config.GradientParams, tex config.TextureParams, b GradientBounds) {
	if n == nil || n.Mesh == nil {
		return
	}
	if n.Material == nil || n.Material.Kind != scene.MaterialGradient || n.Material.Gradient == nil {
		n.Material = scene.NewGradientMaterial(n.Material)
	}
	m := n.Material
	u := m.Gradient

	u.TopColor = config.ColorOr(p.Top, u.TopColor)
	u.MidColor = config.ColorOr(p.Mid, u.MidColor)
	u.BottomColor = config.ColorOr(p.Bottom, u.BottomColor)

	type boundary struct{ at, smooth float32 }
	stops := []boundary{
		{math.Clamp(p.Boundary1, 0, 1), math.Max(p.Smooth1, 0)},
		{math.Clamp(p.Boundary2, 0, 1), math.Max(p.Smooth2, 0)},
	}
	// Each boundary keeps its own smoothness when the pair is reordered.
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].at < stops[j].at })
	u.Boundary1, u.Smooth1 = stops[0].at, stops[0].smooth
	u.Boundary2, u.Smooth2 = stops[1].at, stops[1].smooth

	u.Axis = p.Axis()
	u.AxisDirection = u.Axis.Direction()
	u.BoundsMin, u.BoundsMax = b.Min, b.Max

	scale := tex.Scale
	if scale <= 0 {
		scale = 1
	}
	patternBound := gc.bound(tex.ID)
	u.Pattern = scene.TextureSlot{
		Name:     tex.ID,
		Bound:    patternBound,
		Rotation: math.DegToRad(tex.Rotation),
		Scale:    scale,
		Offset:   math.NewVec2(tex.OffsetX, tex.OffsetY),
		Repeat:   tex.RepeatMode(),
	}
	scalesBound := gc.bound(tex.ScalesID)
	u.Scales = scene.TextureSlot{
		Name:     tex.ScalesID,
		Bound:    scalesBound,
		Rotation: u.Pattern.Rotation,
		Scale:    scale,
		Offset:   u.Pattern.Offset,
		Repeat:   u.Pattern.Repeat,
	}

	// An unbound sampler reads black; zero strength keeps the surface untouched.
	u.TextureStrength = 0
	u.Pattern.Strength = 0
	u.Scales.Strength = 0
	u.MarkStrength = 0
	u.MarkColor = config.ColorOr(tex.MarkColor, math.Vec4{W: 1})
	if patternBound {
		u.Pattern.Strength = math.Clamp(tex.Strength, 0, 1)
		u.TextureStrength = u.Pattern.Strength
		u.MarkStrength = math.Clamp(tex.MarkStrength, 0, 1)
	}
	if scalesBound {
		u.Scales.Strength = math.Clamp(tex.ScalesStrength, 0, 1)
		if !patternBound {
			u.TextureStrength = 1
		}
	}
	m.Touch()
}
