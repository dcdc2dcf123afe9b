package systems

import (
	"github.com/spaghettifunk/lurekit/engine/config"
	"github.com/spaghettifunk/lurekit/engine/math"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

// SplitSharedMaterials gives a node its own material when the material is
// also used by a node of a different role, so recolouring eyes never
// recolours the body.
func SplitSharedMaterials(root *scene.Node, c *NodeClassifier) int {
	owner := make(map[*scene.Material]RoleKind)
	split := 0
	root.WalkPre(func(n *scene.Node) bool {
		if IsAttached(n) {
			return scene.Break
		}
		if n.Mesh == nil || n.Material == nil {
			return scene.Continue
		}
		kind := c.Classify(n).Kind
		first, seen := owner[n.Material]
		switch {
		case !seen:
			owner[n.Material] = kind
		case first != kind:
			n.Material = n.Material.Clone()
			owner[n.Material] = kind
			split++
		}
		return scene.Continue
	})
	return split
}

// ApplyEyeColors writes the eye colours into eye materials. Glow makes the
// eye emissive in its own colour.
func ApplyEyeColors(root *scene.Node, c *NodeClassifier, eyes config.EyeParams) int {
	glow := math.Max(eyes.Glow, 0)
	applied := 0
	root.WalkPre(func(n *scene.Node) bool {
		if IsAttached(n) {
			return scene.Break
		}
		if n.Mesh == nil || n.Material == nil {
			return scene.Continue
		}
		var hex string
		switch c.Classify(n).Kind {
		case RoleEyeWhite:
			hex = eyes.White
		case RoleEyeIris:
			hex = eyes.Iris
		case RoleEyePupil:
			hex = eyes.Pupil
		default:
			return scene.Continue
		}
		m := n.Material
		m.Color = config.ColorOr(hex, m.Color)
		m.Emissive = math.NewVec4(m.Color.X*glow, m.Color.Y*glow, m.Color.Z*glow, 1)
		if glow == 0 {
			m.Emissive = math.Vec4{}
		}
		m.Touch()
		applied++
		return scene.Continue
	})
	return applied
}

// ApplyBaseColor colours generic body meshes and marks palette metal meshes
// metallic.
func ApplyBaseColor(root *scene.Node, c *NodeClassifier, hex string) int {
	applied := 0
	root.WalkPre(func(n *scene.Node) bool {
		if IsAttached(n) {
			return scene.Break
		}
		if n.Mesh == nil || n.Material == nil {
			return scene.Continue
		}
		m := n.Material
		switch c.Classify(n).Kind {
		case RoleGeneric:
			m.Color = config.ColorOr(hex, m.Color)
		case RolePaletteMetal:
			m.Metalness = 1
			m.Roughness = math.Min(m.Roughness, 0.25)
		default:
			return scene.Continue
		}
		m.Touch()
		applied++
		return scene.Continue
	})
	return applied
}
