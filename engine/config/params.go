package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/lurekit/engine/math"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

// NoneVariant as an accessory key explicitly empties a slot.
const NoneVariant = "none"

// Params is the flat parameter record produced by the UI and saved by the
// persistence layer. It is the only input a composition pass reads besides
// the assets themselves.
type Params struct {
	Model     string `yaml:"model"`
	BaseColor string `yaml:"base_color"`

	Gradient GradientParams `yaml:"gradient"`
	Texture  TextureParams  `yaml:"texture"`

	// Accessories maps a slot name to the requested variant key.
	Accessories map[string]string `yaml:"accessories"`

	Eyes EyeParams `yaml:"eyes"`

	Size       string `yaml:"size"`
	Mask       string `yaml:"mask"`
	Runner     string `yaml:"runner"`
	Collection string `yaml:"collection"`
}

// GradientParams drives the three-stop gradient material.
type GradientParams struct {
	Top    string `yaml:"top"`
	Mid    string `yaml:"mid"`
	Bottom string `yaml:"bottom"`

	Boundary1 float32 `yaml:"boundary1"`
	Smooth1   float32 `yaml:"smooth1"`
	Boundary2 float32 `yaml:"boundary2"`
	Smooth2   float32 `yaml:"smooth2"`

	// AxisAngle in degrees snaps to 0 (vertical), 45 (diagonal) or 90 (longitudinal).
	AxisAngle float32 `yaml:"axis_angle"`

	// Targets overrides the configured gradient target filter when non-empty.
	Targets []string `yaml:"targets,omitempty"`
}

// TextureParams configures the modulation and scales textures.
type TextureParams struct {
	ID       string  `yaml:"id"`
	Rotation float32 `yaml:"rotation"`
	Scale    float32 `yaml:"scale"`
	OffsetX  float32 `yaml:"offset_x"`
	OffsetY  float32 `yaml:"offset_y"`
	Repeat   string  `yaml:"repeat"`
	Strength float32 `yaml:"strength"`

	ScalesID       string  `yaml:"scales_id"`
	ScalesStrength float32 `yaml:"scales_strength"`

	MarkColor    string  `yaml:"mark_color"`
	MarkStrength float32 `yaml:"mark_strength"`
}

type EyeParams struct {
	White string  `yaml:"white"`
	Iris  string  `yaml:"iris"`
	Pupil string  `yaml:"pupil"`
	Glow  float32 `yaml:"glow"`
}

// DefaultParams returns the record a fresh configurator starts from.
func DefaultParams() Params {
	return Params{
		Model:     "crankbait",
		BaseColor: "#d9d9d9",
		Gradient: GradientParams{
			Top:       "#1f4e3d",
			Mid:       "#7fbf4d",
			Bottom:    "#f2f2e6",
			Boundary1: 0.35,
			Smooth1:   0.1,
			Boundary2: 0.7,
			Smooth2:   0.1,
			AxisAngle: 0,
		},
		Texture: TextureParams{
			Scale:        1,
			Repeat:       "repeat",
			Strength:     1,
			MarkColor:    "#000000",
			MarkStrength: 0,
		},
		Accessories: map[string]string{},
		Eyes: EyeParams{
			White: "#ffffff",
			Iris:  "#e0b000",
			Pupil: "#000000",
			Glow:  0,
		},
		Size: "M",
	}
}

// LoadParams reads a YAML parameter record. Missing fields keep their defaults.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return DefaultParams(), fmt.Errorf("failed to parse params %s: %w", path, err)
	}
	if p.Accessories == nil {
		p.Accessories = map[string]string{}
	}
	return p, nil
}

// SaveParams writes the record as YAML.
func SaveParams(p Params, path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a copy that does not share the accessory map or target list.
func (p Params) Clone() Params {
	out := p
	out.Accessories = make(map[string]string, len(p.Accessories))
	for k, v := range p.Accessories {
		out.Accessories[k] = v
	}
	out.Gradient.Targets = append([]string(nil), p.Gradient.Targets...)
	return out
}

// Axis snaps the configured angle to one of the three gradient orientations.
func (g GradientParams) Axis() scene.GradientAxis {
	a := g.AxisAngle
	for a < 0 {
		a += 180
	}
	for a >= 180 {
		a -= 180
	}
	// 180 wraps back to vertical; 135 is the mirrored diagonal.
	switch {
	case a < 22.5 || a >= 157.5:
		return scene.GradientAxisVertical
	case a >= 67.5 && a < 112.5:
		return scene.GradientAxisLongitudinal
	default:
		return scene.GradientAxisDiagonal
	}
}

// RepeatMode parses the texture repeat mode, defaulting to wrap.
func (t TextureParams) RepeatMode() scene.RepeatMode {
	switch strings.ToLower(strings.TrimSpace(t.Repeat)) {
	case "mirror", "mirrored", "mirrored_repeat":
		return scene.RepeatMirror
	case "clamp", "clamp_to_edge":
		return scene.RepeatClamp
	default:
		return scene.RepeatWrap
	}
}

// ParseColor converts a hex colour ("#rrggbb" or "#rgb") to an opaque RGBA vector.
func ParseColor(hex string) (math.Vec4, error) {
	s := strings.TrimSpace(hex)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return math.Vec4{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	return math.NewVec4(float32(c.R), float32(c.G), float32(c.B), 1), nil
}

// ColorOr parses hex and returns fallback when it is empty or invalid.
func ColorOr(hex string, fallback math.Vec4) math.Vec4 {
	if strings.TrimSpace(hex) == "" {
		return fallback
	}
	c, err := ParseColor(hex)
	if err != nil {
		return fallback
	}
	return c
}
