package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/lurekit/engine/math"
	"github.com/spaghettifunk/lurekit/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	p := DefaultParams()
	p.Size = "XL"
	p.Accessories["belly_hook"] = "6"
	p.Gradient.Targets = []string{"body"}
	require.NoError(t, SaveParams(p, path))

	loaded, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

func TestLoadParamsPartialRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("size: L\neyes:\n  glow: 0.5\n"), 0644))

	p, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, "L", p.Size)
	assert.Equal(t, float32(0.5), p.Eyes.Glow)
	assert.Equal(t, "#ffffff", p.Eyes.White)
	assert.NotNil(t, p.Accessories)

	missing, err := LoadParams(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultParams(), missing)
}

func TestLoadParamsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("size: [unterminated"), 0644))
	_, err := LoadParams(path)
	assert.Error(t, err)
}

func TestParamsCloneDoesNotShare(t *testing.T) {
	p := DefaultParams()
	p.Accessories["bill"] = "short"
	p.Gradient.Targets = []string{"body"}

	c := p.Clone()
	c.Accessories["bill"] = "long"
	c.Gradient.Targets[0] = "lip"

	assert.Equal(t, "short", p.Accessories["bill"])
	assert.Equal(t, "body", p.Gradient.Targets[0])
}

func TestGradientAxisSnapping(t *testing.T) {
	tests := []struct {
		angle float32
		want  scene.GradientAxis
	}{
		{0, scene.GradientAxisVertical},
		{20, scene.GradientAxisVertical},
		{45, scene.GradientAxisDiagonal},
		{90, scene.GradientAxisLongitudinal},
		{-90, scene.GradientAxisLongitudinal},
		{135, scene.GradientAxisDiagonal},
		{180, scene.GradientAxisVertical},
		{450, scene.GradientAxisLongitudinal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GradientParams{AxisAngle: tt.angle}.Axis(), "angle %v", tt.angle)
	}
}

func TestRepeatMode(t *testing.T) {
	assert.Equal(t, scene.RepeatMirror, TextureParams{Repeat: " Mirror "}.RepeatMode())
	assert.Equal(t, scene.RepeatClamp, TextureParams{Repeat: "clamp_to_edge"}.RepeatMode())
	assert.Equal(t, scene.RepeatWrap, TextureParams{}.RepeatMode())
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff0000")
	require.NoError(t, err)
	assert.Equal(t, math.NewVec4(1, 0, 0, 1), c)

	c, err = ParseColor("00ff00")
	require.NoError(t, err)
	assert.Equal(t, math.NewVec4(0, 1, 0, 1), c)

	_, err = ParseColor("#zzzzzz")
	assert.Error(t, err)

	fallback := math.NewVec4(0.5, 0.5, 0.5, 1)
	assert.Equal(t, fallback, ColorOr("", fallback))
	assert.Equal(t, fallback, ColorOr("nope", fallback))
	assert.Equal(t, math.NewVec4(0, 0, 1, 1), ColorOr("#0000ff", fallback))
}
