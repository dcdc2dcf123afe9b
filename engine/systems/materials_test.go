package systems

import (
	"testing"

	"github.com/spaghettifunk/lurekit/engine/config"
	"github.com/spaghettifunk/lurekit/engine/math"
	"github.com/spaghettifunk/lurekit/testbed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSharedMaterials(t *testing.T) {
	sm := newTestSystems(t, nil)
	host := newAssetState(testbed.NewLure()).Host
	white, iris, pupil := host.Find("eye_white_l"), host.Find("eye_iris_l"), host.Find("eye_pupil_l")
	require.Same(t, white.Material, iris.Material)

	assert.Equal(t, 2, SplitSharedMaterials(host, sm.Classifier()))
	assert.NotSame(t, white.Material, iris.Material)
	assert.NotSame(t, iris.Material, pupil.Material)
	// Members of one role keep sharing.
	assert.Same(t, host.Find("mask_clear").Material, host.Find("mask_solid").Material)

	assert.Zero(t, SplitSharedMaterials(host, sm.Classifier()), "already split")
}

func TestApplyEyeColors(t *testing.T) {
	sm := newTestSystems(t, nil)
	host := newAssetState(testbed.NewLure()).Host
	SplitSharedMaterials(host, sm.Classifier())

	eyes := config.EyeParams{White: "#ffffff", Iris: "#ff0000", Pupil: "#000000", Glow: 0.5}
	assert.Equal(t, 3, ApplyEyeColors(host, sm.Classifier(), eyes))

	iris := host.Find("eye_iris_l").Material
	assert.Equal(t, math.NewVec4(1, 0, 0, 1), iris.Color)
	assert.Equal(t, math.NewVec4(0.5, 0, 0, 1), iris.Emissive)
	assert.Equal(t, math.NewVec4One(), host.Find("eye_white_l").Material.Color)
	assert.Equal(t, math.NewVec4(0, 0, 0, 1), host.Find("eye_pupil_l").Material.Color)

	eyes.Glow = 0
	ApplyEyeColors(host, sm.Classifier(), eyes)
	assert.Equal(t, math.Vec4{}, iris.Emissive)
}

func TestApplyBaseColor(t *testing.T) {
	sm := newTestSystems(t, nil)
	host := newAssetState(testbed.NewLure()).Host
	SplitSharedMaterials(host, sm.Classifier())

	assert.Equal(t, 2, ApplyBaseColor(host, sm.Classifier(), "#336699"))
	want, err := config.ParseColor("#336699")
	require.NoError(t, err)
	assert.Equal(t, want, host.Find("body").Material.Color)

	lip := host.Find("lip_plate").Material
	assert.Equal(t, float32(1), lip.Metalness)
	assert.Equal(t, float32(0.1), lip.Roughness)
	assert.NotEqual(t, want, lip.Color)
	assert.NotEqual(t, want, host.Find("mask_clear").Material.Color)
	assert.NotEqual(t, want, host.Find("eye_white_l").Material.Color)
}
