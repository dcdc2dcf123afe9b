package systems

import (
	"testing"

	"github.com/spaghettifunk/lurekit/engine/config"
	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/math"
	"github.com/spaghettifunk/lurekit/engine/scene"
	"github.com/spaghettifunk/lurekit/testbed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, cfg *config.Config) *CompositionPipeline {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	return NewCompositionPipeline(cfg, newTestSystems(t, cfg), nil, nil)
}

func TestComposeSampleLure(t *testing.T) {
	cp := newTestPipeline(t, nil)
	base := testbed.NewLure()
	res := cp.Compose(base, testbed.Libraries(), config.DefaultParams())

	require.NotNil(t, res.Scene)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "M", res.Size)

	d := res.Dimensions
	assert.True(t, d.Calibrated)
	assert.False(t, d.Approximate)
	assert.InDelta(t, 2, d.Ratio, 1e-5)
	assert.InDelta(t, 3.0, d.LengthCm, 1e-4)
	assert.InDelta(t, 0.75, d.HeightCm, 1e-4)
	assert.InDelta(t, 0.5625, d.WidthCm, 1e-4)

	assert.True(t, res.HasAccessorySocket)
	assert.Equal(t, Metadata{
		Name:         "Shad Runner",
		Manufacturer: "Lurekit Tackle",
		Model:        "SR-8",
		Description:  "Shallow diving crankbait with interchangeable trebles.",
	}, res.Metadata)
	assert.Equal(t, map[string]string{"belly_hook": "4", "tail_hook": "4", "bill": "short"}, res.Attached)

	assert.False(t, res.Scene.Find("calibration_reference").Visible)
	assert.Equal(t, uint64(1), cp.Metrics().Snapshot().Passes)
}

func TestComposeShadesGenericBody(t *testing.T) {
	cp := newTestPipeline(t, nil)
	res := cp.Compose(testbed.NewLure(), testbed.Libraries(), config.DefaultParams())

	body := res.Scene.Find("body").Material
	require.Equal(t, scene.MaterialGradient, body.Kind)
	assert.InDelta(t, -0.1875, body.Gradient.BoundsMin, 1e-5)
	assert.InDelta(t, 0.1875, body.Gradient.BoundsMax, 1e-5)
	assert.Equal(t, scene.MaterialStandard, res.Scene.Find("lip_plate").Material.Kind)
	assert.Equal(t, scene.MaterialStandard, res.Scene.Find("eye_iris_l").Material.Kind)
}

func TestComposeGradientTargetsFilter(t *testing.T) {
	cp := newTestPipeline(t, nil)
	p := config.DefaultParams()
	p.Gradient.Targets = []string{"nothing-matches"}
	res := cp.Compose(testbed.NewLure(), testbed.Libraries(), p)
	assert.Equal(t, scene.MaterialStandard, res.Scene.Find("body").Material.Kind)
}

func TestComposeAccessoryKeys(t *testing.T) {
	cp := newTestPipeline(t, nil)
	libs := testbed.Libraries()
	p := config.DefaultParams()
	base := testbed.NewLure()
	p.Accessories = map[string]string{"belly_hook": "X", "tail_hook": "6", "bill": "long"}
	res := cp.Compose(base, libs, p)

	assert.Equal(t, map[string]string{"belly_hook": "4", "tail_hook": "6", "bill": "long"}, res.Attached)
	belly := cp.systems.attacher.Attached(res.Scene, "socket_belly")
	require.NotNil(t, belly)
	assert.Equal(t, []string{"hook_4_eye", "hook_4_shank", "hook_4_bend"}, visibleMeshNames(belly))

	p.Accessories["bill"] = "None"
	res = cp.Compose(base, libs, p)
	_, ok := res.Attached["bill"]
	assert.False(t, ok)
	assert.Nil(t, cp.systems.attacher.Attached(res.Scene, "socket_bill"))
	require.NotNil(t, res.Scene.Find("bill_mount"), "authored children stay")
}

func TestComposeSizeChange(t *testing.T) {
	cp := newTestPipeline(t, nil)
	base := testbed.NewLure()
	libs := testbed.Libraries()
	p := config.DefaultParams()

	res := cp.Compose(base, libs, p)
	mBelly := visibleBounds(cp.systems.attacher.Attached(res.Scene, "socket_belly")).Size()

	p.Size = "L"
	res = cp.Compose(base, libs, p)
	assert.Equal(t, "L", res.Size)
	assert.InDelta(t, 3.75, res.Dimensions.LengthCm, 1e-4)
	assert.True(t, res.Scene.Find("socket_tail_l").Visible)
	assert.False(t, res.Scene.Find("socket_tail_m").Visible)

	lBelly := visibleBounds(cp.systems.attacher.Attached(res.Scene, "socket_belly")).Size()
	assert.InDelta(t, mBelly.X, lBelly.X, 1e-4)
	assert.InDelta(t, mBelly.Y, lBelly.Y, 1e-4)
	assert.InDelta(t, mBelly.Z, lBelly.Z, 1e-4)

	p.Size = "M"
	res = cp.Compose(base, libs, p)
	assert.InDelta(t, 3.0, res.Dimensions.LengthCm, 1e-4)
}

func TestComposeIsRepeatable(t *testing.T) {
	cp := newTestPipeline(t, nil)
	base := testbed.NewLure()
	libs := testbed.Libraries()
	templateNames := visibleMeshNames(libs["hooks"].Root)

	first := cp.Compose(base, libs, config.DefaultParams())
	names := visibleMeshNames(first.Scene)
	for i := 0; i < 3; i++ {
		res := cp.Compose(base, libs, config.DefaultParams())
		assert.Same(t, first.Scene, res.Scene)
		assert.Equal(t, first.Dimensions, res.Dimensions)
		assert.Equal(t, names, visibleMeshNames(res.Scene))
		assert.Len(t, attachedChildren(res.Scene.Find("socket_belly")), 1)
	}
	assert.Equal(t, templateNames, visibleMeshNames(libs["hooks"].Root))
	assert.Nil(t, base.Root.Find("body").Material.Gradient, "template untouched")
}

func TestComposeWithoutCalibrationReference(t *testing.T) {
	cfg := config.Default()
	base := newAsset("plain.lure.yaml", boxNode("body", math.NewVec3(8, 2, 1), math.NewVec3Zero()))

	res := newTestPipeline(t, cfg).Compose(base, nil, config.DefaultParams())
	assert.Contains(t, res.Warnings, core.ErrMissingCalibrationReference.Error())
	assert.False(t, res.Dimensions.Calibrated)
	assert.Zero(t, res.Dimensions.LengthCm)
	assert.False(t, res.HasAccessorySocket)
	assert.Empty(t, res.Attached)

	cfg = config.Default()
	cfg.Calibration.DefaultRatio = 1
	res = newTestPipeline(t, cfg).Compose(base, nil, config.DefaultParams())
	assert.True(t, res.Dimensions.Approximate)
	assert.InDelta(t, 1.5, res.Dimensions.LengthCm, 1e-5)
	assert.InDelta(t, 0.375, res.Dimensions.HeightCm, 1e-5)
}

func TestComposeUnknownSize(t *testing.T) {
	cp := newTestPipeline(t, nil)
	p := config.DefaultParams()
	p.Size = "XXL"
	res := cp.Compose(testbed.NewLure(), testbed.Libraries(), p)
	assert.Equal(t, "M", res.Size)
	assert.Contains(t, res.Warnings, "unknown size 'XXL', using 'M'")
	assert.InDelta(t, 3.0, res.Dimensions.LengthCm, 1e-4)
}

func TestComposeWithoutBase(t *testing.T) {
	cp := newTestPipeline(t, nil)
	res := cp.Compose(nil, nil, config.DefaultParams())
	assert.Nil(t, res.Scene)
	assert.Equal(t, []string{"no base asset"}, res.Warnings)
}

func TestComposeUnresolvedLibrary(t *testing.T) {
	cp := newTestPipeline(t, nil)
	libs := testbed.Libraries()
	libs["bills"] = newAsset("empty.lure.yaml", boxNode("plate", math.NewVec3One(), math.NewVec3Zero()))
	res := cp.Compose(testbed.NewLure(), libs, config.DefaultParams())

	_, ok := res.Attached["bill"]
	assert.False(t, ok)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], core.ErrUnresolvedAccessoryAnchor.Error())
	assert.Equal(t, uint64(1), cp.Metrics().Snapshot().UnresolvedAnchors)
}

func TestInvalidateRebuildsState(t *testing.T) {
	cp := newTestPipeline(t, nil)
	base := testbed.NewLure()
	first := cp.Compose(base, nil, config.DefaultParams())
	require.Equal(t, 1, cp.Arena().Len())

	cp.Invalidate(base.ID)
	assert.Zero(t, cp.Arena().Len())
	second := cp.Compose(base, nil, config.DefaultParams())
	assert.NotSame(t, first.Scene, second.Scene)
	assert.Equal(t, first.Dimensions, second.Dimensions)

	other := testbed.NewLure()
	cp.Compose(other, nil, config.DefaultParams())
	assert.Equal(t, 1, cp.Arena().Len(), "previous host released")
	cp.Release()
	assert.Zero(t, cp.Arena().Len())
}

func TestReadMetadata(t *testing.T) {
	root := scene.NewNode("root")
	root.SetProperty("Name", "First")
	child := scene.NewNode("child")
	child.SetProperty("name", "Second")
	child.SetProperty("MODEL", 42)
	root.AddChild(child)

	md := readMetadata(root)
	assert.Equal(t, "First", md.Name)
	assert.Equal(t, "42", md.Model)
	assert.Empty(t, md.Manufacturer)
}

func TestDimensionsAxes(t *testing.T) {
	cp := newTestPipeline(t, nil)
	cases := []struct {
		size           math.Vec3
		length, height float32
		width          float32
	}{
		{math.NewVec3(3, 1, 2), 3, 1, 2},
		{math.NewVec3(1, 3, 2), 3, 2, 1},
		{math.NewVec3(1, 2, 3), 3, 2, 1},
	}
	for _, tc := range cases {
		st := &AssetState{BaseExtents: math.NewExtents3DFromSize(tc.size), SizeScale: 1}
		d := cp.dimensions(st, 1, true)
		assert.InDelta(t, tc.length, d.LengthCm, 1e-6, "%v", tc.size)
		assert.InDelta(t, tc.height, d.HeightCm, 1e-6, "%v", tc.size)
		assert.InDelta(t, tc.width, d.WidthCm, 1e-6, "%v", tc.size)
	}
}
