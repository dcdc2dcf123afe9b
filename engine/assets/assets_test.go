package assets

import (
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lureYAML = `
root:
  name: lure
  children:
    - name: body
      mesh: { box: [8, 2, 1.5] }
`

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func newManager(t *testing.T) (*AssetManager, *core.EventBus, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lure.lure.yaml"), []byte(lureYAML), 0644))

	bus := core.NewEventBus()
	am, err := NewAssetManager(bus)
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir))
	t.Cleanup(func() { _ = am.Close() })
	return am, bus, dir
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
	require.NoError(t, f.Close())
}

func TestLoadAssetIsCached(t *testing.T) {
	am, _, dir := newManager(t)

	first, err := am.LoadAsset("lure.lure.yaml")
	require.NoError(t, err)
	second, err := am.LoadAsset(filepath.Join(dir, "lure.lure.yaml"))
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.NotNil(t, first.Node("body"))
	assert.Equal(t, dir, am.AssetsDir())
}

func TestLoadAssetNotFound(t *testing.T) {
	am, _, _ := newManager(t)
	_, err := am.LoadAsset("missing.lure.yaml")
	assert.ErrorIs(t, err, core.ErrAssetNotFound)
}

func TestLoadTexture(t *testing.T) {
	am, _, dir := newManager(t)
	writePNG(t, filepath.Join(dir, TexturesDir, "scales.png"), 16, 8)

	tex, err := am.LoadTexture("scales")
	require.NoError(t, err)
	assert.Equal(t, 16, tex.Width)

	got, ok := am.Texture("scales")
	require.True(t, ok)
	assert.Same(t, tex, got)

	_, ok = am.Texture("missing")
	assert.False(t, ok)
	_, err = am.LoadTexture(" ")
	assert.ErrorIs(t, err, core.ErrAssetNotFound)
}

func TestHandleFileEventEvictsAndNotifies(t *testing.T) {
	am, bus, dir := newManager(t)
	path := filepath.Join(dir, "lure.lure.yaml")

	first, err := am.LoadAsset(path)
	require.NoError(t, err)

	var got core.EventContext
	bus.Register(core.EVENT_CODE_ASSET_RELOADED, t, func(_ core.SystemEventCode, _ interface{}, _ interface{}, data core.EventContext) bool {
		got = data
		return true
	})

	am.handleFileEvent(path)
	assert.Equal(t, path, got.Path)
	assert.Equal(t, first.ID, got.AssetID)

	second, err := am.LoadAsset(path)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.ID, second.ID)

	// A file that was never loaded has nothing stale to report.
	got = core.EventContext{}
	am.handleFileEvent(filepath.Join(dir, "other.lure.yaml"))
	assert.Empty(t, got.Path)
}

func TestRemoveAssetNotifies(t *testing.T) {
	am, bus, dir := newManager(t)
	path := filepath.Join(dir, "lure.lure.yaml")
	asset, err := am.LoadAsset(path)
	require.NoError(t, err)

	var removed string
	bus.Register(core.EVENT_CODE_ASSET_REMOVED, t, func(_ core.SystemEventCode, _ interface{}, _ interface{}, data core.EventContext) bool {
		removed = data.AssetID
		return true
	})
	am.removeAsset(path)
	assert.Equal(t, asset.ID, removed)
}

func TestWatcherReportsChanges(t *testing.T) {
	am, bus, dir := newManager(t)
	path := filepath.Join(dir, "lure.lure.yaml")
	_, err := am.LoadAsset(path)
	require.NoError(t, err)

	var fired atomic.Bool
	bus.Register(core.EVENT_CODE_ASSET_RELOADED, t, func(core.SystemEventCode, interface{}, interface{}, core.EventContext) bool {
		fired.Store(true)
		return true
	})

	require.NoError(t, os.WriteFile(path, []byte(lureYAML+"      visible: false\n"), 0644))
	assert.Eventually(t, fired.Load, 5*time.Second, 20*time.Millisecond)
}

func TestClosedManager(t *testing.T) {
	am, _, _ := newManager(t)
	require.NoError(t, am.Close())
	require.NoError(t, am.Close())

	_, err := am.LoadAsset("lure.lure.yaml")
	assert.ErrorIs(t, err, core.ErrManagerClosed)
}

func TestDetermineAssetType(t *testing.T) {
	tests := map[string]resources.ResourceType{
		"lure.lure.yaml":  resources.ResourceTypeScene,
		"textures/a.jpeg": resources.ResourceTypeTexture,
		"lurekit.toml":    resources.ResourceTypeNone,
		"notes.txt":       resources.ResourceTypeNone,
		"params.yaml":     resources.ResourceTypeNone,
	}
	for path, want := range tests {
		assert.Equal(t, want, determineAssetType(path), path)
	}
}
