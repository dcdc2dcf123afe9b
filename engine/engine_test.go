package engine_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spaghettifunk/lurekit/engine"
	"github.com/spaghettifunk/lurekit/engine/config"
	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/systems"
	"github.com/spaghettifunk/lurekit/testbed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func newConfigurator(dir string) *engine.Configurator {
	return &engine.Configurator{
		ApplicationConfig: &engine.ApplicationConfig{Name: "test", AssetsDir: dir, LogLevel: "error"},
		Params:            config.DefaultParams(),
	}
}

func newEngine(t *testing.T, app *engine.Configurator) *engine.Engine {
	t.Helper()
	e, err := engine.New(app)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown() })
	return e
}

func sampleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, testbed.WriteAssets(dir))
	return dir
}

func TestNewRequiresApplicationConfig(t *testing.T) {
	_, err := engine.New(nil)
	assert.Error(t, err)
	_, err = engine.New(&engine.Configurator{})
	assert.Error(t, err)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lurekit.toml")
	require.NoError(t, os.WriteFile(path, []byte("display_size = -1\n"), 0644))
	app := newConfigurator(dir)
	app.ApplicationConfig.ConfigPath = path
	_, err := engine.New(app)
	assert.Error(t, err)
}

func TestInitializeAndCompose(t *testing.T) {
	app := newConfigurator(sampleDir(t))
	var composed atomic.Int32
	app.FnOnComposed = func(*systems.Result) error {
		composed.Add(1)
		return nil
	}
	e := newEngine(t, app)
	assert.Equal(t, engine.EngineStageUninitialized, e.Stage())

	require.NoError(t, e.Initialize())
	assert.Equal(t, engine.EngineStageInitialized, e.Stage())
	assert.Equal(t, 1, e.Pending())

	res, err := e.Compose()
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Same(t, res, e.LastResult())
	assert.InDelta(t, 3.0, res.Dimensions.LengthCm, 1e-4)
	assert.Equal(t, "Shad Runner", res.Metadata.Name)
	assert.Len(t, res.Attached, 3)
	assert.Equal(t, int32(1), composed.Load())
	assert.Equal(t, uint64(1), e.Metrics().Passes)

	res, err = e.Compose()
	assert.NoError(t, err)
	assert.Nil(t, res, "nothing pending")
	assert.Equal(t, int32(1), composed.Load())
}

func TestSetParamsCoalesces(t *testing.T) {
	app := newConfigurator(sampleDir(t))
	var composed atomic.Int32
	app.FnOnComposed = func(*systems.Result) error {
		composed.Add(1)
		return nil
	}
	e := newEngine(t, app)
	require.NoError(t, e.Initialize())

	for _, size := range []string{"L", "M", "XL"} {
		p := config.DefaultParams()
		p.Size = size
		e.SetParams(p)
	}
	assert.Equal(t, 4, e.Pending())

	res, err := e.Compose()
	require.NoError(t, err)
	assert.Equal(t, "XL", res.Size)
	assert.Equal(t, "XL", e.Params().Size)
	assert.InDelta(t, 4.5, res.Dimensions.LengthCm, 1e-4)
	assert.Equal(t, int32(1), composed.Load())
	assert.Zero(t, e.Pending())
}

func TestOverflowForcesFullReload(t *testing.T) {
	e := newEngine(t, newConfigurator(sampleDir(t)))
	require.NoError(t, e.Initialize())
	first, err := e.Compose()
	require.NoError(t, err)

	// One more change than the queue holds.
	for i := 0; i <= 64; i++ {
		p := config.DefaultParams()
		p.Size = "L"
		e.SetParams(p)
	}
	assert.Equal(t, 64, e.Pending())

	res, err := e.Compose()
	require.NoError(t, err)
	assert.Equal(t, "L", res.Size)
	assert.NotSame(t, first.Scene, res.Scene)
}

func TestComposeAfterShutdown(t *testing.T) {
	e := newEngine(t, newConfigurator(sampleDir(t)))
	require.NoError(t, e.Initialize())

	p := config.DefaultParams()
	p.Size = "L"
	e.SetParams(p)
	require.NoError(t, e.Shutdown())

	var res *systems.Result
	var err error
	assert.NotPanics(t, func() { res, err = e.Compose() })
	assert.ErrorIs(t, err, core.ErrEngineShutdown)
	assert.Nil(t, res)
}

func TestComposeAfterShutdownWithOverflow(t *testing.T) {
	e := newEngine(t, newConfigurator(sampleDir(t)))
	require.NoError(t, e.Initialize())
	for i := 0; i <= 64; i++ {
		e.SetParams(config.DefaultParams())
	}
	require.NoError(t, e.Shutdown())

	assert.NotPanics(t, func() {
		_, err := e.Compose()
		assert.ErrorIs(t, err, core.ErrEngineShutdown)
	})
}

func TestParamsReadableDuringRun(t *testing.T) {
	e := newEngine(t, newConfigurator(sampleDir(t)))
	require.NoError(t, e.Initialize())

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	stop := make(chan struct{})
	read := make(chan struct{})
	go func() {
		defer close(read)
		for {
			select {
			case <-stop:
				return
			default:
			}
			size := e.Params().Size
			if size != "M" && size != "L" {
				t.Errorf("unexpected size %q", size)
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		p := config.DefaultParams()
		if i%2 == 0 {
			p.Size = "L"
		}
		e.SetParams(p)
		time.Sleep(time.Millisecond)
	}
	close(stop)
	<-read

	e.Quit()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestParamsFile(t *testing.T) {
	dir := sampleDir(t)
	p := config.DefaultParams()
	p.Size = "L"
	p.Accessories = map[string]string{"bill": "none"}
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, config.SaveParams(p, path))

	app := newConfigurator(dir)
	app.ApplicationConfig.ParamsPath = path
	e := newEngine(t, app)
	require.NoError(t, e.Initialize())
	res, err := e.Compose()
	require.NoError(t, err)
	assert.Equal(t, "L", res.Size)
	_, ok := res.Attached["bill"]
	assert.False(t, ok)
}

func TestInitializeWithoutBaseAsset(t *testing.T) {
	e := newEngine(t, newConfigurator(t.TempDir()))
	err := e.Initialize()
	assert.ErrorIs(t, err, core.ErrAssetNotFound)
}

func TestInitializeWithoutLibraries(t *testing.T) {
	dir := sampleDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, testbed.HooksFile)))
	e := newEngine(t, newConfigurator(dir))
	require.NoError(t, e.Initialize())

	res, err := e.Compose()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"bill": "short"}, res.Attached)
}

func TestApplicationCallbacks(t *testing.T) {
	boom := errors.New("boom")
	app := newConfigurator(sampleDir(t))
	app.FnInitialize = func(*engine.Engine) error { return boom }
	e := newEngine(t, app)
	assert.ErrorIs(t, e.Initialize(), boom)

	app = newConfigurator(sampleDir(t))
	var shutdowns atomic.Int32
	app.FnOnComposed = func(*systems.Result) error { return boom }
	app.FnShutdown = func() error {
		shutdowns.Add(1)
		return nil
	}
	e, err := engine.New(app)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	res, err := e.Compose()
	assert.ErrorIs(t, err, boom)
	assert.NotNil(t, res)

	require.NoError(t, e.Shutdown())
	require.NoError(t, e.Shutdown())
	assert.Equal(t, engine.EngineStageShutdown, e.Stage())
	assert.Equal(t, int32(1), shutdowns.Load())
}

func TestRunStopsOnCancel(t *testing.T) {
	e := newEngine(t, newConfigurator(sampleDir(t)))
	require.NoError(t, e.Initialize())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, e.Run(ctx))
}

func TestRunUntilQuit(t *testing.T) {
	app := newConfigurator(sampleDir(t))
	composed := make(chan *systems.Result, 8)
	app.FnOnComposed = func(r *systems.Result) error {
		select {
		case composed <- r:
		default:
		}
		return nil
	}
	e := newEngine(t, app)
	require.NoError(t, e.Initialize())

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	select {
	case r := <-composed:
		assert.Equal(t, "M", r.Size)
	case <-time.After(5 * time.Second):
		t.Fatal("no pass ran")
	}

	p := config.DefaultParams()
	p.Size = "L"
	e.SetParams(p)
	select {
	case r := <-composed:
		assert.Equal(t, "L", r.Size)
	case <-time.After(5 * time.Second):
		t.Fatal("parameter change was not composed")
	}

	e.Quit()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestReloadOnAssetChange(t *testing.T) {
	dir := sampleDir(t)
	e := newEngine(t, newConfigurator(dir))
	require.NoError(t, e.Initialize())
	first, err := e.Compose()
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, testbed.LureFile))
	require.NoError(t, err)
	edited := strings.Replace(string(data), "name: Shad Runner", "name: Deep Runner", 1)
	staging := filepath.Join(t.TempDir(), testbed.LureFile)
	require.NoError(t, os.WriteFile(staging, []byte(edited), 0644))
	require.NoError(t, os.Rename(staging, filepath.Join(dir, testbed.LureFile)))

	assert.Eventually(t, func() bool { return e.Pending() > 0 }, 5*time.Second, 20*time.Millisecond)
	res, err := e.Compose()
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "Deep Runner", res.Metadata.Name)
	assert.NotSame(t, first.Scene, res.Scene)
	assert.InDelta(t, 3.0, res.Dimensions.LengthCm, 1e-4)
}
