package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/lurekit/engine/assets"
	"github.com/spaghettifunk/lurekit/engine/config"
	"github.com/spaghettifunk/lurekit/engine/containers"
	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/scene"
	"github.com/spaghettifunk/lurekit/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine has shut down
	EngineStageShutdown
)

// Capacity of the pending change queue. Overflow drops the oldest change
// and forces a full reload on the next pass.
const pendingQueueSize = 64

type changeKind uint8

const (
	changeParams changeKind = iota
	changeAssetReloaded
	changeAssetRemoved
)

type change struct {
	kind    changeKind
	params  config.Params
	path    string
	assetID string
}

// Engine serializes composition passes for one host. Parameter updates and
// asset reloads arrive from any goroutine, are queued, and coalesce into the
// next pass run by Run or Compose.
type Engine struct {
	currentStage Stage
	app          *Configurator
	cfg          *config.Config

	bus           *core.EventBus
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	jobSystem     *systems.JobSystem
	pipeline      *systems.CompositionPipeline

	pending      *containers.RingQueue[change]
	wake         chan struct{}
	fullReload   atomic.Bool
	isRunning    atomic.Bool
	shutdownOnce sync.Once

	// passMu serializes passes with each other and with Shutdown.
	passMu  sync.Mutex
	stopped bool

	// Pass state, guarded by passMu. params and lastResult are also
	// written under resultMu for readers outside the pass.
	params     config.Params
	base       *scene.Asset
	libraries  map[string]*scene.Asset
	lastResult *systems.Result
	resultMu   sync.RWMutex
}

func New(app *Configurator) (*Engine, error) {
	if app == nil || app.ApplicationConfig == nil {
		return nil, fmt.Errorf("engine.New requires an application config")
	}
	ac := app.ApplicationConfig

	cfg, err := config.Load(ac.ConfigPath)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	level := cfg.LogLevel
	if ac.LogLevel != "" {
		level = ac.LogLevel
	}
	core.SetLogLevel(core.ParseLogLevel(level))
	if ac.AssetsDir != "" {
		cfg.AssetsDir = ac.AssetsDir
	}

	bus := core.NewEventBus()
	am, err := assets.NewAssetManager(bus)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	sm, err := systems.NewSystemManager(cfg, am, am.LoadAsset)
	if err != nil {
		_ = am.Close()
		return nil, err
	}

	workers := ac.LoadWorkers
	if workers <= 0 {
		workers = 2
	}
	js, err := systems.NewJobSystem(workers, len(cfg.Families)+1)
	if err != nil {
		_ = am.Close()
		return nil, err
	}

	e := &Engine{
		currentStage:  EngineStageUninitialized,
		app:           app,
		cfg:           cfg,
		bus:           bus,
		assetManager:  am,
		systemManager: sm,
		jobSystem:     js,
		pipeline:      systems.NewCompositionPipeline(cfg, sm, systems.NewStateArena(), core.NewMetrics()),
		pending:       containers.NewRingQueue[change](pendingQueueSize),
		wake:          make(chan struct{}, 1),
		params:        app.Params,
		libraries:     make(map[string]*scene.Asset),
	}
	return e, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	// register some events
	e.bus.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.bus.Register(core.EVENT_CODE_PARAMS_CHANGED, e, e.onEvent)
	e.bus.Register(core.EVENT_CODE_ASSET_RELOADED, e, e.onAsset)
	e.bus.Register(core.EVENT_CODE_ASSET_REMOVED, e, e.onAsset)

	if err := e.assetManager.Initialize(e.cfg.AssetsDir); err != nil {
		return err
	}

	if path := e.app.ApplicationConfig.ParamsPath; path != "" {
		p, err := config.LoadParams(path)
		if err != nil {
			return err
		}
		e.resultMu.Lock()
		e.params = p
		e.resultMu.Unlock()
	}

	if err := e.loadAssets(); err != nil {
		return err
	}

	if e.app.FnInitialize != nil {
		if err := e.app.FnInitialize(e); err != nil {
			core.LogError("application failed to initialize: %s", err.Error())
			return err
		}
	}

	e.enqueue(change{kind: changeParams, params: e.Params()})
	e.currentStage = EngineStageInitialized
	core.LogInfo("%s initialized with assets from '%s'", e.app.ApplicationConfig.Name, e.assetManager.AssetsDir())
	return nil
}

// loadAssets fetches the base asset and every accessory library concurrently.
// A missing base asset fails; a missing library only empties its slots.
func (e *Engine) loadAssets() error {
	var mu sync.Mutex
	var baseErr error
	libraries := make(map[string]*scene.Asset)

	jobs := []systems.JobTask{{
		Name: "base:" + e.cfg.BaseAsset,
		OnStart: func() error {
			a, err := e.assetManager.LoadAsset(e.cfg.BaseAsset)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				baseErr = err
				return err
			}
			e.base = a
			return nil
		},
	}}
	for name, fam := range e.cfg.Families {
		name, fam := name, fam
		if fam.Library == "" {
			continue
		}
		jobs = append(jobs, systems.JobTask{
			Name: "library:" + fam.Library,
			OnStart: func() error {
				a, err := e.assetManager.LoadAsset(fam.Library)
				if err != nil {
					return err
				}
				mu.Lock()
				libraries[name] = a
				mu.Unlock()
				return nil
			},
			OnFailure: func(err error) {
				core.LogWarn("accessory family '%s' unavailable: %s", name, err.Error())
			},
		})
	}
	e.jobSystem.SubmitAll(jobs)

	if baseErr != nil {
		if e.base != nil && !errors.Is(baseErr, core.ErrAssetNotFound) {
			// Keep composing the previous template while the file is rewritten.
			core.LogWarn("keeping previous base asset: %s", baseErr.Error())
		} else {
			return baseErr
		}
	}
	e.libraries = libraries
	return nil
}

// SetParams schedules a pass with p. Safe to call from any goroutine.
func (e *Engine) SetParams(p config.Params) {
	e.bus.Fire(core.EVENT_CODE_PARAMS_CHANGED, e, core.EventContext{Data: p.Clone()})
}

// Quit stops Run after the current pass.
func (e *Engine) Quit() {
	e.bus.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
}

func (e *Engine) enqueue(c change) {
	if e.pending.Push(c) {
		core.LogWarn("pending change queue overflowed; the next pass reloads everything")
		e.fullReload.Store(true)
	}
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued changes.
func (e *Engine) Pending() int {
	return e.pending.Len()
}

// Compose drains every queued change into a single pass. It returns nil when
// nothing was pending, and ErrEngineShutdown once Shutdown has begun. The
// application callbacks run inside the pass and must not call Compose or
// Shutdown.
func (e *Engine) Compose() (*systems.Result, error) {
	e.passMu.Lock()
	defer e.passMu.Unlock()
	if e.stopped {
		return nil, core.ErrEngineShutdown
	}

	changes := e.pending.Drain()
	full := e.fullReload.Swap(false)
	if len(changes) == 0 && !full {
		return nil, nil
	}

	reload := full
	for _, c := range changes {
		switch c.kind {
		case changeParams:
			e.resultMu.Lock()
			e.params = c.params
			e.resultMu.Unlock()
		case changeAssetReloaded, changeAssetRemoved:
			if c.assetID != "" {
				e.pipeline.Invalidate(c.assetID)
			}
			reload = true
		}
	}
	if full && e.base != nil {
		e.pipeline.Invalidate(e.base.ID)
	}
	if reload {
		if err := e.loadAssets(); err != nil {
			core.LogError("failed to reload assets: %s", err.Error())
			return nil, err
		}
	}

	result := e.pipeline.Compose(e.base, e.libraries, e.Params())
	for _, w := range result.Warnings {
		core.LogDebug("pass warning: %s", w)
	}
	e.resultMu.Lock()
	e.lastResult = result
	e.resultMu.Unlock()

	e.bus.Fire(core.EVENT_CODE_COMPOSED, e, core.EventContext{Data: result})
	if e.app.FnOnComposed != nil {
		if err := e.app.FnOnComposed(result); err != nil {
			core.LogError("application rejected composed result: %s", err.Error())
			return result, err
		}
	}
	return result, nil
}

// Run composes whenever changes are pending until ctx is done or Quit is called.
func (e *Engine) Run(ctx context.Context) error {
	e.isRunning.Store(true)
	e.currentStage = EngineStageRunning
	defer e.isRunning.Store(false)

	for e.isRunning.Load() {
		select {
		case <-ctx.Done():
			return nil
		case <-e.wake:
			if _, err := e.Compose(); errors.Is(err, core.ErrEngineShutdown) {
				return nil
			} else if err != nil {
				core.LogError("composition pass failed: %s", err.Error())
			}
		}
	}
	return nil
}

func (e *Engine) Shutdown() error {
	var err error
	e.shutdownOnce.Do(func() {
		// Wait for a running pass; later passes see stopped and bail out.
		e.passMu.Lock()
		e.stopped = true
		e.passMu.Unlock()

		e.currentStage = EngineStageShuttingDown
		e.isRunning.Store(false)
		e.bus.Shutdown()
		e.pipeline.Release()
		if shutdownErr := e.jobSystem.Shutdown(); shutdownErr != nil {
			err = shutdownErr
		}
		if shutdownErr := e.systemManager.Shutdown(); shutdownErr != nil {
			err = shutdownErr
		}
		if shutdownErr := e.assetManager.Close(); shutdownErr != nil {
			err = shutdownErr
		}
		if e.app.FnShutdown != nil {
			if shutdownErr := e.app.FnShutdown(); shutdownErr != nil {
				err = shutdownErr
			}
		}
		e.currentStage = EngineStageShutdown
	})
	return err
}

// LastResult returns the most recent composition result.
func (e *Engine) LastResult() *systems.Result {
	e.resultMu.RLock()
	defer e.resultMu.RUnlock()
	return e.lastResult
}

// Params returns the parameters of the latest pass. Safe to call from any
// goroutine.
func (e *Engine) Params() config.Params {
	e.resultMu.RLock()
	defer e.resultMu.RUnlock()
	return e.params
}

func (e *Engine) Config() *config.Config {
	return e.cfg
}

func (e *Engine) Metrics() core.Snapshot {
	return e.pipeline.Metrics().Snapshot()
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning.Store(false)
		select {
		case e.wake <- struct{}{}:
		default:
		}
		return true
	case core.EVENT_CODE_PARAMS_CHANGED:
		p, ok := data.Data.(config.Params)
		if !ok {
			core.LogError("wrong payload associated with the event code `%d`", code)
			return false
		}
		e.enqueue(change{kind: changeParams, params: p})
		return true
	}
	return false
}

func (e *Engine) onAsset(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	kind := changeAssetReloaded
	if code == core.EVENT_CODE_ASSET_REMOVED {
		kind = changeAssetRemoved
	}
	e.enqueue(change{kind: kind, path: data.Path, assetID: data.AssetID})
	return true
}
