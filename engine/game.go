package engine

import (
	"github.com/spaghettifunk/lurekit/engine/config"
	"github.com/spaghettifunk/lurekit/engine/systems"
)

// Configurator is the application driving the engine: it provides the
// starting parameters and receives every composed result.
type Configurator struct {
	ApplicationConfig *ApplicationConfig
	// Params is the starting record when ApplicationConfig.ParamsPath is empty.
	Params       config.Params
	State        interface{}
	FnInitialize Initialize
	FnOnComposed OnComposed
	FnShutdown   Shutdown
}

type Initialize func(e *Engine) error
type OnComposed func(result *systems.Result) error
type Shutdown func() error
