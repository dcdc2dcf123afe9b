package core

import (
	"errors"
)

// Composition taxonomy. None of these abort a pass; the component that detects
// one logs it and carries on with a degraded result.
var (
	ErrMissingCalibrationReference = errors.New("no calibration reference found")
	ErrUnresolvedAccessoryAnchor   = errors.New("accessory anchor not found")
	ErrMissingSocket               = errors.New("socket not found in host graph")
	ErrInvalidVariantKey           = errors.New("unknown accessory variant key")
)

// Loading errors. These propagate to the caller.
var (
	ErrAssetNotFound    = errors.New("asset not found")
	ErrUnknownAssetType = errors.New("unknown asset type")
	ErrManagerClosed    = errors.New("asset manager already closed")
	ErrUnknown          = errors.New("unknown")
)

// ErrEngineShutdown is returned by passes requested after shutdown.
var ErrEngineShutdown = errors.New("engine has shut down")
