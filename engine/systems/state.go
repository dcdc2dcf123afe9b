package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/math"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

type calibrationEntry struct {
	ratio float32
	ok    bool
}

// AssetState is the mutable per-asset-instance record owned by the pipeline:
// the host graph cloned from the base asset plus every cached derivation.
type AssetState struct {
	AssetID string
	// Host is the composed graph. The asset template is never mutated.
	Host *scene.Node

	ratios map[string]calibrationEntry

	// Normalized is set once the host was centred and scaled to display size.
	Normalized bool
	// RawExtents are the host bounds before normalization, references excluded.
	RawExtents math.Extents3D
	// BaseExtents are the bounds after normalization and before any size scale.
	BaseExtents math.Extents3D
	// NormalizeScale is the uniform factor applied by normalization.
	NormalizeScale float32
	// SizeScale is the size category multiplier currently applied to Host.
	SizeScale float32

	metadata *Metadata
}

func newAssetState(asset *scene.Asset) *AssetState {
	host := asset.Root.Clone()
	host.CloneMaterials()
	return &AssetState{
		AssetID:        asset.ID,
		Host:           host,
		ratios:         make(map[string]calibrationEntry),
		NormalizeScale: 1,
		SizeScale:      1,
	}
}

// CachedRatio returns the calibration cached for a variant hint.
func (st *AssetState) CachedRatio(variantHint string) (ratio float32, ok bool, cached bool) {
	e, cached := st.ratios[variantHint]
	return e.ratio, e.ok, cached
}

type stateLookup struct {
	state          *AssetState
	referenceCount int
}

// StateArena holds one AssetState per loaded asset instance. A state lives
// until its last reference is released or the asset is reloaded.
type StateArena struct {
	mu     sync.Mutex
	lookup map[string]*stateLookup
}

func NewStateArena() *StateArena {
	return &StateArena{lookup: make(map[string]*stateLookup)}
}

/**
 * @brief Acquires the state of the given asset instance.
 * If one does not exist yet, a new one is created with a fresh host clone.
 * Internal reference counter is incremented.
 */
func (a *StateArena) Acquire(asset *scene.Asset) (*AssetState, error) {
	if asset == nil || asset.Root == nil {
		return nil, fmt.Errorf("cannot acquire state for an empty asset")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.lookup[asset.ID]
	if !ok {
		core.LogDebug("creating state for asset '%s' (%s)", asset.Path, asset.ID)
		l = &stateLookup{state: newAssetState(asset)}
		a.lookup[asset.ID] = l
	}
	l.referenceCount++
	return l.state, nil
}

// Get returns the state of an asset instance without touching its reference count.
func (a *StateArena) Get(assetID string) (*AssetState, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.lookup[assetID]
	if !ok {
		return nil, false
	}
	return l.state, true
}

/**
 * @brief Releases the state with the given asset id. Internal reference
 * counter is decremented. If this reaches 0, the state is destroyed.
 */
func (a *StateArena) Release(assetID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.lookup[assetID]
	if !ok {
		core.LogWarn("StateArena.Release failed lookup for '%s'. Nothing was done.", assetID)
		return
	}
	l.referenceCount--
	if l.referenceCount < 1 {
		delete(a.lookup, assetID)
	}
}

// Drop destroys the state regardless of its reference count.
func (a *StateArena) Drop(assetID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.lookup[assetID]; !ok {
		return false
	}
	delete(a.lookup, assetID)
	return true
}

func (a *StateArena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.lookup)
}
