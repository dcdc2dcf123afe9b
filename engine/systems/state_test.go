package systems

import (
	"testing"

	"github.com/spaghettifunk/lurekit/testbed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateArenaReferenceCounting(t *testing.T) {
	arena := NewStateArena()
	lure := testbed.NewLure()

	first, err := arena.Acquire(lure)
	require.NoError(t, err)
	second, err := arena.Acquire(lure)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, arena.Len())

	arena.Release(lure.ID)
	got, ok := arena.Get(lure.ID)
	require.True(t, ok)
	assert.Same(t, first, got)

	arena.Release(lure.ID)
	_, ok = arena.Get(lure.ID)
	assert.False(t, ok)
	assert.Zero(t, arena.Len())

	arena.Release("unknown")
	assert.False(t, arena.Drop("unknown"))
}

func TestStateArenaDrop(t *testing.T) {
	arena := NewStateArena()
	lure := testbed.NewLure()
	first, err := arena.Acquire(lure)
	require.NoError(t, err)
	_, err = arena.Acquire(lure)
	require.NoError(t, err)

	assert.True(t, arena.Drop(lure.ID))
	fresh, err := arena.Acquire(lure)
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)

	_, err = arena.Acquire(nil)
	assert.Error(t, err)
}

func TestAssetStateClonesTemplate(t *testing.T) {
	lure := testbed.NewLure()
	st := newAssetState(lure)

	assert.Equal(t, lure.ID, st.AssetID)
	assert.NotSame(t, lure.Root, st.Host)
	assert.Equal(t, float32(1), st.SizeScale)
	assert.False(t, st.Normalized)

	body := st.Host.Find("body")
	require.NotNil(t, body)
	assert.NotSame(t, lure.Node("body").Material, body.Material)
	assert.Same(t, lure.Node("body").Mesh, body.Mesh)

	// Materials shared in the template stay shared within the host.
	assert.Same(t, st.Host.Find("eye_white_l").Material, st.Host.Find("eye_pupil_l").Material)
}
