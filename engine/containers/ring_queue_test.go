package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRingQueueFIFO(t *testing.T) {
	q := NewRingQueue[int](3)
	require.True(t, q.IsEmpty())

	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	require.NoError(t, q.Enqueue(3))
	assert.True(t, q.IsFull())
	assert.ErrorIs(t, q.Enqueue(4), ErrQueueFull)

	front, err := q.Peek()
	require.NoError(t, err)
	assert.Equal(t, 1, front)

	v, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, q.Len())
}

func TestRingQueueEmpty(t *testing.T) {
	q := NewRingQueue[string](0)
	_, err := q.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
	_, err = q.Peek()
	assert.ErrorIs(t, err, ErrQueueEmpty)
	assert.Empty(t, q.Drain())
}

func TestRingQueuePushDropsOldest(t *testing.T) {
	q := NewRingQueue[int](2)
	assert.False(t, q.Push(1))
	assert.False(t, q.Push(2))
	assert.True(t, q.Push(3))
	assert.Equal(t, []int{2, 3}, q.Drain())
	assert.True(t, q.IsEmpty())
}

func TestRingQueueKeepsNewestPushes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.IntRange(1, 8).Draw(rt, "size")
		values := rapid.SliceOf(rapid.Int()).Draw(rt, "values")

		q := NewRingQueue[int](size)
		dropped := 0
		for _, v := range values {
			if q.Push(v) {
				dropped++
			}
		}

		want := values
		if len(values) > size {
			want = values[len(values)-size:]
		}
		assert.Equal(rt, len(values)-len(want), dropped)
		got := q.Drain()
		if len(want) == 0 {
			assert.Empty(rt, got)
			return
		}
		assert.Equal(rt, want, got)
	})
}
