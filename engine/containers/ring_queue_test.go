package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueOverwritesOldest(t *testing.T) {
	rq := NewRingQueue[int](3)
	for i := 1; i <= 5; i++ {
		rq.Push(i)
	}
	require.True(t, rq.IsFull())

	var got []int
	rq.Each(func(v int) { got = append(got, v) })
	assert.Equal(t, []int{3, 4, 5}, got)

	v, err := rq.Pop()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, rq.Len())
}

func TestRingQueuePopEmpty(t *testing.T) {
	rq := NewRingQueue[string](2)
	_, err := rq.Pop()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}
