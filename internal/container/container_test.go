package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackPushPop(t *testing.T) {
	s := NewStack[int]()
	for i := 1; i <= 100; i++ {
		s.Push(i)
	}
	assert.Equal(t, 100, s.Len())

	top, err := s.Peek()
	require.NoError(t, err)
	assert.Equal(t, 100, top)

	for i := 100; i >= 1; i-- {
		v, err := s.Pop()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 0, s.Len())
}

func TestStackEmptyReturnsError(t *testing.T) {
	s := NewStack[string]()

	_, err := s.Pop()
	assert.ErrorIs(t, err, ErrEmptyStack)

	_, err = s.Peek()
	assert.ErrorIs(t, err, ErrEmptyStack)

	// The stack stays usable after an empty pop.
	s.Push("a")
	v, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestQueueOrdering(t *testing.T) {
	q := NewQueue[int]()
	for i := 1; i <= 50; i++ {
		q.Enqueue(i)
	}
	for i := 1; i <= 50; i++ {
		v, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.Dequeue()
	assert.False(t, ok, "dequeue on empty must signal absence, not error")
}

func TestQueueEmptySignal(t *testing.T) {
	q := NewQueue[string]()
	v, ok := q.Dequeue()
	assert.False(t, ok)
	assert.Equal(t, "", v)
}

// Interleaved enqueue/dequeue forces the head away from index zero so
// growth has to re-base a wrapped buffer.
func TestQueueGrowthRebasesWrappedBuffer(t *testing.T) {
	q := NewQueue[int]()
	next := 0
	expect := 0
	for round := 0; round < 10; round++ {
		for i := 0; i < 7; i++ {
			q.Enqueue(next)
			next++
		}
		for i := 0; i < 3; i++ {
			v, ok := q.Dequeue()
			require.True(t, ok)
			require.Equal(t, expect, v)
			expect++
		}
	}
	for q.Len() > 0 {
		v, ok := q.Dequeue()
		require.True(t, ok)
		require.Equal(t, expect, v)
		expect++
	}
	assert.Equal(t, next, expect)
}
