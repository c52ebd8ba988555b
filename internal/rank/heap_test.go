package rank

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intLess(a, b int) bool { return a < b }

func TestHeapPollOrder(t *testing.T) {
	h := NewHeap(intLess)
	for _, v := range []int{3, 1, 4, 1, 5} {
		h.Add(v)
	}
	require.Equal(t, 5, h.Len())

	var got []int
	for {
		v, ok := h.Poll()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int{5, 4, 3, 1, 1}, got)
	assert.Equal(t, 0, h.Len())
}

func TestHeapPollEmptySignal(t *testing.T) {
	h := NewHeap(intLess)
	v, ok := h.Poll()
	assert.False(t, ok)
	assert.Equal(t, 0, v)
}

func TestPollSequenceMatchesSortDescending(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		items := make([]int, 200)
		for i := range items {
			items[i] = rng.Intn(50) // plenty of duplicates
		}

		h := NewHeap(intLess)
		for _, v := range items {
			h.Add(v)
		}
		polled := make([]int, 0, len(items))
		for {
			v, ok := h.Poll()
			if !ok {
				break
			}
			polled = append(polled, v)
		}

		sorted := append([]int(nil), items...)
		SortDescending(sorted, intLess)
		require.Equal(t, sorted, polled)
		require.True(t, sort.SliceIsSorted(sorted, func(i, j int) bool {
			return sorted[i] > sorted[j]
		}))
	}
}

func TestTopN(t *testing.T) {
	items := []int{3, 1, 4, 1, 5, 9, 2, 6}

	assert.Equal(t, []int{9, 6, 5}, TopN(3, items, intLess))
	assert.Equal(t, []int{9, 6, 5, 4, 3, 2, 1, 1}, TopN(20, items, intLess))
	assert.Empty(t, TopN(0, items, intLess))
	assert.Empty(t, TopN(3, nil, intLess))
}

func TestSortDescendingEdgeCases(t *testing.T) {
	var empty []int
	SortDescending(empty, intLess)
	assert.Empty(t, empty)

	single := []int{42}
	SortDescending(single, intLess)
	assert.Equal(t, []int{42}, single)

	same := []int{7, 7, 7}
	SortDescending(same, intLess)
	assert.Equal(t, []int{7, 7, 7}, same)
}

func TestHeapWithCallerSuppliedOrder(t *testing.T) {
	type expense struct {
		desc  string
		cents int64
	}
	byAmount := func(a, b expense) bool { return a.cents < b.cents }

	items := []expense{
		{"coffee", 180},
		{"rent", 85000},
		{"groceries", 6230},
	}
	top := TopN(2, items, byAmount)
	require.Len(t, top, 2)
	assert.Equal(t, "rent", top[0].desc)
	assert.Equal(t, "groceries", top[1].desc)
}
