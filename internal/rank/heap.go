// Package rank provides the binary max-heap and heapsort used to rank
// expenses by amount. The ordering is supplied by the caller as a less
// function, so the same heap ranks cents, dates, or anything else with a
// total order.
package rank

// Heap is a binary max-heap stored as a dense array. less reports
// whether a ranks strictly below b; every stored element ranks at or
// above both of its children.
type Heap[T any] struct {
	items []T
	less  func(a, b T) bool
}

// NewHeap returns an empty heap ordered by less.
func NewHeap[T any](less func(a, b T) bool) *Heap[T] {
	return &Heap[T]{less: less}
}

// Add inserts v, sifting it up past any lower-ranked ancestor. O(log n).
func (h *Heap[T]) Add(v T) {
	h.items = append(h.items, v)
	h.siftUp(len(h.items) - 1)
}

// Poll removes and returns the maximum element. On an empty heap it
// returns the zero value and false; unlike the stack, an empty heap is
// not an error. O(log n).
func (h *Heap[T]) Poll() (T, bool) {
	var zero T
	if len(h.items) == 0 {
		return zero, false
	}
	top := h.items[0]
	last := len(h.items) - 1
	h.items[0] = h.items[last]
	h.items[last] = zero
	h.items = h.items[:last]
	if last > 0 {
		h.siftDown(0, last)
	}
	return top, true
}

// Len returns the number of stored elements.
func (h *Heap[T]) Len() int {
	return len(h.items)
}

func (h *Heap[T]) siftUp(j int) {
	for j > 0 {
		parent := (j - 1) / 2
		if !h.less(h.items[parent], h.items[j]) {
			break
		}
		h.items[parent], h.items[j] = h.items[j], h.items[parent]
		j = parent
	}
}

// siftDown sinks the element at i within items[:n], always descending
// toward the larger child.
func (h *Heap[T]) siftDown(i, n int) {
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		if right := left + 1; right < n && h.less(h.items[left], h.items[right]) {
			child = right
		}
		if !h.less(h.items[i], h.items[child]) {
			break
		}
		h.items[i], h.items[child] = h.items[child], h.items[i]
		i = child
	}
}

// TopN returns up to n highest-ranked items in descending rank order.
// Equal-ranked items have no guaranteed relative order.
func TopN[T any](n int, items []T, less func(a, b T) bool) []T {
	h := NewHeap(less)
	for _, v := range items {
		h.Add(v)
	}
	if n > h.Len() {
		n = h.Len()
	}
	if n < 0 {
		n = 0
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, _ := h.Poll()
		out = append(out, v)
	}
	return out
}

// SortDescending sorts items in place from highest to lowest rank via
// heapsort: heapify, repeatedly swap the maximum to the shrinking tail,
// then reverse the ascending result. O(n log n) and not stable.
func SortDescending[T any](items []T, less func(a, b T) bool) {
	h := Heap[T]{items: items, less: less}
	n := len(items)
	for i := n/2 - 1; i >= 0; i-- {
		h.siftDown(i, n)
	}
	for end := n - 1; end > 0; end-- {
		items[0], items[end] = items[end], items[0]
		h.siftDown(0, end)
	}
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
