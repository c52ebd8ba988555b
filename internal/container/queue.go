package container

// Queue is a circular-buffer FIFO container. Enqueue is amortized O(1):
// when the buffer fills, capacity doubles and the live elements are
// re-based to index zero. Dequeue on an empty queue returns the zero
// value and false rather than an error.
type Queue[T any] struct {
	buf   []T
	head  int
	count int
}

// NewQueue returns an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Enqueue appends v at the back of the queue.
func (q *Queue[T]) Enqueue(v T) {
	if q.count == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.count)%len(q.buf)] = v
	q.count++
}

// Dequeue removes and returns the front element. The second return is
// false when the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	if q.count == 0 {
		return zero, false
	}
	front := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return front, true
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int {
	return q.count
}

func (q *Queue[T]) grow() {
	next := len(q.buf) * 2
	if next == 0 {
		next = 4
	}
	resized := make([]T, next)
	for i := 0; i < q.count; i++ {
		resized[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = resized
	q.head = 0
}
