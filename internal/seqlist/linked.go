package seqlist

type node[T any] struct {
	value T
	prev  *node[T]
	next  *node[T]
}

// Linked is the pointer-based Sequence implementation: each node owns
// explicit references to both neighbors.
type Linked[T any] struct {
	head   *node[T]
	tail   *node[T]
	cursor *node[T]
	size   int
}

// NewLinked returns an empty sequence.
func NewLinked[T any]() *Linked[T] {
	return &Linked[T]{}
}

// Append adds v at the tail in O(1). The first append places the cursor
// on the new element.
func (l *Linked[T]) Append(v T) {
	n := &node[T]{value: v}
	l.size++
	if l.tail == nil {
		l.head = n
		l.tail = n
		l.cursor = n
		return
	}
	n.prev = l.tail
	l.tail.next = n
	l.tail = n
}

// Current returns the element under the cursor, false when empty.
func (l *Linked[T]) Current() (T, bool) {
	var zero T
	if l.cursor == nil {
		return zero, false
	}
	return l.cursor.value, true
}

// Next advances the cursor one step, clamping at the tail.
func (l *Linked[T]) Next() (T, bool) {
	var zero T
	if l.cursor == nil {
		return zero, false
	}
	if l.cursor.next != nil {
		l.cursor = l.cursor.next
	}
	return l.cursor.value, true
}

// Previous moves the cursor one step back, clamping at the head.
func (l *Linked[T]) Previous() (T, bool) {
	var zero T
	if l.cursor == nil {
		return zero, false
	}
	if l.cursor.prev != nil {
		l.cursor = l.cursor.prev
	}
	return l.cursor.value, true
}

// Len returns the number of stored elements.
func (l *Linked[T]) Len() int {
	return l.size
}
