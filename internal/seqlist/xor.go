package seqlist

// Raw pointer XOR-linking is off the table in Go, so nodes live in a
// growable arena and are addressed by integer handles: a node's handle
// is its arena index plus one, and handle 0 means "no neighbor". The
// link word of a node is prevHandle XOR nextHandle, which keeps the
// single-word-per-node property. Recovering a neighbor requires knowing
// the handle the cursor just departed from.

const nilHandle = 0

type xorNode[T any] struct {
	value T
	link  int // prev handle XOR next handle
}

// Xor is the space-compacted Sequence implementation. Its observable
// behavior is identical to Linked; only the representation differs.
type Xor[T any] struct {
	arena []xorNode[T]
	head  int
	tail  int
	// cursor is the handle under the cursor; cameFrom is the handle on
	// the head side of it, needed to decode the link word.
	cursor   int
	cameFrom int
}

// NewXor returns an empty sequence.
func NewXor[T any]() *Xor[T] {
	return &Xor[T]{}
}

func (x *Xor[T]) at(h int) *xorNode[T] {
	return &x.arena[h-1]
}

// Append adds v at the tail in O(1). The first append places the cursor
// on the new element.
func (x *Xor[T]) Append(v T) {
	x.arena = append(x.arena, xorNode[T]{value: v})
	h := len(x.arena)
	if x.tail == nilHandle {
		x.head = h
		x.tail = h
		x.cursor = h
		x.cameFrom = nilHandle
		return
	}
	// The old tail gains h as its next neighbor; the new tail's only
	// neighbor is the old tail.
	x.at(x.tail).link ^= h
	x.at(h).link = x.tail ^ nilHandle
	x.tail = h
}

// Current returns the element under the cursor, false when empty.
func (x *Xor[T]) Current() (T, bool) {
	var zero T
	if x.cursor == nilHandle {
		return zero, false
	}
	return x.at(x.cursor).value, true
}

// Next advances the cursor one step toward the tail, clamping there.
func (x *Xor[T]) Next() (T, bool) {
	var zero T
	if x.cursor == nilHandle {
		return zero, false
	}
	if next := x.at(x.cursor).link ^ x.cameFrom; next != nilHandle {
		x.cameFrom = x.cursor
		x.cursor = next
	}
	return x.at(x.cursor).value, true
}

// Previous moves the cursor one step toward the head, clamping there.
func (x *Xor[T]) Previous() (T, bool) {
	var zero T
	if x.cursor == nilHandle {
		return zero, false
	}
	if x.cameFrom != nilHandle {
		beforeThat := x.at(x.cameFrom).link ^ x.cursor
		x.cursor = x.cameFrom
		x.cameFrom = beforeThat
	}
	return x.at(x.cursor).value, true
}

// Len returns the number of stored elements.
func (x *Xor[T]) Len() int {
	return len(x.arena)
}
