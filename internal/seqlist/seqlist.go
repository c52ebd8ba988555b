// Package seqlist provides the cursor-based bidirectional sequences used
// to browse recent expense history. Two interchangeable implementations
// share one contract: Linked keeps conventional forward/backward node
// pointers, while Xor packs both neighbor references into a single link
// word per node.
package seqlist

// Sequence is a cursor over an append-only bidirectional list. Current
// reports the element under the cursor. Next and Previous move the
// cursor one step and return the element now under it; at the tail and
// head they clamp, leaving the cursor where it is and returning the same
// element again. All three report false only while the sequence is
// empty.
type Sequence[T any] interface {
	Append(v T)
	Current() (T, bool)
	Next() (T, bool)
	Previous() (T, bool)
	Len() int
}

var (
	_ Sequence[int] = (*Linked[int])(nil)
	_ Sequence[int] = (*Xor[int])(nil)
)
