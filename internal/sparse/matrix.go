// Package sparse implements the coordinate-keyed accumulator behind the
// category-by-day spending matrix.
package sparse

import "sort"

// Number constrains cell values to types with addition and a zero
// identity.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

type coord struct {
	row, col int
}

// Entry is one populated cell as returned by Entries.
type Entry[N Number] struct {
	Row, Col int
	Value    N
}

// Matrix is a sparse 2-D accumulator. Only written cells are stored;
// reading anywhere else yields the additive identity.
type Matrix[N Number] struct {
	cells map[coord]N
}

// New returns an empty matrix.
func New[N Number]() *Matrix[N] {
	return &Matrix[N]{cells: make(map[coord]N)}
}

// AddTo accumulates n into the cell at (row, col), creating it on first
// write. A cell whose sum returns to zero is removed again, so only
// nonzero coordinates stay materialized. Amortized O(1).
func (m *Matrix[N]) AddTo(row, col int, n N) {
	c := coord{row, col}
	sum := m.cells[c] + n
	if sum == 0 {
		delete(m.cells, c)
		return
	}
	m.cells[c] = sum
}

// Get returns the accumulated value at (row, col); zero for a cell that
// was never written.
func (m *Matrix[N]) Get(row, col int) N {
	return m.cells[coord{row, col}]
}

// Len returns the number of populated cells.
func (m *Matrix[N]) Len() int {
	return len(m.cells)
}

// Entries returns the populated cells ordered by row, then column, so
// reports built from the matrix come out the same way every run.
func (m *Matrix[N]) Entries() []Entry[N] {
	out := make([]Entry[N], 0, len(m.cells))
	for c, v := range m.cells {
		out = append(out, Entry[N]{Row: c.row, Col: c.col, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}
