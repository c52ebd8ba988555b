package sparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulation(t *testing.T) {
	m := New[int64]()
	m.AddTo(3, 2, 150)
	m.AddTo(3, 2, 225)
	assert.Equal(t, int64(375), m.Get(3, 2))
	assert.Equal(t, 1, m.Len())
}

func TestAbsentCoordinateReadsZero(t *testing.T) {
	m := New[int64]()
	assert.Equal(t, int64(0), m.Get(10, 10))
	m.AddTo(1, 1, 5)
	assert.Equal(t, int64(0), m.Get(1, 2))
	assert.Equal(t, int64(0), m.Get(2, 1))
}

func TestEntriesOrderedByRowThenColumn(t *testing.T) {
	m := New[int]()
	m.AddTo(2, 9, 1)
	m.AddTo(1, 5, 2)
	m.AddTo(2, 1, 3)
	m.AddTo(1, 3, 4)
	m.AddTo(1, 3, 6) // same cell again

	assert.Equal(t, []Entry[int]{
		{Row: 1, Col: 3, Value: 10},
		{Row: 1, Col: 5, Value: 2},
		{Row: 2, Col: 1, Value: 3},
		{Row: 2, Col: 9, Value: 1},
	}, m.Entries())
}

func TestZeroSumsAreNotMaterialized(t *testing.T) {
	m := New[int64]()

	m.AddTo(1, 1, 0)
	assert.Zero(t, m.Len(), "adding zero must not create a cell")

	m.AddTo(2, 2, 100)
	m.AddTo(2, 2, -100)
	assert.Zero(t, m.Len(), "a sum cancelling to zero must drop the cell")
	assert.Empty(t, m.Entries())

	// The coordinate is writable again after cancelling out.
	m.AddTo(2, 2, 7)
	assert.Equal(t, int64(7), m.Get(2, 2))
	assert.Equal(t, 1, m.Len())
}

func TestNegativeCoordinatesAndValues(t *testing.T) {
	m := New[float64]()
	m.AddTo(-1, -1, 2.5)
	m.AddTo(-1, -1, -1.25)
	assert.InDelta(t, 1.25, m.Get(-1, -1), 1e-9)
}
