// Package btree implements the ordered multi-way index used for
// date-range expense queries.
//
// The tree is a B+ tree: internal nodes route by a sorted key array,
// leaves hold the data and are chained to their right sibling so range
// scans walk sideways instead of re-descending. Domain keys (calendar
// dates) repeat, so each leaf slot pairs a key with the ordered list of
// every value stored under it.
package btree

import "slices"

// DefaultDegree is the minimum degree used by New. Nodes hold at most
// 2*degree-1 keys.
const DefaultDegree = 4

type node[K, V any] struct {
	leaf     bool
	keys     []K
	values   [][]V         // leaf only; values[i] accumulates puts under keys[i]
	children []*node[K, V] // internal only
	next     *node[K, V]   // right sibling in the leaf chain
}

// Index is a B+ tree keyed by K holding values of type V. The total
// order over K comes from the cmp function given at construction, which
// returns a negative, zero, or positive number as a sorts before, equal
// to, or after b.
type Index[K, V any] struct {
	root   *node[K, V]
	cmp    func(a, b K) int
	degree int
	size   int
}

// New returns an empty index with DefaultDegree.
func New[K, V any](cmp func(a, b K) int) *Index[K, V] {
	return NewWithDegree[K, V](cmp, DefaultDegree)
}

// NewWithDegree returns an empty index with the given minimum degree.
// Degrees below 2 are raised to 2.
func NewWithDegree[K, V any](cmp func(a, b K) int, degree int) *Index[K, V] {
	if degree < 2 {
		degree = 2
	}
	return &Index[K, V]{
		root:   &node[K, V]{leaf: true},
		cmp:    cmp,
		degree: degree,
	}
}

// Len returns the number of stored values, counting duplicates.
func (ix *Index[K, V]) Len() int {
	return ix.size
}

// Put stores v under k. A repeated key appends to the existing slot in
// insertion order rather than overwriting. Amortized O(log n).
func (ix *Index[K, V]) Put(k K, v V) {
	if len(ix.root.keys) == ix.maxKeys() {
		// Full root: the tree grows in height, at the root only.
		old := ix.root
		ix.root = &node[K, V]{children: []*node[K, V]{old}}
		ix.splitChild(ix.root, 0)
	}
	ix.insertNonFull(ix.root, k, v)
	ix.size++
}

// Get returns the values stored under k in insertion order.
func (ix *Index[K, V]) Get(k K) []V {
	leaf := ix.findLeaf(k)
	if i, found := slices.BinarySearchFunc(leaf.keys, k, ix.cmp); found {
		return slices.Clone(leaf.values[i])
	}
	return nil
}

// RangeQuery returns every value whose key lies in [from, to] inclusive,
// in ascending key order; values sharing a key keep their insertion
// order. An inverted range (from after to) yields an empty result, not
// an error. O(log n + k) for k results.
func (ix *Index[K, V]) RangeQuery(from, to K) []V {
	if ix.cmp(from, to) > 0 {
		return nil
	}
	var out []V
	for leaf := ix.findLeaf(from); leaf != nil; leaf = leaf.next {
		for i, k := range leaf.keys {
			if ix.cmp(k, from) < 0 {
				continue
			}
			if ix.cmp(k, to) > 0 {
				return out
			}
			out = append(out, leaf.values[i]...)
		}
	}
	return out
}

func (ix *Index[K, V]) maxKeys() int {
	return 2*ix.degree - 1
}

// childIndex finds which subtree of x covers k: the first child whose
// separator exceeds k. Keys equal to a separator live in the right
// subtree, matching the leaf-split convention below.
func (ix *Index[K, V]) childIndex(x *node[K, V], k K) int {
	i := 0
	for i < len(x.keys) && ix.cmp(k, x.keys[i]) >= 0 {
		i++
	}
	return i
}

func (ix *Index[K, V]) findLeaf(k K) *node[K, V] {
	x := ix.root
	for !x.leaf {
		x = x.children[ix.childIndex(x, k)]
	}
	return x
}

func (ix *Index[K, V]) insertNonFull(x *node[K, V], k K, v V) {
	if x.leaf {
		i, found := slices.BinarySearchFunc(x.keys, k, ix.cmp)
		if found {
			x.values[i] = append(x.values[i], v)
			return
		}
		x.keys = slices.Insert(x.keys, i, k)
		x.values = slices.Insert(x.values, i, []V{v})
		return
	}
	i := ix.childIndex(x, k)
	if len(x.children[i].keys) == ix.maxKeys() {
		ix.splitChild(x, i)
		if ix.cmp(k, x.keys[i]) >= 0 {
			i++
		}
	}
	ix.insertNonFull(x.children[i], k, v)
}

// splitChild splits the full child at position i of x into two nodes and
// promotes the median key into x. Leaf splits copy the separator up (the
// key stays in the right leaf and the leaf chain is relinked); internal
// splits move it up.
func (ix *Index[K, V]) splitChild(x *node[K, V], i int) {
	t := ix.degree
	left := x.children[i]
	right := &node[K, V]{leaf: left.leaf}

	if left.leaf {
		right.keys = slices.Clone(left.keys[t-1:])
		right.values = slices.Clone(left.values[t-1:])
		right.next = left.next
		left.next = right
		left.keys = left.keys[:t-1]
		left.values = left.values[:t-1]
		x.keys = slices.Insert(x.keys, i, right.keys[0])
	} else {
		median := left.keys[t-1]
		right.keys = slices.Clone(left.keys[t:])
		right.children = slices.Clone(left.children[t:])
		left.keys = left.keys[:t-1]
		left.children = left.children[:t]
		x.keys = slices.Insert(x.keys, i, median)
	}
	x.children = slices.Insert(x.children, i+1, right)
}
