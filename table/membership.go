package table

import (
	"math/rand"

	"github.com/RoaringBitmap/roaring"
	"github.com/cockroachdb/errors"
)

// MembershipSet describes which row indices of a table are present, without
// copying any data. Implementations are immutable: Sample and Filter return
// new sets.
type MembershipSet interface {
	Size() int
	Contains(row int) bool
	// Iterate visits every present row in increasing order.
	Iterate(f func(row int))
	// Sample draws min(k, Size) rows uniformly without replacement.
	Sample(k int, seed int64) MembershipSet
	// Filter keeps only present rows satisfying the predicate.
	Filter(keep func(row int) bool) MembershipSet
}

// FullMembership is the contiguous range [0, Rows).
type FullMembership struct {
	Rows int
}

func (m FullMembership) Size() int {
	return m.Rows
}

func (m FullMembership) Contains(row int) bool {
	return row >= 0 && row < m.Rows
}

func (m FullMembership) Iterate(f func(row int)) {
	for i := 0; i < m.Rows; i++ {
		f(i)
	}
}

func (m FullMembership) Sample(k int, seed int64) MembershipSet {
	if k >= m.Rows {
		return m
	}
	rng := rand.New(rand.NewSource(seed))
	bits := roaring.New()
	// Floyd's sampling: k distinct rows from [0, Rows) without building
	// a permutation of the whole range.
	for j := m.Rows - k; j < m.Rows; j++ {
		t := rng.Intn(j + 1)
		if bits.Contains(uint32(t)) {
			bits.Add(uint32(j))
		} else {
			bits.Add(uint32(t))
		}
	}
	return BitmapMembership{bits: bits}
}

func (m FullMembership) Filter(keep func(row int) bool) MembershipSet {
	bits := roaring.New()
	for i := 0; i < m.Rows; i++ {
		if keep(i) {
			bits.Add(uint32(i))
		}
	}
	return BitmapMembership{bits: bits}
}

// BitmapMembership is a sparse index set backed by a roaring bitmap. The
// bitmap is owned by the set and never mutated after construction.
type BitmapMembership struct {
	bits *roaring.Bitmap
}

func NewBitmapMembership(rows []int) BitmapMembership {
	bits := roaring.New()
	for _, r := range rows {
		bits.Add(uint32(r))
	}
	return BitmapMembership{bits: bits}
}

func (m BitmapMembership) Size() int {
	return int(m.bits.GetCardinality())
}

func (m BitmapMembership) Contains(row int) bool {
	return row >= 0 && m.bits.Contains(uint32(row))
}

func (m BitmapMembership) Iterate(f func(row int)) {
	it := m.bits.Iterator()
	for it.HasNext() {
		f(int(it.Next()))
	}
}

func (m BitmapMembership) Sample(k int, seed int64) MembershipSet {
	n := m.Size()
	if k >= n {
		return m
	}
	rng := rand.New(rand.NewSource(seed))
	positions := roaring.New()
	for j := n - k; j < n; j++ {
		t := rng.Intn(j + 1)
		if positions.Contains(uint32(t)) {
			positions.Add(uint32(j))
		} else {
			positions.Add(uint32(t))
		}
	}
	bits := roaring.New()
	it := positions.Iterator()
	for it.HasNext() {
		row, err := m.bits.Select(it.Next())
		if err != nil {
			// Every position is below the cardinality.
			panic(errors.Wrap(err, "select within cardinality"))
		}
		bits.Add(row)
	}
	return BitmapMembership{bits: bits}
}

func (m BitmapMembership) Filter(keep func(row int) bool) MembershipSet {
	bits := roaring.New()
	it := m.bits.Iterator()
	for it.HasNext() {
		row := it.Next()
		if keep(int(row)) {
			bits.Add(row)
		}
	}
	return BitmapMembership{bits: bits}
}
