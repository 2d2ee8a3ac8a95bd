package sketch

import (
	"math"

	"github.com/cockroachdb/errors"

	"sketchdb/table"
)

// DyadicBuckets divides [Min, Max] into buckets whose boundaries align to a
// dyadic decomposition of the range: the range splits into a power-of-two
// number of leaf intervals of width Granularity, and every bucket covers the
// same power-of-two run of leaves. The binary privacy mechanism operates on
// the interval tree over these leaves, so misaligned requests are rejected
// outright rather than repaired.
type DyadicBuckets struct {
	Min, Max    float64
	Granularity float64

	numLeaves       int
	leavesPerBucket int
	count           int
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NewDyadicBuckets validates alignment: (max-min)/granularity must be an
// exact power of two and bucketCount must divide it into power-of-two runs.
func NewDyadicBuckets(min, max float64, bucketCount int, granularity float64) (*DyadicBuckets, error) {
	if granularity <= 0 || max <= min || bucketCount <= 0 {
		return nil, errors.Mark(
			errors.Newf("bad dyadic parameters: range [%v, %v], %d buckets, granularity %v",
				min, max, bucketCount, granularity),
			table.ErrInvalidArgument)
	}
	leavesF := (max - min) / granularity
	numLeaves := int(math.Round(leavesF))
	if math.Abs(leavesF-float64(numLeaves)) > 1e-9 || !isPowerOfTwo(numLeaves) {
		return nil, errors.Mark(
			errors.Newf("range [%v, %v] is not a power-of-two multiple of granularity %v",
				min, max, granularity),
			table.ErrInvalidArgument)
	}
	if numLeaves%bucketCount != 0 || !isPowerOfTwo(numLeaves/bucketCount) {
		return nil, errors.Mark(
			errors.Newf("%d buckets do not align to the %d-leaf dyadic grid",
				bucketCount, numLeaves),
			table.ErrInvalidArgument)
	}
	return &DyadicBuckets{
		Min:             min,
		Max:             max,
		Granularity:     granularity,
		numLeaves:       numLeaves,
		leavesPerBucket: numLeaves / bucketCount,
		count:           bucketCount,
	}, nil
}

func (b *DyadicBuckets) NumBuckets() int {
	return b.count
}

func (b *DyadicBuckets) NumLeaves() int {
	return b.numLeaves
}

func (b *DyadicBuckets) LeavesPerBucket() int {
	return b.leavesPerBucket
}

// LeftBoundary returns the left edge of bucket i, a power-of-two multiple
// of the granularity above Min.
func (b *DyadicBuckets) LeftBoundary(i int) float64 {
	return b.Min + float64(i*b.leavesPerBucket)*b.Granularity
}

func (b *DyadicBuckets) Matches(kind table.ContentsKind) bool {
	return kind.IsNumeric()
}

func (b *DyadicBuckets) IndexOf(col table.Column, row int) int {
	v := col.AsDouble(row)
	if v < b.Min || v > b.Max {
		return -1
	}
	leaf := int((v - b.Min) / b.Granularity)
	if leaf >= b.numLeaves {
		leaf = b.numLeaves - 1
	}
	return leaf / b.leavesPerBucket
}
