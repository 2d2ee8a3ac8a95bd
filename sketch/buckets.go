// Package sketch implements the concrete sketches computed over partition
// trees: histograms, quantile lists, and table summaries.
package sketch

import (
	"sort"

	"github.com/cockroachdb/errors"

	"sketchdb/table"
)

// Buckets quantizes column values into histogram bucket indexes. It is a
// closed sum: DoubleBuckets and DyadicBuckets quantize numeric-kind columns,
// StringBuckets quantizes string-kind columns. The variant is resolved once
// at construction; a sketch built with the wrong variant for its column is
// rejected before any partition work starts.
type Buckets interface {
	NumBuckets() int
	// Matches reports whether this descriptor can quantize the given kind.
	Matches(kind table.ContentsKind) bool
	// IndexOf maps one present row to a bucket index, or -1 when the value
	// lies outside the bucket range.
	IndexOf(col table.Column, row int) int
}

// DoubleBuckets divides [Min, Max] into Count equal-width buckets. The
// maximum value falls in the last bucket.
type DoubleBuckets struct {
	Min, Max float64
	Count    int
}

func NewDoubleBuckets(min, max float64, count int) (*DoubleBuckets, error) {
	if count <= 0 || max <= min {
		return nil, errors.Mark(
			errors.Newf("bad bucket range [%v, %v] / %d", min, max, count),
			table.ErrInvalidArgument)
	}
	return &DoubleBuckets{Min: min, Max: max, Count: count}, nil
}

func (b *DoubleBuckets) NumBuckets() int {
	return b.Count
}

func (b *DoubleBuckets) Matches(kind table.ContentsKind) bool {
	return kind.IsNumeric()
}

func (b *DoubleBuckets) IndexOf(col table.Column, row int) int {
	v := col.AsDouble(row)
	if v < b.Min || v > b.Max {
		return -1
	}
	if v == b.Max {
		return b.Count - 1
	}
	return int((v - b.Min) * float64(b.Count) / (b.Max - b.Min))
}

// StringBuckets quantizes string values by sorted left boundaries: a value
// lands in the last bucket whose boundary does not exceed it. Values below
// the first boundary are out of range; there is no upper limit.
type StringBuckets struct {
	Boundaries []string
}

func NewStringBuckets(boundaries []string) (*StringBuckets, error) {
	if len(boundaries) == 0 || !sort.StringsAreSorted(boundaries) {
		return nil, errors.Mark(
			errors.New("string bucket boundaries must be non-empty and sorted"),
			table.ErrInvalidArgument)
	}
	return &StringBuckets{Boundaries: boundaries}, nil
}

func (b *StringBuckets) NumBuckets() int {
	return len(b.Boundaries)
}

func (b *StringBuckets) Matches(kind table.ContentsKind) bool {
	return kind.IsString()
}

func (b *StringBuckets) IndexOf(col table.Column, row int) int {
	v := col.GetString(row)
	// First boundary strictly greater than v; the value belongs just left.
	i := sort.SearchStrings(b.Boundaries, v)
	if i < len(b.Boundaries) && b.Boundaries[i] == v {
		return i
	}
	return i - 1
}
