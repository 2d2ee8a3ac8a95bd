package sketch

import (
	"github.com/cockroachdb/errors"

	"sketchdb/table"
)

// Histogram is a bucket count array aligned to a bucket descriptor, plus
// tallies of missing and out-of-range rows. Combining is exact element-wise
// addition, so the non-private path is additive bucket-for-bucket.
type Histogram struct {
	Counts     []int64
	Missing    int64
	OutOfRange int64
}

func NewHistogram(buckets int) *Histogram {
	return &Histogram{Counts: make([]int64, buckets)}
}

// Union returns a fresh histogram holding the element-wise sum.
func (h *Histogram) Union(other *Histogram) (*Histogram, error) {
	if len(h.Counts) != len(other.Counts) {
		return nil, errors.Mark(
			errors.Newf("cannot combine histograms of %d and %d buckets",
				len(h.Counts), len(other.Counts)),
			table.ErrSchemaMismatch)
	}
	out := NewHistogram(len(h.Counts))
	for i := range h.Counts {
		out.Counts[i] = h.Counts[i] + other.Counts[i]
	}
	out.Missing = h.Missing + other.Missing
	out.OutOfRange = h.OutOfRange + other.OutOfRange
	return out, nil
}

// HistogramSketch counts rows per bucket with a single scan of one column.
// Rate below 1 scans a seeded uniform sample of the membership set instead
// of every row; counts are then of sampled rows and the caller rescales.
type HistogramSketch struct {
	Buckets Buckets
	Column  string
	Rate    float64
	Seed    int64
}

func NewHistogramSketch(buckets Buckets, column string, rate float64, seed int64) (*HistogramSketch, error) {
	if rate <= 0 || rate > 1 {
		return nil, errors.Mark(
			errors.Newf("sampling rate %v outside (0, 1]", rate),
			table.ErrInvalidArgument)
	}
	return &HistogramSketch{Buckets: buckets, Column: column, Rate: rate, Seed: seed}, nil
}

func (s *HistogramSketch) Zero() *Histogram {
	return NewHistogram(s.Buckets.NumBuckets())
}

func (s *HistogramSketch) Create(data *table.Table) (*Histogram, error) {
	col, err := data.Column(s.Column)
	if err != nil {
		return nil, err
	}
	if !s.Buckets.Matches(col.Description().Kind) {
		return nil, errors.Mark(
			errors.Newf("bucket descriptor cannot quantize %v", col.Description()),
			table.ErrInvalidArgument)
	}
	members := data.Members()
	if s.Rate < 1 {
		members = members.Sample(int(s.Rate*float64(members.Size())), s.Seed)
	}
	result := s.Zero()
	members.Iterate(func(row int) {
		if col.IsMissing(row) {
			result.Missing++
			return
		}
		idx := s.Buckets.IndexOf(col, row)
		if idx < 0 {
			result.OutOfRange++
			return
		}
		result.Counts[idx]++
	})
	return result, nil
}

func (s *HistogramSketch) Add(left, right *Histogram) (*Histogram, error) {
	return left.Union(right)
}
