package sketch

import (
	"github.com/cockroachdb/errors"

	"sketchdb/table"
)

// perBin is the sampling factor: each partition samples resolution*perBin
// rows before sorting.
const perBin = 100

// slack bounds the size of a merged quantile list to slack*resolution.
const slack = 10

// QuantileSketch computes approximate order statistics over a distributed
// table under a prescribed multi-column ordering. Create draws a sample from
// one partition, sorts it, and picks equally spaced landmark rows tagged
// with provable rank brackets; Add merges two lists computed over disjoint
// row sets and recomputes the brackets for the union.
type QuantileSketch struct {
	order      table.RecordOrder
	subSchema  *table.Schema
	resolution int
	seed       int64
}

// NewQuantileSketch validates the sort columns against the table schema the
// sketch will run over. Resolution is the number of landmarks per list.
func NewQuantileSketch(schema *table.Schema, order table.RecordOrder, resolution int, seed int64) (*QuantileSketch, error) {
	if resolution <= 0 {
		return nil, errors.Mark(
			errors.Newf("resolution %d must be positive", resolution),
			table.ErrInvalidArgument)
	}
	if len(order) == 0 {
		return nil, errors.Mark(
			errors.New("record order must name at least one column"),
			table.ErrInvalidArgument)
	}
	sub, err := order.Project(schema)
	if err != nil {
		return nil, err
	}
	return &QuantileSketch{
		order:      order,
		subSchema:  sub,
		resolution: resolution,
		seed:       seed,
	}, nil
}

func (s *QuantileSketch) Zero() *QuantileList {
	empty, err := EmptyQuantileList(s.subSchema)
	if err != nil {
		// The sub-schema was validated at construction.
		panic(err)
	}
	return empty
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func (s *QuantileSketch) Create(data *table.Table) (*QuantileList, error) {
	dataSize := data.NumRows()
	if dataSize == 0 {
		return s.Zero(), nil
	}
	sampleSet := data.Members().Sample(s.resolution*perBin, s.seed)
	sampled, err := data.Compress(sampleSet)
	if err != nil {
		return nil, err
	}
	order, err := s.order.SortedRowOrder(sampled)
	if err != nil {
		return nil, err
	}
	sampleRows := len(order)
	// The step is rounded up and the landmark index clamped, so the list
	// always covers the extremes even when the sample is small.
	sampleStep := ceilDiv(sampleRows, s.resolution+1)
	dataStep := dataSize / (s.resolution + 1)
	landmarks := make([]int, 0, s.resolution)
	ranks := make([]WinsAndLosses, 0, s.resolution)
	for i := 0; i < s.resolution; i++ {
		idx := (i+1)*sampleStep - 1
		if idx >= sampleRows {
			idx = sampleRows - 1
		}
		landmarks = append(landmarks, order[idx])
		ranks = append(ranks, WinsAndLosses{
			Wins:   (i + 1) * dataStep,
			Losses: (s.resolution - i) * dataStep,
		})
	}
	quantile, err := sampled.CompressRows(s.subSchema, landmarks)
	if err != nil {
		return nil, err
	}
	return &QuantileList{Quantile: quantile, Ranks: ranks, DataSize: dataSize}, nil
}

// Add merges two quantile lists computed over disjoint row sets. Both lists
// must be sorted under the sketch's order; violating that precondition is
// reported instead of silently merging garbage.
func (s *QuantileSketch) Add(left, right *QuantileList) (*QuantileList, error) {
	if left.DataSize == 0 {
		return right, nil
	}
	if right.DataSize == 0 {
		return left, nil
	}
	if !left.Quantile.Schema().Equal(right.Quantile.Schema()) {
		return nil, errors.Mark(
			errors.New("quantile lists computed against different schemas"),
			table.ErrSchemaMismatch)
	}
	for _, q := range []*QuantileList{left, right} {
		sorted, err := s.order.IsSorted(q.Quantile)
		if err != nil {
			return nil, err
		}
		if !sorted {
			return nil, errors.Mark(
				errors.New("quantile list landmarks are not in sort order"),
				table.ErrInvalidArgument)
		}
	}

	mergeLeft, err := s.order.MergeOrder(left.Quantile, right.Quantile)
	if err != nil {
		return nil, err
	}
	merged, err := mergeLandmarks(left.Quantile, right.Quantile, mergeLeft)
	if err != nil {
		return nil, err
	}
	ranks := mergeRanks(left, right, mergeLeft)
	result := &QuantileList{
		Quantile: merged,
		Ranks:    ranks,
		DataSize: left.DataSize + right.DataSize,
	}
	return result.CompressExact(slack * s.resolution)
}

// mergeLandmarks interleaves the rows of two landmark tables as dictated by
// mergeLeft, building fresh column storage.
func mergeLandmarks(left, right *table.Table, mergeLeft []bool) (*table.Table, error) {
	schema := left.Schema()
	builders := make([]*table.ColumnBuilder, schema.NumColumns())
	for c := 0; c < schema.NumColumns(); c++ {
		builders[c] = table.NewColumnBuilder(schema.DescriptionAt(c))
	}
	i, j := 0, 0
	for _, fromLeft := range mergeLeft {
		src, row := right, j
		if fromLeft {
			src, row = left, i
			i++
		} else {
			j++
		}
		for c := 0; c < schema.NumColumns(); c++ {
			builders[c].AppendFrom(src.ColumnAt(c), row)
		}
	}
	columns := make([]table.Column, len(builders))
	for c, b := range builders {
		columns[c] = b.Seal()
	}
	return table.NewTable(schema, columns, nil)
}

// mergeRanks recomputes the rank brackets of the merged landmarks. An
// element's wins are its own wins plus the wins of the largest element on
// the other side that is strictly below it; its losses are its own losses
// plus the losses of the smallest element on the other side not yet
// exceeded.
func mergeRanks(left, right *QuantileList, mergeLeft []bool) []WinsAndLosses {
	ranks := make([]WinsAndLosses, len(mergeLeft))
	i, j := 0, 0
	for k, fromLeft := range mergeLeft {
		if fromLeft {
			wins := left.Wins(i)
			if j > 0 {
				wins += right.Wins(j - 1)
			}
			losses := left.Losses(i)
			if j < right.Size() {
				losses += right.Losses(j)
			}
			ranks[k] = WinsAndLosses{Wins: wins, Losses: losses}
			i++
		} else {
			wins := right.Wins(j)
			if i > 0 {
				wins += left.Wins(i - 1)
			}
			losses := right.Losses(j)
			if i < left.Size() {
				losses += left.Losses(i)
			}
			ranks[k] = WinsAndLosses{Wins: wins, Losses: losses}
			j++
		}
	}
	return ranks
}
