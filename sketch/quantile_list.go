package sketch

import (
	"github.com/cockroachdb/errors"

	"sketchdb/table"
)

// WinsAndLosses brackets the true global rank of one landmark: Wins is a
// provable lower bound, and DataSize - Losses a provable upper bound.
type WinsAndLosses struct {
	Wins   int
	Losses int
}

// QuantileList is the quantile sketch's result: a small table of landmark
// rows in sort order, one rank bracket per landmark, and the total number of
// rows the list summarizes.
type QuantileList struct {
	Quantile *table.Table
	Ranks    []WinsAndLosses
	DataSize int
}

// EmptyQuantileList is the algebra's zero for the given landmark schema.
func EmptyQuantileList(schema *table.Schema) (*QuantileList, error) {
	empty, err := table.NewTable(schema, emptyColumns(schema), nil)
	if err != nil {
		return nil, err
	}
	return &QuantileList{Quantile: empty, Ranks: nil, DataSize: 0}, nil
}

func emptyColumns(schema *table.Schema) []table.Column {
	columns := make([]table.Column, schema.NumColumns())
	for i := 0; i < schema.NumColumns(); i++ {
		columns[i] = table.NewColumnBuilder(schema.DescriptionAt(i)).Seal()
	}
	return columns
}

// Size is the number of landmarks.
func (q *QuantileList) Size() int {
	return len(q.Ranks)
}

func (q *QuantileList) Wins(i int) int {
	return q.Ranks[i].Wins
}

func (q *QuantileList) Losses(i int) int {
	return q.Ranks[i].Losses
}

// UpperRank is the provable upper bound on landmark i's global rank.
func (q *QuantileList) UpperRank(i int) int {
	return q.DataSize - q.Ranks[i].Losses
}

// CompressExact subsamples the list down to at most bound landmarks, keeping
// the first and last and evenly spaced interior ones. Dropping landmarks
// preserves the monotonicity of the surviving rank brackets.
func (q *QuantileList) CompressExact(bound int) (*QuantileList, error) {
	n := q.Size()
	if n <= bound {
		return q, nil
	}
	if bound < 2 {
		return nil, errors.Mark(
			errors.Newf("compression bound %d too small", bound),
			table.ErrInvalidArgument)
	}
	keep := make([]int, bound)
	ranks := make([]WinsAndLosses, bound)
	for i := 0; i < bound; i++ {
		idx := i * (n - 1) / (bound - 1)
		keep[i] = idx
		ranks[i] = q.Ranks[idx]
	}
	compressed, err := q.Quantile.CompressRows(q.Quantile.Schema(), keep)
	if err != nil {
		return nil, err
	}
	return &QuantileList{Quantile: compressed, Ranks: ranks, DataSize: q.DataSize}, nil
}
