package sketch

import (
	"github.com/cockroachdb/errors"

	"sketchdb/dataset"
	"sketchdb/table"
)

// TableSummary reports the schema and row count of a distributed table. It
// is the first sketch a session runs against a freshly loaded dataset.
type TableSummary struct {
	Schema   *table.Schema
	RowCount int64
}

type SummarySketch struct{}

func (SummarySketch) Zero() *TableSummary {
	return &TableSummary{}
}

func (SummarySketch) Create(data *table.Table) (*TableSummary, error) {
	return &TableSummary{Schema: data.Schema(), RowCount: int64(data.NumRows())}, nil
}

func (SummarySketch) Add(left, right *TableSummary) (*TableSummary, error) {
	if left.Schema == nil {
		return right, nil
	}
	if right.Schema == nil {
		return left, nil
	}
	if !left.Schema.Equal(right.Schema) {
		return nil, errors.Mark(
			errors.New("partitions have different schemas"),
			table.ErrSchemaMismatch)
	}
	return &TableSummary{Schema: left.Schema, RowCount: left.RowCount + right.RowCount}, nil
}

var (
	_ dataset.Sketch[*table.Table, *TableSummary] = SummarySketch{}
	_ dataset.Sketch[*table.Table, *Histogram]    = (*HistogramSketch)(nil)
	_ dataset.Sketch[*table.Table, *QuantileList] = (*QuantileSketch)(nil)
)
