package sketch

import (
	"github.com/cockroachdb/errors"

	"sketchdb/dataset"
	"sketchdb/stats"
	"sketchdb/table"
)

// MomentsSketch computes the mean and variance of one numeric column across
// all partitions, skipping missing rows.
type MomentsSketch struct {
	Column string
}

func (s *MomentsSketch) Zero() *stats.Welford {
	return stats.NewWelford()
}

func (s *MomentsSketch) Create(data *table.Table) (*stats.Welford, error) {
	col, err := data.Column(s.Column)
	if err != nil {
		return nil, err
	}
	if !col.Description().Kind.IsNumeric() {
		return nil, errors.Mark(
			errors.Newf("moments of non-numeric column %v", col.Description()),
			table.ErrInvalidArgument)
	}
	w := stats.NewWelford()
	data.Members().Iterate(func(row int) {
		if col.IsMissing(row) {
			return
		}
		w.Update(col.AsDouble(row))
	})
	return w, nil
}

func (s *MomentsSketch) Add(left, right *stats.Welford) (*stats.Welford, error) {
	return left.Merge(right), nil
}

var _ dataset.Sketch[*table.Table, *stats.Welford] = (*MomentsSketch)(nil)
