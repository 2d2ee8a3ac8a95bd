package table

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ColumnOrientation names one sort column and its direction.
type ColumnOrientation struct {
	Name      string
	Ascending bool
}

// RecordOrder is a multi-column ordering of table rows. Missing values
// compare greater than any present value, before the orientation is applied.
type RecordOrder []ColumnOrientation

// Project returns the sub-schema of the sort columns, in sort-priority order.
func (ro RecordOrder) Project(s *Schema) (*Schema, error) {
	names := make([]string, len(ro))
	for i, co := range ro {
		names[i] = co.Name
	}
	return s.Project(names)
}

func (ro RecordOrder) resolve(t *Table) ([]Column, error) {
	cols := make([]Column, len(ro))
	for i, co := range ro {
		col, err := t.Column(co.Name)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return cols, nil
}

// compareCell orders one cell against another of the same kind.
func compareCell(left Column, i int, right Column, j int) int {
	lm, rm := left.IsMissing(i), right.IsMissing(j)
	switch {
	case lm && rm:
		return 0
	case lm:
		return 1
	case rm:
		return -1
	}
	if left.Description().Kind.IsString() {
		return strings.Compare(left.GetString(i), right.GetString(j))
	}
	lv, rv := left.AsDouble(i), right.AsDouble(j)
	switch {
	case lv < rv:
		return -1
	case lv > rv:
		return 1
	}
	return 0
}

func (ro RecordOrder) compare(leftCols []Column, i int, rightCols []Column, j int) int {
	for k, co := range ro {
		c := compareCell(leftCols[k], i, rightCols[k], j)
		if c == 0 {
			continue
		}
		if !co.Ascending {
			c = -c
		}
		return c
	}
	return 0
}

// SortedRowOrder returns the present rows of the table sorted under this
// order. The sort is stable so equal rows keep their index order.
func (ro RecordOrder) SortedRowOrder(t *Table) ([]int, error) {
	cols, err := ro.resolve(t)
	if err != nil {
		return nil, err
	}
	rows := presentRows(t)
	sort.SliceStable(rows, func(a, b int) bool {
		return ro.compare(cols, rows[a], cols, rows[b]) < 0
	})
	return rows, nil
}

// IsSorted reports whether the table's present rows already respect this
// order (in increasing row index).
func (ro RecordOrder) IsSorted(t *Table) (bool, error) {
	cols, err := ro.resolve(t)
	if err != nil {
		return false, err
	}
	prev := -1
	sorted := true
	t.Members().Iterate(func(row int) {
		if prev >= 0 && ro.compare(cols, prev, cols, row) > 0 {
			sorted = false
		}
		prev = row
	})
	return sorted, nil
}

func presentRows(t *Table) []int {
	rows := make([]int, 0, t.NumRows())
	t.Members().Iterate(func(row int) {
		rows = append(rows, row)
	})
	return rows
}

// MergeOrder computes, for two tables individually sorted under this order,
// the interleaving of their rows: result[k] is true when the k-th merged
// row comes from the left table. Ties favor the left table, keeping the
// merge stable.
func (ro RecordOrder) MergeOrder(left, right *Table) ([]bool, error) {
	if !left.Schema().Equal(right.Schema()) {
		return nil, errors.Mark(
			errors.New("merge of tables with different schemas"),
			ErrSchemaMismatch)
	}
	leftCols, err := ro.resolve(left)
	if err != nil {
		return nil, err
	}
	rightCols, err := ro.resolve(right)
	if err != nil {
		return nil, err
	}
	leftRows := presentRows(left)
	rightRows := presentRows(right)
	ln, rn := len(leftRows), len(rightRows)
	order := make([]bool, 0, ln+rn)
	i, j := 0, 0
	for i < ln && j < rn {
		if ro.compare(leftCols, leftRows[i], rightCols, rightRows[j]) <= 0 {
			order = append(order, true)
			i++
		} else {
			order = append(order, false)
			j++
		}
	}
	for ; i < ln; i++ {
		order = append(order, true)
	}
	for ; j < rn; j++ {
		order = append(order, false)
	}
	return order, nil
}
