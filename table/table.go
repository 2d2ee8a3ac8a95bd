package table

import (
	"github.com/cockroachdb/errors"
)

// Table is an immutable view: a schema, one column per schema entry, and a
// membership set selecting the logical rows. Distinct tables may share
// column storage; compressing produces fresh storage.
type Table struct {
	schema  *Schema
	columns []Column
	members MembershipSet
}

// NewTable builds a table over the given columns. Columns must match the
// schema positionally and all have the same physical length, which the
// membership set must not exceed.
func NewTable(schema *Schema, columns []Column, members MembershipSet) (*Table, error) {
	if schema.NumColumns() != len(columns) {
		return nil, errors.Mark(
			errors.Newf("schema has %d columns, got %d", schema.NumColumns(), len(columns)),
			ErrInvalidArgument)
	}
	size := -1
	for i, col := range columns {
		if col.Description() != schema.DescriptionAt(i) {
			return nil, errors.Mark(
				errors.Newf("column %d is %v, schema says %v",
					i, col.Description(), schema.DescriptionAt(i)),
				ErrSchemaMismatch)
		}
		if size == -1 {
			size = col.Size()
		} else if col.Size() != size {
			return nil, errors.Mark(
				errors.Newf("column %v has %d rows, expected %d",
					col.Description(), col.Size(), size),
				ErrInvalidArgument)
		}
	}
	if size == -1 {
		size = 0
	}
	if members == nil {
		members = FullMembership{Rows: size}
	}
	return &Table{schema: schema, columns: columns, members: members}, nil
}

func (t *Table) Schema() *Schema {
	return t.schema
}

func (t *Table) Members() MembershipSet {
	return t.members
}

// NumRows is the number of logically present rows.
func (t *Table) NumRows() int {
	return t.members.Size()
}

func (t *Table) Column(name string) (Column, error) {
	i, ok := t.schema.index[name]
	if !ok {
		return nil, errors.Mark(
			errors.Newf("no column %q in table", name),
			ErrInvalidArgument)
	}
	return t.columns[i], nil
}

func (t *Table) ColumnAt(i int) Column {
	return t.columns[i]
}

// WithMembers returns a view over the same column storage restricted to the
// given membership set.
func (t *Table) WithMembers(members MembershipSet) *Table {
	return &Table{schema: t.schema, columns: t.columns, members: members}
}

// Compress materializes the rows of the given membership set into a new
// table with fresh column storage and full membership. Rows appear in
// increasing index order.
func (t *Table) Compress(members MembershipSet) (*Table, error) {
	builders := make([]*ColumnBuilder, len(t.columns))
	for i, col := range t.columns {
		builders[i] = NewColumnBuilder(col.Description())
	}
	members.Iterate(func(row int) {
		for i, col := range t.columns {
			builders[i].AppendFrom(col, row)
		}
	})
	columns := make([]Column, len(builders))
	for i, b := range builders {
		columns[i] = b.Seal()
	}
	return NewTable(t.schema, columns, nil)
}

// CompressRows materializes the given physical rows, in the given order,
// restricted to the columns of the sub-schema. Used by the quantile sketch
// to extract landmark rows in sort order.
func (t *Table) CompressRows(sub *Schema, rows []int) (*Table, error) {
	builders := make([]*ColumnBuilder, sub.NumColumns())
	sources := make([]Column, sub.NumColumns())
	for i := 0; i < sub.NumColumns(); i++ {
		cd := sub.DescriptionAt(i)
		col, err := t.Column(cd.Name)
		if err != nil {
			return nil, err
		}
		builders[i] = NewColumnBuilder(cd)
		sources[i] = col
	}
	for _, row := range rows {
		for i := range builders {
			builders[i].AppendFrom(sources[i], row)
		}
	}
	columns := make([]Column, len(builders))
	for i, b := range builders {
		columns[i] = b.Seal()
	}
	return NewTable(sub, columns, nil)
}

// FilterRange returns a view keeping only rows whose numeric projection in
// the named column lies in [min, max]. Missing rows are dropped. This is
// the canonical leaf transform for DataSet.Map.
func (t *Table) FilterRange(column string, min, max float64) (*Table, error) {
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	if !col.Description().Kind.IsNumeric() {
		return nil, errors.Mark(
			errors.Newf("range filter on non-numeric column %v", col.Description()),
			ErrInvalidArgument)
	}
	members := t.members.Filter(func(row int) bool {
		if col.IsMissing(row) {
			return false
		}
		v := col.AsDouble(row)
		return v >= min && v <= max
	})
	return t.WithMembers(members), nil
}
