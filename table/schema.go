package table

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrInvalidArgument marks requests that are malformed before any partition
// work starts: unknown columns, non-numeric columns for numeric operations,
// bad bucket or privacy parameters.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrSchemaMismatch marks attempts to combine partial results that were
// computed against incompatible schemas or value kinds.
var ErrSchemaMismatch = errors.New("schema mismatch")

// ContentsKind describes the kind of data stored in a column.
type ContentsKind int

const (
	Integer ContentsKind = iota
	Double
	String
	Json
	Date
	Duration
)

func (k ContentsKind) String() string {
	switch k {
	case Integer:
		return "Integer"
	case Double:
		return "Double"
	case String:
		return "String"
	case Json:
		return "Json"
	case Date:
		return "Date"
	case Duration:
		return "Duration"
	}
	return fmt.Sprintf("ContentsKind(%d)", int(k))
}

// IsNumeric reports whether values of this kind have a monotone projection
// onto float64. Histogram and quantile bounds only make sense for these.
func (k ContentsKind) IsNumeric() bool {
	switch k {
	case Integer, Double, Date, Duration:
		return true
	}
	return false
}

// IsString reports whether values of this kind compare as strings.
func (k ContentsKind) IsString() bool {
	return k == String || k == Json
}

// ColumnDescription describes the contents of one column in a table.
type ColumnDescription struct {
	Name         string
	Kind         ContentsKind
	AllowMissing bool
}

func (cd ColumnDescription) String() string {
	return cd.Name + "(" + cd.Kind.String() + ")"
}

// Schema is an ordered set of column descriptions with unique names.
// A Schema is immutable once built.
type Schema struct {
	columns []ColumnDescription
	index   map[string]int
}

func NewSchema(columns ...ColumnDescription) (*Schema, error) {
	s := &Schema{
		columns: make([]ColumnDescription, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for _, cd := range columns {
		if _, ok := s.index[cd.Name]; ok {
			return nil, errors.Mark(
				errors.Newf("duplicate column name %q", cd.Name),
				ErrInvalidArgument)
		}
		s.index[cd.Name] = len(s.columns)
		s.columns = append(s.columns, cd)
	}
	return s, nil
}

func (s *Schema) NumColumns() int {
	return len(s.columns)
}

func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.columns))
	for i, cd := range s.columns {
		names[i] = cd.Name
	}
	return names
}

func (s *Schema) Description(name string) (ColumnDescription, bool) {
	i, ok := s.index[name]
	if !ok {
		return ColumnDescription{}, false
	}
	return s.columns[i], true
}

func (s *Schema) DescriptionAt(i int) ColumnDescription {
	return s.columns[i]
}

// Project returns the sub-schema containing only the named columns, in the
// given order.
func (s *Schema) Project(names []string) (*Schema, error) {
	sub := make([]ColumnDescription, 0, len(names))
	for _, name := range names {
		cd, ok := s.Description(name)
		if !ok {
			return nil, errors.Mark(
				errors.Newf("no column %q in schema", name),
				ErrInvalidArgument)
		}
		sub = append(sub, cd)
	}
	return NewSchema(sub...)
}

// Equal reports whether two schemas have identical columns in identical
// order. A nil schema is only equal to a nil schema.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.columns) != len(other.columns) {
		return false
	}
	for i, cd := range s.columns {
		if cd != other.columns[i] {
			return false
		}
	}
	return true
}
