package table

import (
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/cockroachdb/errors"
)

// Column is a fixed-length sequence of values of one kind with a missing
// bit per row. Columns are immutable once built.
//
// AsDouble is the monotone numeric projection used uniformly by histogram
// and quantile code; it must only be called on columns whose kind IsNumeric.
// GetString must only be called on columns whose kind IsString. Callers
// validate kinds up front (returning ErrInvalidArgument), so scan loops do
// not pay a per-row check.
type Column interface {
	Description() ColumnDescription
	Size() int
	IsMissing(row int) bool
	AsDouble(row int) float64
	GetString(row int) string
	GetValue(row int) interface{}
}

type missingBits struct {
	bits *roaring.Bitmap
}

func (m missingBits) missing(row int) bool {
	return m.bits != nil && m.bits.Contains(uint32(row))
}

// IntColumn stores Integer-kind values.
type IntColumn struct {
	desc ColumnDescription
	data []int64
	missingBits
}

func NewIntColumn(desc ColumnDescription, data []int64, missing *roaring.Bitmap) *IntColumn {
	return &IntColumn{desc: desc, data: data, missingBits: missingBits{missing}}
}

func (c *IntColumn) Description() ColumnDescription { return c.desc }
func (c *IntColumn) Size() int                      { return len(c.data) }
func (c *IntColumn) IsMissing(row int) bool         { return c.missing(row) }
func (c *IntColumn) AsDouble(row int) float64       { return float64(c.data[row]) }
func (c *IntColumn) GetString(row int) string       { panic("GetString on Integer column") }
func (c *IntColumn) GetValue(row int) interface{}   { return c.data[row] }

// DoubleColumn stores Double-kind values.
type DoubleColumn struct {
	desc ColumnDescription
	data []float64
	missingBits
}

func NewDoubleColumn(desc ColumnDescription, data []float64, missing *roaring.Bitmap) *DoubleColumn {
	return &DoubleColumn{desc: desc, data: data, missingBits: missingBits{missing}}
}

func (c *DoubleColumn) Description() ColumnDescription { return c.desc }
func (c *DoubleColumn) Size() int                      { return len(c.data) }
func (c *DoubleColumn) IsMissing(row int) bool         { return c.missing(row) }
func (c *DoubleColumn) AsDouble(row int) float64       { return c.data[row] }
func (c *DoubleColumn) GetString(row int) string       { panic("GetString on Double column") }
func (c *DoubleColumn) GetValue(row int) interface{}   { return c.data[row] }

// StringColumn stores String- or Json-kind values.
type StringColumn struct {
	desc ColumnDescription
	data []string
	missingBits
}

func NewStringColumn(desc ColumnDescription, data []string, missing *roaring.Bitmap) *StringColumn {
	return &StringColumn{desc: desc, data: data, missingBits: missingBits{missing}}
}

func (c *StringColumn) Description() ColumnDescription { return c.desc }
func (c *StringColumn) Size() int                      { return len(c.data) }
func (c *StringColumn) IsMissing(row int) bool         { return c.missing(row) }
func (c *StringColumn) AsDouble(row int) float64       { panic("AsDouble on String column") }
func (c *StringColumn) GetString(row int) string       { return c.data[row] }
func (c *StringColumn) GetValue(row int) interface{}   { return c.data[row] }

// DateColumn stores Date-kind values as milliseconds since the Unix epoch,
// which keeps the AsDouble projection monotone.
type DateColumn struct {
	desc ColumnDescription
	data []int64
	missingBits
}

func NewDateColumn(desc ColumnDescription, dates []time.Time, missing *roaring.Bitmap) *DateColumn {
	data := make([]int64, len(dates))
	for i, d := range dates {
		data[i] = d.UnixMilli()
	}
	return &DateColumn{desc: desc, data: data, missingBits: missingBits{missing}}
}

func (c *DateColumn) Description() ColumnDescription { return c.desc }
func (c *DateColumn) Size() int                      { return len(c.data) }
func (c *DateColumn) IsMissing(row int) bool         { return c.missing(row) }
func (c *DateColumn) AsDouble(row int) float64       { return float64(c.data[row]) }
func (c *DateColumn) GetString(row int) string       { panic("GetString on Date column") }
func (c *DateColumn) GetValue(row int) interface{} {
	return time.UnixMilli(c.data[row]).UTC()
}

// DurationColumn stores Duration-kind values as milliseconds.
type DurationColumn struct {
	desc ColumnDescription
	data []int64
	missingBits
}

func NewDurationColumn(desc ColumnDescription, durations []time.Duration, missing *roaring.Bitmap) *DurationColumn {
	data := make([]int64, len(durations))
	for i, d := range durations {
		data[i] = d.Milliseconds()
	}
	return &DurationColumn{desc: desc, data: data, missingBits: missingBits{missing}}
}

func (c *DurationColumn) Description() ColumnDescription { return c.desc }
func (c *DurationColumn) Size() int                      { return len(c.data) }
func (c *DurationColumn) IsMissing(row int) bool         { return c.missing(row) }
func (c *DurationColumn) AsDouble(row int) float64       { return float64(c.data[row]) }
func (c *DurationColumn) GetString(row int) string       { panic("GetString on Duration column") }
func (c *DurationColumn) GetValue(row int) interface{} {
	return time.Duration(c.data[row]) * time.Millisecond
}

// ColumnBuilder accumulates rows for one column and seals them into an
// immutable Column. It is how derived tables (compressed subsets, merged
// quantile landmarks) materialize their columns.
type ColumnBuilder struct {
	desc    ColumnDescription
	ints    []int64
	doubles []float64
	strings []string
	missing *roaring.Bitmap
	size    int
}

func NewColumnBuilder(desc ColumnDescription) *ColumnBuilder {
	return &ColumnBuilder{desc: desc}
}

// AppendFrom copies one row from a column of the same kind.
func (b *ColumnBuilder) AppendFrom(col Column, row int) {
	if col.IsMissing(row) {
		b.AppendMissing()
		return
	}
	switch b.desc.Kind {
	case Integer, Date, Duration:
		b.appendInt(int64(col.AsDouble(row)))
	case Double:
		b.appendDouble(col.AsDouble(row))
	case String, Json:
		b.appendString(col.GetString(row))
	}
}

func (b *ColumnBuilder) AppendMissing() {
	if b.missing == nil {
		b.missing = roaring.New()
	}
	b.missing.Add(uint32(b.size))
	switch b.desc.Kind {
	case Integer, Date, Duration:
		b.ints = append(b.ints, 0)
	case Double:
		b.doubles = append(b.doubles, 0)
	case String, Json:
		b.strings = append(b.strings, "")
	}
	b.size++
}

func (b *ColumnBuilder) appendInt(v int64) {
	b.ints = append(b.ints, v)
	b.size++
}

func (b *ColumnBuilder) appendDouble(v float64) {
	b.doubles = append(b.doubles, v)
	b.size++
}

func (b *ColumnBuilder) appendString(v string) {
	b.strings = append(b.strings, v)
	b.size++
}

// Seal returns the built column. The builder must not be reused.
func (b *ColumnBuilder) Seal() Column {
	switch b.desc.Kind {
	case Integer:
		return NewIntColumn(b.desc, b.ints, b.missing)
	case Double:
		return NewDoubleColumn(b.desc, b.doubles, b.missing)
	case String, Json:
		return NewStringColumn(b.desc, b.strings, b.missing)
	case Date:
		return &DateColumn{desc: b.desc, data: b.ints, missingBits: missingBits{b.missing}}
	case Duration:
		return &DurationColumn{desc: b.desc, data: b.ints, missingBits: missingBits{b.missing}}
	}
	panic(errors.Newf("unknown column kind %v", b.desc.Kind))
}
