package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestColumn_GetValue(t *testing.T) {
	assert.Equal(t, int64(7),
		NewIntColumn(ColumnDescription{Name: "i", Kind: Integer}, []int64{7}, nil).GetValue(0))
	assert.Equal(t, 2.5,
		NewDoubleColumn(ColumnDescription{Name: "d", Kind: Double}, []float64{2.5}, nil).GetValue(0))
	assert.Equal(t, "abc",
		NewStringColumn(ColumnDescription{Name: "s", Kind: String}, []string{"abc"}, nil).GetValue(0))
}

// Dates are stored at millisecond resolution, so a millisecond-aligned UTC
// instant round-trips through GetValue exactly.
func TestDateColumn_GetValueRoundTrip(t *testing.T) {
	when := time.Date(2024, 3, 15, 9, 30, 0, 250e6, time.UTC)
	col := NewDateColumn(ColumnDescription{Name: "t", Kind: Date}, []time.Time{when}, nil)

	assert.Equal(t, when, col.GetValue(0))
	assert.Equal(t, float64(when.UnixMilli()), col.AsDouble(0))
}

func TestDurationColumn_GetValueRoundTrip(t *testing.T) {
	d := 90*time.Minute + 500*time.Millisecond
	col := NewDurationColumn(ColumnDescription{Name: "e", Kind: Duration}, []time.Duration{d}, nil)

	assert.Equal(t, d, col.GetValue(0))
	assert.Equal(t, float64(d.Milliseconds()), col.AsDouble(0))
}
