package sketch

import (
	"context"
	"sort"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchdb/dataset"
	"sketchdb/table"
)

func ascendingX() table.RecordOrder {
	return table.RecordOrder{{Name: "x", Ascending: true}}
}

func landmarkValues(t *testing.T, q *QuantileList) []int64 {
	t.Helper()
	col, err := q.Quantile.Column("x")
	require.NoError(t, err)
	values := make([]int64, 0, q.Size())
	for i := 0; i < q.Size(); i++ {
		values = append(values, int64(col.AsDouble(i)))
	}
	return values
}

// trueRank counts how many of the values sort strictly below v.
func trueRank(values []int64, v int64) int {
	rank := 0
	for _, x := range values {
		if x < v {
			rank++
		}
	}
	return rank
}

// checkBrackets verifies the rank brackets contain the true rank of every
// landmark, up to tol rows of drift: each partition's landmark sits up to
// resolution-1 positions past its nominal rank (the step is rounded up so
// the list reaches the extremes), and merging sums that drift.
func checkBrackets(t *testing.T, q *QuantileList, all []int64, tol int) {
	t.Helper()
	landmarks := landmarkValues(t, q)
	for i, v := range landmarks {
		rank := trueRank(all, v)
		upper := q.UpperRank(i)
		assert.LessOrEqual(t, q.Wins(i), rank+tol,
			"landmark %d value %d: wins exceeds true rank", i, v)
		assert.LessOrEqual(t, rank, upper+tol,
			"landmark %d value %d: true rank exceeds upper bound", i, v)
	}
}

// checkMonotone verifies the rank brackets move with the sort order: Wins
// non-decreasing, Losses non-increasing (a larger landmark loses to fewer
// rows), so UpperRank = DataSize - Losses is non-decreasing and each
// bracket is well formed.
func checkMonotone(t *testing.T, q *QuantileList) {
	t.Helper()
	for i := 1; i < q.Size(); i++ {
		assert.LessOrEqual(t, q.Wins(i-1), q.Wins(i))
		assert.GreaterOrEqual(t, q.Losses(i-1), q.Losses(i))
		assert.LessOrEqual(t, q.UpperRank(i-1), q.UpperRank(i))
	}
	for i := 0; i < q.Size(); i++ {
		assert.LessOrEqual(t, q.Wins(i), q.UpperRank(i))
	}
}

// The 12-row full-pass case pins down exact landmark positions and rank
// brackets.
func TestQuantileSketch_TwelveRowsExact(t *testing.T) {
	values := []int64{47, 3, 19, 8, 30, 25, 1, 42, 12, 36, 21, 5}
	tbl := intTable(t, values)
	sk, err := NewQuantileSketch(tbl.Schema(), ascendingX(), 4, 17)
	require.NoError(t, err)

	q, err := sk.Create(tbl)
	require.NoError(t, err)
	require.Equal(t, 4, q.Size())
	assert.Equal(t, 12, q.DataSize)

	sorted := append([]int64{}, values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	// Sorted positions 2, 5, 8, 11.
	assert.Equal(t, []int64{sorted[2], sorted[5], sorted[8], sorted[11]},
		landmarkValues(t, q))

	// dataStep = 12/5 = 2.
	assert.Equal(t, []WinsAndLosses{
		{Wins: 2, Losses: 8},
		{Wins: 4, Losses: 6},
		{Wins: 6, Losses: 4},
		{Wins: 8, Losses: 2},
	}, q.Ranks)
	checkMonotone(t, q)
}

func TestQuantileSketch_EmptyPartitionIsZero(t *testing.T) {
	tbl := intTable(t, nil)
	sk, err := NewQuantileSketch(tbl.Schema(), ascendingX(), 4, 0)
	require.NoError(t, err)

	q, err := sk.Create(tbl)
	require.NoError(t, err)
	assert.Equal(t, 0, q.DataSize)
	assert.Equal(t, 0, q.Size())
}

func TestQuantileSketch_AddWithZeroIsIdentity(t *testing.T) {
	tbl := intTable(t, []int64{9, 2, 7, 4, 1, 8, 3, 6, 5, 0, 11, 10})
	sk, err := NewQuantileSketch(tbl.Schema(), ascendingX(), 3, 5)
	require.NoError(t, err)

	q, err := sk.Create(tbl)
	require.NoError(t, err)

	merged, err := sk.Add(sk.Zero(), q)
	require.NoError(t, err)
	assert.Equal(t, q, merged)

	merged, err = sk.Add(q, sk.Zero())
	require.NoError(t, err)
	assert.Equal(t, q, merged)
}

func TestQuantileSketch_MergeDisjointPartitions(t *testing.T) {
	// Three disjoint partitions of 0..599, interleaved by residue.
	parts := make([][]int64, 3)
	all := make([]int64, 0, 600)
	for i := int64(0); i < 600; i++ {
		parts[i%3] = append(parts[i%3], i)
		all = append(all, i)
	}
	tbl := intTable(t, parts[0])
	sk, err := NewQuantileSketch(tbl.Schema(), ascendingX(), 4, 23)
	require.NoError(t, err)

	qs := make([]*QuantileList, 3)
	for i, p := range parts {
		q, err := sk.Create(intTable(t, p))
		require.NoError(t, err)
		qs[i] = q
	}

	leftAssoc, err := sk.Add(qs[0], qs[1])
	require.NoError(t, err)
	leftAssoc, err = sk.Add(leftAssoc, qs[2])
	require.NoError(t, err)

	rightInner, err := sk.Add(qs[1], qs[2])
	require.NoError(t, err)
	rightAssoc, err := sk.Add(qs[0], rightInner)
	require.NoError(t, err)

	// Both association orders must give sound, monotone brackets over the
	// union, even if landmark identities differ.
	for _, q := range []*QuantileList{leftAssoc, rightAssoc} {
		assert.Equal(t, 600, q.DataSize)
		checkBrackets(t, q, all, 3*4)
		checkMonotone(t, q)
	}
}

func TestQuantileSketch_MergeCompresses(t *testing.T) {
	resolution := 2
	tbl := intTable(t, nil)
	sk, err := NewQuantileSketch(tbl.Schema(), ascendingX(), resolution, 3)
	require.NoError(t, err)

	acc := sk.Zero()
	for p := 0; p < 40; p++ {
		values := make([]int64, 50)
		for i := range values {
			values[i] = int64(p*50 + i)
		}
		q, err := sk.Create(intTable(t, values))
		require.NoError(t, err)
		acc, err = sk.Add(acc, q)
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, acc.Size(), 10*resolution)
	assert.Equal(t, 2000, acc.DataSize)
	checkMonotone(t, acc)
}

func TestQuantileSketch_SchemaMismatch(t *testing.T) {
	xTbl := intTable(t, []int64{4, 1, 3, 2, 5, 0})
	skX, err := NewQuantileSketch(xTbl.Schema(), ascendingX(), 2, 0)
	require.NoError(t, err)
	qx, err := skX.Create(xTbl)
	require.NoError(t, err)

	descY := table.ColumnDescription{Name: "y", Kind: table.Double}
	schemaY, err := table.NewSchema(descY)
	require.NoError(t, err)
	yTbl, err := table.NewTable(schemaY, []table.Column{
		table.NewDoubleColumn(descY, []float64{1, 2, 3, 4, 5, 6}, nil),
	}, nil)
	require.NoError(t, err)
	skY, err := NewQuantileSketch(schemaY, table.RecordOrder{{Name: "y", Ascending: true}}, 2, 0)
	require.NoError(t, err)
	qy, err := skY.Create(yTbl)
	require.NoError(t, err)

	_, err = skX.Add(qx, qy)
	assert.True(t, errors.Is(err, table.ErrSchemaMismatch))
}

func TestQuantileSketch_UnsortedInputRejected(t *testing.T) {
	tbl := intTable(t, []int64{5, 1, 4, 2, 3, 0})
	sk, err := NewQuantileSketch(tbl.Schema(), ascendingX(), 2, 0)
	require.NoError(t, err)
	q, err := sk.Create(tbl)
	require.NoError(t, err)

	// Hand-build a list whose landmarks violate the sort order.
	desc := table.ColumnDescription{Name: "x", Kind: table.Integer}
	schema, err := table.NewSchema(desc)
	require.NoError(t, err)
	badTbl, err := table.NewTable(schema, []table.Column{
		table.NewIntColumn(desc, []int64{9, 3}, nil),
	}, nil)
	require.NoError(t, err)
	bad := &QuantileList{
		Quantile: badTbl,
		Ranks:    []WinsAndLosses{{Wins: 1, Losses: 1}, {Wins: 2, Losses: 0}},
		DataSize: 4,
	}

	_, err = sk.Add(q, bad)
	assert.True(t, errors.Is(err, table.ErrInvalidArgument))
}

func TestQuantileSketch_OverTree(t *testing.T) {
	all := make([]int64, 0, 300)
	parts := make([][]int64, 3)
	for i := int64(0); i < 300; i++ {
		parts[i%3] = append(parts[i%3], i)
		all = append(all, i)
	}
	tree := dataset.NewParallel(
		dataset.NewLeaf(intTable(t, parts[0])),
		dataset.NewParallel(
			dataset.NewLeaf(intTable(t, parts[1])),
			dataset.NewLeaf(intTable(t, parts[2])),
		),
	)
	schema := intTable(t, nil).Schema()
	sk, err := NewQuantileSketch(schema, ascendingX(), 4, 11)
	require.NoError(t, err)

	q, err := dataset.RunSketch[*table.Table, *QuantileList](context.Background(), tree, sk)
	require.NoError(t, err)
	assert.Equal(t, 300, q.DataSize)
	checkBrackets(t, q, all, 3*4)
	checkMonotone(t, q)
}
