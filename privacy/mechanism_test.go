package privacy

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchdb/sketch"
	"sketchdb/table"
)

func TestNoiseScale_Law(t *testing.T) {
	assert.Equal(t, 4.0, NoiseScale(16, 1.0))
	assert.Equal(t, 8.0, NoiseScale(256, 1.0))
	assert.Equal(t, 8.0, NoiseScale(16, 0.5))

	// Finer granularity means more leaves and a larger scale, exactly
	// log2(leaves)/epsilon.
	for _, leaves := range []int{2, 4, 8, 64, 1024} {
		assert.InDelta(t,
			math.Log2(float64(leaves))/0.25,
			NoiseScale(leaves, 0.25), 1e-12)
	}
}

func testHistogram(t *testing.T) (*sketch.Histogram, *sketch.DyadicBuckets) {
	t.Helper()
	buckets, err := sketch.NewDyadicBuckets(0, 16, 4, 1)
	require.NoError(t, err)
	h := sketch.NewHistogram(4)
	copy(h.Counts, []int64{10, 20, 30, 40})
	h.Missing = 5
	return h, buckets
}

func TestAddDyadicLaplaceNoise_Randomized(t *testing.T) {
	h, buckets := testHistogram(t)
	md := ColumnMetadata{Epsilon: 1, Granularity: 1, GlobalMin: 0, GlobalMax: 16}

	a, err := AddDyadicLaplaceNoise(h, buckets, md, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	b, err := AddDyadicLaplaceNoise(h, buckets, md, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	assert.Equal(t, NoiseScale(16, 1), a.Scale)
	assert.Equal(t, int64(5), a.Missing)
	assert.Len(t, a.Counts, 4)
	// Two releases draw independent noise.
	assert.NotEqual(t, a.Counts, b.Counts)
	// The exact histogram is untouched.
	assert.Equal(t, []int64{10, 20, 30, 40}, h.Counts)
}

func TestAddDyadicLaplaceNoise_ExpectationConverges(t *testing.T) {
	h, buckets := testHistogram(t)
	md := ColumnMetadata{Epsilon: 1, Granularity: 1, GlobalMin: 0, GlobalMax: 16}
	rng := rand.New(rand.NewSource(7))

	const runs = 4000
	sums := make([]float64, 4)
	for r := 0; r < runs; r++ {
		p, err := AddDyadicLaplaceNoise(h, buckets, md, rng)
		require.NoError(t, err)
		for i, c := range p.Counts {
			sums[i] += c
		}
	}
	// Laplace noise has zero mean, so the average converges to the true
	// count. Scale is 4, so a generous band suffices at this many runs.
	for i, want := range []float64{10, 20, 30, 40} {
		assert.InDelta(t, want, sums[i]/runs, 1.0, "bucket %d", i)
	}
}

func TestAddDyadicLaplaceNoise_BucketCountMismatch(t *testing.T) {
	_, buckets := testHistogram(t)
	md := ColumnMetadata{Epsilon: 1, Granularity: 1, GlobalMin: 0, GlobalMax: 16}

	_, err := AddDyadicLaplaceNoise(sketch.NewHistogram(8), buckets, md,
		rand.New(rand.NewSource(1)))
	assert.True(t, errors.Is(err, table.ErrSchemaMismatch))
}

func TestAddDyadicLaplaceNoise_BadMetadata(t *testing.T) {
	h, buckets := testHistogram(t)
	md := ColumnMetadata{Epsilon: -1, Granularity: 1, GlobalMin: 0, GlobalMax: 16}

	_, err := AddDyadicLaplaceNoise(h, buckets, md, rand.New(rand.NewSource(1)))
	assert.True(t, errors.Is(err, table.ErrInvalidArgument))
}

func TestPrefixNoise_ConsistentWithinRelease(t *testing.T) {
	noise := newNodeNoise(1.0, rand.New(rand.NewSource(3)))
	// The same prefix decomposes to the same nodes and must see the same
	// noise when queried twice in one release.
	assert.Equal(t, noise.prefixNoise(8), noise.prefixNoise(8))
	// The full-range prefix covers one root node.
	assert.Equal(t, noise.at(3, 0), noise.prefixNoise(8))
}

func TestLaplace_ZeroMeanAndScale(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const n = 200000
	sum, sumAbs := 0.0, 0.0
	for i := 0; i < n; i++ {
		v := laplace(2.0, rng)
		sum += v
		sumAbs += math.Abs(v)
	}
	assert.InDelta(t, 0.0, sum/n, 0.05)
	// E|X| = scale for the Laplace distribution.
	assert.InDelta(t, 2.0, sumAbs/n, 0.05)
}
