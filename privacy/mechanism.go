package privacy

import (
	"math"
	"math/rand"

	"github.com/cockroachdb/errors"

	"sketchdb/sketch"
	"sketchdb/table"
)

// PrivateHistogram is a histogram with calibrated Laplace noise added to its
// dyadic cumulative counts. Counts are real-valued after noising.
type PrivateHistogram struct {
	Counts  []float64
	Missing int64
	Epsilon float64
	Scale   float64
}

// NoiseScale is the Laplace scale of the binary mechanism:
// log2(leaves)/epsilon. The budget is spent on the O(log leaves) levels of
// the dyadic interval tree, not per bucket, so total privacy loss for one
// released histogram is bounded by epsilon regardless of bucket count.
func NoiseScale(leaves int, epsilon float64) float64 {
	return math.Log2(float64(leaves)) / epsilon
}

// AddDyadicLaplaceNoise applies the binary mechanism to a complete
// non-private histogram, assembled over dyadic-aligned buckets. It is
// applied exactly once per release, never per partition. Independent
// Laplace noise is drawn for every dyadic interval node touched by a bucket
// boundary; bucket counts are derived as differences of noisy cumulative
// sums, so one release sees consistent noise per node while separate
// releases are independently randomized.
func AddDyadicLaplaceNoise(h *sketch.Histogram, buckets *sketch.DyadicBuckets, md ColumnMetadata, rng *rand.Rand) (*PrivateHistogram, error) {
	if err := md.validate(); err != nil {
		return nil, err
	}
	if len(h.Counts) != buckets.NumBuckets() {
		return nil, errors.Mark(
			errors.Newf("histogram has %d buckets, descriptor %d",
				len(h.Counts), buckets.NumBuckets()),
			table.ErrSchemaMismatch)
	}
	scale := NoiseScale(buckets.NumLeaves(), md.Epsilon)
	noise := newNodeNoise(scale, rng)

	// Noisy cumulative count at every bucket boundary, in leaves.
	prefix := make([]float64, buckets.NumBuckets()+1)
	cumulative := int64(0)
	for i := 0; i <= buckets.NumBuckets(); i++ {
		prefix[i] = float64(cumulative) + noise.prefixNoise(i*buckets.LeavesPerBucket())
		if i < buckets.NumBuckets() {
			cumulative += h.Counts[i]
		}
	}

	out := &PrivateHistogram{
		Counts:  make([]float64, buckets.NumBuckets()),
		Missing: h.Missing,
		Epsilon: md.Epsilon,
		Scale:   scale,
	}
	for i := range out.Counts {
		out.Counts[i] = prefix[i+1] - prefix[i]
	}
	return out, nil
}

// nodeNoise memoizes one Laplace draw per dyadic interval node, keyed by
// (level, index), for the duration of a single release.
type nodeNoise struct {
	scale float64
	rng   *rand.Rand
	drawn map[[2]int]float64
}

func newNodeNoise(scale float64, rng *rand.Rand) *nodeNoise {
	return &nodeNoise{scale: scale, rng: rng, drawn: make(map[[2]int]float64)}
}

// prefixNoise sums the node noise over the dyadic decomposition of the leaf
// prefix [0, k).
func (n *nodeNoise) prefixNoise(k int) float64 {
	total := 0.0
	pos := 0
	for pos < k {
		level := 0
		for pos%(1<<(level+1)) == 0 && pos+(1<<(level+1)) <= k {
			level++
		}
		total += n.at(level, pos>>level)
		pos += 1 << level
	}
	return total
}

func (n *nodeNoise) at(level, index int) float64 {
	key := [2]int{level, index}
	if v, ok := n.drawn[key]; ok {
		return v
	}
	v := laplace(n.scale, n.rng)
	n.drawn[key] = v
	return v
}

// laplace draws from the Laplace distribution with the given scale by
// inverting the CDF.
func laplace(scale float64, rng *rand.Rand) float64 {
	u := rng.Float64() - 0.5
	if u < 0 {
		return scale * math.Log(1+2*u)
	}
	return -scale * math.Log(1-2*u)
}
