// Package stats provides numerically stable streaming moments.
package stats

import "math"

type Welford struct {
	count uint64
	mean  float64
	m2    float64
}

func NewWelford() *Welford {
	return &Welford{
		count: 0,
		mean:  0,
		m2:    0,
	}
}

func (welford *Welford) Update(value float64) {
	welford.count++
	delta := value - welford.mean
	welford.mean += delta / float64(welford.count)
	delta2 := value - welford.mean
	welford.m2 += delta * delta2
}

// Merge combines two independently accumulated estimators into a fresh one
// covering the union of their observations (Chan et al. pairwise update).
// Neither input is modified.
func (welford *Welford) Merge(other *Welford) *Welford {
	if other.count == 0 {
		return &Welford{count: welford.count, mean: welford.mean, m2: welford.m2}
	}
	if welford.count == 0 {
		return &Welford{count: other.count, mean: other.mean, m2: other.m2}
	}
	total := welford.count + other.count
	delta := other.mean - welford.mean
	na, nb := float64(welford.count), float64(other.count)
	return &Welford{
		count: total,
		mean:  welford.mean + delta*nb/float64(total),
		m2:    welford.m2 + other.m2 + delta*delta*na*nb/float64(total),
	}
}

func (welford *Welford) GetCount() uint64 {
	return welford.count
}

func (welford *Welford) GetMean() float64 {
	return welford.mean
}

func (welford *Welford) GetVariance() float64 {
	if welford.count < 2 {
		return 0
	}
	return welford.m2 / float64(welford.count)
}

func (welford *Welford) GetSampleVariance() float64 {
	if welford.count < 2 {
		return 0
	}
	return welford.m2 / float64(welford.count-1)
}

func (welford *Welford) GetSD() float64 {
	return math.Sqrt(welford.GetSampleVariance())
}

func (welford *Welford) GetCV() float64 {
	if welford.count < 2 {
		return 0
	}
	return welford.GetSD() / welford.GetMean()
}
