// -- pkg/humantype/random.go --
package humantype

import (
	"math"
	"math/rand"
	"time"
)

// RandomSource bundles the sampling primitives the timing model draws from.
// Each session owns its own source, so the cached Gaussian spare value never
// leaks between unrelated sessions and tests can seed deterministically.
type RandomSource struct {
	rng      *rand.Rand
	spare    float64
	hasSpare bool
}

// NewRandomSource creates a source from the given seed. A zero seed falls
// back to the wall clock.
func NewRandomSource(seed int64) *RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomSource{rng: rand.New(rand.NewSource(seed))}
}

// Uniform returns a float in [0,1).
func (r *RandomSource) Uniform() float64 {
	return r.rng.Float64()
}

// Range returns an integer in [min,max] inclusive, swapping the operands if
// they arrive out of order.
func (r *RandomSource) Range(min, max int) int {
	if min > max {
		min, max = max, min
	}
	return min + r.rng.Intn(max-min+1)
}

// Normal draws from N(mean, stddev) using the Marsaglia polar method. The
// unused second sample is cached for the next call.
func (r *RandomSource) Normal(mean, stddev float64) float64 {
	if r.hasSpare {
		r.hasSpare = false
		return mean + stddev*r.spare
	}

	var u, v, s float64
	for {
		u = r.Uniform()*2.0 - 1.0
		v = r.Uniform()*2.0 - 1.0
		s = u*u + v*v
		if s < 1.0 && s != 0.0 {
			break
		}
	}

	s = math.Sqrt(-2.0 * math.Log(s) / s)
	r.spare = v * s
	r.hasSpare = true

	return mean + stddev*u*s
}

// Gamma draws from Gamma(shape, scale) via Marsaglia-Tsang rejection
// sampling. Shapes below 1 are boosted and corrected with a uniform power.
// The rejection loop terminates with probability 1 but has no iteration cap.
func (r *RandomSource) Gamma(shape, scale float64) float64 {
	if shape < 1.0 {
		return r.Gamma(1.0+shape, scale) * math.Pow(r.Uniform(), 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	for {
		var x, v float64
		for {
			x = r.Normal(0.0, 1.0)
			v = 1.0 + c*x
			if v > 0.0 {
				break
			}
		}

		v = v * v * v
		u := r.Uniform()

		if u < 1.0-0.0331*x*x*x*x {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}
