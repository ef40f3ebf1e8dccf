// -- pkg/humantype/random_test.go --
package humantype

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomSourceRange(t *testing.T) {
	r := NewRandomSource(1)

	t.Run("bounds are inclusive", func(t *testing.T) {
		seenLo, seenHi := false, false
		for i := 0; i < 10000; i++ {
			v := r.Range(2, 5)
			require.GreaterOrEqual(t, v, 2)
			require.LessOrEqual(t, v, 5)
			if v == 2 {
				seenLo = true
			}
			if v == 5 {
				seenHi = true
			}
		}
		assert.True(t, seenLo, "lower bound should be reachable")
		assert.True(t, seenHi, "upper bound should be reachable")
	})

	t.Run("swapped bounds behave like ordered ones", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			v := r.Range(10, 3)
			require.GreaterOrEqual(t, v, 3)
			require.LessOrEqual(t, v, 10)
		}
	})

	t.Run("degenerate range is a constant", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			assert.Equal(t, 7, r.Range(7, 7))
		}
	})
}

func TestRandomSourceUniform(t *testing.T) {
	r := NewRandomSource(2)
	var sum float64
	const n = 20000
	for i := 0; i < n; i++ {
		v := r.Uniform()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
		sum += v
	}
	assert.InDelta(t, 0.5, sum/n, 0.02, "uniform mean should sit near 0.5")
}

func TestRandomSourceNormal(t *testing.T) {
	r := NewRandomSource(3)
	const n = 50000
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		v := r.Normal(10.0, 2.0)
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	assert.InDelta(t, 10.0, mean, 0.1)
	assert.InDelta(t, 2.0, math.Sqrt(variance), 0.1)
}

func TestRandomSourceGamma(t *testing.T) {
	r := NewRandomSource(4)

	t.Run("samples are positive with the expected mean", func(t *testing.T) {
		const shape, scale = 2.0, 1.5
		const n = 50000
		var sum float64
		for i := 0; i < n; i++ {
			v := r.Gamma(shape, scale)
			require.Greater(t, v, 0.0)
			sum += v
		}
		// E[gamma(k, theta)] = k * theta.
		assert.InDelta(t, shape*scale, sum/n, 0.1)
	})

	t.Run("shape below one uses the boost path", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			require.Greater(t, r.Gamma(0.5, 1.0), 0.0)
		}
	})
}

func TestRandomSourceDeterminism(t *testing.T) {
	a := NewRandomSource(99)
	b := NewRandomSource(99)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Range(0, 1000), b.Range(0, 1000))
		assert.Equal(t, a.Uniform(), b.Uniform())
		assert.Equal(t, a.Gamma(2.0, 1.0), b.Gamma(2.0, 1.0))
		assert.Equal(t, a.Normal(0, 1), b.Normal(0, 1))
	}
}
