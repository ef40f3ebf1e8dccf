// -- pkg/humantype/dynamics_test.go --
package humantype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDynamics(seed int64) *Dynamics {
	return NewDynamics(HumanAdvanced(), DelayRange{MinMs: 80, MaxMs: 180}, NewRandomSource(seed))
}

func TestCalculateDelayBounds(t *testing.T) {
	// Every combination of modifiers must stay inside the physiological
	// clamp, including the pause paths that add gamma tails.
	cases := []struct {
		name                               string
		ch                                 rune
		sentenceEnd, burst, thinkingPause bool
	}{
		{"plain letter", 'a', false, false, false},
		{"digit", '7', false, false, false},
		{"space", ' ', false, false, false},
		{"newline", '\n', false, false, false},
		{"sentence end", '.', true, false, false},
		{"burst", 'e', false, true, false},
		{"thinking pause", ' ', false, false, true},
		{"everything at once", '!', true, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newTestDynamics(42)
			for i := 0; i < 1500; i++ {
				delay := d.CalculateDelay(tc.ch, tc.sentenceEnd, tc.burst, tc.thinkingPause)
				require.GreaterOrEqual(t, delay, 15)
				require.LessOrEqual(t, delay, 8000)
				d.UpdateState(tc.ch)
			}
		})
	}
}

func TestHoldTime(t *testing.T) {
	d := newTestDynamics(7)

	t.Run("stays within the clamp", func(t *testing.T) {
		for i := 0; i < 2000; i++ {
			hold := d.HoldTime('a')
			require.GreaterOrEqual(t, hold, 40)
			require.LessOrEqual(t, hold, 180)
		}
	})

	t.Run("uppercase keys are held longer on average", func(t *testing.T) {
		const n = 5000
		var lower, upper int
		for i := 0; i < n; i++ {
			lower += d.HoldTime('a')
			upper += d.HoldTime('A')
		}
		assert.Greater(t, float64(upper)/n, float64(lower)/n,
			"shift reach should lengthen the mean hold")
	})
}

func TestDigraphFactor(t *testing.T) {
	d := newTestDynamics(1)

	t.Run("common english pairs are faster", func(t *testing.T) {
		for _, pair := range [][2]rune{{'t', 'h'}, {'h', 'e'}, {'i', 'n'}, {'a', 'n'}, {'n', 'd'}} {
			assert.Equal(t, 0.75, d.DigraphFactor(pair[0], pair[1]), "pair %c%c", pair[0], pair[1])
		}
	})

	t.Run("case is ignored for common pairs", func(t *testing.T) {
		assert.Equal(t, 0.75, d.DigraphFactor('T', 'H'))
	})

	t.Run("awkward stretches are slower", func(t *testing.T) {
		assert.Equal(t, 1.4, d.DigraphFactor('q', 'z'))
		assert.Equal(t, 1.4, d.DigraphFactor('z', 'q'))
		assert.Equal(t, 1.4, d.DigraphFactor('p', 'q'))
	})

	t.Run("same hand pairs carry a small penalty", func(t *testing.T) {
		assert.Equal(t, 1.08, d.DigraphFactor('a', 's')) // both left
		assert.Equal(t, 1.08, d.DigraphFactor('j', 'k')) // both right
	})

	t.Run("cross hand pairs are neutral", func(t *testing.T) {
		assert.Equal(t, 1.0, d.DigraphFactor('a', 'k'))
	})
}

func TestFatigueGrowsWithVolume(t *testing.T) {
	d := newTestDynamics(5)
	assert.Equal(t, 1.0, d.fatigueFactor)

	for i := 0; i < 1000; i++ {
		d.UpdateState('a')
	}
	assert.InDelta(t, 1.25, d.fatigueFactor, 1e-9, "fatigue should saturate at +25% after 1000 chars")

	// Saturated: more typing does not push it further.
	for i := 0; i < 500; i++ {
		d.UpdateState('a')
	}
	assert.InDelta(t, 1.25, d.fatigueFactor, 1e-9)
}

func TestShouldBurstProducesRuns(t *testing.T) {
	d := newTestDynamics(9)

	// Find the start of a burst, then verify the countdown keeps it alive.
	started := false
	for i := 0; i < 10000 && !started; i++ {
		if d.ShouldBurst() {
			started = true
		}
	}
	require.True(t, started, "a 14% burst probability must fire within 10k rolls")

	if d.burstRemaining > 0 {
		remaining := d.burstRemaining
		for i := 0; i < remaining; i++ {
			assert.True(t, d.ShouldBurst(), "an active burst must continue for its full run")
		}
	}
}

func TestShouldThinkingPauseNeedsEnoughWords(t *testing.T) {
	d := newTestDynamics(3)

	// Threshold is at least 8 words; below that a pause can never trigger.
	for i := 0; i < 1000; i++ {
		require.False(t, d.ShouldThinkingPause(5))
	}

	// Far above the threshold the 30% roll must eventually pass.
	fired := false
	for i := 0; i < 1000 && !fired; i++ {
		fired = d.ShouldThinkingPause(50)
	}
	assert.True(t, fired)
}

func TestResetClearsRollingState(t *testing.T) {
	d := newTestDynamics(11)
	for i := 0; i < 300; i++ {
		d.UpdateState('x')
	}
	require.NotEqual(t, 1.0, d.fatigueFactor)

	d.Reset()
	assert.Equal(t, 1.0, d.fatigueFactor)
	assert.Equal(t, 0, d.totalTyped)
	assert.Equal(t, rune(0), d.previousChar)
}
