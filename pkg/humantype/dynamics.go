// -- pkg/humantype/dynamics.go --
package humantype

import (
	"math"
	"strings"
	"unicode"
)

const (
	twoPi = 6.28318530718

	// Hard physiological bounds on the generated timings.
	minDelayMs    = 15
	maxDelayMs    = 8000
	minHoldTimeMs = 40
	maxHoldTimeMs = 180

	// Fatigue ramps from 1.0 to 1.25 over the first thousand characters and
	// then plateaus; it is only recomputed every fatigueUpdateChars.
	fatigueUpdateChars = 50
	fatigueMaxChars    = 1000
	fatigueMaxBonus    = 0.25

	rhythmPhaseStep = 0.03
)

// Common English digraphs typed from muscle memory, hence faster.
var fastDigraphs = map[string]bool{
	"th": true, "he": true, "in": true, "er": true, "an": true,
	"re": true, "on": true, "at": true, "en": true, "nd": true,
}

// Fixed US-layout hand partition for the same-hand penalty.
const (
	leftHandKeys  = "qwertasdfgzxcvb"
	rightHandKeys = "yuiophjklnm"
)

// Dynamics computes per-character hold times and inter-chunk delays from a
// timing profile and the rolling session state (rhythm phase, fatigue, burst
// countdown, previous character). One instance per typing session; it is not
// safe for concurrent use.
type Dynamics struct {
	profile TimingProfile
	delays  DelayRange
	rand    *RandomSource

	previousChar   rune
	rhythmPhase    float64
	fatigueFactor  float64
	burstRemaining int
	totalTyped     int
}

// NewDynamics builds a calculator with a randomized initial rhythm phase so
// two sessions with the same profile do not oscillate in lockstep.
func NewDynamics(profile TimingProfile, delays DelayRange, rand *RandomSource) *Dynamics {
	d := &Dynamics{
		profile: profile,
		delays:  delays.Normalized(),
		rand:    rand,
	}
	d.Reset()
	return d
}

// Reset clears all rolling state back to a fresh session.
func (d *Dynamics) Reset() {
	d.previousChar = 0
	d.rhythmPhase = d.rand.Uniform() * twoPi
	d.fatigueFactor = 1.0
	d.burstRemaining = 0
	d.totalTyped = 0
}

// rhythmicVariation advances the phase accumulator and returns a smooth
// factor in [0.85, 1.15]. This is a deliberate oscillation, not noise: it
// models the natural speed-up/slow-down cycles of sustained typing.
func (d *Dynamics) rhythmicVariation() float64 {
	d.rhythmPhase += rhythmPhaseStep
	rhythm := math.Sin(d.rhythmPhase)*0.5 + 0.5
	return 0.85 + rhythm*0.3
}

// DigraphFactor returns the speed adjustment for typing curr after prev:
// common English pairs are faster, awkward cross-hand stretches slower, and
// same-hand pairs carry a small penalty. A static heuristic table.
func (d *Dynamics) DigraphFactor(prev, curr rune) float64 {
	digraph := strings.ToLower(string([]rune{prev, curr}))
	if fastDigraphs[digraph] {
		return 0.75
	}

	if (prev == 'q' && curr == 'z') ||
		(prev == 'z' && curr == 'q') ||
		(prev == 'p' && curr == 'q') {
		return 1.4
	}

	lp := unicode.ToLower(prev)
	lc := unicode.ToLower(curr)
	bothLeft := strings.ContainsRune(leftHandKeys, lp) && strings.ContainsRune(leftHandKeys, lc)
	bothRight := strings.ContainsRune(rightHandKeys, lp) && strings.ContainsRune(rightHandKeys, lc)
	if bothLeft || bothRight {
		return 1.08
	}

	return 1.0
}

// CalculateDelay produces the delay in milliseconds before the next chunk,
// always within [15, 8000].
func (d *Dynamics) CalculateDelay(ch rune, isSentenceEnd, isBurst, isThinkingPause bool) int {
	spread := float64(d.delays.MaxMs - d.delays.MinMs)
	gammaValue := d.rand.Gamma(d.profile.GammaShape, d.profile.GammaScale)
	normalized := math.Min(gammaValue/6.0, 1.0)

	delay := float64(d.delays.MinMs) + spread*normalized
	delay *= d.rhythmicVariation()

	if unicode.IsDigit(ch) {
		delay *= 1.05
	}
	if unicode.IsSpace(ch) {
		delay *= 1.12
	}
	if ch == '\n' {
		delay *= 1.5
	}
	if ch == '.' || ch == '!' || ch == '?' {
		delay *= 1.4
	}

	if d.previousChar != 0 {
		delay *= d.DigraphFactor(d.previousChar, ch)
	}

	if isSentenceEnd {
		delay += d.rand.Gamma(2.0, 150)
	}
	if isThinkingPause {
		delay += d.rand.Gamma(3.0, 800)
	}

	if d.rand.Uniform() < d.profile.MicroStutterProb {
		delay *= 1.3 + d.rand.Uniform()*0.4
	}

	if isBurst {
		delay *= 0.65
	}

	delay *= d.fatigueFactor

	noise := d.rand.Normal(0.0, d.profile.NoiseLevel)
	delay *= 1.0 + noise

	return clampInt(int(delay), minDelayMs, maxDelayMs)
}

// HoldTime produces the key-down duration in milliseconds for ch, always
// within [40, 180]. Uppercase keys are held slightly longer (shift reach).
func (d *Dynamics) HoldTime(ch rune) int {
	hold := d.rand.Gamma(2.5, 20.0)

	if unicode.IsUpper(ch) {
		hold *= 1.2
	}

	hold *= 0.9 + d.rand.Uniform()*0.2

	return clampInt(int(hold), minHoldTimeMs, maxHoldTimeMs)
}

// ShouldBurst continues an active burst or rolls for a new one, producing
// runs of consecutively fast chunks rather than independent per-chunk rolls.
func (d *Dynamics) ShouldBurst() bool {
	if d.burstRemaining > 0 {
		d.burstRemaining--
		return true
	}
	if d.rand.Uniform() < d.profile.BurstProb {
		d.burstRemaining = d.rand.Range(d.profile.BurstMin, d.profile.BurstMax)
		return true
	}
	return false
}

// ShouldThinkingPause rolls for an inserted long mid-text pause once enough
// words have passed since the last break.
func (d *Dynamics) ShouldThinkingPause(wordsSinceBreak int) bool {
	return wordsSinceBreak > d.rand.Range(8, 15) && d.rand.Uniform() < 0.3
}

// UpdateState records ch as the previous character and advances the fatigue
// model. Fatigue is only recomputed every 50th character.
func (d *Dynamics) UpdateState(ch rune) {
	d.previousChar = ch
	d.totalTyped++

	if d.totalTyped%fatigueUpdateChars == 0 {
		d.fatigueFactor = 1.0 + fatigueMaxBonus*math.Min(1.0, float64(d.totalTyped)/float64(fatigueMaxChars))
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
