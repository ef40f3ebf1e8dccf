// -- pkg/humantype/imperfection.go --
package humantype

import (
	"math"
	"unicode"
)

// KeystrokeResult is the outcome of running one intended character through
// the imperfection machinery. Char may differ from the original when a typo
// fired; Double and Correct request a repeated press and a
// backspace-and-retype respectively.
type KeystrokeResult struct {
	Char    rune
	Double  bool
	Correct bool
}

// Imperfections schedules neighbor-key typos and double-key bounces on a
// per-character cadence. Interval scheduling (rather than a per-character
// probability) keeps the event density predictable and user-tunable while
// the placement within each interval stays random.
type Imperfections struct {
	settings ImperfectionSettings
	layout   Layout
	rand     *RandomSource

	charsSinceTypo   int
	charsSinceDouble int
	nextTypoAt       int
	nextDoubleAt     int
}

// NewImperfections builds a generator with freshly sampled thresholds.
func NewImperfections(settings ImperfectionSettings, layout Layout, rand *RandomSource) *Imperfections {
	g := &Imperfections{
		settings: settings,
		layout:   layout,
		rand:     rand,
	}
	g.Reset()
	return g
}

// Reset zeroes the counters and resamples both thresholds.
func (g *Imperfections) Reset() {
	g.charsSinceTypo = 0
	g.charsSinceDouble = 0
	g.scheduleNextTypo()
	g.scheduleNextDouble()
}

// A disabled feature is represented by an unreachable threshold.
func (g *Imperfections) scheduleNextTypo() {
	if g.settings.EnableTypos {
		g.nextTypoAt = g.rand.Range(g.settings.TypoMin, g.settings.TypoMax)
	} else {
		g.nextTypoAt = math.MaxInt
	}
}

func (g *Imperfections) scheduleNextDouble() {
	if g.settings.EnableDoubleKeys {
		g.nextDoubleAt = g.rand.Range(g.settings.DoubleMin, g.settings.DoubleMax)
	} else {
		g.nextDoubleAt = math.MaxInt
	}
}

// ProcessCharacter advances the counters and decides whether this character
// becomes a typo, a double press, or both. The typo and double checks are
// independent and may fire on the same character. With both features
// disabled this is an identity function.
func (g *Imperfections) ProcessCharacter(original rune) KeystrokeResult {
	result := KeystrokeResult{Char: original}

	g.charsSinceTypo++
	g.charsSinceDouble++

	if g.charsSinceTypo >= g.nextTypoAt && IsLetter(original) {
		result.Char = g.layout.NeighborKey(g.rand, original)
		g.charsSinceTypo = 0
		g.scheduleNextTypo()

		if g.settings.EnableAutoCorrection &&
			g.rand.Range(0, 99) < g.settings.CorrectionProbability {
			result.Correct = true
		}
	}

	if g.charsSinceDouble >= g.nextDoubleAt && !unicode.IsSpace(original) {
		result.Double = true
		g.charsSinceDouble = 0
		g.scheduleNextDouble()
	}

	return result
}
