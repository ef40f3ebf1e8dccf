// -- pkg/humantype/layout_test.go --
package humantype

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutByName(t *testing.T) {
	assert.Equal(t, "qwerty-us", LayoutByName("qwerty-us").Name())
	assert.Equal(t, "qwerty-uk", LayoutByName("uk").Name())
	assert.Equal(t, "qwertz", LayoutByName("de").Name())
	assert.Equal(t, "azerty", LayoutByName("fr").Name())
	assert.Equal(t, "qwerty-us", LayoutByName("dvorak").Name(), "unknown layouts fall back to US")
}

// gridPosition finds a lowercase letter in the layout rows.
func gridPosition(l Layout, c rune) (int, int) {
	for ri, row := range l.rows {
		for ci, ch := range row {
			if ch == c {
				return ri, ci
			}
		}
	}
	return -1, -1
}

func TestNeighborKeyAdjacency(t *testing.T) {
	r := NewRandomSource(17)
	layouts := []Layout{QWERTYUS, QWERTZ, AZERTY}

	for _, layout := range layouts {
		t.Run(layout.Name(), func(t *testing.T) {
			for _, row := range layout.rows {
				for _, c := range row {
					for i := 0; i < 20; i++ {
						n := layout.NeighborKey(r, c)
						require.NotEqual(t, c, n, "neighbor of %c must differ", c)

						ri, ci := gridPosition(layout, c)
						nri, nci := gridPosition(layout, n)
						require.NotEqual(t, -1, nri, "neighbor %c must exist on the grid", n)
						assert.LessOrEqual(t, abs(ri-nri), 1, "%c -> %c row distance", c, n)
						assert.LessOrEqual(t, abs(ci-nci), 1, "%c -> %c column distance", c, n)
					}
				}
			}
		})
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestNeighborKeyPreservesCase(t *testing.T) {
	r := NewRandomSource(23)
	for i := 0; i < 200; i++ {
		n := QWERTYUS.NeighborKey(r, 'G')
		assert.True(t, unicode.IsUpper(n), "uppercase input yields uppercase typo, got %c", n)

		n = QWERTYUS.NeighborKey(r, 'g')
		assert.True(t, unicode.IsLower(n), "lowercase input yields lowercase typo, got %c", n)
	}
}

func TestNeighborKeyLeavesNonLettersAlone(t *testing.T) {
	r := NewRandomSource(29)
	for _, c := range []rune{'5', ' ', '\n', '.', 'ü', '好'} {
		assert.Equal(t, c, QWERTYUS.NeighborKey(r, c))
	}
}

func TestLayoutsDiffer(t *testing.T) {
	// 'z' sits on the bottom row on QWERTY and the top row on QWERTZ, so the
	// neighbor sets must differ between the layouts.
	r := NewRandomSource(31)
	qwertyNeighbors := map[rune]bool{}
	qwertzNeighbors := map[rune]bool{}
	for i := 0; i < 500; i++ {
		qwertyNeighbors[QWERTYUS.NeighborKey(r, 'z')] = true
		qwertzNeighbors[QWERTZ.NeighborKey(r, 'z')] = true
	}

	joined := func(m map[rune]bool) string {
		var b strings.Builder
		for c := range m {
			b.WriteRune(c)
		}
		return b.String()
	}
	assert.NotEqual(t, qwertyNeighbors, qwertzNeighbors,
		"qwerty=%q qwertz=%q", joined(qwertyNeighbors), joined(qwertzNeighbors))
}
