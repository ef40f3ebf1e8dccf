// -- pkg/humantype/layout.go --
package humantype

import "unicode"

// Layout models the letter rows of a physical keyboard as a 2-D grid.
// Fat-finger typos substitute a grid-adjacent key, so the plausibility of a
// typo depends on which physical layout the "typist" is using.
type Layout struct {
	name string
	rows [3]string
}

var (
	// QWERTYUS is the standard US layout.
	QWERTYUS = Layout{name: "qwerty-us", rows: [3]string{"qwertyuiop", "asdfghjkl", "zxcvbnm"}}

	// QWERTYUK shares the US letter rows; UK differences are confined to
	// punctuation keys outside the adjacency grid.
	QWERTYUK = Layout{name: "qwerty-uk", rows: [3]string{"qwertyuiop", "asdfghjkl", "zxcvbnm"}}

	// QWERTZ is the German layout (y and z swapped).
	QWERTZ = Layout{name: "qwertz", rows: [3]string{"qwertzuiop", "asdfghjkl", "yxcvbnm"}}

	// AZERTY is the French layout.
	AZERTY = Layout{name: "azerty", rows: [3]string{"azertyuiop", "qsdfghjklm", "wxcvbn"}}
)

// LayoutByName resolves a layout from configuration. Unknown names fall back
// to US QWERTY.
func LayoutByName(name string) Layout {
	switch name {
	case "qwerty-uk", "uk":
		return QWERTYUK
	case "qwertz", "de":
		return QWERTZ
	case "azerty", "fr":
		return AZERTY
	default:
		return QWERTYUS
	}
}

// Name returns the layout identifier used in configuration.
func (l Layout) Name() string { return l.name }

// IsLetter reports whether c participates in typo substitution.
func IsLetter(c rune) bool {
	return unicode.IsLetter(c)
}

// NeighborKey returns a key grid-adjacent to c on this layout, preserving the
// case of the input. Characters not present in the letter rows are returned
// unchanged, as is a key with no valid neighbors.
func (l Layout) NeighborKey(r *RandomSource, c rune) rune {
	upper := unicode.IsUpper(c)
	lower := unicode.ToLower(c)

	rowIndex, colIndex := -1, -1
	for ri, row := range l.rows {
		for ci, ch := range row {
			if ch == lower {
				rowIndex, colIndex = ri, ci
				break
			}
		}
		if rowIndex != -1 {
			break
		}
	}
	if rowIndex == -1 {
		return c
	}

	var candidates []rune
	addIfValid := func(ri, ci int) {
		if ri < 0 || ri >= len(l.rows) {
			return
		}
		row := []rune(l.rows[ri])
		if ci < 0 || ci >= len(row) {
			return
		}
		ch := row[ci]
		for _, existing := range candidates {
			if existing == ch {
				return
			}
		}
		candidates = append(candidates, ch)
	}

	addIfValid(rowIndex, colIndex-1)
	addIfValid(rowIndex, colIndex+1)
	addIfValid(rowIndex-1, colIndex)
	addIfValid(rowIndex+1, colIndex)
	addIfValid(rowIndex-1, colIndex-1)
	addIfValid(rowIndex-1, colIndex+1)
	addIfValid(rowIndex+1, colIndex-1)
	addIfValid(rowIndex+1, colIndex+1)

	if len(candidates) == 0 {
		return c
	}

	out := candidates[r.Range(0, len(candidates)-1)]
	if upper {
		return unicode.ToUpper(out)
	}
	return out
}
