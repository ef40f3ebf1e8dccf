// -- pkg/humantype/chunker.go --
package humantype

import (
	"strings"
	"unicode"
)

// maxWordRun caps a word-like chunk so very long tokens still get periodic
// delay decisions.
const maxWordRun = 12

// Punctuation characters that always form their own single-character chunk.
const chunkPunctuation = "*-#`_[](){}<>!~+|\"'.,:;/?\\"

// Chunker splits input text into typing units: a word-like run of up to 12
// plain characters, or a single punctuation/whitespace/control character.
// Delay computation and burst/pause decisions operate on these units rather
// than per character. The cursor only moves forward.
type Chunker struct {
	text []rune
	pos  int
}

// NewChunker wraps text for consumption one chunk at a time.
func NewChunker(text string) *Chunker {
	return &Chunker{text: []rune(text)}
}

// HasMore reports whether any input remains.
func (c *Chunker) HasMore() bool {
	return c.pos < len(c.text)
}

// NextChunk classifies the character under the cursor and returns the next
// typing unit. Returns the empty string once the input is exhausted.
func (c *Chunker) NextChunk() string {
	if !c.HasMore() {
		return ""
	}

	ch := c.text[c.pos]

	if ch == '\n' || ch == '\t' {
		c.pos++
		return string(ch)
	}

	if strings.ContainsRune(chunkPunctuation, ch) {
		c.pos++
		return string(ch)
	}

	if unicode.IsSpace(ch) {
		c.pos++
		return string(ch)
	}

	var chunk []rune
	for c.pos < len(c.text) && len(chunk) < maxWordRun {
		ch = c.text[c.pos]
		if ch == '\n' || ch == '\t' {
			break
		}
		if strings.ContainsRune(chunkPunctuation, ch) {
			break
		}
		if unicode.IsSpace(ch) {
			break
		}
		chunk = append(chunk, ch)
		c.pos++
	}

	return string(chunk)
}

// ProgressPercent reports consumption of the input in whole percent. Empty
// input is complete immediately.
func (c *Chunker) ProgressPercent() int {
	if len(c.text) == 0 {
		return 100
	}
	return c.pos * 100 / len(c.text)
}
