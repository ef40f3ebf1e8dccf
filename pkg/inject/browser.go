// -- pkg/inject/browser.go --
package inject

import (
	"context"
	"fmt"
	"time"
	"unicode"

	"github.com/chromedp/cdproto/input"
	"go.uber.org/zap"
)

// Basic mapping for US QWERTY layout Virtual Key codes (required for raw events).
var keyToVK = map[rune]int64{
	'a': 0x41, 'b': 0x42, 'c': 0x43, 'd': 0x44, 'e': 0x45, 'f': 0x46,
	'g': 0x47, 'h': 0x48, 'i': 0x49, 'j': 0x4A, 'k': 0x4B, 'l': 0x4C,
	'm': 0x4D, 'n': 0x4E, 'o': 0x4F, 'p': 0x50, 'q': 0x51, 'r': 0x52,
	's': 0x53, 't': 0x54, 'u': 0x55, 'v': 0x56, 'w': 0x57, 'x': 0x58,
	'y': 0x59, 'z': 0x5A,
	'0': 0x30, '1': 0x31, '2': 0x32, '3': 0x33, '4': 0x34,
	'5': 0x35, '6': 0x36, '7': 0x37, '8': 0x38, '9': 0x39,
	' ': 0x20, '\b': 0x08, '\r': 0x0D, '\n': 0x0D, // Space, Backspace, Enter
	// Punctuation (Standard US Layout)
	';': 0xBA, '=': 0xBB, ',': 0xBC, '-': 0xBD, '.': 0xBE, '/': 0xBF,
	'`': 0xC0, '[': 0xDB, '\\': 0xDC, ']': 0xDD, '\'': 0xDE,
}

const vkBackspace int64 = 0x08

// Characters that require the Shift key on a standard US QWERTY layout.
func needsShift(key rune) bool {
	if unicode.IsLetter(key) && unicode.IsUpper(key) {
		return true
	}
	switch key {
	case '!', '@', '#', '$', '%', '^', '&', '*', '(', ')', '_', '+',
		'{', '}', '|', ':', '"', '<', '>', '?', '~':
		return true
	default:
		return false
	}
}

// Browser injects keystrokes into a Chrome DevTools session as trusted raw
// key events. The target context comes from chromedp.NewContext and must
// outlive the sink; whichever element holds page focus receives the input.
type Browser struct {
	target context.Context
	logger *zap.Logger

	// Virtual pointer position for relative moves.
	virtualX float64
	virtualY float64
}

// NewBrowser wraps a chromedp target context. The pointer starts at an
// arbitrary spot inside a typical viewport.
func NewBrowser(target context.Context, logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{
		target:   target,
		logger:   logger.Named("browser"),
		virtualX: 200,
		virtualY: 200,
	}
}

// TypeCharacter dispatches KeyDown, holds, then KeyUp through the DevTools
// protocol.
func (b *Browser) TypeCharacter(ctx context.Context, c rune, hold time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text := string(c)
	var modifiers input.Modifier
	if needsShift(c) {
		modifiers = input.ModifierShift
	}

	keyCode, ok := keyToVK[unicode.ToLower(c)]
	if !ok {
		b.logger.Debug("virtual key code not mapped", zap.String("rune", text))
	}

	downType := input.KeyRawDown
	if unicode.IsPrint(c) {
		downType = input.KeyDown
	}

	downEvent := input.DispatchKeyEvent(downType).
		WithModifiers(modifiers).
		WithWindowsVirtualKeyCode(keyCode).
		WithKey(text)
	if downType == input.KeyDown {
		downEvent = downEvent.WithText(text)
	}

	if err := downEvent.Do(b.target); err != nil {
		return fmt.Errorf("inject: keydown failed for %q: %w", c, err)
	}

	if err := sleepInject(ctx, hold); err != nil {
		// Ensure KeyUp happens even if the hold is interrupted.
		input.DispatchKeyEvent(input.KeyUp).
			WithModifiers(modifiers).
			WithWindowsVirtualKeyCode(keyCode).
			WithKey(text).
			Do(b.target)
		return err
	}

	upEvent := input.DispatchKeyEvent(input.KeyUp).
		WithModifiers(modifiers).
		WithWindowsVirtualKeyCode(keyCode).
		WithKey(text)
	if err := upEvent.Do(b.target); err != nil {
		return fmt.Errorf("inject: keyup failed for %q: %w", c, err)
	}
	return nil
}

// PressBackspace taps backspace as a raw key event pair.
func (b *Browser) PressBackspace(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	down := input.DispatchKeyEvent(input.KeyRawDown).
		WithWindowsVirtualKeyCode(vkBackspace).
		WithKey("Backspace")
	if err := down.Do(b.target); err != nil {
		return fmt.Errorf("inject: backspace down: %w", err)
	}
	up := input.DispatchKeyEvent(input.KeyUp).
		WithWindowsVirtualKeyCode(vkBackspace).
		WithKey("Backspace")
	if err := up.Do(b.target); err != nil {
		return fmt.Errorf("inject: backspace up: %w", err)
	}
	return nil
}

// ReleaseAllKeys lifts Shift, the only modifier this sink ever presses.
func (b *Browser) ReleaseAllKeys() error {
	return input.DispatchKeyEvent(input.KeyUp).
		WithKey("Shift").
		Do(b.target)
}

// Supports accepts printable characters plus newline and tab; the DevTools
// protocol carries the rune in the Key/Text fields even without a VK code.
func (b *Browser) Supports(c rune) bool {
	return unicode.IsPrint(c) || c == '\n' || c == '\t'
}

// MoveRelative drifts the synthetic pointer. DevTools wants absolute
// coordinates, so the sink tracks its own virtual position.
func (b *Browser) MoveRelative(ctx context.Context, dx, dy int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.virtualX += float64(dx)
	b.virtualY += float64(dy)
	if b.virtualX < 0 {
		b.virtualX = 0
	}
	if b.virtualY < 0 {
		b.virtualY = 0
	}
	err := input.DispatchMouseEvent(input.MouseMoved, b.virtualX, b.virtualY).Do(b.target)
	if err != nil {
		return fmt.Errorf("inject: mouse move: %w", err)
	}
	return nil
}

// Scroll dispatches a wheel event at the current virtual position; positive
// amounts scroll the page down.
func (b *Browser) Scroll(ctx context.Context, amount int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := input.DispatchMouseEvent(input.MouseWheel, b.virtualX, b.virtualY).
		WithDeltaY(float64(amount) * wheelDeltaPerTick).
		Do(b.target)
	if err != nil {
		return fmt.Errorf("inject: scroll: %w", err)
	}
	return nil
}

// One wheel tick in CSS pixels, matching a typical mouse notch.
const wheelDeltaPerTick = 120.0
