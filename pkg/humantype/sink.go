// -- pkg/humantype/sink.go --
package humantype

import (
	"context"
	"time"
)

// KeyboardSink delivers synthesized key events to the outside world. The
// engine treats it as fire-and-forget: a failed injection is the sink's
// problem and typing proceeds best-effort.
type KeyboardSink interface {
	// TypeCharacter presses c, holds it for the given duration, then
	// releases it. Newline and tab map to their platform key codes.
	TypeCharacter(ctx context.Context, c rune, hold time.Duration) error

	// PressBackspace taps the backspace key once.
	PressBackspace(ctx context.Context) error

	// ReleaseAllKeys best-effort clears any stuck modifier state. Called on
	// stop, shutdown, and watchdog recovery.
	ReleaseAllKeys() error

	// Supports reports whether the sink can inject c at all. Unsupported
	// characters are skipped and surfaced as an aggregate warning.
	Supports(c rune) bool
}

// MouseSink is the optional capability consumed by the mouse-jitter and
// idle-scroll behaviors only; the core typing path never touches it.
type MouseSink interface {
	// MoveRelative nudges the pointer by (dx,dy) pixels.
	MoveRelative(ctx context.Context, dx, dy int) error

	// Scroll turns the wheel; positive amounts scroll down.
	Scroll(ctx context.Context, amount int) error
}
