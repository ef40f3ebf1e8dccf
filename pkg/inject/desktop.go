// -- pkg/inject/desktop.go --
package inject

import (
	"context"
	"fmt"
	"time"
	"unicode"

	"github.com/go-vgo/robotgo"
	"go.uber.org/zap"

	_ "github.com/go-vgo/robotgo/base"  // Blank import for robotgo C sources
	_ "github.com/go-vgo/robotgo/key"   // Blank import for robotgo C sources
	_ "github.com/go-vgo/robotgo/mouse" // Blank import for robotgo C sources
)

// Characters that need Shift plus their unshifted base key on a US layout.
var shiftedBaseKey = map[rune]string{
	'!': "1", '@': "2", '#': "3", '$': "4", '%': "5", '^': "6",
	'&': "7", '*': "8", '(': "9", ')': "0", '_': "-", '+': "=",
	'{': "[", '}': "]", '|': "\\", ':': ";", '"': "'",
	'<': ",", '>': ".", '?': "/", '~': "`",
}

// Named keys for control characters.
var namedKey = map[rune]string{
	'\n': "enter",
	'\t': "tab",
	' ':  "space",
}

// Desktop injects key and mouse events into whatever window holds OS focus,
// via robotgo. Injection is global: there is no target element, only the
// focused application.
type Desktop struct {
	logger *zap.Logger
}

// NewDesktop returns a sink bound to the OS input queue.
func NewDesktop(logger *zap.Logger) *Desktop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Desktop{logger: logger.Named("desktop")}
}

// keyFor resolves c to a robotgo key name and whether Shift is required.
// The empty string means c has no toggleable key.
func keyFor(c rune) (key string, shift bool) {
	if name, ok := namedKey[c]; ok {
		return name, false
	}
	if base, ok := shiftedBaseKey[c]; ok {
		return base, true
	}
	if c >= 'A' && c <= 'Z' {
		return string(unicode.ToLower(c)), true
	}
	if c > unicode.MaxASCII || !unicode.IsPrint(c) {
		return "", false
	}
	return string(c), false
}

// TypeCharacter presses the key for c, holds it, and releases it. The hold
// duration is honored via an explicit down/up toggle rather than a tap.
// Printable runes without a US key go through robotgo's unicode path, which
// cannot hold; the hold elapses as a plain pause instead.
func (d *Desktop) TypeCharacter(ctx context.Context, c rune, hold time.Duration) error {
	key, shift := keyFor(c)
	if key == "" {
		if !unicode.IsPrint(c) {
			return fmt.Errorf("inject: no desktop key for %q", c)
		}
		robotgo.TypeStr(string(c))
		return sleepInject(ctx, hold)
	}

	if shift {
		if err := robotgo.KeyToggle("shift", "down"); err != nil {
			return fmt.Errorf("inject: shift down: %w", err)
		}
		defer func() {
			if err := robotgo.KeyToggle("shift", "up"); err != nil {
				d.logger.Warn("shift release failed", zap.Error(err))
			}
		}()
	}

	if err := robotgo.KeyToggle(key, "down"); err != nil {
		return fmt.Errorf("inject: key down %q: %w", key, err)
	}

	holdErr := sleepInject(ctx, hold)

	if err := robotgo.KeyToggle(key, "up"); err != nil {
		return fmt.Errorf("inject: key up %q: %w", key, err)
	}
	return holdErr
}

// PressBackspace taps backspace once.
func (d *Desktop) PressBackspace(context.Context) error {
	if err := robotgo.KeyTap("backspace"); err != nil {
		return fmt.Errorf("inject: backspace: %w", err)
	}
	return nil
}

// ReleaseAllKeys lifts the modifiers that can plausibly be stuck after an
// interrupted hold.
func (d *Desktop) ReleaseAllKeys() error {
	var firstErr error
	for _, key := range []string{"shift", "ctrl", "alt", "cmd"} {
		if err := robotgo.KeyToggle(key, "up"); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("inject: release %q: %w", key, err)
		}
	}
	return firstErr
}

// Supports reports whether c can be delivered, either as a toggled key or
// through the unicode path.
func (d *Desktop) Supports(c rune) bool {
	if key, _ := keyFor(c); key != "" {
		return true
	}
	return unicode.IsPrint(c)
}

// MoveRelative nudges the pointer without touching buttons.
func (d *Desktop) MoveRelative(_ context.Context, dx, dy int) error {
	robotgo.MoveRelative(dx, dy)
	return nil
}

// Scroll turns the wheel; positive amounts scroll the page down.
func (d *Desktop) Scroll(_ context.Context, amount int) error {
	robotgo.Scroll(0, -amount)
	return nil
}

func sleepInject(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
