// -- pkg/inject/factory.go --
// Package inject provides the sinks that deliver synthesized keystrokes to a
// destination: the OS input queue, a Chrome DevTools session, or an
// in-memory recorder for dry runs.
package inject

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/keyflow/pkg/humantype"
)

// Supported backend names.
const (
	BackendDesktop = "desktop"
	BackendBrowser = "browser"
	BackendCapture = "capture"
)

// Sinks bundles the keyboard and optional mouse capability of one backend.
// Close releases backend resources; it is safe to call more than once.
type Sinks struct {
	Keyboard humantype.KeyboardSink
	Mouse    humantype.MouseSink
	Close    func()
}

// New builds the sinks for the named backend. The browser backend needs a
// live chromedp target context in browserCtx; the others ignore it.
func New(backend string, browserCtx context.Context, logger *zap.Logger) (*Sinks, error) {
	switch backend {
	case BackendDesktop, "":
		d := NewDesktop(logger)
		return &Sinks{Keyboard: d, Mouse: d, Close: func() {}}, nil

	case BackendBrowser:
		if browserCtx == nil {
			return nil, fmt.Errorf("inject: browser backend requires a devtools context")
		}
		b := NewBrowser(browserCtx, logger)
		return &Sinks{Keyboard: b, Mouse: b, Close: func() {}}, nil

	case BackendCapture:
		r := NewRecorder()
		return &Sinks{Keyboard: r, Mouse: r, Close: func() {}}, nil

	default:
		return nil, fmt.Errorf("inject: unknown backend %q", backend)
	}
}
