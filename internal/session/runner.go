// File: internal/session/runner.go

// Package session supervises a typing run: it drives the engine's
// chunk-delay loop, watches for stalled injection, and keeps the idle
// scroller fed with activity timestamps.
package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/keyflow/pkg/humantype"
)

// ErrWatchdogTimeout is returned by Run when injection stalled for longer
// than the configured watchdog timeout and the session was force-stopped.
var ErrWatchdogTimeout = errors.New("session: watchdog timeout, no injection activity")

const watchdogPollInterval = time.Second

// Runner executes one typing session to completion. It owns the pacing loop;
// the engine stays a passive state machine underneath it.
type Runner struct {
	engine   *humantype.Engine
	keyboard humantype.KeyboardSink
	logger   *zap.Logger

	watchdogTimeout time.Duration

	// OnProgress, when set, is called after every chunk with the percent of
	// text consumed. It runs on the session goroutine; keep it fast.
	OnProgress func(percent int)
}

// NewRunner wires a runner around an engine and the keyboard it types into.
func NewRunner(engine *humantype.Engine, keyboard humantype.KeyboardSink, watchdogTimeout time.Duration, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		engine:          engine,
		keyboard:        keyboard,
		logger:          logger.Named("session"),
		watchdogTimeout: watchdogTimeout,
	}
}

// Run types the loaded text until exhaustion, cancellation, or a watchdog
// trip. All stuck keys are released on every exit path.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watchdogDone := make(chan struct{})
	watchdogFired := make(chan struct{})
	go r.watchdog(ctx, cancel, watchdogDone, watchdogFired)

	err := r.typeLoop(ctx)

	cancel()
	<-watchdogDone

	if releaseErr := r.keyboard.ReleaseAllKeys(); releaseErr != nil {
		r.logger.Warn("failed to release keys after session", zap.Error(releaseErr))
	}

	select {
	case <-watchdogFired:
		return ErrWatchdogTimeout
	default:
	}

	if err != nil {
		return err
	}

	skipped, preview := r.engine.Skipped()
	if skipped > 0 {
		r.logger.Warn("some characters could not be injected",
			zap.Int("count", skipped),
			zap.String("chars", string(preview)))
	}
	r.logger.Info("typing session complete")
	return nil
}

func (r *Runner) typeLoop(ctx context.Context) error {
	for r.engine.HasMoreToType() {
		delay, err := r.engine.TypeNextChunk(ctx)
		if err != nil {
			return err
		}

		if r.OnProgress != nil {
			r.OnProgress(r.engine.ProgressPercent())
		}

		if !r.engine.HasMoreToType() {
			return nil
		}

		if err := sleepSession(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// watchdog cancels the session when injection goes quiet for too long, which
// usually means the sink is wedged (lost browser target, blocked OS queue).
func (r *Runner) watchdog(ctx context.Context, cancel context.CancelFunc, done chan<- struct{}, fired chan struct{}) {
	defer close(done)

	poll := watchdogPollInterval
	if r.watchdogTimeout < poll {
		poll = r.watchdogTimeout
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			quiet := time.Since(r.engine.LastActivity())
			if quiet < r.watchdogTimeout {
				continue
			}
			r.logger.Error("watchdog: injection stalled, force-stopping session",
				zap.Duration("quiet", quiet),
				zap.Duration("timeout", r.watchdogTimeout))
			close(fired)
			if err := r.keyboard.ReleaseAllKeys(); err != nil {
				r.logger.Warn("watchdog: key release failed", zap.Error(err))
			}
			// Cancellation is observed by the engine at its next character.
			cancel()
			return
		}
	}
}

func sleepSession(ctx context.Context, d time.Duration) error {
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
