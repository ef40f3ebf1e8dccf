// -- pkg/humantype/engine.go --
package humantype

import (
	"context"
	"sync/atomic"
	"time"
	"unicode"

	"go.uber.org/zap"
)

// Mouse jitter cadence: every so many characters the pointer drifts a few
// pixels, preceded by a short pause.
const (
	mouseMoveMinIntervalChars = 20
	mouseMoveMaxIntervalChars = 60
	mouseMoveMinPixels        = 3
	mouseMoveMaxPixels        = 15
	mouseMoveMinPauseMs       = 100
	mouseMoveMaxPauseMs       = 300
)

// Cap on the distinct skipped characters kept for the aggregate warning.
const skippedPreviewLimit = 10

// Options bundles the per-session configuration of an Engine.
type Options struct {
	Profile       TimingProfile
	Delays        DelayRange
	Imperfections ImperfectionSettings
	Layout        Layout

	// Seed makes the session deterministic when non-zero.
	Seed int64

	// MouseJitter enables periodic small pointer movements while typing.
	// Requires a mouse sink.
	MouseJitter bool
}

// Engine turns loaded text into key events on its sink, one chunk per call.
// It owns no timer: TypeNextChunk returns the delay the caller must wait
// before calling again, which keeps the engine agnostic of whether it is
// driven by a sleep loop, a UI timer, or a network command handler.
//
// The engine is a synchronous state machine; a single instance must not be
// driven by more than one goroutine concurrently.
type Engine struct {
	sink   KeyboardSink
	mouse  MouseSink
	logger *zap.Logger
	opts   Options
	rand   *RandomSource

	chunker *Chunker
	dynamics *Dynamics
	gen      *Imperfections

	wordsSinceBreak     int
	charsSinceMouseMove int
	nextMouseMoveAt     int

	skippedCount   int
	skippedPreview []rune

	// Unix milliseconds of the last injection, read by the watchdog.
	lastActivityMs atomic.Int64
}

// New builds an engine around the given sink. The mouse sink may be nil, in
// which case jitter is disabled regardless of Options. No text is loaded;
// call SetText before typing.
func New(sink KeyboardSink, mouse MouseSink, logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		sink:   sink,
		mouse:  mouse,
		logger: logger.Named("engine"),
		opts:   opts,
		rand:   NewRandomSource(opts.Seed),
	}
	e.markActivity()
	return e
}

// SetText loads a new text and rebuilds the chunker, dynamics, and
// imperfection state together, so fatigue, rhythm, and typo scheduling never
// leak between unrelated texts.
func (e *Engine) SetText(text string) {
	e.chunker = NewChunker(text)
	e.dynamics = NewDynamics(e.opts.Profile, e.opts.Delays, e.rand)
	e.gen = NewImperfections(e.opts.Imperfections, e.opts.Layout, e.rand)
	e.wordsSinceBreak = 0
	e.charsSinceMouseMove = 0
	e.nextMouseMoveAt = e.rand.Range(mouseMoveMinIntervalChars, mouseMoveMaxIntervalChars)
	e.skippedCount = 0
	e.skippedPreview = nil
	e.markActivity()
}

// HasMoreToType reports whether unconsumed text remains.
func (e *Engine) HasMoreToType() bool {
	return e.chunker != nil && e.chunker.HasMore()
}

// ProgressPercent reports text consumption in whole percent.
func (e *Engine) ProgressPercent() int {
	if e.chunker == nil {
		return 0
	}
	return e.chunker.ProgressPercent()
}

// Skipped returns how many characters could not be injected and a preview of
// the distinct offenders.
func (e *Engine) Skipped() (int, []rune) {
	return e.skippedCount, e.skippedPreview
}

// LastActivity returns the time of the most recent injection. The session
// watchdog polls this to detect a stalled sink.
func (e *Engine) LastActivity() time.Time {
	return time.UnixMilli(e.lastActivityMs.Load())
}

// Reset rewinds the session state (but not the text cursor) for reuse.
func (e *Engine) Reset() {
	if e.dynamics != nil {
		e.dynamics.Reset()
	}
	if e.gen != nil {
		e.gen.Reset()
	}
	e.wordsSinceBreak = 0
}

// TypeNextChunk types all characters of the next chunk synchronously,
// including imperfection side effects, and returns the delay the caller must
// wait before the next call. A zero delay with no error means the text is
// exhausted. Cancellation is checked once per character; the only error ever
// returned is the context's.
func (e *Engine) TypeNextChunk(ctx context.Context) (time.Duration, error) {
	if !e.HasMoreToType() {
		return 0, nil
	}

	chunk := []rune(e.chunker.NextChunk())
	if len(chunk) == 0 {
		return 0, nil
	}

	for _, original := range chunk {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		if !e.sink.Supports(original) {
			e.recordSkipped(original)
			continue
		}

		result := e.gen.ProcessCharacter(original)

		e.typeChar(ctx, result.Char)

		if result.Double {
			if err := e.sleep(ctx, e.rand.Range(10, 40)); err != nil {
				return 0, err
			}
			e.typeChar(ctx, result.Char)
		}

		if result.Correct {
			if err := e.sleep(ctx, e.rand.Range(60, 160)); err != nil {
				return 0, err
			}
			if err := e.sink.PressBackspace(ctx); err != nil {
				e.logger.Warn("backspace injection failed", zap.Error(err))
			}
			e.markActivity()
			if err := e.sleep(ctx, e.rand.Range(40, 90)); err != nil {
				return 0, err
			}
			// Retype the intended character, not the typo.
			e.typeChar(ctx, original)
		}

		if unicode.IsSpace(original) {
			e.wordsSinceBreak++
		}

		// The rhythm/digraph model always sees the intended character, so
		// imperfections do not pollute it.
		e.dynamics.UpdateState(original)

		if err := e.maybeJitterMouse(ctx); err != nil {
			return 0, err
		}
	}

	lastChar := chunk[len(chunk)-1]
	isSentenceEnd := lastChar == '.' || lastChar == '!' || lastChar == '?'
	isBurst := e.dynamics.ShouldBurst()
	isThinkingPause := e.dynamics.ShouldThinkingPause(e.wordsSinceBreak)
	if isThinkingPause {
		e.wordsSinceBreak = 0
	}

	delayMs := e.dynamics.CalculateDelay(lastChar, isSentenceEnd, isBurst, isThinkingPause)
	return time.Duration(delayMs) * time.Millisecond, nil
}

// typeChar injects a single press with a freshly drawn hold time. Failures
// are logged and dropped; the engine never retries.
func (e *Engine) typeChar(ctx context.Context, c rune) {
	hold := time.Duration(e.dynamics.HoldTime(c)) * time.Millisecond
	if err := e.sink.TypeCharacter(ctx, c, hold); err != nil {
		e.logger.Warn("key injection failed", zap.String("char", string(c)), zap.Error(err))
	}
	e.markActivity()
}

func (e *Engine) recordSkipped(c rune) {
	e.skippedCount++
	for _, existing := range e.skippedPreview {
		if existing == c {
			return
		}
	}
	if len(e.skippedPreview) < skippedPreviewLimit {
		e.skippedPreview = append(e.skippedPreview, c)
	}
}

// maybeJitterMouse drifts the pointer by a few pixels on its own character
// cadence. Only active when a mouse sink is attached and jitter is enabled.
func (e *Engine) maybeJitterMouse(ctx context.Context) error {
	if !e.opts.MouseJitter || e.mouse == nil {
		return nil
	}

	e.charsSinceMouseMove++
	if e.charsSinceMouseMove < e.nextMouseMoveAt {
		return nil
	}

	if err := e.sleep(ctx, e.rand.Range(mouseMoveMinPauseMs, mouseMoveMaxPauseMs)); err != nil {
		return err
	}

	dx := e.rand.Range(-mouseMoveMaxPixels, mouseMoveMaxPixels)
	dy := e.rand.Range(-mouseMoveMaxPixels, mouseMoveMaxPixels)
	if dx == 0 && dy == 0 {
		dx = e.rand.Range(mouseMoveMinPixels, mouseMoveMaxPixels)
	}

	if err := e.mouse.MoveRelative(ctx, dx, dy); err != nil {
		e.logger.Debug("mouse jitter failed", zap.Error(err))
	}

	e.charsSinceMouseMove = 0
	e.nextMouseMoveAt = e.rand.Range(mouseMoveMinIntervalChars, mouseMoveMaxIntervalChars)
	return nil
}

func (e *Engine) markActivity() {
	e.lastActivityMs.Store(time.Now().UnixMilli())
}

func (e *Engine) sleep(ctx context.Context, ms int) error {
	return sleepContext(ctx, time.Duration(ms)*time.Millisecond)
}

// sleepContext is a context-aware sleep.
func sleepContext(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(duration)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

