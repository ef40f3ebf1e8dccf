// File: internal/session/runner_test.go
package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/keyflow/pkg/humantype"
	"github.com/xkilldash9x/keyflow/pkg/inject"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// quietOptions returns engine options with all imperfections disabled and
// near-zero delays, so session tests finish quickly and deterministically.
func quietOptions() humantype.Options {
	return humantype.Options{
		Profile: humantype.Professional(),
		Delays:  humantype.DelayRange{MinMs: 1, MaxMs: 2},
		Imperfections: humantype.ImperfectionSettings{
			EnableTypos:      false,
			EnableDoubleKeys: false,
		},
		Layout: humantype.QWERTYUS,
		Seed:   7,
	}
}

func TestRunnerCompletesSession(t *testing.T) {
	recorder := inject.NewRecorder()
	engine := humantype.New(recorder, nil, zaptest.NewLogger(t), quietOptions())
	engine.SetText("hello world.")

	runner := NewRunner(engine, recorder, 10*time.Second, zaptest.NewLogger(t))

	var mu sync.Mutex
	var progress []int
	runner.OnProgress = func(p int) {
		mu.Lock()
		progress = append(progress, p)
		mu.Unlock()
	}

	require.NoError(t, runner.Run(context.Background()))

	assert.Equal(t, "hello world.", recorder.Typed())
	assert.False(t, engine.HasMoreToType())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, progress)
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1], "progress must be monotonic")
	}
	assert.Equal(t, 100, progress[len(progress)-1])
}

func TestRunnerReleasesKeysOnCancel(t *testing.T) {
	recorder := inject.NewRecorder()
	engine := humantype.New(recorder, nil, zaptest.NewLogger(t), quietOptions())
	engine.SetText("some text that will not finish")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(engine, recorder, 10*time.Second, zaptest.NewLogger(t))
	err := runner.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	events := recorder.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, inject.EventRelease, events[len(events)-1].Kind)
}

// stallingSink blocks every injection until its context dies, simulating a
// wedged backend.
type stallingSink struct{}

func (stallingSink) TypeCharacter(ctx context.Context, _ rune, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}
func (stallingSink) PressBackspace(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
func (stallingSink) ReleaseAllKeys() error { return nil }
func (stallingSink) Supports(rune) bool    { return true }

func TestRunnerWatchdogForceStops(t *testing.T) {
	sink := stallingSink{}
	engine := humantype.New(sink, nil, zaptest.NewLogger(t), quietOptions())
	engine.SetText("this never gets typed")

	runner := NewRunner(engine, sink, 100*time.Millisecond, zaptest.NewLogger(t))

	start := time.Now()
	err := runner.Run(context.Background())
	require.ErrorIs(t, err, ErrWatchdogTimeout)
	assert.Less(t, time.Since(start), 5*time.Second, "watchdog should fire promptly")
}

func TestIdleScrollerScrollsWhenIdle(t *testing.T) {
	recorder := inject.NewRecorder()
	scroller := NewIdleScroller(recorder, 30*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	scroller.Run(ctx)

	var scrolls int
	for _, ev := range recorder.Events() {
		if ev.Kind == inject.EventScroll {
			scrolls++
			assert.NotZero(t, ev.DY)
			assert.LessOrEqual(t, ev.DY, 3)
			assert.GreaterOrEqual(t, ev.DY, -3)
		}
	}
	assert.Greater(t, scrolls, 0, "scroller should fire after the idle threshold")
}

func TestIdleScrollerStaysQuietWithActivity(t *testing.T) {
	recorder := inject.NewRecorder()
	scroller := NewIdleScroller(recorder, 200*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		scroller.Run(ctx)
	}()

	// Keep marking activity faster than the idle threshold.
	for i := 0; i < 10; i++ {
		time.Sleep(30 * time.Millisecond)
		scroller.MarkActivity()
	}
	cancel()
	<-done

	assert.Empty(t, recorder.Events(), "no scrolls while activity keeps arriving")
}
