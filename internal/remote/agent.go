// File: internal/remote/agent.go
package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/keyflow/internal/config"
	"github.com/xkilldash9x/keyflow/internal/session"
	"github.com/xkilldash9x/keyflow/pkg/humantype"
	"github.com/xkilldash9x/keyflow/pkg/inject"
)

// Progress frames are throttled so a fast session does not flood the
// controller; the final 100% is always delivered.
const progressPerSecond = 2

// Agent connects to a controller, announces readiness, and executes typing
// commands one session at a time. A lost connection ends the agent; the
// operator restarts it deliberately rather than having it hammer a dead
// controller.
type Agent struct {
	serverURL  string
	baseOpts   humantype.Options
	sinks      *inject.Sinks
	sessionCfg config.SessionConfig
	logger     *zap.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu            sync.Mutex
	busy          bool
	cancelSession context.CancelFunc
	sessionDone   chan struct{}

	progressLimiter *rate.Limiter

	scroller     *session.IdleScroller
	scrollerOnce sync.Once
}

// NewAgent builds an agent around the sinks it will type into. baseOpts
// carries the locally configured profile, layout, and imperfections; the
// per-command delay range and jitter flags override it per session.
func NewAgent(serverURL string, sinks *inject.Sinks, baseOpts humantype.Options, sessionCfg config.SessionConfig, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		serverURL:       serverURL,
		baseOpts:        baseOpts,
		sinks:           sinks,
		sessionCfg:      sessionCfg,
		logger:          logger.Named("agent"),
		progressLimiter: rate.NewLimiter(rate.Limit(progressPerSecond), 1),
	}
}

// Run dials the controller and serves commands until the connection or the
// context ends. Any in-flight session is cancelled and drained before return.
func (a *Agent) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, a.serverURL, nil)
	if err != nil {
		return fmt.Errorf("remote: dial controller %s: %w", a.serverURL, err)
	}
	a.conn = conn
	defer conn.Close()

	// Unblock the read loop when the context dies.
	watcherDone := make(chan struct{})
	defer close(watcherDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watcherDone:
		}
	}()

	if err := a.write(Message{Type: TypeReady}); err != nil {
		return err
	}
	a.logger.Info("connected to controller", zap.String("server", a.serverURL))

	readErr := a.readLoop(ctx)

	a.stopSession()
	a.waitForSession()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return readErr
}

func (a *Agent) readLoop(ctx context.Context) error {
	for {
		_, raw, err := a.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				a.logger.Error("controller connection lost", zap.Error(err))
			}
			return fmt.Errorf("remote: connection closed: %w", err)
		}

		msg, err := Decode(raw)
		if err != nil {
			a.logger.Error("undecodable command", zap.Error(err))
			continue
		}

		switch msg.Type {
		case TypeStartTyping:
			a.handleStart(ctx, msg)
		case TypeStopTyping:
			a.logger.Info("stop command received")
			a.stopSession()
		default:
			a.logger.Warn("unexpected command", zap.String("type", msg.Type))
		}
	}
}

func (a *Agent) handleStart(ctx context.Context, msg Message) {
	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		a.logger.Warn("start command while busy, refusing")
		if err := a.write(Message{Type: TypeStatus, Status: StatusBusy}); err != nil {
			a.logger.Warn("failed to report busy status", zap.Error(err))
		}
		return
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.busy = true
	a.cancelSession = cancel
	a.sessionDone = done
	a.mu.Unlock()

	if msg.IdleScroll && a.sinks.Mouse != nil {
		a.startIdleScroller(ctx)
	}

	go func() {
		defer close(done)
		defer cancel()
		a.runSession(sessionCtx, msg)

		a.mu.Lock()
		a.busy = false
		a.cancelSession = nil
		a.sessionDone = nil
		a.mu.Unlock()

		if err := a.write(Message{Type: TypeStatus, Status: StatusFree}); err != nil {
			a.logger.Warn("failed to report free status", zap.Error(err))
		}
	}()
}

func (a *Agent) runSession(ctx context.Context, msg Message) {
	if err := a.write(Message{Type: TypeStatus, Status: StatusBusy}); err != nil {
		a.logger.Warn("failed to report busy status", zap.Error(err))
	}

	opts := a.baseOpts
	opts.Delays = humantype.DelayRange{MinMs: msg.MinDelay, MaxMs: msg.MaxDelay}.Normalized()
	opts.MouseJitter = msg.MouseMovement

	engine := humantype.New(a.sinks.Keyboard, a.sinks.Mouse, a.logger, opts)
	engine.SetText(msg.Text)

	runner := session.NewRunner(engine, a.sinks.Keyboard, a.sessionCfg.WatchdogTimeout, a.logger)
	runner.OnProgress = func(percent int) {
		if a.scroller != nil {
			a.scroller.MarkActivity()
		}
		if percent < 100 && !a.progressLimiter.Allow() {
			return
		}
		if err := a.write(Message{Type: TypeProgress, Progress: percent}); err != nil {
			a.logger.Debug("failed to send progress", zap.Error(err))
		}
	}

	a.logger.Info("typing session starting", zap.Int("chars", len([]rune(msg.Text))))
	if err := runner.Run(ctx); err != nil {
		a.logger.Warn("typing session ended early", zap.Error(err))
		return
	}
}

// startIdleScroller launches the idle scroll goroutine once per agent
// lifetime; it keeps running between sessions and dies with the agent ctx.
func (a *Agent) startIdleScroller(ctx context.Context) {
	a.scrollerOnce.Do(func() {
		a.scroller = session.NewIdleScroller(a.sinks.Mouse, a.sessionCfg.IdleScrollAfter, a.logger)
		go a.scroller.Run(ctx)
	})
}

func (a *Agent) stopSession() {
	a.mu.Lock()
	cancel := a.cancelSession
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (a *Agent) waitForSession() {
	a.mu.Lock()
	done := a.sessionDone
	a.mu.Unlock()
	if done != nil {
		<-done
	}
}

// write serializes concurrent frame writes; gorilla connections allow only
// one writer at a time.
func (a *Agent) write(m Message) error {
	frame, err := Encode(m)
	if err != nil {
		return err
	}
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	a.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := a.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("remote: write %q frame: %w", m.Type, err)
	}
	return nil
}
