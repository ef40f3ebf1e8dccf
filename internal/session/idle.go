// File: internal/session/idle.go
package session

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/keyflow/pkg/humantype"
)

const (
	idlePollInterval = time.Second

	idleScrollMinTicks = 1
	idleScrollMaxTicks = 3

	// Idle scrolls trend downward, the way someone skims while waiting.
	idleScrollDownBias = 0.8
)

// IdleScroller nudges the scroll wheel after a stretch of inactivity so an
// otherwise idle agent machine keeps looking attended. Callers mark activity
// whenever real input happens; the scroller stays silent until the gap since
// the last mark exceeds idleAfter.
type IdleScroller struct {
	mouse     humantype.MouseSink
	rand      *humantype.RandomSource
	logger    *zap.Logger
	idleAfter time.Duration

	lastActivityMs atomic.Int64
}

// NewIdleScroller builds a scroller around a mouse sink.
func NewIdleScroller(mouse humantype.MouseSink, idleAfter time.Duration, logger *zap.Logger) *IdleScroller {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &IdleScroller{
		mouse:     mouse,
		rand:      humantype.NewRandomSource(0),
		logger:    logger.Named("idle"),
		idleAfter: idleAfter,
	}
	s.MarkActivity()
	return s
}

// MarkActivity resets the idle clock.
func (s *IdleScroller) MarkActivity() {
	s.lastActivityMs.Store(time.Now().UnixMilli())
}

// Run polls once a second until the context ends. Each scroll counts as
// activity itself, so bursts repeat roughly every idleAfter, not every poll.
func (s *IdleScroller) Run(ctx context.Context) {
	poll := idlePollInterval
	if s.idleAfter < poll {
		poll = s.idleAfter
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			last := time.UnixMilli(s.lastActivityMs.Load())
			if time.Since(last) < s.idleAfter {
				continue
			}
			s.scrollOnce(ctx)
			s.MarkActivity()
		}
	}
}

func (s *IdleScroller) scrollOnce(ctx context.Context) {
	amount := s.rand.Range(idleScrollMinTicks, idleScrollMaxTicks)
	if s.rand.Uniform() >= idleScrollDownBias {
		amount = -amount
	}
	if err := s.mouse.Scroll(ctx, amount); err != nil {
		s.logger.Debug("idle scroll failed", zap.Error(err))
		return
	}
	s.logger.Debug("idle scroll", zap.Int("ticks", amount))
}
