// -- pkg/inject/recorder.go --
package inject

import (
	"context"
	"sync"
	"time"
)

// EventKind tags a recorded injection event.
type EventKind string

const (
	EventPress     EventKind = "press"
	EventBackspace EventKind = "backspace"
	EventRelease   EventKind = "release_all"
	EventMouseMove EventKind = "mouse_move"
	EventScroll    EventKind = "scroll"
)

// Event is one injection as the recorder saw it.
type Event struct {
	Kind EventKind
	Char rune
	Hold time.Duration
	DX   int
	DY   int
}

// Recorder is a capture sink: it records every event instead of delivering
// it anywhere. It backs the "capture" backend (dry runs) and the package
// tests. Safe for concurrent use.
type Recorder struct {
	mu          sync.Mutex
	events      []Event
	unsupported map[rune]bool
}

// NewRecorder returns an empty recorder that supports every character.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RejectChars marks characters the recorder should report as unsupported,
// for exercising the skip path.
func (r *Recorder) RejectChars(chars ...rune) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsupported == nil {
		r.unsupported = make(map[rune]bool, len(chars))
	}
	for _, c := range chars {
		r.unsupported[c] = true
	}
}

func (r *Recorder) TypeCharacter(_ context.Context, c rune, hold time.Duration) error {
	r.append(Event{Kind: EventPress, Char: c, Hold: hold})
	return nil
}

func (r *Recorder) PressBackspace(context.Context) error {
	r.append(Event{Kind: EventBackspace})
	return nil
}

func (r *Recorder) ReleaseAllKeys() error {
	r.append(Event{Kind: EventRelease})
	return nil
}

func (r *Recorder) Supports(c rune) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.unsupported[c]
}

func (r *Recorder) MoveRelative(_ context.Context, dx, dy int) error {
	r.append(Event{Kind: EventMouseMove, DX: dx, DY: dy})
	return nil
}

func (r *Recorder) Scroll(_ context.Context, amount int) error {
	r.append(Event{Kind: EventScroll, DY: amount})
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Typed reconstructs the text as a receiving application would see it,
// replaying presses and backspaces in order.
func (r *Recorder) Typed() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []rune
	for _, ev := range r.events {
		switch ev.Kind {
		case EventPress:
			out = append(out, ev.Char)
		case EventBackspace:
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		}
	}
	return string(out)
}

func (r *Recorder) append(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}
