// Package response scores keyed responses against response windows.
package response

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/verte-zerg/dualtask/internal/model"
)

// Expectation is what a live stimulus asks of the participant.
type Expectation struct {
	// Target is true when a response is required.
	Target bool
	// Key is the correct key when Target is set.
	Key string
}

// Score classifies a response. It is pure: the outcome depends only on its
// arguments.
func Score(key model.Opt[string], rt model.Opt[float64], want Expectation) model.ResponseEvent {
	ev := model.ResponseEvent{Key: key, RT: rt}
	pressed, ok := key.Get()
	switch {
	case ok && want.Target && pressed == want.Key:
		ev.Type, ev.Accuracy = model.ResponseHit, model.Correct
	case ok:
		ev.Type, ev.Accuracy = model.ResponseFalseAlarm, model.Incorrect
	case want.Target:
		ev.Type, ev.Accuracy = model.ResponseMiss, model.Incorrect
	default:
		ev.Type, ev.Accuracy = model.ResponseNone, model.Correct
	}
	return ev
}

// Window accepts one response for a live stimulus. A press polled on frame f
// happened during frame f-1, so it counts when OpenFrame < f <= CloseFrame.
type Window struct {
	Slot       int
	Stimulus   string
	Context    model.Context
	Expect     Expectation
	OpenedAt   time.Time
	OpenFrame  int
	CloseFrame int
}

func (w Window) accepts(frame int) bool {
	return w.OpenFrame < frame && frame <= w.CloseFrame
}

// Outcome is a closed window with its scored response.
type Outcome struct {
	Window Window
	Event  model.ResponseEvent
}

type pending struct {
	window Window
	press  *model.KeyPress
}

// Collector tracks open response windows for the continuous mode. Each
// polled keypress is attributed to at most one window.
type Collector struct {
	open []*pending
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Open starts a response window.
func (c *Collector) Open(w Window) {
	c.open = append(c.open, &pending{window: w})
}

// OpenCount returns the number of windows not yet closed.
func (c *Collector) OpenCount() int {
	return len(c.open)
}

// Poll offers the presses read on frame to the open windows. The newest
// accepting window without a response takes the first press made after it
// opened. It returns the number of presses attributed.
func (c *Collector) Poll(frame int, presses []model.KeyPress) int {
	used := 0
	for _, press := range presses {
		for i := len(c.open) - 1; i >= 0; i-- {
			p := c.open[i]
			if p.press != nil || !p.window.accepts(frame) || press.At.Before(p.window.OpenedAt) {
				continue
			}
			pr := press
			p.press = &pr
			used++
			break
		}
	}
	return used
}

// CloseDue scores and removes every window whose CloseFrame is at or
// before frame, in opening order.
func (c *Collector) CloseDue(frame int) []Outcome {
	var out []Outcome
	kept := c.open[:0]
	for _, p := range c.open {
		if p.window.CloseFrame <= frame {
			out = append(out, p.outcome())
			continue
		}
		kept = append(kept, p)
	}
	c.open = kept
	return out
}

// Flush scores and removes every open window.
func (c *Collector) Flush() []Outcome {
	out := make([]Outcome, 0, len(c.open))
	for _, p := range c.open {
		out = append(out, p.outcome())
	}
	c.open = nil
	return out
}

func (p *pending) outcome() Outcome {
	key, rt := model.None[string](), model.None[float64]()
	if p.press != nil {
		key = model.Some(p.press.Key)
		rt = model.Some(p.press.At.Sub(p.window.OpenedAt).Seconds())
	}
	ev := Score(key, rt, p.window.Expect)
	ev.Context = p.window.Context
	return Outcome{Window: p.window, Event: ev}
}

// ArrowKeys are the keys of the four-way choice screens, in option order.
// Index i also encodes the movement direction i*90 degrees.
var ArrowKeys = []string{"right", "up", "left", "down"}

// KeyWaiter blocks for a single key.
type KeyWaiter interface {
	Clear()
	WaitKey(ctx context.Context, allowed []string) (model.KeyPress, error)
}

// Choice is a scored discrete answer.
type Choice struct {
	Key      string
	Index    int
	Accuracy model.Accuracy
	RT       float64
}

// Choose clears pending input, then blocks until one of keys is pressed and
// scores its index against correct.
func Choose(ctx context.Context, kb KeyWaiter, keys []string, correct int, shownAt time.Time) (Choice, error) {
	if correct < 0 || correct >= len(keys) {
		return Choice{}, fmt.Errorf("correct index %d outside %d options", correct, len(keys))
	}
	kb.Clear()
	press, err := kb.WaitKey(ctx, keys)
	if err != nil {
		return Choice{}, err
	}
	idx := slices.Index(keys, press.Key)
	if idx < 0 {
		return Choice{}, fmt.Errorf("unexpected key %q", press.Key)
	}
	acc := model.Incorrect
	if idx == correct {
		acc = model.Correct
	}
	return Choice{Key: press.Key, Index: idx, Accuracy: acc, RT: press.At.Sub(shownAt).Seconds()}, nil
}
