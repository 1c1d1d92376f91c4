// Package enginetest provides scripted devices for driving the engine in
// tests without a terminal or sound card.
package enginetest

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/verte-zerg/dualtask/internal/audio"
	"github.com/verte-zerg/dualtask/internal/model"
)

// FrameInterval is the simulated refresh interval (60 Hz).
const FrameInterval = time.Second / 60

// loopMinTotal separates trial-loop frames from the fixed-length cue,
// fixation, preview and feedback screens, none of which exceed 120 frames.
const loopMinTotal = 121

// Clock is a manual clock starting at a fixed instant.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock at 2024-01-01 09:00 UTC.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Press is a scripted key pressed while a trial-loop frame is on screen.
type Press struct {
	Trial int
	Frame int
	Key   string
}

// Rig wires a display, keyboard, recorder and player to one clock so that
// presses and captures line up with presented frames.
type Rig struct {
	Clock *Clock

	// Hz is reported by RefreshRate unless RateErr is set.
	Hz      float64
	RateErr error

	// Presses are delivered on the Poll after their frame is presented.
	Presses []Press
	// Answers are returned by WaitKey in order. When exhausted, the first
	// allowed key is returned.
	Answers []string

	Frames   []model.Frame
	Tones    []model.ToneType
	Captures []*CaptureLog

	StartErr   error
	PersistErr error

	queue   []model.KeyPress
	next    int
	current *CaptureLog
}

// CaptureLog records one recorder session in trial-loop frames.
type CaptureLog struct {
	Trial     int
	StartedAt int
	StoppedAt int
	Seconds   float64
	Rate      int
	Filename  string
}

// NewRig returns a 60 Hz rig.
func NewRig() *Rig {
	return &Rig{Clock: NewClock(), Hz: 60}
}

func isLoop(f model.Frame) bool {
	return f.Total >= loopMinTotal
}

// Present records f and advances the clock by one frame.
func (r *Rig) Present(ctx context.Context, f model.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.Frames = append(r.Frames, f)
	r.Clock.Advance(FrameInterval)
	if !isLoop(f) {
		r.next = 0
		return nil
	}
	r.next = f.Index + 1
	for _, p := range r.Presses {
		if p.Trial == f.Trial && p.Frame == f.Index {
			r.queue = append(r.queue, model.KeyPress{Key: p.Key, At: r.Clock.Now()})
		}
	}
	return nil
}

// RefreshRate implements engine.Display.
func (r *Rig) RefreshRate() (float64, error) {
	if r.RateErr != nil {
		return 0, r.RateErr
	}
	return r.Hz, nil
}

// Poll drains queued presses, keeping only allowed keys.
func (r *Rig) Poll(allowed []string) []model.KeyPress {
	var out []model.KeyPress
	for _, p := range r.queue {
		if slices.Contains(allowed, p.Key) {
			out = append(out, p)
		}
	}
	r.queue = nil
	return out
}

// Clear drops queued presses.
func (r *Rig) Clear() {
	r.queue = nil
}

// WaitKey answers a choice screen half a second after it is shown.
func (r *Rig) WaitKey(ctx context.Context, allowed []string) (model.KeyPress, error) {
	if err := ctx.Err(); err != nil {
		return model.KeyPress{}, err
	}
	if len(allowed) == 0 {
		return model.KeyPress{}, errors.New("no keys allowed")
	}
	key := allowed[0]
	if len(r.Answers) > 0 {
		key, r.Answers = r.Answers[0], r.Answers[1:]
	}
	r.Clock.Advance(500 * time.Millisecond)
	return model.KeyPress{Key: key, At: r.Clock.Now()}, nil
}

// Start implements engine.Recorder. The capture starts on the frame about
// to be presented.
func (r *Rig) Start(seconds float64, rate int) (*audio.Capture, error) {
	if r.StartErr != nil {
		return nil, r.StartErr
	}
	trial := 0
	if n := len(r.Frames); n > 0 {
		trial = r.Frames[n-1].Trial
	}
	r.current = &CaptureLog{Trial: trial, StartedAt: r.next, StoppedAt: -1, Seconds: seconds, Rate: rate}
	r.Captures = append(r.Captures, r.current)
	return &audio.Capture{ID: len(r.Captures), Seconds: seconds, Rate: rate}, nil
}

// Stop implements engine.Recorder.
func (r *Rig) Stop(c *audio.Capture) (audio.Buffer, error) {
	if r.current == nil {
		return audio.Buffer{}, errors.New("no capture running")
	}
	r.current.StoppedAt = r.next
	r.current = nil
	return audio.Buffer{Samples: make([]int16, int(c.Seconds*float64(c.Rate))), Rate: c.Rate}, nil
}

// Persist implements engine.Recorder.
func (r *Rig) Persist(buf audio.Buffer, filename string) (string, error) {
	if r.PersistErr != nil {
		return "", r.PersistErr
	}
	if n := len(r.Captures); n > 0 {
		r.Captures[n-1].Filename = filename
	}
	return filename, nil
}

// Play implements engine.TonePlayer.
func (r *Rig) Play(t model.ToneType) error {
	r.Tones = append(r.Tones, t)
	return nil
}

// LoopFrames returns the trial-loop frames presented for trial.
func (r *Rig) LoopFrames(trial int) []model.Frame {
	var out []model.Frame
	for _, f := range r.Frames {
		if f.Trial == trial && isLoop(f) {
			out = append(out, f)
		}
	}
	return out
}

// Sink stores appended records per table.
type Sink struct {
	mu      sync.Mutex
	Tables  map[string][]model.Record
	Order   []string
	FailOn  string
	FailErr error
}

// NewSink returns an empty Sink.
func NewSink() *Sink {
	return &Sink{Tables: map[string][]model.Record{}}
}

// Append implements sink.ResultSink.
func (s *Sink) Append(_ context.Context, table string, rec model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailOn == table {
		return s.FailErr
	}
	s.Tables[table] = append(s.Tables[table], rec)
	s.Order = append(s.Order, table)
	return nil
}

// Main returns the main-table records.
func (s *Sink) Main() []model.TrialRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TrialRecord
	for _, rec := range s.Tables[model.TableMain] {
		out = append(out, rec.(model.TrialRecord))
	}
	return out
}

// Events returns the sub-event records of table.
func (s *Sink) Events(table string) []model.EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.EventRecord
	for _, rec := range s.Tables[table] {
		out = append(out, rec.(model.EventRecord))
	}
	return out
}
