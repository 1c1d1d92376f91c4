package schedule

import (
	"time"

	"github.com/verte-zerg/dualtask/internal/model"
)

// GuardBand widens the primary window when tagging tone context.
const GuardBand = 10

// Timeline answers per-frame questions about a drawn plan.
type Timeline struct {
	plan   Plan
	slotAt map[int]int
}

// NewTimeline indexes the slot frames of p.
func NewTimeline(p Plan) Timeline {
	idx := make(map[int]int, len(p.Slots))
	for i, f := range p.Slots {
		idx[f] = i
	}
	return Timeline{plan: p, slotAt: idx}
}

// Plan returns the underlying plan.
func (t Timeline) Plan() Plan {
	return t.plan
}

// PrimaryActive reports whether the primary stimulus is drawn on frame.
func (t Timeline) PrimaryActive(frame int) bool {
	return t.plan.Primary.Contains(frame)
}

// SecondaryActive reports whether the secondary stimulus is drawn on frame.
func (t Timeline) SecondaryActive(frame int) bool {
	return t.plan.HasSecondary && t.plan.Secondary.Contains(frame)
}

// Slot returns the slot index scheduled on frame, if any.
func (t Timeline) Slot(frame int) (int, bool) {
	i, ok := t.slotAt[frame]
	return i, ok
}

// RecordStart reports whether capture must start on frame.
func (t Timeline) RecordStart(frame int) bool {
	return frame == t.plan.Primary.Start
}

// RecordStop reports whether capture must stop and persist on frame.
func (t Timeline) RecordStop(frame int) bool {
	return frame == t.plan.Primary.End-1
}

// ToneContext tags a tone on frame as dual when it falls inside the
// primary window widened by GuardBand.
func (t Timeline) ToneContext(frame int) model.Context {
	if t.plan.Primary.Expand(GuardBand).Contains(frame) {
		return model.ContextDual
	}
	return model.ContextSingle
}

// PrimaryContext tags a visual sub-event on frame as dual only while the
// primary stimulus is drawn.
func (t Timeline) PrimaryContext(frame int) model.Context {
	if t.plan.Primary.Contains(frame) {
		return model.ContextDual
	}
	return model.ContextSingle
}

// FrameClock is the per-trial tick counter. Ticks run 0..total-1.
type FrameClock struct {
	total int
	now   int
}

// NewFrameClock returns a clock positioned before frame 0.
func NewFrameClock(total int) *FrameClock {
	return &FrameClock{total: total, now: -1}
}

// Next advances to the next frame and reports whether it exists.
func (c *FrameClock) Next() bool {
	if c.now+1 >= c.total {
		c.now = c.total
		return false
	}
	c.now++
	return true
}

// Now returns the current frame.
func (c *FrameClock) Now() int {
	return c.now
}

// Total returns the frame count of the trial.
func (c *FrameClock) Total() int {
	return c.total
}

// Reset rewinds the clock for a new trial.
func (c *FrameClock) Reset(total int) {
	c.total = total
	c.now = -1
}

// DefaultRefreshHz is assumed when the display cannot report its rate.
const DefaultRefreshHz = 60.0

// FrameDuration returns the length of one frame at hz.
func FrameDuration(hz float64) time.Duration {
	if hz <= 0 {
		hz = DefaultRefreshHz
	}
	return time.Duration(float64(time.Second) / hz)
}

// Seconds converts a frame count to seconds at hz.
func Seconds(frames int, hz float64) float64 {
	if hz <= 0 {
		hz = DefaultRefreshHz
	}
	return float64(frames) / hz
}
