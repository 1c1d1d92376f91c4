// Package stats aggregates scored sub-events into trial summaries and reports.
package stats

import (
	"math"
	"strings"

	"github.com/verte-zerg/dualtask/internal/model"
)

// RollingSize is the number of recent sub-events a rolling summary covers.
const RollingSize = 12

const sparkChars = " .:-=+*#%@"

// Entry is a scored sub-event. Target records whether a response was required.
type Entry struct {
	Slot   int
	Target bool
	Event  model.ResponseEvent
}

// TargetsOnly keeps entries that required a response.
func TargetsOnly(e Entry) bool { return e.Target }

// Summarize rolls up the entries of one presentation context. Accuracy is
// NA for an empty partition and mean RTs skip entries without an RT.
func Summarize(entries []Entry, ctx model.Context, keep func(Entry) bool) model.Summary {
	var total, targets, hits, misses, fas, rejections, correct int
	var rtCorrect, rtIncorrect []float64
	for _, e := range entries {
		if e.Event.Context != ctx || (keep != nil && !keep(e)) {
			continue
		}
		total++
		if e.Target {
			targets++
		}
		switch e.Event.Type {
		case model.ResponseHit:
			hits++
		case model.ResponseMiss:
			misses++
		case model.ResponseFalseAlarm:
			fas++
		case model.ResponseNone:
			rejections++
		}
		rt, hasRT := e.Event.RT.Get()
		if e.Event.Accuracy == model.Correct {
			correct++
			if hasRT {
				rtCorrect = append(rtCorrect, rt)
			}
		} else if hasRT {
			rtIncorrect = append(rtIncorrect, rt)
		}
	}
	s := model.Summary{
		Total:           model.Some(total),
		Targets:         model.Some(targets),
		Hits:            model.Some(hits),
		Misses:          model.Some(misses),
		FalseAlarms:     model.Some(fas),
		Rejections:      model.Some(rejections),
		MeanRTCorrect:   mean(rtCorrect),
		MeanRTIncorrect: mean(rtIncorrect),
	}
	if total > 0 {
		s.Accuracy = model.Some(float64(correct) / float64(total))
	}
	return s
}

func mean(values []float64) model.Opt[float64] {
	if len(values) == 0 {
		return model.None[float64]()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return model.Some(sum / float64(len(values)))
}

// History keeps scored sub-events across trials for rolling summaries.
type History struct {
	size    int
	entries []Entry
}

// NewHistory returns a History covering the last size entries.
func NewHistory(size int) *History {
	if size <= 0 {
		size = RollingSize
	}
	return &History{size: size}
}

// Add appends entries in frame order.
func (h *History) Add(entries ...Entry) {
	h.entries = append(h.entries, entries...)
	if over := len(h.entries) - h.size; over > 0 {
		h.entries = append(h.entries[:0:0], h.entries[over:]...)
	}
}

// Last returns the most recent entries, oldest first.
func (h *History) Last() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Summary summarizes the rolling window restricted to ctx.
func (h *History) Summary(ctx model.Context, keep func(Entry) bool) model.Summary {
	return Summarize(h.entries, ctx, keep)
}

// Aggregator collects one trial's sub-events in frame order.
type Aggregator struct {
	tones   []model.ToneEvent
	entries []Entry
}

// AddTone records a scheduled tone.
func (a *Aggregator) AddTone(ev model.ToneEvent) {
	a.tones = append(a.tones, ev)
}

// AddEntry records a scored response.
func (a *Aggregator) AddEntry(e Entry) {
	a.entries = append(a.entries, e)
}

// Tones returns the tones of the trial.
func (a *Aggregator) Tones() []model.ToneEvent {
	return a.tones
}

// Entries returns the scored responses of the trial.
func (a *Aggregator) Entries() []Entry {
	return a.entries
}

// ToneCounts counts tones of ctx by type.
func (a *Aggregator) ToneCounts(ctx model.Context) (normal, deviant int) {
	for _, t := range a.tones {
		if t.Context != ctx {
			continue
		}
		if t.Type == model.ToneDeviant {
			deviant++
		} else {
			normal++
		}
	}
	return normal, deviant
}

// ToneSequence renders tone types in slot order.
func (a *Aggregator) ToneSequence() string {
	parts := make([]string, len(a.tones))
	for i, t := range a.tones {
		parts[i] = string(t.Type)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Reset clears the trial buffers.
func (a *Aggregator) Reset() {
	a.tones = nil
	a.entries = nil
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
