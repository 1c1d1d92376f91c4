package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dualtask/internal/model"
)

func entry(ctx model.Context, target bool, typ model.ResponseType, acc model.Accuracy, rt model.Opt[float64]) Entry {
	return Entry{Target: target, Event: model.ResponseEvent{Context: ctx, Type: typ, Accuracy: acc, RT: rt}}
}

func TestSummarizePartitionsByContext(t *testing.T) {
	entries := []Entry{
		entry(model.ContextSingle, true, model.ResponseHit, model.Correct, model.Some(0.4)),
		entry(model.ContextSingle, true, model.ResponseMiss, model.Incorrect, model.None[float64]()),
		entry(model.ContextSingle, false, model.ResponseFalseAlarm, model.Incorrect, model.Some(0.5)),
		entry(model.ContextSingle, false, model.ResponseNone, model.Correct, model.None[float64]()),
		entry(model.ContextDual, true, model.ResponseHit, model.Correct, model.Some(0.8)),
	}

	single := Summarize(entries, model.ContextSingle, nil)
	assert.Equal(t, model.Some(4), single.Total)
	assert.Equal(t, model.Some(2), single.Targets)
	assert.Equal(t, model.Some(1), single.Hits)
	assert.Equal(t, model.Some(1), single.Misses)
	assert.Equal(t, model.Some(1), single.FalseAlarms)
	assert.Equal(t, model.Some(1), single.Rejections)
	acc, _ := single.Accuracy.Get()
	assert.InDelta(t, 0.5, acc, 1e-9)
	rtc, _ := single.MeanRTCorrect.Get()
	assert.InDelta(t, 0.4, rtc, 1e-9)
	rti, _ := single.MeanRTIncorrect.Get()
	assert.InDelta(t, 0.5, rti, 1e-9)

	dual := Summarize(entries, model.ContextDual, nil)
	assert.Equal(t, model.Some(1), dual.Total)
	assert.False(t, dual.MeanRTIncorrect.Valid())
}

func TestSummarizeEmptyPartitionIsNA(t *testing.T) {
	s := Summarize(nil, model.ContextDual, nil)
	assert.Equal(t, model.Some(0), s.Total)
	assert.False(t, s.Accuracy.Valid())
	assert.False(t, s.MeanRTCorrect.Valid())
	assert.Equal(t, "NA", s.Accuracy.String())
}

func TestHistoryKeepsLastTwelve(t *testing.T) {
	h := NewHistory(RollingSize)
	for i := 0; i < 20; i++ {
		h.Add(Entry{Slot: i, Target: i%4 == 0, Event: model.ResponseEvent{Context: model.ContextSingle, Accuracy: model.Correct}})
	}
	last := h.Last()
	require.Len(t, last, RollingSize)
	assert.Equal(t, 8, last[0].Slot)
	assert.Equal(t, 19, last[11].Slot)

	all := h.Summary(model.ContextSingle, nil)
	assert.Equal(t, model.Some(12), all.Total)
	targets := h.Summary(model.ContextSingle, TargetsOnly)
	// Slots 8, 12 and 16 are targets.
	assert.Equal(t, model.Some(3), targets.Total)
}

func TestAggregatorToneCounts(t *testing.T) {
	var a Aggregator
	a.AddTone(model.ToneEvent{Type: model.ToneNormal, Context: model.ContextSingle})
	a.AddTone(model.ToneEvent{Type: model.ToneDeviant, Context: model.ContextSingle})
	a.AddTone(model.ToneEvent{Type: model.ToneDeviant, Context: model.ContextDual})
	n, d := a.ToneCounts(model.ContextSingle)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, d)
	assert.Equal(t, "[normal deviant deviant]", a.ToneSequence())

	a.AddEntry(Entry{})
	a.Reset()
	assert.Empty(t, a.Tones())
	assert.Empty(t, a.Entries())
}

func TestMovingAverageAndSparkline(t *testing.T) {
	assert.Equal(t, []float64{1, 1.5, 2.5}, MovingAverage([]float64{1, 2, 3}, 2))
	assert.Equal(t, " .@", Sparkline([]float64{0, 1, 9}))
	assert.Equal(t, "++", Sparkline([]float64{5, 5}))
	assert.Empty(t, Sparkline(nil))
}
