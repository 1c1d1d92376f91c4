package response

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dualtask/internal/model"
)

var (
	deviant = Expectation{Target: true, Key: "space"}
	normal  = Expectation{}
	t0      = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
)

func TestScoreTaxonomy(t *testing.T) {
	tests := []struct {
		name string
		key  model.Opt[string]
		want Expectation
		typ  model.ResponseType
		acc  model.Accuracy
	}{
		{"hit", model.Some("space"), deviant, model.ResponseHit, model.Correct},
		{"false alarm", model.Some("space"), normal, model.ResponseFalseAlarm, model.Incorrect},
		{"miss", model.None[string](), deviant, model.ResponseMiss, model.Incorrect},
		{"correct rejection", model.None[string](), normal, model.ResponseNone, model.Correct},
		{"wrong key", model.Some("a"), Expectation{Target: true, Key: "l"}, model.ResponseFalseAlarm, model.Incorrect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Score(tt.key, model.Some(0.3), tt.want)
			assert.Equal(t, tt.typ, ev.Type)
			assert.Equal(t, tt.acc, ev.Accuracy)
		})
	}
}

func TestScoreIsPure(t *testing.T) {
	first := Score(model.Some("space"), model.Some(0.41), deviant)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, Score(model.Some("space"), model.Some(0.41), deviant))
	}
}

func TestCollectorMissWithoutPress(t *testing.T) {
	c := NewCollector()
	c.Open(Window{Slot: 4, Expect: deviant, OpenedAt: t0, OpenFrame: 200, CloseFrame: 250, Context: model.ContextSingle})
	for f := 201; f < 250; f++ {
		c.Poll(f, nil)
		require.Empty(t, c.CloseDue(f))
	}
	c.Poll(250, nil)
	out := c.CloseDue(250)
	require.Len(t, out, 1)
	assert.Equal(t, model.ResponseMiss, out[0].Event.Type)
	assert.Equal(t, model.Incorrect, out[0].Event.Accuracy)
	assert.False(t, out[0].Event.RT.Valid())
	assert.Zero(t, c.OpenCount())
}

func TestCollectorReactionTime(t *testing.T) {
	c := NewCollector()
	c.Open(Window{Expect: deviant, OpenedAt: t0, OpenFrame: 100, CloseFrame: 150})
	used := c.Poll(120, []model.KeyPress{
		{Key: "space", At: t0.Add(330 * time.Millisecond)},
		{Key: "space", At: t0.Add(400 * time.Millisecond)},
	})
	assert.Equal(t, 1, used)
	out := c.Flush()
	require.Len(t, out, 1)
	rt, ok := out[0].Event.RT.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.33, rt, 1e-9)
	assert.Equal(t, model.ResponseHit, out[0].Event.Type)
}

func TestCollectorAttributesPressOnce(t *testing.T) {
	c := NewCollector()
	c.Open(Window{Slot: 0, Expect: normal, OpenedAt: t0, OpenFrame: 50, CloseFrame: 100})
	c.Poll(70, []model.KeyPress{{Key: "space", At: t0.Add(time.Second / 3)}})
	closed := c.CloseDue(100)
	require.Len(t, closed, 1)
	assert.Equal(t, model.ResponseFalseAlarm, closed[0].Event.Type)

	next := t0.Add(50 * time.Second / 60)
	c.Open(Window{Slot: 1, Expect: deviant, OpenedAt: next, OpenFrame: 100, CloseFrame: 150})
	// A stale press read late must not leak into the next window.
	c.Poll(101, []model.KeyPress{{Key: "space", At: t0.Add(time.Second / 3)}})
	out := c.Flush()
	require.Len(t, out, 1)
	assert.Equal(t, model.ResponseMiss, out[0].Event.Type)
}

func TestCollectorOutcomeCountMatchesWindows(t *testing.T) {
	c := NewCollector()
	total := 0
	for slot := 0; slot < 12; slot++ {
		open := slot * 100
		total += len(c.CloseDue(open))
		c.Open(Window{Slot: slot, Expect: Expectation{Target: true, Key: "a"}, OpenedAt: t0, OpenFrame: open, CloseFrame: open + 70})
		c.Poll(open+10, []model.KeyPress{{Key: "a", At: t0.Add(time.Second)}, {Key: "l", At: t0.Add(time.Second)}})
	}
	total += len(c.CloseDue(1200))
	total += len(c.Flush())
	assert.Equal(t, 12, total)
}

type fakeWaiter struct {
	cleared int
	press   model.KeyPress
	err     error
}

func (f *fakeWaiter) Clear() { f.cleared++ }

func (f *fakeWaiter) WaitKey(_ context.Context, _ []string) (model.KeyPress, error) {
	return f.press, f.err
}

func TestChoose(t *testing.T) {
	kb := &fakeWaiter{press: model.KeyPress{Key: "left", At: t0.Add(2 * time.Second)}}
	got, err := Choose(context.Background(), kb, ArrowKeys, 2, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, kb.cleared)
	assert.Equal(t, 2, got.Index)
	assert.Equal(t, model.Correct, got.Accuracy)
	assert.InDelta(t, 2.0, got.RT, 1e-9)

	got, err = Choose(context.Background(), kb, ArrowKeys, 0, t0)
	require.NoError(t, err)
	assert.Equal(t, model.Incorrect, got.Accuracy)

	_, err = Choose(context.Background(), kb, ArrowKeys, 4, t0)
	assert.Error(t, err)

	kb.err = errors.New("closed")
	_, err = Choose(context.Background(), kb, ArrowKeys, 1, t0)
	assert.Error(t, err)
}
