package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/dualtask/internal/audio"
	"github.com/verte-zerg/dualtask/internal/generator"
	"github.com/verte-zerg/dualtask/internal/model"
	"github.com/verte-zerg/dualtask/internal/response"
	"github.com/verte-zerg/dualtask/internal/schedule"
	"github.com/verte-zerg/dualtask/internal/stats"
)

// On-screen texts.
const (
	CueText         = "Wer kommt?"
	FixationText    = "+"
	CorrectText     = "Korrekt!"
	IncorrectText   = "Inkorrekt!"
	DotPrompt       = "Drücken Sie den Richtungs-Pfeil auf der Tastatur,\n in die sich die Punkte bewegt haben."
	NumberPrompt    = "Welche Zahl haben Sie sich gemerkt?\n Drücken Sie den entsprechenden Pfeil auf der Tastatur."
	BeepCountPrompt = "Wieviele hohe Töne haben Sie gehört?\n Drücken Sie den entsprechenden Pfeil auf der Tastatur."
)

// Response keys of the continuous streams.
const (
	KeySpace = "space"
	KeyLeft  = "a"
	KeyRight = "l"
)

// DirectionArrows label the dot choice in ArrowKeys order.
var DirectionArrows = []string{"→", "↑", "←", "↓"}

type trialRun struct {
	e       *Engine
	block   Block
	v       Variant
	trial   model.Trial
	src     *generator.Source
	history *stats.History
	log     *zap.Logger

	plan      schedule.Plan
	tl        schedule.Timeline
	clock     *schedule.FrameClock
	collector *response.Collector
	agg       stats.Aggregator
	allowed   []string

	direction int
	number    int
	oddball   *generator.Oddball
	nback     []generator.NBackSlot
	flanker   []generator.FlankerStimulus

	capture       *audio.Capture
	recording     model.Opt[string]
	events        []model.EventRecord
	feedback      string
	feedbackUntil int
}

func newTrialRun(e *Engine, b Block, index int, stim model.Stimulus, src *generator.Source, planner *schedule.Planner, history *stats.History) (*trialRun, error) {
	t := &trialRun{
		e:       e,
		block:   b,
		v:       b.Variant,
		src:     src,
		history: history,
		trial: model.Trial{
			Index:     index,
			Task:      b.Task,
			Phase:     b.Phase,
			Condition: stim.Condition,
			Stimulus:  stim,
		},
		collector: response.NewCollector(),
		log:       e.deps.Logger.With(zap.String("task", b.Task), zap.Int("trial", index)),
	}
	t.plan = planner.Plan(index)
	t.tl = schedule.NewTimeline(t.plan)
	t.clock = schedule.NewFrameClock(t.plan.TotalFrames)

	var err error
	if t.v.Dots {
		t.direction = t.src.Intn(len(response.ArrowKeys))
	}
	if t.v.Number {
		if t.number, err = generator.Draw(t.src, generator.KindNumber); err != nil {
			return nil, err
		}
	}
	slots := len(t.plan.Slots)
	switch {
	case t.v.Tones != TonesOff:
		if t.oddball, err = generator.NewOddball(t.src, slots); err != nil {
			return nil, err
		}
		if t.v.PressTones {
			t.allowed = []string{KeySpace}
		}
	case t.v.NBack:
		if t.nback, err = generator.NBack(t.src, generator.Shapes, slots, t.v.NBackBack); err != nil {
			return nil, err
		}
		t.allowed = []string{KeySpace}
	case len(t.v.Flanker) > 0:
		if t.flanker, err = generator.Flanker(t.src, t.v.Flanker, slots); err != nil {
			return nil, err
		}
		t.allowed = []string{KeyLeft, KeyRight}
	}
	return t, nil
}

func (t *trialRun) deps() Deps {
	return t.e.deps
}

func (t *trialRun) run(ctx context.Context) error {
	started := t.deps().Clock.Now()
	rec := model.TrialRecord{
		Experiment:   t.e.set.Experiment,
		Subject:      t.e.set.Subject,
		Date:         started,
		Task:         t.block.Task,
		Trial:        t.trial.Index,
		Phase:        t.trial.Phase,
		StimulusID:   t.trial.Stimulus.ID,
		Stimulus:     t.trial.Stimulus.Item,
		Condition:    t.trial.Condition,
		PrimaryStart: t.plan.Primary.Start,
		PrimaryEnd:   t.plan.Primary.End,
		StartedAt:    started,
	}
	defer t.abortCapture()

	if t.v.Number {
		frame := t.frame(0, NumberFrames, model.StreamNumber)
		frame.Text = strconv.Itoa(t.number)
		if err := t.hold(ctx, frame, NumberFrames); err != nil {
			return err
		}
	}
	cue := t.frame(0, CueFrames, model.StreamCue)
	cue.Text = CueText
	if err := t.hold(ctx, cue, CueFrames); err != nil {
		return err
	}
	fix := t.frame(0, FixationFrames, model.StreamFixation)
	fix.Text = FixationText
	if err := t.hold(ctx, fix, FixationFrames); err != nil {
		return err
	}

	if err := t.loop(ctx); err != nil {
		return err
	}
	rec.Recording = t.recording

	if err := t.finish(ctx, &rec); err != nil {
		return err
	}
	rec.EndedAt = t.deps().Clock.Now()

	table := t.v.Table()
	for _, ev := range t.events {
		err := t.deps().Sink.Append(ctx, table, ev)
		t.deps().Metrics.Record(table, err)
		if err != nil {
			return fmt.Errorf("append %s record: %w", table, err)
		}
	}
	err := t.deps().Sink.Append(ctx, model.TableMain, rec)
	t.deps().Metrics.Record(model.TableMain, err)
	if err != nil {
		return fmt.Errorf("append %s record: %w", model.TableMain, err)
	}
	t.deps().Metrics.Trial(t.block.Task)
	t.log.Info("trial finished",
		zap.String("stimulus_id", rec.StimulusID),
		zap.Stringer("recording", rec.Recording),
		zap.Int("events", len(t.events)),
		zap.Duration("duration", rec.EndedAt.Sub(rec.StartedAt)))
	return nil
}

// loop ticks the frame clock through the trial. Per frame: read keys,
// close due windows, start new slots, drive the recorder, present.
func (t *trialRun) loop(ctx context.Context) error {
	kb := t.deps().Keyboard
	kb.Clear()
	for t.clock.Next() {
		f := t.clock.Now()
		if err := ctx.Err(); err != nil {
			return err
		}
		t.collector.Poll(f, kb.Poll(t.allowed))
		t.closed(t.collector.CloseDue(f))
		if slot, ok := t.tl.Slot(f); ok {
			if err := t.startSlot(slot, f); err != nil {
				return err
			}
		}
		if t.tl.RecordStart(f) {
			t.startCapture()
		}
		if t.tl.RecordStop(f) {
			t.stopCapture()
		}
		if err := t.present(ctx, t.streamFrame(f)); err != nil {
			return err
		}
	}
	total := t.clock.Total()
	t.collector.Poll(total, kb.Poll(t.allowed))
	t.closed(t.collector.CloseDue(total))
	t.closed(t.collector.Flush())
	return nil
}

func (t *trialRun) startSlot(slot, f int) error {
	now := t.deps().Clock.Now()
	ctxTag := t.tl.PrimaryContext(f)
	if t.oddball != nil {
		ctxTag = t.tl.ToneContext(f)
	}
	w := response.Window{Slot: slot, Context: ctxTag, OpenedAt: now, OpenFrame: f}
	switch {
	case t.oddball != nil:
		typ, err := t.oddball.Next()
		if err != nil {
			return err
		}
		played := t.v.Tones == TonesAll || ctxTag == model.ContextSingle
		if played {
			if err := t.deps().Player.Play(typ); err != nil {
				t.log.Warn("tone playback failed", zap.Int("slot", slot), zap.Error(err))
				t.deps().Metrics.DeviceError("player")
				played = false
			}
		}
		t.agg.AddTone(model.ToneEvent{Index: slot, Type: typ, Frame: f, Context: ctxTag, Played: played})
		t.deps().Metrics.Tone(string(typ), string(ctxTag), played)
		if t.v.CountTones {
			t.events = append(t.events, t.eventRecord(slot, f, string(typ), ctxTag, now))
		}
		if !t.v.PressTones {
			return nil
		}
		w.Stimulus = string(typ)
		w.Expect = response.Expectation{Target: typ == model.ToneDeviant, Key: KeySpace}
		w.CloseFrame = t.nextSlotFrame(slot)
	case t.nback != nil:
		s := t.nback[slot]
		w.Stimulus = s.Shape
		w.Expect = response.Expectation{Target: s.Target, Key: KeySpace}
		w.CloseFrame = f + t.v.NBackWindow
	case t.flanker != nil:
		s := t.flanker[slot]
		w.Stimulus = s.Text
		w.Expect = response.Expectation{Target: true, Key: s.Key}
		w.CloseFrame = f + t.v.FlankerWindow
	default:
		return nil
	}
	t.collector.Open(w)
	t.deps().Keyboard.Clear()
	return nil
}

func (t *trialRun) nextSlotFrame(slot int) int {
	if slot+1 < len(t.plan.Slots) {
		return t.plan.Slots[slot+1]
	}
	return t.plan.Slots[slot] + t.v.Planner.SlotPeriod
}

func (t *trialRun) closed(outcomes []response.Outcome) {
	table := t.v.Table()
	for _, o := range outcomes {
		t.agg.AddEntry(stats.Entry{Slot: o.Window.Slot, Target: o.Window.Expect.Target, Event: o.Event})
		rt, answered := o.Event.RT.Get()
		t.deps().Metrics.Response(table, string(o.Event.Type), rt, answered)

		ev := t.eventRecord(o.Window.Slot, o.Window.OpenFrame, o.Window.Stimulus, o.Window.Context, o.Window.OpenedAt)
		if o.Window.Expect.Target {
			ev.Expected = model.Some(o.Window.Expect.Key)
		}
		ev.Key = o.Event.Key
		ev.RT = o.Event.RT
		ev.Type = model.Some(o.Event.Type)
		ev.Accuracy = model.Some(o.Event.Accuracy)
		t.events = append(t.events, ev)

		if t.flanker != nil {
			t.feedback = feedbackText(o.Event.Accuracy)
			t.feedbackUntil = o.Window.CloseFrame + t.v.FlankerFeedback
		}
	}
}

func (t *trialRun) eventRecord(slot, frame int, stimulus string, ctxTag model.Context, at time.Time) model.EventRecord {
	return model.EventRecord{
		Task:     t.block.Task,
		Phase:    t.trial.Phase,
		Trial:    t.trial.Index,
		Slot:     slot + 1,
		Frame:    frame,
		Stimulus: stimulus,
		Context:  ctxTag,
		At:       at,
	}
}

func feedbackText(acc model.Accuracy) string {
	if acc == model.Correct {
		return CorrectText
	}
	return IncorrectText
}

func (t *trialRun) recordingName() string {
	return fmt.Sprintf("%s_%s_%02d_%s.wav", t.block.Task, t.e.set.Subject, t.trial.Index, t.trial.Stimulus.ID)
}

func (t *trialRun) startCapture() {
	seconds := schedule.Seconds(t.plan.Primary.Len(), t.e.RefreshRate())
	c, err := t.deps().Recorder.Start(seconds, t.e.set.SampleRate)
	if err != nil {
		t.log.Warn("recording unavailable", zap.Error(err))
		t.deps().Metrics.DeviceError("recorder")
		return
	}
	t.capture = c
}

func (t *trialRun) stopCapture() {
	if t.capture == nil {
		return
	}
	c := t.capture
	t.capture = nil
	buf, err := t.deps().Recorder.Stop(c)
	if err == nil {
		_, err = t.deps().Recorder.Persist(buf, t.recordingName())
	}
	switch {
	case err == nil:
		t.recording = model.Some(t.recordingName())
	case errors.Is(err, audio.ErrDisabled):
	default:
		t.log.Warn("recording not saved", zap.Error(err))
		t.deps().Metrics.DeviceError("recorder")
	}
}

func (t *trialRun) abortCapture() {
	if t.capture == nil {
		return
	}
	// Best-effort stop of an abandoned capture.
	_, _ = t.deps().Recorder.Stop(t.capture)
	t.capture = nil
}

func (t *trialRun) frame(index, total int, active ...model.Stream) model.Frame {
	return model.Frame{
		Task:   t.block.Task,
		Trial:  t.trial.Index,
		Index:  index,
		Total:  total,
		Active: active,
	}
}

func (t *trialRun) streamFrame(f int) model.Frame {
	fr := t.frame(f, t.plan.TotalFrames)
	if t.tl.PrimaryActive(f) {
		fr.Active = append(fr.Active, model.StreamPrimary)
		fr.Text = t.trial.Stimulus.Item
	}
	if t.tl.SecondaryActive(f) {
		fr.Active = append(fr.Active, model.StreamDots)
		fr.Degrees = t.direction * 90
	}
	slot, since, ok := t.currentSlot(f)
	switch {
	case ok && t.nback != nil && since < t.v.NBackWindow:
		fr.Active = append(fr.Active, model.StreamShape)
		fr.Symbol = t.nback[slot].Shape
	case ok && t.flanker != nil && since < t.v.FlankerWindow:
		fr.Active = append(fr.Active, model.StreamFlanker)
		fr.Symbol = t.flanker[slot].Text
	}
	if f < t.feedbackUntil {
		fr.Active = append(fr.Active, model.StreamFeedback)
		fr.Feedback = t.feedback
	}
	return fr
}

// currentSlot returns the latest slot started at or before f and the
// frames elapsed since.
func (t *trialRun) currentSlot(f int) (slot, since int, ok bool) {
	slots := t.plan.Slots
	for i := len(slots) - 1; i >= 0; i-- {
		if slots[i] <= f {
			return i, f - slots[i], true
		}
	}
	return 0, 0, false
}

func (t *trialRun) present(ctx context.Context, fr model.Frame) error {
	if err := t.deps().Display.Present(ctx, fr); err != nil {
		return fmt.Errorf("present frame %d: %w", fr.Index, err)
	}
	now := t.deps().Clock.Now()
	var interval time.Duration
	if !t.e.lastPresent.IsZero() {
		interval = now.Sub(t.e.lastPresent)
	}
	t.e.lastPresent = now
	t.deps().Metrics.Frame(t.block.Task, interval)
	return nil
}

// hold presents fr for n frames.
func (t *trialRun) hold(ctx context.Context, fr model.Frame, n int) error {
	for i := 0; i < n; i++ {
		fr.Index = i
		if err := t.present(ctx, fr); err != nil {
			return err
		}
	}
	return nil
}

// ask shows a four-way choice, waits for an arrow key, then shows feedback.
func (t *trialRun) ask(ctx context.Context, prompt string, options []string, correct int) (response.Choice, error) {
	fr := t.frame(0, 1, model.StreamChoice)
	fr.Prompt = prompt
	fr.Options = options
	if err := t.present(ctx, fr); err != nil {
		return response.Choice{}, err
	}
	choice, err := response.Choose(ctx, t.deps().Keyboard, response.ArrowKeys, correct, t.deps().Clock.Now())
	if err != nil {
		return response.Choice{}, err
	}
	fb := t.frame(0, FeedbackFrames, model.StreamFeedback)
	fb.Feedback = feedbackText(choice.Accuracy)
	if err := t.hold(ctx, fb, FeedbackFrames); err != nil {
		return response.Choice{}, err
	}
	return choice, nil
}

func optionLabels(values []int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Itoa(v)
	}
	return out
}

// finish asks the post-trial questions and fills the trial summaries.
func (t *trialRun) finish(ctx context.Context, rec *model.TrialRecord) error {
	entries := t.agg.Entries()

	if t.v.Dots {
		choice, err := t.ask(ctx, DotPrompt, DirectionArrows, t.direction)
		if err != nil {
			return err
		}
		rec.DotDirection = model.Some(t.direction * 90)
		rec.DotFirst = model.Some(t.plan.Secondary.Start)
		rec.DotLast = model.Some(t.plan.Secondary.End)
		rec.DotKey = model.Some(choice.Key)
		rec.DotAccuracy = model.Some(choice.Accuracy)
	}

	if t.oddball != nil {
		rec.BeepSequence = model.Some(t.agg.ToneSequence())
	}
	if t.v.CountTones {
		normals, deviants := t.agg.ToneCounts(model.ContextSingle)
		dualN, dualD := t.agg.ToneCounts(model.ContextDual)
		set, err := generator.DistractorsIn(t.src, deviants, generator.KindCount, generator.CountRange(deviants))
		if err != nil {
			return err
		}
		choice, err := t.ask(ctx, BeepCountPrompt, optionLabels(set.Values), set.CorrectIndex)
		if err != nil {
			return err
		}
		rec.BeepCountSingle = model.Some(normals + deviants)
		rec.BeepCountDeviants = model.Some(deviants)
		rec.BeepCountNormals = model.Some(normals)
		rec.BeepCountDual = model.Some(dualN + dualD)
		rec.BeepCountOptions = model.Some(model.JoinInts(set.Values))
		rec.BeepCountIndex = model.Some(set.CorrectIndex)
		rec.BeepCountResponse = model.Some(choice.Index)
		rec.BeepCountAccuracy = model.Some(choice.Accuracy)
	}
	if t.v.PressTones {
		rec.BeepPressSingle = stats.Summarize(entries, model.ContextSingle, nil)
		rec.BeepPressDual = stats.Summarize(entries, model.ContextDual, nil)
	}

	if t.v.Number {
		set, err := generator.Distractors(t.src, t.number, generator.KindNumber)
		if err != nil {
			return err
		}
		choice, err := t.ask(ctx, NumberPrompt, optionLabels(set.Values), set.CorrectIndex)
		if err != nil {
			return err
		}
		rec.RandNr = model.Some(t.number)
		rec.NumberOptions = model.Some(model.JoinInts(set.Values))
		rec.NumberIndex = model.Some(set.CorrectIndex)
		rec.NumberResponse = model.Some(choice.Index)
		rec.NumberAccuracy = model.Some(choice.Accuracy)
	}

	switch {
	case t.nback != nil:
		t.history.Add(entries...)
		rec.NBackSequence = model.Some(generator.NBackString(t.nback))
		rec.NBackRollingSingle = t.history.Summary(model.ContextSingle, stats.TargetsOnly)
		rec.NBackRollingDual = t.history.Summary(model.ContextDual, stats.TargetsOnly)
	case t.flanker != nil:
		t.history.Add(entries...)
		texts := make([]string, len(t.flanker))
		for i, s := range t.flanker {
			texts[i] = s.Text
		}
		rec.FlankerSequence = model.Some(strings.Join(texts, ","))
		rec.FlankerRollSingle = t.history.Summary(model.ContextSingle, nil)
		rec.FlankerRollDual = t.history.Summary(model.ContextDual, nil)
	}
	return nil
}
