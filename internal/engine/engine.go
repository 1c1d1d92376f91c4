// Package engine runs trial blocks frame by frame: it draws each trial's
// schedule, drives the display and keyboard, controls audio capture and
// tone playback, scores responses, and appends result records.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/dualtask/internal/audio"
	"github.com/verte-zerg/dualtask/internal/generator"
	"github.com/verte-zerg/dualtask/internal/metrics"
	"github.com/verte-zerg/dualtask/internal/schedule"
	"github.com/verte-zerg/dualtask/internal/sink"
	"github.com/verte-zerg/dualtask/internal/stats"
)

// Deps are the collaborators of an Engine.
type Deps struct {
	Display  Display
	Keyboard Keyboard
	Clock    Clock
	Recorder Recorder
	Player   TonePlayer
	Sink     sink.ResultSink
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Settings are the session values stamped into records.
type Settings struct {
	Experiment string
	Subject    string
	SampleRate int
	FallbackHz float64
}

// Engine runs blocks sequentially on the calling goroutine.
type Engine struct {
	deps Deps
	set  Settings

	hz          float64
	lastPresent time.Time
}

// New checks deps and fills optional ones with inert defaults.
func New(deps Deps, set Settings) (*Engine, error) {
	if deps.Display == nil || deps.Keyboard == nil {
		return nil, fmt.Errorf("engine needs a display and a keyboard")
	}
	if deps.Sink == nil {
		return nil, fmt.Errorf("engine needs a result sink")
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock
	}
	if deps.Recorder == nil {
		deps.Recorder = &audio.SilentRecorder{}
	}
	if deps.Player == nil {
		deps.Player = audio.NullPlayer{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if set.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0")
	}
	if set.FallbackHz <= 0 {
		set.FallbackHz = schedule.DefaultRefreshHz
	}
	return &Engine{deps: deps, set: set}, nil
}

// RefreshRate returns the display rate, falling back to the configured
// default when the display cannot report it.
func (e *Engine) RefreshRate() float64 {
	if e.hz > 0 {
		return e.hz
	}
	hz, err := e.deps.Display.RefreshRate()
	if err != nil || hz <= 0 {
		e.deps.Logger.Warn("refresh rate unavailable, using fallback",
			zap.Float64("fallback_hz", e.set.FallbackHz), zap.Error(err))
		e.deps.Metrics.DeviceError("display")
		hz = e.set.FallbackHz
	}
	e.hz = hz
	return hz
}

// RunBlock runs every trial of b in order. Rolling summaries span the
// trials of the block.
func (e *Engine) RunBlock(ctx context.Context, b Block) error {
	src := generator.NewSeeded(b.Seed)
	planner, err := schedule.NewPlanner(src, b.Variant.Planner)
	if err != nil {
		return fmt.Errorf("%s: %w", b.Task, err)
	}
	history := stats.NewHistory(stats.RollingSize)
	hz := e.RefreshRate()
	log := e.deps.Logger.With(zap.String("task", b.Task))
	log.Info("block started", zap.Int("trials", len(b.Stimuli)), zap.Int64("seed", b.Seed), zap.Float64("hz", hz))

	for i, stim := range b.Stimuli {
		tr, err := newTrialRun(e, b, i+1, stim, src, planner, history)
		if err != nil {
			return fmt.Errorf("%s trial %d: %w", b.Task, i+1, err)
		}
		if err := tr.run(ctx); err != nil {
			return fmt.Errorf("%s trial %d: %w", b.Task, i+1, err)
		}
	}
	log.Info("block finished")
	return nil
}
