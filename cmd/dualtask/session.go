package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/verte-zerg/dualtask/internal/audio"
	"github.com/verte-zerg/dualtask/internal/engine"
	"github.com/verte-zerg/dualtask/internal/logging"
	"github.com/verte-zerg/dualtask/internal/metrics"
	"github.com/verte-zerg/dualtask/internal/model"
	"github.com/verte-zerg/dualtask/internal/sink"
	"github.com/verte-zerg/dualtask/internal/store"
	"github.com/verte-zerg/dualtask/internal/tui"
)

const (
	logDirName  = "logs"
	stampLayout = "2006-01-02_15h04.05"
)

func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// blockSink forwards appends to the files of the running block and to the
// store. The CSV target changes between blocks.
type blockSink struct {
	store   *store.Store
	current sink.ResultSink
}

func (s *blockSink) use(csv *sink.CSV) {
	if s.store == nil {
		s.current = csv
		return
	}
	s.current = sink.Multi(csv, s.store)
}

func (s *blockSink) Append(ctx context.Context, table string, rec model.Record) error {
	if s.current == nil {
		return fmt.Errorf("no block is running")
	}
	return s.current.Append(ctx, table, rec)
}

type devices struct {
	recorder engine.Recorder
	player   engine.TonePlayer
	close    func() error
}

// openAudio returns exec-backed devices, or silent ones when audio is off.
func openAudio(cfg model.Config) (devices, error) {
	if !cfg.Audio {
		return devices{
			recorder: &audio.SilentRecorder{},
			player:   audio.NullPlayer{},
			close:    func() error { return nil },
		}, nil
	}
	rec, err := audio.NewExecRecorder(cfg.RecordCmd, cfg.RecordingsDir)
	if err != nil {
		return devices{}, err
	}
	toneDir, err := os.MkdirTemp("", "dualtask-tones-*")
	if err != nil {
		return devices{}, fmt.Errorf("create tone dir: %w", err)
	}
	player, err := audio.NewExecPlayer(cfg.PlayCmd, toneDir)
	if err != nil {
		_ = os.RemoveAll(toneDir)
		return devices{}, err
	}
	return devices{
		recorder: rec,
		player:   player,
		close: func() error {
			return multierr.Append(player.Close(), os.RemoveAll(toneDir))
		},
	}, nil
}

// runSession acquires the devices, runs every block and releases them in
// reverse order.
func runSession(ctx context.Context, cfg model.Config, blocks []engine.Block, verbose bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, closeLog, err := logging.New(logging.Options{
		Dir:   filepath.Join(cfg.ResultsDir, logDirName),
		Debug: verbose,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeLog(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	runID := uuid.NewString()
	startedAt := time.Now()
	logger = logger.With(zap.String("run_id", runID), zap.String("subject", cfg.Subject))

	sinks := &blockSink{}
	if cfg.DBPath != "" {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
		run := model.Run{ID: runID, Experiment: cfg.Experiment, Subject: cfg.Subject, Tasks: cfg.Tasks, StartedAt: startedAt}
		if err := st.BeginRun(ctx, run); err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		defer func() {
			// The run row is closed even when ctx was cancelled.
			if eerr := st.EndRun(context.Background(), time.Now()); eerr != nil {
				logErrf("failed to close run: %v\n", eerr)
			}
		}()
		sinks.store = st
	}

	devs, err := openAudio(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := devs.close(); cerr != nil {
			logger.Warn("audio close failed", zap.Error(cerr))
		}
	}()

	m := metrics.New()
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			if err := m.Serve(gctx, cfg.MetricsAddr); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	display := tui.Open(gctx, tui.Options{Hz: cfg.FallbackHz, AltScreen: true})
	eng, err := engine.New(engine.Deps{
		Display:  display,
		Keyboard: display,
		Recorder: devs.recorder,
		Player:   devs.player,
		Sink:     sinks,
		Logger:   logger,
		Metrics:  m,
	}, engine.Settings{
		Experiment: cfg.Experiment,
		Subject:    cfg.Subject,
		SampleRate: cfg.SampleRate,
		FallbackHz: cfg.FallbackHz,
	})
	if err != nil {
		cancel()
		return multierr.Append(err, display.Close())
	}

	stamp := startedAt.Format(stampLayout)
	g.Go(func() error {
		defer cancel()
		return runBlocks(gctx, eng, sinks, cfg, blocks, stamp, logger)
	})
	err = g.Wait()
	err = multierr.Append(err, display.Close())

	switch {
	case errors.Is(err, tui.ErrAborted):
		logger.Info("session aborted", zap.Duration("elapsed", time.Since(startedAt)))
		logErrln("Session aborted.")
	case err != nil:
		logger.Error("session failed", zap.Error(err))
	default:
		logger.Info("session finished", zap.Duration("elapsed", time.Since(startedAt)))
		logErrf("Results written to %s\n", cfg.ResultsDir)
	}
	return err
}

func runBlocks(ctx context.Context, eng *engine.Engine, sinks *blockSink, cfg model.Config, blocks []engine.Block, stamp string, logger *zap.Logger) error {
	for _, b := range blocks {
		csv, err := sink.NewCSV(cfg.ResultsDir, cfg.Experiment, cfg.Subject, b.Task, stamp)
		if err != nil {
			return err
		}
		sinks.use(csv)
		err = eng.RunBlock(ctx, b)
		if cerr := csv.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s results: %w", b.Task, cerr))
		}
		if err != nil {
			return err
		}
		logger.Debug("block files written", zap.Strings("files", csv.Files()))
	}
	return nil
}
