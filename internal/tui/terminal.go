package tui

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/dualtask/internal/model"
	"github.com/verte-zerg/dualtask/internal/schedule"
)

// ErrAborted is returned once the participant quits with esc or ctrl+c.
var ErrAborted = errors.New("session aborted")

// ErrNoRefreshRate is returned by RefreshRate: a terminal has no vsync to
// report, so the caller's fallback rate applies.
var ErrNoRefreshRate = errors.New("terminal cannot report a refresh rate")

// Options configures a Terminal.
type Options struct {
	// Hz paces Present. Zero means schedule.DefaultRefreshHz.
	Hz        float64
	Input     io.Reader
	Output    io.Writer
	AltScreen bool
	// Signals keeps Bubble Tea's own SIGINT handling.
	Signals bool
}

type inputBuffer struct {
	mu      sync.Mutex
	presses []model.KeyPress
	notify  chan struct{}
	done    chan struct{}
	once    sync.Once
	now     func() time.Time
}

func newInputBuffer() *inputBuffer {
	return &inputBuffer{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		now:    time.Now,
	}
}

func (b *inputBuffer) push(key string) {
	b.mu.Lock()
	b.presses = append(b.presses, model.KeyPress{Key: key, At: b.now()})
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

func (b *inputBuffer) abort() {
	b.once.Do(func() { close(b.done) })
}

func (b *inputBuffer) drain(allowed []string) []model.KeyPress {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []model.KeyPress
	for _, p := range b.presses {
		if slices.Contains(allowed, p.Key) {
			out = append(out, p)
		}
	}
	b.presses = nil
	return out
}

// take removes presses up to and including the first allowed one.
func (b *inputBuffer) take(allowed []string) (model.KeyPress, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, p := range b.presses {
		if slices.Contains(allowed, p.Key) {
			b.presses = b.presses[i+1:]
			return p, true
		}
	}
	b.presses = nil
	return model.KeyPress{}, false
}

// Terminal is a full-screen display and keyboard. Present paces frames at
// a fixed rate since terminals expose no vertical sync.
type Terminal struct {
	program  *tea.Program
	group    *errgroup.Group
	cancel   context.CancelFunc
	input    *inputBuffer
	interval time.Duration
	next     time.Time
}

// Open starts the Bubble Tea program in the background.
func Open(ctx context.Context, opts Options) *Terminal {
	ctx, cancel := context.WithCancel(ctx)
	input := newInputBuffer()
	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	if !opts.Signals {
		progOpts = append(progOpts, tea.WithoutSignals())
	}
	program := tea.NewProgram(newModel(input), progOpts...)

	g := &errgroup.Group{}
	g.Go(func() error {
		defer input.abort()
		_, err := program.Run()
		return err
	})
	return &Terminal{
		program:  program,
		group:    g,
		cancel:   cancel,
		input:    input,
		interval: schedule.FrameDuration(opts.Hz),
	}
}

// Present shows f and returns when the frame interval has elapsed.
func (t *Terminal) Present(ctx context.Context, f model.Frame) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.input.done:
		return ErrAborted
	default:
	}
	t.program.Send(frameMsg{frame: f})

	now := time.Now()
	if t.next.Before(now) {
		t.next = now
	}
	t.next = t.next.Add(t.interval)
	timer := time.NewTimer(time.Until(t.next))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.input.done:
		return ErrAborted
	case <-timer.C:
		return nil
	}
}

// RefreshRate always fails; see ErrNoRefreshRate.
func (t *Terminal) RefreshRate() (float64, error) {
	return 0, ErrNoRefreshRate
}

// Poll drains presses since the last Poll or Clear, keeping allowed keys.
func (t *Terminal) Poll(allowed []string) []model.KeyPress {
	return t.input.drain(allowed)
}

// Clear drops pending presses.
func (t *Terminal) Clear() {
	t.input.drain(nil)
}

// WaitKey blocks until one of allowed is pressed.
func (t *Terminal) WaitKey(ctx context.Context, allowed []string) (model.KeyPress, error) {
	for {
		if p, ok := t.input.take(allowed); ok {
			return p, nil
		}
		select {
		case <-ctx.Done():
			return model.KeyPress{}, ctx.Err()
		case <-t.input.done:
			return model.KeyPress{}, ErrAborted
		case <-t.input.notify:
		}
	}
}

// Close stops the program and waits for it to exit.
func (t *Terminal) Close() error {
	t.program.Quit()
	err := t.group.Wait()
	t.cancel()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
