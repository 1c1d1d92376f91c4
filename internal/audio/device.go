package audio

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/verte-zerg/dualtask/internal/model"
)

// ErrDisabled is returned by devices when audio is turned off.
var ErrDisabled = errors.New("audio disabled")

// Capture is a running recording returned by Start.
type Capture struct {
	ID      int
	Seconds float64
	Rate    int

	cmd *exec.Cmd
	out *bytes.Buffer
}

// ExecRecorder captures mono 16-bit PCM from a command that writes raw
// samples to stdout, such as arecord.
type ExecRecorder struct {
	argv []string
	dir  string
	next int
}

// NewExecRecorder builds a recorder from a command line and an output
// directory for persisted files.
func NewExecRecorder(command, dir string) (*ExecRecorder, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("record command is empty")
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("record command: %w", err)
	}
	return &ExecRecorder{argv: argv, dir: dir}, nil
}

// Start begins a capture of the given duration.
func (r *ExecRecorder) Start(seconds float64, rate int) (*Capture, error) {
	if seconds <= 0 || rate <= 0 {
		return nil, fmt.Errorf("invalid capture %.3fs at %d Hz", seconds, rate)
	}
	args := append(append([]string(nil), r.argv[1:]...),
		"-r", strconv.Itoa(rate),
		"-d", strconv.Itoa(int(seconds)+1))
	cmd := exec.Command(r.argv[0], args...)
	out := &bytes.Buffer{}
	cmd.Stdout = out
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start capture: %w", err)
	}
	r.next++
	return &Capture{ID: r.next, Seconds: seconds, Rate: rate, cmd: cmd, out: out}, nil
}

// Stop ends the capture and returns exactly Seconds of audio.
func (r *ExecRecorder) Stop(c *Capture) (Buffer, error) {
	if c == nil || c.cmd == nil {
		return Buffer{}, fmt.Errorf("capture not started")
	}
	if err := c.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return Buffer{}, fmt.Errorf("stop capture: %w", err)
	}
	if err := c.cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		// Exit by our interrupt is expected.
		if !errors.As(err, &exitErr) {
			return Buffer{}, fmt.Errorf("wait capture: %w", err)
		}
	}
	samples := decodePCM16(c.out.Bytes())
	return Buffer{Samples: fit(samples, sampleCount(c.Seconds, c.Rate)), Rate: c.Rate}, nil
}

// Persist writes buf as a WAV file named filename inside the output directory.
func (r *ExecRecorder) Persist(buf Buffer, filename string) (string, error) {
	return persist(r.dir, buf, filename)
}

// SilentRecorder produces silence of the requested duration. It stands in
// for a capture device in dry runs.
type SilentRecorder struct {
	Dir  string
	next int
}

// Start implements the recorder contract.
func (r *SilentRecorder) Start(seconds float64, rate int) (*Capture, error) {
	if seconds <= 0 || rate <= 0 {
		return nil, fmt.Errorf("invalid capture %.3fs at %d Hz", seconds, rate)
	}
	r.next++
	return &Capture{ID: r.next, Seconds: seconds, Rate: rate}, nil
}

// Stop returns a zeroed buffer.
func (r *SilentRecorder) Stop(c *Capture) (Buffer, error) {
	if c == nil {
		return Buffer{}, fmt.Errorf("capture not started")
	}
	return Buffer{Samples: make([]int16, sampleCount(c.Seconds, c.Rate)), Rate: c.Rate}, nil
}

// Persist writes buf when Dir is set and reports ErrDisabled otherwise.
func (r *SilentRecorder) Persist(buf Buffer, filename string) (string, error) {
	if r.Dir == "" {
		return "", ErrDisabled
	}
	return persist(r.Dir, buf, filename)
}

func persist(dir string, buf Buffer, filename string) (string, error) {
	if filename == "" || filepath.Base(filename) != filename {
		return "", fmt.Errorf("invalid recording name %q", filename)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create recordings dir: %w", err)
	}
	path := filepath.Join(dir, filename)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if err := WriteWAV(file, buf); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// ExecPlayer plays oddball tones through a command such as aplay. The two
// tone files are synthesized once into dir.
type ExecPlayer struct {
	argv  []string
	files map[model.ToneType]string
	wg    sync.WaitGroup
}

// NewExecPlayer writes the tone files and checks the play command.
func NewExecPlayer(command, dir string) (*ExecPlayer, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("play command is empty")
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("play command: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create tone dir: %w", err)
	}
	p := &ExecPlayer{argv: argv, files: map[model.ToneType]string{}}
	for _, t := range []model.ToneType{model.ToneNormal, model.ToneDeviant} {
		path := filepath.Join(dir, "tone_"+string(t)+".wav")
		if err := writeFile(path, ToneFor(t)); err != nil {
			return nil, err
		}
		p.files[t] = path
	}
	return p, nil
}

func writeFile(path string, buf Buffer) error {
	var b bytes.Buffer
	if err := WriteWAV(&b, buf); err != nil {
		return err
	}
	return os.WriteFile(path, b.Bytes(), 0o644)
}

// Play starts playback and returns without waiting for it to finish.
func (p *ExecPlayer) Play(t model.ToneType) error {
	path, ok := p.files[t]
	if !ok {
		return fmt.Errorf("unknown tone %q", t)
	}
	cmd := exec.Command(p.argv[0], append(append([]string(nil), p.argv[1:]...), path)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("play %s: %w", t, err)
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = cmd.Wait()
	}()
	return nil
}

// Close waits for running playbacks.
func (p *ExecPlayer) Close() error {
	p.wg.Wait()
	return nil
}

// NullPlayer discards tones.
type NullPlayer struct{}

// Play implements the player contract.
func (NullPlayer) Play(model.ToneType) error { return nil }
