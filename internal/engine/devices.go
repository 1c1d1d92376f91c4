package engine

import (
	"context"
	"time"

	"github.com/verte-zerg/dualtask/internal/audio"
	"github.com/verte-zerg/dualtask/internal/model"
)

// Display presents one frame per call and returns after the frame is shown.
type Display interface {
	Present(ctx context.Context, f model.Frame) error
	RefreshRate() (float64, error)
}

// Keyboard is the key source. Poll drains every press captured since the
// previous Poll or Clear.
type Keyboard interface {
	Poll(allowed []string) []model.KeyPress
	Clear()
	WaitKey(ctx context.Context, allowed []string) (model.KeyPress, error)
}

// Clock supplies timestamps comparable with KeyPress.At.
type Clock interface {
	Now() time.Time
}

// Recorder captures the spoken response of a trial.
type Recorder interface {
	Start(seconds float64, rate int) (*audio.Capture, error)
	Stop(c *audio.Capture) (audio.Buffer, error)
	Persist(buf audio.Buffer, filename string) (string, error)
}

// TonePlayer plays oddball tones without blocking.
type TonePlayer interface {
	Play(t model.ToneType) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}
