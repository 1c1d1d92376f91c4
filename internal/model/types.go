// Package model defines shared data structures.
package model

import (
	"strings"
	"time"
)

// Phase separates practice blocks from test blocks.
type Phase string

const (
	PhasePractice Phase = "practice"
	PhaseTest     Phase = "test"
)

// PhaseOf derives the phase from a task name such as "practice_single".
func PhaseOf(task string) Phase {
	if strings.HasPrefix(task, string(PhasePractice)+"_") {
		return PhasePractice
	}
	return PhaseTest
}

// ToneType is the pitch class of an oddball tone.
type ToneType string

const (
	ToneNormal  ToneType = "normal"
	ToneDeviant ToneType = "deviant"
)

// Context tags whether a sub-event overlapped the primary presentation.
type Context string

const (
	ContextSingle Context = "single"
	ContextDual   Context = "dual"
)

// ResponseType classifies a continuous-mode response.
type ResponseType string

const (
	ResponseHit        ResponseType = "hit"
	ResponseMiss       ResponseType = "miss"
	ResponseFalseAlarm ResponseType = "false_alarm"
	ResponseNone       ResponseType = "none"
)

// Accuracy is the scored correctness of a response.
type Accuracy string

const (
	Correct   Accuracy = "correct"
	Incorrect Accuracy = "incorrect"
)

// Stimulus is one row of a stimulus table.
type Stimulus struct {
	ID        string
	Item      string
	Condition string
	Actor     string
}

// Trial identifies one presentation of a primary stimulus.
type Trial struct {
	Index     int
	Task      string
	Phase     Phase
	Condition string
	Stimulus  Stimulus
}

// ToneEvent is one scheduled oddball slot.
type ToneEvent struct {
	Index   int
	Type    ToneType
	Frame   int
	Context Context
	Played  bool
}

// KeyPress is a key captured by the keyboard source.
type KeyPress struct {
	Key string
	At  time.Time
}

// ResponseEvent is the scored outcome of one response window.
type ResponseEvent struct {
	Key      Opt[string]
	RT       Opt[float64]
	Accuracy Accuracy
	Type     ResponseType
	Context  Context
}

// DistractorSet is a forced-choice option list with one correct value.
type DistractorSet struct {
	Values       []int
	CorrectIndex int
}

// Stream names a visual stream that can be active on a frame.
type Stream string

const (
	StreamCue      Stream = "cue"
	StreamFixation Stream = "fixation"
	StreamNumber   Stream = "number"
	StreamPrimary  Stream = "primary"
	StreamDots     Stream = "dots"
	StreamShape    Stream = "shape"
	StreamFlanker  Stream = "flanker"
	StreamFeedback Stream = "feedback"
	StreamChoice   Stream = "choice"
)

// Frame describes everything a display driver draws for one refresh.
type Frame struct {
	Task     string
	Trial    int
	Index    int
	Total    int
	Active   []Stream
	Text     string
	Degrees  int
	Symbol   string
	Prompt   string
	Options  []string
	Feedback string
}

// Has reports whether stream s is active on the frame.
func (f Frame) Has(s Stream) bool {
	for _, a := range f.Active {
		if a == s {
			return true
		}
	}
	return false
}

// Config defines experiment run settings.
type Config struct {
	Experiment         string   `validate:"required"`
	Subject            string   `validate:"required,excludesall=/\\ "`
	Tasks              []string `validate:"min=1,dive,required"`
	StimuliDir         string   `validate:"required"`
	ResultsDir         string   `validate:"required"`
	RecordingsDir      string   `validate:"required"`
	DBPath             string
	PracticeSize       int     `validate:"gte=0"`
	PracticeSeed       int64   `validate:"gte=0"`
	TestSeed           int64   `validate:"gte=0"`
	MaxShuffleAttempts int     `validate:"gt=0"`
	Audio              bool    `validate:"-"`
	SampleRate         int     `validate:"gt=0"`
	RecordCmd          string  `validate:"required_if=Audio true"`
	PlayCmd            string  `validate:"required_if=Audio true"`
	FallbackHz         float64 `validate:"gt=0"`
	MetricsAddr        string  `validate:"omitempty,hostname_port"`
}

// Run identifies one experiment session in the result store.
type Run struct {
	ID         string
	Experiment string
	Subject    string
	Tasks      []string
	StartedAt  time.Time
}

// ReportFilter narrows report queries. Empty fields match everything.
type ReportFilter struct {
	Subject string
	Task    string
}

// EventAggregate sums scored sub-events of one table, task and context.
type EventAggregate struct {
	Table         string
	Task          string
	Context       Context
	Total         int
	Correct       int
	MeanRTCorrect Opt[float64]
}

// TrialChoice holds the discrete-choice outcomes of one stored trial.
type TrialChoice struct {
	Task      string
	Trial     int
	Dot       Opt[Accuracy]
	Number    Opt[Accuracy]
	BeepCount Opt[Accuracy]
}
