package engine

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/dualtask/internal/generator"
	"github.com/verte-zerg/dualtask/internal/model"
	"github.com/verte-zerg/dualtask/internal/schedule"
)

// Frame counts shared by every variant.
const (
	CueFrames      = 60
	FixationFrames = 60
	NumberFrames   = 120
	FeedbackFrames = 120

	SingleFrames = 350
	DualFrames   = 1200
	PrimaryLen   = 350
)

// ToneMode selects which oddball tones are audible.
type ToneMode int

const (
	TonesOff ToneMode = iota
	// TonesSingle plays tones outside the guarded primary window only.
	TonesSingle
	// TonesAll plays every tone.
	TonesAll
)

// Variant describes the streams and choices of one task family.
type Variant struct {
	Name    string
	Planner schedule.PlannerConfig

	Number bool
	Dots   bool

	Tones      ToneMode
	ToneTable  string
	PressTones bool
	CountTones bool

	NBack       bool
	NBackBack   int
	NBackWindow int

	Flanker         []generator.FlankerStimulus
	FlankerWindow   int
	FlankerFeedback int
}

// Table returns the sub-event table of the variant, or "" if it has none.
func (v Variant) Table() string {
	switch {
	case v.Tones != TonesOff:
		return v.ToneTable
	case v.NBack:
		return model.TableNBack
	case len(v.Flanker) > 0:
		return model.TableFlanker
	}
	return ""
}

func dualPlanner(secondary bool, slotOffset, slotPeriod, slotCount int) schedule.PlannerConfig {
	cfg := schedule.PlannerConfig{
		TotalFrames:     DualFrames,
		PrimaryStartMin: 300,
		PrimaryStartMax: 600,
		PrimaryLen:      PrimaryLen,
		SlotOffset:      slotOffset,
		SlotPeriod:      slotPeriod,
		SlotCount:       slotCount,
	}
	if secondary {
		cfg.Secondary = true
		cfg.SecondaryOffsetMin = 15
		cfg.SecondaryOffsetMax = 50
		cfg.SecondaryLen = 250
	}
	return cfg
}

// Tone slots: 23 slots every 50 frames starting at frame 50.
const (
	toneOffset = 50
	tonePeriod = 50
	toneSlots  = 23

	streamPeriod = 100
	streamSlots  = 12
)

var variants = map[string]Variant{
	"single": {
		Name: "single",
		Planner: schedule.PlannerConfig{
			TotalFrames: SingleFrames,
			PrimaryLen:  PrimaryLen,
		},
	},
	"number_dots": {
		Name:    "number_dots",
		Planner: dualPlanner(true, 0, 0, 0),
		Number:  true,
		Dots:    true,
	},
	"number_beep_press": {
		Name:       "number_beep_press",
		Planner:    dualPlanner(false, toneOffset, tonePeriod, toneSlots),
		Number:     true,
		Tones:      TonesAll,
		ToneTable:  model.TableBeepPress,
		PressTones: true,
	},
	"beep_count_dots": {
		Name:       "beep_count_dots",
		Planner:    dualPlanner(true, toneOffset, tonePeriod, toneSlots),
		Dots:       true,
		Tones:      TonesSingle,
		ToneTable:  model.TableBeepCount,
		CountTones: true,
	},
	"nback": {
		Name:        "nback",
		Planner:     dualPlanner(false, 0, streamPeriod, streamSlots),
		NBack:       true,
		NBackBack:   2,
		NBackWindow: streamPeriod,
	},
	"flanker": {
		Name:            "flanker",
		Planner:         dualPlanner(false, 0, streamPeriod, streamSlots),
		Flanker:         generator.FlankerLetters,
		FlankerWindow:   70,
		FlankerFeedback: 30,
	},
	"flanker_shape": {
		Name:            "flanker_shape",
		Planner:         dualPlanner(false, 0, streamPeriod, streamSlots),
		Flanker:         generator.FlankerArrows,
		FlankerWindow:   70,
		FlankerFeedback: 30,
	},
}

// VariantNames lists the known variants.
func VariantNames() []string {
	return []string{"single", "number_dots", "number_beep_press", "beep_count_dots", "nback", "flanker", "flanker_shape"}
}

// VariantOf resolves a task name such as "test_nback".
func VariantOf(task string) (Variant, error) {
	name := task
	for _, prefix := range []string{string(model.PhasePractice) + "_", string(model.PhaseTest) + "_"} {
		if rest, ok := strings.CutPrefix(task, prefix); ok {
			name = rest
			break
		}
	}
	v, ok := variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("unknown task %q (variants: %s)", task, strings.Join(VariantNames(), ", "))
	}
	return v, nil
}
