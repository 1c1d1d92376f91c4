package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptRendersNA(t *testing.T) {
	assert.Equal(t, "NA", Opt[int]{}.String())
	assert.Equal(t, "NA", None[float64]().String())
	assert.Equal(t, "7", Some(7).String())
	assert.Equal(t, "0.417", Some(0.4166).String())
	assert.Equal(t, "correct", Some(Correct).String())

	v, ok := Some("x").Get()
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestTrialRecordColumnsUniform(t *testing.T) {
	empty := TrialRecord{}
	full := TrialRecord{
		Task:             "test_number_dots",
		Trial:            3,
		RandNr:           Some(512),
		DotDirection:     Some(90),
		BeepPressSingle:  Summary{Total: Some(4), Accuracy: Some(0.5)},
		NBackRollingDual: Summary{Total: Some(12), Targets: Some(5)},
		StartedAt:        time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		EndedAt:          time.Date(2024, 1, 1, 10, 1, 5, 0, time.UTC),
	}
	require.Equal(t, empty.Columns(), full.Columns())
	require.Len(t, full.Values(), len(full.Columns()))

	values := map[string]string{}
	for i, c := range full.Columns() {
		values[c] = full.Values()[i]
	}
	assert.Equal(t, "03", values["main_trial"])
	assert.Equal(t, "512", values["rand_nr"])
	assert.Equal(t, "NA", values["beep_count_response"])
	assert.Equal(t, "4", values["beep_press_single_trials"])
	assert.Equal(t, "NA", values["beep_press_dual_trials"])
	assert.Equal(t, "5", values["2back_last12_dual_targets"])
	assert.Equal(t, "NA", values["flanker_last12_single_targets"])
	assert.Equal(t, "00:01:05", values["duration"])
}

func TestEventRecordColumnsUniform(t *testing.T) {
	tone := EventRecord{Stimulus: string(ToneDeviant), Context: ContextDual}
	press := EventRecord{
		Stimulus: string(ToneDeviant),
		Key:      Some("space"),
		RT:       Some(0.25),
		Type:     Some(ResponseHit),
		Accuracy: Some(Correct),
	}
	require.Equal(t, tone.Columns(), press.Columns())
	assert.Contains(t, press.Values(), "hit")
	assert.Contains(t, tone.Values(), "NA")
}

func TestPhaseOf(t *testing.T) {
	assert.Equal(t, PhasePractice, PhaseOf("practice_single"))
	assert.Equal(t, PhaseTest, PhaseOf("test_single"))
	assert.Equal(t, PhaseTest, PhaseOf("single"))
}
