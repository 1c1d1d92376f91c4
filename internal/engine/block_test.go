package engine_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dualtask/internal/engine"
	"github.com/verte-zerg/dualtask/internal/generator"
	"github.com/verte-zerg/dualtask/internal/model"
	"github.com/verte-zerg/dualtask/internal/stimuli"
)

func TestVariantOf(t *testing.T) {
	tests := []struct {
		task  string
		name  string
		table string
	}{
		{"practice_single", "single", ""},
		{"test_number_dots", "number_dots", ""},
		{"test_number_beep_press", "number_beep_press", model.TableBeepPress},
		{"practice_beep_count_dots", "beep_count_dots", model.TableBeepCount},
		{"test_nback", "nback", model.TableNBack},
		{"test_flanker", "flanker", model.TableFlanker},
		{"test_flanker_shape", "flanker_shape", model.TableFlanker},
	}
	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			v, err := engine.VariantOf(tt.task)
			require.NoError(t, err)
			assert.Equal(t, tt.name, v.Name)
			assert.Equal(t, tt.table, v.Table())
			assert.NoError(t, v.Planner.Validate())
		})
	}

	_, err := engine.VariantOf("test_typing")
	assert.ErrorContains(t, err, "unknown task")
}

func TestVariantToneModes(t *testing.T) {
	press, err := engine.VariantOf("test_number_beep_press")
	require.NoError(t, err)
	assert.Equal(t, engine.TonesAll, press.Tones)
	assert.True(t, press.PressTones)

	count, err := engine.VariantOf("test_beep_count_dots")
	require.NoError(t, err)
	assert.Equal(t, engine.TonesSingle, count.Tones)
	assert.True(t, count.CountTones)
	assert.Equal(t, 23, count.Planner.SlotCount)
}

func TestPlanBlocksSplitsPracticeAndTest(t *testing.T) {
	items := stimuliN(10)
	loads := 0
	load := func(variant string) ([]model.Stimulus, error) {
		loads++
		assert.Equal(t, "single", variant)
		return items, nil
	}
	blocks, err := engine.PlanBlocks([]string{"practice_single", "test_single"}, load, engine.BlockOptions{
		PracticeSize: 6,
		PracticeSeed: 424,
		TestSeed:     6667,
		Order:        generator.NewSeeded(1),
	})
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, 1, loads)

	practice, test := blocks[0], blocks[1]
	assert.Equal(t, model.PhasePractice, practice.Phase)
	assert.Equal(t, int64(424), practice.Seed)
	if diff := cmp.Diff(items[:6], practice.Stimuli); diff != "" {
		t.Fatalf("practice order changed (-want +got):\n%s", diff)
	}

	assert.Equal(t, model.PhaseTest, test.Phase)
	assert.Equal(t, int64(6667), test.Seed)
	assert.ElementsMatch(t, items[6:], test.Stimuli)
}

func TestPlanBlocksErrors(t *testing.T) {
	missing := func(string) ([]model.Stimulus, error) {
		return nil, stimuli.ErrNotFound
	}
	_, err := engine.PlanBlocks([]string{"test_nback"}, missing, engine.BlockOptions{})
	assert.True(t, errors.Is(err, stimuli.ErrNotFound))

	few := func(string) ([]model.Stimulus, error) { return stimuliN(4), nil }
	_, err = engine.PlanBlocks([]string{"test_single"}, few, engine.BlockOptions{PracticeSize: 6})
	assert.ErrorContains(t, err, "exceeds")

	_, err = engine.PlanBlocks([]string{"test_single"}, few, engine.BlockOptions{PracticeSize: 4})
	assert.ErrorContains(t, err, "no stimuli")

	_, err = engine.PlanBlocks([]string{"test_typing"}, few, engine.BlockOptions{})
	assert.ErrorContains(t, err, "unknown task")
}

func TestPlanBlocksInfeasibleOrder(t *testing.T) {
	same := func(string) ([]model.Stimulus, error) {
		items := make([]model.Stimulus, 5)
		for i := range items {
			items[i] = model.Stimulus{ID: string(rune('a' + i)), Condition: "neutral", Actor: "x"}
		}
		return items, nil
	}
	_, err := engine.PlanBlocks([]string{"test_single"}, same, engine.BlockOptions{})
	assert.ErrorIs(t, err, generator.ErrShuffleExhausted)
}
