package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dualtask/internal/generator"
	"github.com/verte-zerg/dualtask/internal/model"
)

var dualConfig = PlannerConfig{
	TotalFrames:        1200,
	PrimaryStartMin:    300,
	PrimaryStartMax:    600,
	PrimaryLen:         350,
	Secondary:          true,
	SecondaryOffsetMin: 15,
	SecondaryOffsetMax: 50,
	SecondaryLen:       250,
	SlotOffset:         50,
	SlotPeriod:         50,
	SlotCount:          23,
}

func TestPlannerNestsSecondaryWindow(t *testing.T) {
	p, err := NewPlanner(generator.NewSeeded(6667), dualConfig)
	require.NoError(t, err)
	for trial := 1; trial <= 2000; trial++ {
		plan := p.Plan(trial)
		require.NoError(t, plan.Primary.Check(plan.TotalFrames))
		require.NoError(t, plan.Secondary.Check(plan.TotalFrames))
		assert.Equal(t, 350, plan.Primary.Len())
		assert.Equal(t, 250, plan.Secondary.Len())
		assert.GreaterOrEqual(t, plan.Primary.Start, 300)
		assert.LessOrEqual(t, plan.Primary.Start, 600)
		assert.True(t, plan.Secondary.Within(plan.Primary), "trial %d: %s not in %s", trial, plan.Secondary, plan.Primary)
		off := plan.Secondary.Start - plan.Primary.Start
		assert.GreaterOrEqual(t, off, 15)
		assert.LessOrEqual(t, off, 50)
	}
}

func TestWindowScenarioC(t *testing.T) {
	primary := Window{Start: 450, End: 450 + 350}
	assert.Equal(t, 800, primary.End)
	for start := 465; start <= 500; start++ {
		secondary := Window{Start: start, End: start + 250}
		assert.True(t, secondary.Within(primary))
	}
	assert.True(t, primary.Contains(450))
	assert.True(t, primary.Contains(799))
	assert.False(t, primary.Contains(800))
	assert.False(t, primary.Contains(449))
}

func TestPlannerSlots(t *testing.T) {
	p, err := NewPlanner(generator.NewSeeded(1), dualConfig)
	require.NoError(t, err)
	plan := p.Plan(1)
	require.Len(t, plan.Slots, 23)
	assert.Equal(t, 50, plan.Slots[0])
	assert.Equal(t, 1150, plan.Slots[22])
}

func TestPlannerConfigValidate(t *testing.T) {
	bad := dualConfig
	bad.PrimaryStartMax = 900
	assert.Error(t, bad.Validate())

	bad = dualConfig
	bad.SecondaryOffsetMax = 120
	assert.Error(t, bad.Validate())

	bad = dualConfig
	bad.SlotCount = 24
	assert.Error(t, bad.Validate())

	single := PlannerConfig{TotalFrames: 350, PrimaryLen: 350}
	assert.NoError(t, single.Validate())
}

func TestTimelineBoundaries(t *testing.T) {
	tl := NewTimeline(Plan{
		TotalFrames:  1200,
		Primary:      Window{Start: 450, End: 800},
		Secondary:    Window{Start: 470, End: 720},
		HasSecondary: true,
		Slots:        []int{50, 100, 440, 450, 805, 810, 1150},
	})
	assert.True(t, tl.RecordStart(450))
	assert.False(t, tl.RecordStart(451))
	assert.True(t, tl.RecordStop(799))
	assert.False(t, tl.RecordStop(800))

	assert.False(t, tl.PrimaryActive(449))
	assert.True(t, tl.PrimaryActive(450))
	assert.False(t, tl.SecondaryActive(720))
	assert.True(t, tl.SecondaryActive(719))

	assert.Equal(t, model.ContextSingle, tl.ToneContext(100))
	assert.Equal(t, model.ContextDual, tl.ToneContext(440))
	assert.Equal(t, model.ContextDual, tl.ToneContext(805))
	assert.Equal(t, model.ContextSingle, tl.ToneContext(810))

	// Visual sub-events in the guard band stay single.
	assert.Equal(t, model.ContextSingle, tl.PrimaryContext(440))
	assert.Equal(t, model.ContextDual, tl.PrimaryContext(450))
	assert.Equal(t, model.ContextDual, tl.PrimaryContext(799))
	assert.Equal(t, model.ContextSingle, tl.PrimaryContext(805))

	i, ok := tl.Slot(450)
	assert.True(t, ok)
	assert.Equal(t, 3, i)
	_, ok = tl.Slot(451)
	assert.False(t, ok)
}

func TestFrameClockTicks(t *testing.T) {
	c := NewFrameClock(5)
	var seen []int
	for c.Next() {
		seen = append(seen, c.Now())
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, seen)
	assert.False(t, c.Next())

	c.Reset(2)
	require.True(t, c.Next())
	assert.Equal(t, 0, c.Now())
}

func TestSecondsFallsBack(t *testing.T) {
	assert.InDelta(t, 350.0/60.0, Seconds(350, 0), 1e-9)
	assert.InDelta(t, 350.0/144.0, Seconds(350, 144), 1e-9)
}
