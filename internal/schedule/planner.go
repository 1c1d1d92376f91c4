package schedule

import (
	"fmt"

	"github.com/verte-zerg/dualtask/internal/generator"
)

// PlannerConfig fixes the timing rules of one task variant.
type PlannerConfig struct {
	TotalFrames int

	// Primary start is drawn from the closed range [PrimaryStartMin, PrimaryStartMax].
	PrimaryStartMin int
	PrimaryStartMax int
	PrimaryLen      int

	// Secondary start is drawn relative to the primary start.
	Secondary          bool
	SecondaryOffsetMin int
	SecondaryOffsetMax int
	SecondaryLen       int

	SlotOffset int
	SlotPeriod int
	SlotCount  int
}

// Validate checks that every draw the config allows yields valid windows.
func (c PlannerConfig) Validate() error {
	if c.TotalFrames <= 0 {
		return fmt.Errorf("total frames must be > 0")
	}
	if c.PrimaryLen <= 0 || c.PrimaryStartMin < 0 || c.PrimaryStartMax < c.PrimaryStartMin {
		return fmt.Errorf("invalid primary window rule")
	}
	if c.PrimaryStartMax+c.PrimaryLen > c.TotalFrames {
		return fmt.Errorf("primary window can end after frame %d", c.TotalFrames)
	}
	if c.Secondary {
		if c.SecondaryLen <= 0 || c.SecondaryOffsetMin < 0 || c.SecondaryOffsetMax < c.SecondaryOffsetMin {
			return fmt.Errorf("invalid secondary window rule")
		}
		if c.SecondaryOffsetMax+c.SecondaryLen > c.PrimaryLen {
			return fmt.Errorf("secondary window can leave the primary window")
		}
	}
	if c.SlotCount > 0 {
		if c.SlotPeriod <= 0 || c.SlotOffset < 0 {
			return fmt.Errorf("invalid slot rule")
		}
		if last := c.SlotOffset + (c.SlotCount-1)*c.SlotPeriod; last >= c.TotalFrames {
			return fmt.Errorf("slot frame %d outside trial of %d frames", last, c.TotalFrames)
		}
	}
	return nil
}

// Plan is the drawn timing of one trial.
type Plan struct {
	Trial        int
	TotalFrames  int
	Primary      Window
	Secondary    Window
	HasSecondary bool
	Slots        []int
}

// Planner draws trial plans from a config and a random source.
type Planner struct {
	src *generator.Source
	cfg PlannerConfig
}

// NewPlanner validates cfg and returns a Planner.
func NewPlanner(src *generator.Source, cfg PlannerConfig) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Planner{src: src, cfg: cfg}, nil
}

// Config returns the timing rules in use.
func (p *Planner) Config() PlannerConfig {
	return p.cfg
}

// Plan draws the windows for trial.
func (p *Planner) Plan(trial int) Plan {
	c := p.cfg
	start := p.src.IntRange(c.PrimaryStartMin, c.PrimaryStartMax)
	plan := Plan{
		Trial:       trial,
		TotalFrames: c.TotalFrames,
		Primary:     Window{Start: start, End: start + c.PrimaryLen},
	}
	if c.Secondary {
		s := start + p.src.IntRange(c.SecondaryOffsetMin, c.SecondaryOffsetMax)
		plan.Secondary = Window{Start: s, End: s + c.SecondaryLen}
		plan.HasSecondary = true
	}
	if c.SlotCount > 0 {
		plan.Slots = make([]int, c.SlotCount)
		for i := range plan.Slots {
			plan.Slots[i] = c.SlotOffset + i*c.SlotPeriod
		}
	}
	return plan
}
