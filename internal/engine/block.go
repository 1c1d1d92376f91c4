package engine

import (
	"fmt"

	"github.com/verte-zerg/dualtask/internal/generator"
	"github.com/verte-zerg/dualtask/internal/model"
	"github.com/verte-zerg/dualtask/internal/stimuli"
)

// Block is one task run over an ordered stimulus list.
type Block struct {
	Task    string
	Phase   model.Phase
	Variant Variant
	Seed    int64
	Stimuli []model.Stimulus
}

// BlockOptions controls PlanBlocks.
type BlockOptions struct {
	PracticeSize int
	PracticeSeed int64
	TestSeed     int64
	Rules        generator.OrderRules
	// Order shuffles test stimuli. Practice stimuli keep their table order.
	Order *generator.Source
}

// Loader returns the stimulus table of a variant.
type Loader func(variant string) ([]model.Stimulus, error)

// PlanBlocks resolves every task before any device is acquired, so a
// missing table or column aborts the session up front.
func PlanBlocks(tasks []string, load Loader, opts BlockOptions) ([]Block, error) {
	if opts.Order == nil {
		opts.Order = generator.New()
	}
	if opts.Rules.MaxConditionRun == 0 && opts.Rules.MaxActorRun == 0 {
		attempts := opts.Rules.MaxAttempts
		opts.Rules = generator.DefaultOrderRules
		if attempts > 0 {
			opts.Rules.MaxAttempts = attempts
		}
	}
	tables := map[string][]model.Stimulus{}
	blocks := make([]Block, 0, len(tasks))
	for _, task := range tasks {
		v, err := VariantOf(task)
		if err != nil {
			return nil, err
		}
		items, ok := tables[v.Name]
		if !ok {
			items, err = load(v.Name)
			if err != nil {
				return nil, err
			}
			tables[v.Name] = items
		}
		practice, test, err := stimuli.Split(items, opts.PracticeSize)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", task, err)
		}
		b := Block{Task: task, Phase: model.PhaseOf(task), Variant: v}
		if b.Phase == model.PhasePractice {
			b.Seed = opts.PracticeSeed
			b.Stimuli = practice
		} else {
			b.Seed = opts.TestSeed
			b.Stimuli, err = generator.Order(opts.Order, test, opts.Rules)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", task, err)
			}
		}
		if len(b.Stimuli) == 0 {
			return nil, fmt.Errorf("%s: no stimuli", task)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}
