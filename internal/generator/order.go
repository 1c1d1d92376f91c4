package generator

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/dualtask/internal/model"
)

// ErrShuffleExhausted is returned when no accepted order was found.
var ErrShuffleExhausted = errors.New("no stimulus order satisfies the adjacency constraints")

// OrderRules bounds runs of equal fields in a shuffled stimulus list.
type OrderRules struct {
	// MaxConditionRun is the longest allowed run of one condition.
	MaxConditionRun int
	// MaxActorRun is the longest allowed run of one primary actor.
	MaxActorRun int
	MaxAttempts int
}

// DefaultOrderRules forbids 4 equal conditions or 3 equal actors in a row.
var DefaultOrderRules = OrderRules{MaxConditionRun: 3, MaxActorRun: 2, MaxAttempts: 10000}

// Order draws random permutations of items until one satisfies rules.
// Inputs that cannot be ordered at all fail without drawing.
func Order(src *Source, items []model.Stimulus, rules OrderRules) ([]model.Stimulus, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if rules.MaxAttempts <= 0 {
		rules.MaxAttempts = DefaultOrderRules.MaxAttempts
	}
	if err := checkFeasible(items, rules); err != nil {
		return nil, err
	}
	for attempt := 0; attempt < rules.MaxAttempts; attempt++ {
		candidate := Shuffled(src, items)
		if acceptOrder(candidate, rules) {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrShuffleExhausted, rules.MaxAttempts)
}

func acceptOrder(items []model.Stimulus, rules OrderRules) bool {
	return longestRun(items, conditionOf) <= rules.MaxConditionRun &&
		longestRun(items, actorOf) <= rules.MaxActorRun
}

func conditionOf(s model.Stimulus) string { return s.Condition }
func actorOf(s model.Stimulus) string     { return s.Actor }

func longestRun(items []model.Stimulus, key func(model.Stimulus) string) int {
	best, run := 0, 0
	for i, item := range items {
		if i > 0 && key(item) == key(items[i-1]) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// checkFeasible rejects inputs where one value is too frequent: a value
// occurring c times among n items needs c <= limit*(n-c+1).
func checkFeasible(items []model.Stimulus, rules OrderRules) error {
	checks := []struct {
		name  string
		key   func(model.Stimulus) string
		limit int
	}{
		{"condition", conditionOf, rules.MaxConditionRun},
		{"actor", actorOf, rules.MaxActorRun},
	}
	n := len(items)
	for _, c := range checks {
		if c.limit <= 0 {
			return fmt.Errorf("%w: %s run limit must be > 0", ErrShuffleExhausted, c.name)
		}
		counts := map[string]int{}
		for _, item := range items {
			counts[c.key(item)]++
		}
		for value, count := range counts {
			if count > c.limit*(n-count+1) {
				return fmt.Errorf("%w: %s %q occurs %d times in %d items", ErrShuffleExhausted, c.name, value, count, n)
			}
		}
	}
	return nil
}
