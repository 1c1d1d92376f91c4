package generator

import (
	"fmt"

	"github.com/verte-zerg/dualtask/internal/model"
)

// Kind selects the numeric range of a forced-choice answer.
type Kind string

const (
	// KindCount covers deviant tone counts.
	KindCount Kind = "count"
	// KindNumber covers the remembered three-digit number.
	KindNumber Kind = "number"
)

// Range is a half-open integer range [Lo,Hi).
type Range struct {
	Lo int
	Hi int
}

var kindRanges = map[Kind]Range{
	KindCount:  {Lo: 3, Hi: 23},
	KindNumber: {Lo: 100, Hi: 1000},
}

// Options is the size of a forced-choice set.
const Options = 4

// RangeOf returns the value range for kind.
func RangeOf(kind Kind) (Range, error) {
	r, ok := kindRanges[kind]
	if !ok {
		return Range{}, fmt.Errorf("unknown distractor kind %q", kind)
	}
	return r, nil
}

// CountRange returns the option range for a deviant count. Counts below
// the count range get a window around the target so that the answer is not
// the only small value on offer.
func CountRange(target int) Range {
	r := kindRanges[KindCount]
	if target >= r.Lo {
		return r
	}
	lo := max(0, target-2)
	return Range{Lo: lo, Hi: lo + Options + 1}
}

// InsufficientRangeError reports a range too small for a full foil set.
type InsufficientRangeError struct {
	Kind      Kind
	Target    int
	Available int
}

func (e *InsufficientRangeError) Error() string {
	return fmt.Sprintf("distractor range for %q has %d values besides %d, need %d", e.Kind, e.Available, e.Target, Options-1)
}

// Distractors builds a 4-value option set holding target at a uniform index.
func Distractors(src *Source, target int, kind Kind) (model.DistractorSet, error) {
	r, err := RangeOf(kind)
	if err != nil {
		return model.DistractorSet{}, err
	}
	return DistractorsIn(src, target, kind, r)
}

// DistractorsIn is Distractors over an explicit range.
func DistractorsIn(src *Source, target int, kind Kind, r Range) (model.DistractorSet, error) {
	pool := make([]int, 0, max(r.Hi-r.Lo, 0))
	for v := r.Lo; v < r.Hi; v++ {
		if v != target {
			pool = append(pool, v)
		}
	}
	if len(pool) < Options-1 {
		return model.DistractorSet{}, &InsufficientRangeError{Kind: kind, Target: target, Available: len(pool)}
	}
	// Partial Fisher-Yates: the first Options-1 slots become the foils.
	for i := 0; i < Options-1; i++ {
		j := i + src.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	correct := src.Intn(Options)
	values := make([]int, 0, Options)
	foils := pool[:Options-1]
	for i := 0; i < Options; i++ {
		if i == correct {
			values = append(values, target)
			continue
		}
		values = append(values, foils[0])
		foils = foils[1:]
	}
	return model.DistractorSet{Values: values, CorrectIndex: correct}, nil
}

// Draw returns a uniform value from the range of kind.
func Draw(src *Source, kind Kind) (int, error) {
	r, err := RangeOf(kind)
	if err != nil {
		return 0, err
	}
	if r.Hi <= r.Lo {
		return 0, &InsufficientRangeError{Kind: kind}
	}
	return r.Lo + src.Intn(r.Hi-r.Lo), nil
}
