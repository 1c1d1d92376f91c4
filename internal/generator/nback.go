package generator

import (
	"fmt"
	"strings"
)

// Shapes are the symbols cycled through by the 2-back stream.
var Shapes = []string{"●", "■", "▲", "◆", "★", "✚", "◐", "▼", "⬟", "✖", "♥", "☾"}

// NBackSlot is one shape of a 2-back stream.
type NBackSlot struct {
	Shape  string
	Target bool
}

// NBack draws length shapes with no immediate repeats and at least one
// match against the shape back positions earlier.
func NBack(src *Source, shapes []string, length, back int) ([]NBackSlot, error) {
	if len(shapes) < 2 {
		return nil, fmt.Errorf("n-back needs at least 2 shapes, got %d", len(shapes))
	}
	if back < 1 || length < back+1 {
		return nil, fmt.Errorf("n-back length %d too short for %d-back", length, back)
	}
	seq := make([]string, 0, length)
	for len(seq) < length-1 {
		shape := Pick(src, shapes)
		if len(seq) > 0 && shape == seq[len(seq)-1] {
			continue
		}
		seq = append(seq, shape)
	}

	// Insert a planted match back positions after a random earlier shape,
	// preferring positions that keep the no-immediate-repeat rule.
	var candidates []int
	for i := 0; i+back-1 < len(seq); i++ {
		at := i + back
		if at < len(seq) && seq[at] == seq[i] {
			continue
		}
		candidates = append(candidates, i)
	}
	origin := src.Intn(len(seq) - back + 1)
	if len(candidates) > 0 {
		origin = Pick(src, candidates)
	}
	at := origin + back
	seq = append(seq[:at], append([]string{seq[origin]}, seq[at:]...)...)

	out := make([]NBackSlot, len(seq))
	for i, shape := range seq {
		out[i] = NBackSlot{Shape: shape, Target: i >= back && seq[i-back] == shape}
	}
	return out, nil
}

// NBackString renders a shape stream for the trial record.
func NBackString(slots []NBackSlot) string {
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = s.Shape
	}
	return strings.Join(parts, ",")
}
