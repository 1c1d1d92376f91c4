package generator

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/dualtask/internal/model"
)

const (
	// LeadingNormals is the number of slots that always carry a normal tone.
	LeadingNormals = 3
	// MinDeviants is the smallest deviant count a full sequence may hold.
	MinDeviants = 3
	// MaxDeviantProb caps the per-slot deviant probability.
	MaxDeviantProb = 0.5
)

// ErrOddballExhausted is returned by Next after the last slot.
var ErrOddballExhausted = errors.New("oddball sequence has no slots left")

// Oddball decides tone types slot by slot. The first LeadingNormals slots
// are normal, and deviants are forced once the remaining slots are just
// enough to reach MinDeviants.
type Oddball struct {
	src      *Source
	slots    int
	next     int
	deviants int
}

// NewOddball primes a generator for a fixed number of slots.
func NewOddball(src *Source, slots int) (*Oddball, error) {
	if slots < LeadingNormals+MinDeviants {
		return nil, fmt.Errorf("oddball needs at least %d slots, got %d", LeadingNormals+MinDeviants, slots)
	}
	return &Oddball{src: src, slots: slots}, nil
}

// Next returns the tone type of the next slot.
func (o *Oddball) Next() (model.ToneType, error) {
	if o.next >= o.slots {
		return "", ErrOddballExhausted
	}
	i := o.next
	o.next++

	tone := model.ToneNormal
	switch {
	case i < LeadingNormals:
	case o.deviants < MinDeviants && o.slots-i <= MinDeviants-o.deviants:
		tone = model.ToneDeviant
	default:
		p := MaxDeviantProb
		if o.deviants >= MinDeviants {
			p = min(MaxDeviantProb, float64(o.deviants)/float64(i-LeadingNormals))
		}
		if o.src.Float64() < p {
			tone = model.ToneDeviant
		}
	}
	if tone == model.ToneDeviant {
		o.deviants++
	}
	return tone, nil
}

// Deviants returns the number of deviants emitted so far.
func (o *Oddball) Deviants() int {
	return o.deviants
}

// Remaining returns the number of undecided slots.
func (o *Oddball) Remaining() int {
	return o.slots - o.next
}

// OddballSequence draws a complete sequence of slots tone types.
func OddballSequence(src *Source, slots int) ([]model.ToneType, error) {
	o, err := NewOddball(src, slots)
	if err != nil {
		return nil, err
	}
	out := make([]model.ToneType, 0, slots)
	for o.Remaining() > 0 {
		tone, err := o.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, tone)
	}
	return out, nil
}
