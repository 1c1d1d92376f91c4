// Package generator holds the seeded randomizers behind trial construction.
package generator

import (
	"math/rand"
	"time"
)

// Source is an explicit random stream. Every randomizer takes one so a task
// can be replayed from its seed.
type Source struct {
	rnd *rand.Rand
}

// New returns a Source seeded with the current time.
func New() *Source {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Source.
func NewSeeded(seed int64) *Source {
	return &Source{rnd: rand.New(rand.NewSource(seed))}
}

// Intn returns a value in [0,n).
func (s *Source) Intn(n int) int {
	return s.rnd.Intn(n)
}

// IntRange returns a value in the closed range [lo,hi].
func (s *Source) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rnd.Intn(hi-lo+1)
}

// Float64 returns a value in [0,1).
func (s *Source) Float64() float64 {
	return s.rnd.Float64()
}

// Perm returns a random permutation of [0,n).
func (s *Source) Perm(n int) []int {
	return s.rnd.Perm(n)
}

// Pick returns a uniformly chosen element of items.
func Pick[T any](s *Source, items []T) T {
	return items[s.Intn(len(items))]
}

// Shuffled returns a permuted copy of items.
func Shuffled[T any](s *Source, items []T) []T {
	out := make([]T, len(items))
	for i, j := range s.Perm(len(items)) {
		out[i] = items[j]
	}
	return out
}
