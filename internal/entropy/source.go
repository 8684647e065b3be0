// Package entropy provides the seeded randomness source shared by all
// stochastic components. Draws come from a single deterministic stream
// seeded with the run seed, so runs replay exactly.
package entropy

import "math/rand"

// Source wraps a deterministic generator behind the small surface the
// place model needs.
type Source struct {
	rng *rand.Rand
}

// New creates a source from a seed.
func New(seed int64) *Source {
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// Float returns a uniform draw in [0, 1).
func (s *Source) Float() float64 {
	return s.rng.Float64()
}

// Normal returns a draw from N(mean, std).
func (s *Source) Normal(mean, std float64) float64 {
	return s.rng.NormFloat64()*std + mean
}

// IntN returns a uniform draw in [0, n). n must be positive.
func (s *Source) IntN(n int) int {
	return s.rng.Intn(n)
}

// Shuffle permutes n elements uniformly using the supplied swap.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}
