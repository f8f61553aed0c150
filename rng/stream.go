// Package rng wraps a single pseudo-random stream shared by an entire
// sampler run. Every source of randomness in gopgm — conjugate draws,
// finite-sampler selection, resampling — flows through one *Stream
// (spec.md §5: "The RNG is a single stream owned by the sampler; all
// randomness flows through it"), grounded on the rand.Rand field carried
// by the pack's own PGM model type
// (other_examples/89d7956c_rlouf-gmc__model.go.go: `Src *rand.Rand`).
package rng

import "golang.org/x/exp/rand"

// Stream is a seedable, cloneable RNG stream.
type Stream struct {
	*rand.Rand
}

// New returns a Stream seeded deterministically from seed.
func New(seed uint64) *Stream {
	return &Stream{Rand: rand.New(rand.NewSource(seed))}
}

// Clone returns an independent Stream seeded from a value drawn off s,
// used by the test harness to run independent replications of a whole SMC
// pass (spec.md §5's carve-out for parallel replications).
func (s *Stream) Clone() *Stream {
	return New(s.Uint64())
}

// Uniform01 draws a single uniform variate in [0, 1).
func (s *Stream) Uniform01() float64 { return s.Float64() }
