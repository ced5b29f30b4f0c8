package insights

import (
	"math/rand/v2"
	"sync"
)

// Generator supplies the synthetic values mixed into demo payloads.
type Generator interface {
	// IntN returns a value in [0, n). n must be positive.
	IntN(n int) int
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// NewGenerator returns a goroutine-safe PCG generator seeded with seed.
func NewGenerator(seed uint64) Generator {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Sequence replays fixed values, cycling when exhausted. IntN reduces each
// value modulo n; an empty sequence yields zeros.
type Sequence struct {
	mu     sync.Mutex
	Ints   []int
	Floats []float64
	i, f   int
}

func (s *Sequence) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Ints) == 0 || n <= 0 {
		return 0
	}
	v := s.Ints[s.i%len(s.Ints)]
	s.i++
	if v < 0 {
		v = -v
	}
	return v % n
}

func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.f%len(s.Floats)]
	s.f++
	return v
}

func pick[T any](gen Generator, options []T) T {
	return options[gen.IntN(len(options))]
}

// between returns an integer in [lo, lo+span).
func between(gen Generator, lo, span int) int {
	return lo + gen.IntN(span)
}
