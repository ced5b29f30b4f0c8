package insights

import (
	"errors"
	"time"
)

// ErrModelNotFound is returned when a toggle names an unknown model.
var ErrModelNotFound = errors.New("insights: model not found")

// Synthesizer reshapes demo API payloads into dashboard view models.
type Synthesizer struct {
	gen Generator
	now func() time.Time
}

// Option customizes a Synthesizer.
type Option func(*Synthesizer)

// WithNow overrides the clock used for relative timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Synthesizer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSynthesizer returns a Synthesizer drawing values from gen. A nil gen
// uses a generator seeded with 1.
func NewSynthesizer(gen Generator, opts ...Option) *Synthesizer {
	if gen == nil {
		gen = NewGenerator(1)
	}
	s := &Synthesizer{gen: gen, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}
