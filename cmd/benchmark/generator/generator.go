package generator

import (
	"math/rand"
	"sync/atomic"
)

type Uniform struct {
	lower, upper int64
}

func NewUniform(lower, upper int64) *Uniform {
	return &Uniform{lower: lower, upper: upper}
}

func (u *Uniform) Next(r *rand.Rand) int64 {
	return u.lower + r.Int63n(u.upper-u.lower+1)
}

// Sequential wraps around to lower after upper. Safe for concurrent use.
type Sequential struct {
	lower, upper int64
	counter      atomic.Int64
}

func NewSequential(lower, upper int64) *Sequential {
	return &Sequential{lower: lower, upper: upper}
}

func (s *Sequential) Next(_ *rand.Rand) int64 {
	n := s.counter.Add(1) - 1
	return s.lower + n%(s.upper-s.lower+1)
}
