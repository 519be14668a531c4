// Package rng supplies the random sources and the house-bias coin every game
// resolver draws from.
package rng

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
)

// ErrInvalidProbability is returned by Validate for p outside [0,1].
var ErrInvalidProbability = errors.New("rng: probability must be within [0,1]")

// Source is the entropy a resolver consumes.
type Source interface {
	// Float64 returns a uniform sample in [0,1).
	Float64() float64
	// IntN returns a uniform integer in [0,n). It panics if n <= 0.
	IntN(n int) int
}

type cryptoSource struct{}

func (cryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return rand.Float64()
	}
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53)
}

func (c cryptoSource) IntN(n int) int {
	if n <= 0 {
		panic("rng: IntN called with n <= 0")
	}
	// rejection sampling keeps the draw unbiased for any n
	limit := math.MaxUint64 - math.MaxUint64%uint64(n)
	var buf [8]byte
	for {
		if _, err := cryptorand.Read(buf[:]); err != nil {
			return rand.IntN(n)
		}
		v := binary.BigEndian.Uint64(buf[:])
		if v < limit {
			return int(v % uint64(n))
		}
	}
}

// Default returns the crypto-backed production source.
func Default() Source { return cryptoSource{} }

type seededSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeeded returns a reproducible PCG source for tests and simulations.
func NewSeeded(seed uint64) Source {
	return &seededSource{r: rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))}
}

func (s *seededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

func (s *seededSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// Validate reports whether p is a usable probability.
func Validate(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return ErrInvalidProbability
	}
	return nil
}

// Decide draws one sample and reports whether the house-favored branch is taken.
// NaN counts as 0; values outside [0,1] are clamped.
func Decide(src Source, pHouseWins float64) bool {
	if math.IsNaN(pHouseWins) || pHouseWins <= 0 {
		src.Float64()
		return false
	}
	if pHouseWins >= 1 {
		src.Float64()
		return true
	}
	return src.Float64() < pHouseWins
}

// Pick returns a uniformly chosen element of items.
func Pick[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}

// Shuffle permutes items in place (Fisher-Yates).
func Shuffle[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Uniform returns a sample in [lo,hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Fixed replays a scripted sequence of samples; handy for forcing branches.
type Fixed struct {
	Floats []float64
	Ints   []int
	fi, ii int
}

// Float64 returns the next scripted float, cycling when exhausted.
func (f *Fixed) Float64() float64 {
	if len(f.Floats) == 0 {
		return 0
	}
	v := f.Floats[f.fi%len(f.Floats)]
	f.fi++
	return v
}

// IntN returns the next scripted int modulo n.
func (f *Fixed) IntN(n int) int {
	if n <= 0 {
		panic("rng: IntN called with n <= 0")
	}
	if len(f.Ints) == 0 {
		return 0
	}
	v := f.Ints[f.ii%len(f.Ints)]
	f.ii++
	return ((v % n) + n) % n
}
