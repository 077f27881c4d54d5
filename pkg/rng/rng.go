// Package rng provides the uniform random sampling used throughout deepnet:
// weight initialization, action exploration noise and replay-batch sampling.
//
// The reference library seeds a single process-wide generator once at
// library init and never exposes the source itself. Here that contract is
// kept as the default (the package's init seeds the package-global Source
// from the wall clock, and Init reseeds it with a given seed), but the
// generator itself is also a concrete type callers can
// construct directly, so tests and parallel agents can each own a
// deterministic source instead of contending on the global one.
package rng

import (
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source is an injectable uniform sampler. It is not safe for concurrent
// use by multiple goroutines, matching the rest of deepnet's single-threaded
// contract (see spec §5).
type Source struct {
	r *rand.Rand
}

// New returns a Source seeded with the given value.
func New(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// Float64 returns a uniform sample in [min, max).
func (s *Source) Float64(min, max float64) float64 {
	if max <= min {
		return min
	}
	u := distuv.Uniform{Min: min, Max: max, Src: s.r}
	return u.Rand()
}

// Int returns a uniform sample in [min, max], both ends inclusive.
func (s *Source) Int(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.r.Intn(max-min+1)
}

var global = New(time.Now().UnixNano())

// Init reseeds the process-global Source. The library calls this once from
// its own init(); callers that need reproducible runs call it again with a
// fixed seed before touching any other deepnet package.
func Init(seed int64) {
	global = New(seed)
}

// Default returns the process-global Source.
func Default() *Source {
	return global
}

// Float64 samples the process-global Source.
func Float64(min, max float64) float64 {
	return global.Float64(min, max)
}

// Int samples the process-global Source.
func Int(min, max int) int {
	return global.Int(min, max)
}

func init() {
	Init(time.Now().UnixNano())
}
