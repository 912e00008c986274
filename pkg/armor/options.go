package armor

import (
	crand "crypto/rand"
	"errors"
	"math/rand/v2"
	"runtime"
	"sync"
)

// Option customizes a call to Don or Doff.
// If any Option returns an error, then the call fails with that error before doing any work.
type Option = func(*settings) error

type settings struct {
	workers int
	rng     *rand.Rand
}

func newSettings(opts []Option) (*settings, error) {
	s := &settings{
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.rng == nil {
		var seed [32]byte
		if _, err := crand.Read(seed[:]); err != nil {
			return nil, err
		}
		s.rng = rand.New(rand.NewChaCha8(seed))
	}
	return s, nil
}

// WithWorkers bounds the number of goroutines used to map words.
// This is only a performance setting, the output doesn't depend on it.
// The default is GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *settings) error {
		if n < 1 {
			return errors.New("worker count must be at least 1")
		}
		s.workers = n
		return nil
	}
}

// WithRand sets the source used to choose marker words in Don.
// Markers are chosen from a securely seeded source by default.
func WithRand(rng *rand.Rand) Option {
	return func(s *settings) error {
		if rng == nil {
			return errors.New("nil random source")
		}
		s.rng = rng
		return nil
	}
}

// parallel calls fn for each contiguous span of [0, n), using at most workers goroutines.
// Each span is handled by exactly one goroutine.
func parallel(n, workers int, fn func(start, end int)) {
	if n == 0 {
		return
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}
	var (
		wg   sync.WaitGroup
		span = (n + workers - 1) / workers
	)
	for start := 0; start < n; start += span {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, min(start+span, n))
	}
	wg.Wait()
}
