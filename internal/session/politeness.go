package session

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Sleeper inserts a jittered pause after every navigation or action so the
// request pattern does not look like a burst of automation.
type Sleeper struct {
	base   time.Duration
	jitter time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSleeper builds a Sleeper with the given base delay and jitter bound.
func NewSleeper(base, jitter time.Duration) *Sleeper {
	return &Sleeper{
		base:   base,
		jitter: jitter,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Sleep pauses for the configured base plus random jitter.
func (s *Sleeper) Sleep(ctx context.Context) {
	s.SleepFor(ctx, s.base)
}

// SleepFor pauses for base plus random jitter, returning early when the
// context finishes.
func (s *Sleeper) SleepFor(ctx context.Context, base time.Duration) {
	delay := base + s.roll()
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (s *Sleeper) roll() time.Duration {
	if s.jitter <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.rng.Int63n(int64(s.jitter)))
}
