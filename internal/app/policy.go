package app

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type RestartConfig struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// RestartPolicy decides whether and when the next ICE restart runs.
type RestartPolicy interface {
	// Next returns the delay before the next restart, or false once the budget is spent.
	Next() (time.Duration, bool)
	// Reset refills the budget after the connection recovered.
	Reset()
}

// BackoffPolicy is a bounded exponential RestartPolicy.
type BackoffPolicy struct {
	mu      sync.Mutex
	factory func() backoff.BackOff
	b       backoff.BackOff
}

func NewBackoffPolicy(cfg RestartConfig) *BackoffPolicy {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 5
	}
	if cfg.Initial <= 0 {
		cfg.Initial = 500 * time.Millisecond
	}
	if cfg.Max <= 0 {
		cfg.Max = 10 * time.Second
	}
	return NewPolicyFrom(func() backoff.BackOff {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = cfg.Initial
		eb.MaxInterval = cfg.Max
		eb.MaxElapsedTime = 0
		return backoff.WithMaxRetries(eb, uint64(cfg.Attempts))
	})
}

// NewPolicyFrom builds a policy over any backoff.BackOff factory.
func NewPolicyFrom(factory func() backoff.BackOff) *BackoffPolicy {
	p := &BackoffPolicy{factory: factory}
	p.b = factory()
	return p
}

func (p *BackoffPolicy) Next() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := p.b.NextBackOff()
	if d == backoff.Stop {
		return 0, false
	}
	return d, true
}

func (p *BackoffPolicy) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.b = p.factory()
}
