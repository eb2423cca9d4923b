// Package ratelimit throttles calls per model locally. It never blocks; it
// tells the caller how long to wait.
package ratelimit

import (
	"sync"
	"time"
)

type Decision struct {
	Limited bool
	Wait    time.Duration
}

type Limiter struct {
	mu     sync.Mutex
	policy Policy
	last   map[string]time.Time
	now    func() time.Time
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func New(policy Policy, opts ...Option) *Limiter {
	if policy == nil {
		policy = DefaultPolicy()
	}
	l := &Limiter{policy: policy, last: make(map[string]time.Time), now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) SetPolicy(p Policy) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.policy = p
}

// Check reports whether a call to the model would exceed its rate.
func (l *Limiter) Check(label, tier string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.check(label, tier)
}

// Record stamps now as the last call for the model.
func (l *Limiter) Record(label string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last[label] = l.now()
}

// Reserve checks and, when not limited, records in one step.
func (l *Limiter) Reserve(label, tier string) Decision {
	d, _ := l.Claim(label, tier)
	return d
}

// Reservation is a recorded call that may still be handed back.
type Reservation struct {
	l     *Limiter
	label string
	at    time.Time
	prev  time.Time
	had   bool
	once  sync.Once
}

// Claim is Reserve that also returns the reservation, nil when limited.
func (l *Limiter) Claim(label, tier string) (Decision, *Reservation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d := l.check(label, tier)
	if d.Limited {
		return d, nil
	}
	r := &Reservation{l: l, label: label, at: l.now()}
	r.prev, r.had = l.last[label]
	l.last[label] = r.at
	return d, r
}

// Release restores the stamp that was in place before the claim, for a call
// that never reached the model. It does nothing once a later call has been
// recorded for the same model. Safe on a nil reservation.
func (r *Reservation) Release() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		r.l.mu.Lock()
		defer r.l.mu.Unlock()
		if !r.l.last[r.label].Equal(r.at) {
			return
		}
		if r.had {
			r.l.last[r.label] = r.prev
		} else {
			delete(r.l.last, r.label)
		}
	})
}

func (l *Limiter) check(label, tier string) Decision {
	rpm := l.policy.RPM(tier, label)
	if rpm <= 0 {
		return Decision{}
	}
	last, ok := l.last[label]
	if !ok {
		return Decision{}
	}
	interval := time.Minute / time.Duration(rpm)
	elapsed := l.now().Sub(last)
	if elapsed < interval {
		return Decision{Limited: true, Wait: interval - elapsed}
	}
	return Decision{}
}
