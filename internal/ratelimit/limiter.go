package ratelimit

import (
	"sync"
	"time"
)

// Operation identifies a rate-limited operation kind
type Operation string

const (
	// OpCreateBackup is backup creation
	OpCreateBackup Operation = "create_backup"
	// OpDownload is SQL export / archive download
	OpDownload Operation = "download"
)

// Clock abstracts time for deterministic tests
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock
func SystemClock() Clock { return systemClock{} }

// DefaultCooldowns returns the cooldown window per operation kind
func DefaultCooldowns() map[Operation]time.Duration {
	return map[Operation]time.Duration{
		OpCreateBackup: 30 * time.Second,
		OpDownload:     10 * time.Second,
	}
}

// Limiter tracks last-performed-at timestamps per (operator, operation) and
// enforces cooldowns. State lives in process memory only: a restart resets
// all limits. That fail-open behavior is deliberate and documented, not
// hidden. Safe for concurrent use.
type Limiter struct {
	mu        sync.Mutex
	cooldowns map[Operation]time.Duration
	lastRun   map[limiterKey]time.Time
	clock     Clock
}

type limiterKey struct {
	operator  string
	operation Operation
}

// NewLimiter creates a limiter with the given per-operation cooldowns.
// A nil clock selects the system clock.
func NewLimiter(cooldowns map[Operation]time.Duration, clock Clock) *Limiter {
	if clock == nil {
		clock = SystemClock()
	}
	if cooldowns == nil {
		cooldowns = DefaultCooldowns()
	}

	return &Limiter{
		cooldowns: cooldowns,
		lastRun:   make(map[limiterKey]time.Time),
		clock:     clock,
	}
}

// CanPerform reports whether the operator may perform the operation now.
// An absent entry means "never performed, allowed now".
func (l *Limiter) CanPerform(operator string, op Operation) bool {
	return l.RemainingCooldown(operator, op) <= 0
}

// RemainingCooldown returns how long the operator must still wait before
// performing the operation; zero or negative means allowed now
func (l *Limiter) RemainingCooldown(operator string, op Operation) time.Duration {
	cooldown, limited := l.cooldowns[op]
	if !limited {
		return 0
	}

	l.mu.Lock()
	last, performed := l.lastRun[limiterKey{operator, op}]
	l.mu.Unlock()

	if !performed {
		return 0
	}

	return cooldown - l.clock.Now().Sub(last)
}

// RecordPerformed marks the operation as performed now for the operator
func (l *Limiter) RecordPerformed(operator string, op Operation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastRun[limiterKey{operator, op}] = l.clock.Now()
}
