package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced clock for deterministic cooldown tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiter_CanPerform_NeverPerformed(t *testing.T) {
	limiter := NewLimiter(nil, newFakeClock())

	assert.True(t, limiter.CanPerform("admin", OpCreateBackup))
	assert.Equal(t, time.Duration(0), limiter.RemainingCooldown("admin", OpCreateBackup))
}

func TestLimiter_CooldownWindow(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(map[Operation]time.Duration{OpCreateBackup: 30 * time.Second}, clock)

	limiter.RecordPerformed("admin", OpCreateBackup)

	assert.False(t, limiter.CanPerform("admin", OpCreateBackup))
	remaining := limiter.RemainingCooldown("admin", OpCreateBackup)
	assert.Greater(t, remaining, time.Duration(0))
	assert.LessOrEqual(t, remaining, 30*time.Second)

	// One second before the window closes the call is still rejected.
	clock.Advance(29 * time.Second)
	assert.False(t, limiter.CanPerform("admin", OpCreateBackup))
	assert.Equal(t, time.Second, limiter.RemainingCooldown("admin", OpCreateBackup))

	// At the boundary it is allowed again.
	clock.Advance(time.Second)
	assert.True(t, limiter.CanPerform("admin", OpCreateBackup))
}

func TestLimiter_OperatorsAreIndependent(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(nil, clock)

	limiter.RecordPerformed("alice", OpCreateBackup)

	assert.False(t, limiter.CanPerform("alice", OpCreateBackup))
	assert.True(t, limiter.CanPerform("bob", OpCreateBackup))
}

func TestLimiter_OperationsAreIndependent(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(nil, clock)

	limiter.RecordPerformed("admin", OpCreateBackup)

	assert.False(t, limiter.CanPerform("admin", OpCreateBackup))
	assert.True(t, limiter.CanPerform("admin", OpDownload))
}

func TestLimiter_UnknownOperationIsUnlimited(t *testing.T) {
	limiter := NewLimiter(map[Operation]time.Duration{OpCreateBackup: time.Minute}, newFakeClock())

	limiter.RecordPerformed("admin", Operation("restore"))
	assert.True(t, limiter.CanPerform("admin", Operation("restore")))
}

func TestLimiter_ConcurrentAccess(t *testing.T) {
	limiter := NewLimiter(nil, newFakeClock())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			operator := string(rune('a' + n%5))
			limiter.RecordPerformed(operator, OpCreateBackup)
			limiter.CanPerform(operator, OpCreateBackup)
			limiter.RemainingCooldown(operator, OpDownload)
		}(i)
	}
	wg.Wait()
}

func TestDefaultCooldowns(t *testing.T) {
	cooldowns := DefaultCooldowns()
	assert.Equal(t, 30*time.Second, cooldowns[OpCreateBackup])
	assert.Equal(t, 10*time.Second, cooldowns[OpDownload])
}
