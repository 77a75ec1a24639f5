package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, time.Minute, zap.NewNop())
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	assert.True(t, cb.CanExecute())
	cb.RecordFailure(0)
	assert.Equal(t, CircuitStateClosed, cb.GetState())
	cb.RecordFailure(0)
	assert.Equal(t, CircuitStateOpen, cb.GetState())
	assert.False(t, cb.CanExecute())

	now = now.Add(time.Minute)
	assert.True(t, cb.CanExecute(), "first probe after timeout is admitted")
	assert.False(t, cb.CanExecute(), "second caller waits for the probe")

	cb.RecordSuccess()
	assert.Equal(t, CircuitStateClosed, cb.GetState())
	assert.True(t, cb.CanExecute())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Second, zap.NewNop())
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	cb.RecordFailure(0)
	now = now.Add(2 * time.Second)
	assert.True(t, cb.CanExecute())
	cb.RecordFailure(10 * time.Second)
	assert.Equal(t, CircuitStateOpen, cb.GetState())

	now = now.Add(5 * time.Second)
	assert.False(t, cb.CanExecute())
	now = now.Add(5 * time.Second)
	assert.True(t, cb.CanExecute())
}

func TestCircuitBreakerReleaseFreesProbe(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Second, zap.NewNop())
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	cb.RecordFailure(0)
	now = now.Add(2 * time.Second)
	assert.True(t, cb.CanExecute())
	assert.False(t, cb.CanExecute())

	cb.Release()
	assert.Equal(t, CircuitStateHalfOpen, cb.GetState())
	assert.True(t, cb.CanExecute(), "released slot admits the next probe")
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "", Summarize("", 100))
	assert.Equal(t, "short", Summarize("short", 100))
	long := ""
	for i := 0; i < 120; i++ {
		long += "a"
	}
	got := Summarize(long, 100)
	assert.Len(t, got, 100)
	assert.Equal(t, "...", got[97:])
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "jane_smith", Slugify("Jane Smith"))
	assert.Equal(t, "health_&_nhs", Slugify("Health & NHS"))
}
