package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWindow(t *testing.T) {
	w := NewMemoryWindow(16, time.Hour)
	clock := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	for i := int64(1); i <= 3; i++ {
		n, left, err := w.IncrWindow(context.Background(), "ip:1", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, i, n)
		assert.Equal(t, time.Hour, left)
	}

	n, _, _ := w.IncrWindow(context.Background(), "ip:2", time.Hour)
	assert.Equal(t, int64(1), n)

	clock = clock.Add(61 * time.Minute)
	n, left, _ := w.IncrWindow(context.Background(), "ip:1", time.Hour)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Hour, left)
}
