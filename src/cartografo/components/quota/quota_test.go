package quota

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryDebitRefusesOvershoot(t *testing.T) {
	b := NewBudget(10, 0.8)

	_, err := b.TryDebit(8)
	require.NoError(t, err)
	require.Equal(t, 8, b.Consumed())

	// Would exceed the limit: refused, no mutation.
	_, err = b.TryDebit(3)
	require.True(t, errors.Is(err, ErrExhausted))
	assert.Equal(t, 8, b.Consumed())

	// Exactly fills the limit.
	_, err = b.TryDebit(2)
	require.NoError(t, err)
	assert.Equal(t, 10, b.Consumed())

	// Nothing left.
	_, err = b.TryDebit(1)
	assert.True(t, errors.Is(err, ErrExhausted))
	assert.Equal(t, 10, b.Consumed())
}

func TestWarnFiresOnce(t *testing.T) {
	b := NewBudget(10, 0.8)

	warn, err := b.TryDebit(7)
	require.NoError(t, err)
	assert.False(t, warn)

	warn, err = b.TryDebit(1)
	require.NoError(t, err)
	assert.True(t, warn, "crossing the threshold should warn")

	warn, err = b.TryDebit(1)
	require.NoError(t, err)
	assert.False(t, warn, "warn must not re-fire")

	b.Reset(10)
	assert.Equal(t, 0, b.Consumed())

	warn, err = b.TryDebit(9)
	require.NoError(t, err)
	assert.True(t, warn, "warn re-arms after reset")
}

func TestUtilization(t *testing.T) {
	b := NewBudget(200, 0.8)
	_, err := b.TryDebit(50)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, b.Utilization(), 1e-9)
	assert.Equal(t, 150, b.Remaining())
}

func TestConcurrentDebitsNeverOvershoot(t *testing.T) {
	b := NewBudget(100, 0.8)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				b.TryDebit(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, b.Consumed())
}
