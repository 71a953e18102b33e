package word2vec

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLearningRateScheduler_RateAt(t *testing.T) {
	s := NewLearningRateScheduler(0.025, 0.01, 1000)

	tests := []struct {
		k    int64
		want float64
	}{
		{0, 0.025},
		{200, 0.02},
		{500, 0.0125},
		{600, 0.01},
		{1000, 0.01},
		{5000, 0.01},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, s.RateAt(tt.k), 1e-12, "k=%d", tt.k)
	}
}

func TestLearningRateScheduler_NeverBelowFloor(t *testing.T) {
	s := NewLearningRateScheduler(0.5, 0.1, 10)

	for k := int64(0); k <= 100; k++ {
		assert.GreaterOrEqual(t, s.Update(k), 0.1)
	}
	assert.InDelta(t, 0.1, s.Rate(), 1e-12)
}

func TestLearningRateScheduler_Monotonic(t *testing.T) {
	s := NewLearningRateScheduler(0.025, 0.0001, 100)

	assert.InDelta(t, 0.025, s.Rate(), 1e-12)

	s.Update(50)
	lowered := s.Rate()
	assert.Less(t, lowered, 0.025)

	// A stale update must not raise the rate
	s.Update(10)
	assert.Equal(t, lowered, s.Rate())
}

func TestLearningRateScheduler_ConcurrentUpdates(t *testing.T) {
	s := NewLearningRateScheduler(1.0, 0.0, 1000)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := int64(w); k < 1000; k += 8 {
				s.Update(k)
			}
		}()
	}
	wg.Wait()

	assert.InDelta(t, s.RateAt(999), s.Rate(), 1e-12)
}

func TestLearningRateScheduler_ZeroTotalUnits(t *testing.T) {
	s := NewLearningRateScheduler(0.025, 0.01, 0)
	assert.InDelta(t, 0.025, s.RateAt(0), 1e-12)
}
