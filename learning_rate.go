package word2vec

import (
	"math"
	"sync/atomic"
)

// LearningRateScheduler decays the learning rate linearly from its initial value towards
// a floor over the total number of training units. The current rate only ever decreases.
type LearningRateScheduler struct {
	initial    float64
	floor      float64
	totalUnits int64

	rate atomic.Uint64 // float64 bits
}

// NewLearningRateScheduler creates a scheduler for a run of totalUnits documents
func NewLearningRateScheduler(initial, floor float64, totalUnits int64) *LearningRateScheduler {
	s := &LearningRateScheduler{
		initial:    initial,
		floor:      floor,
		totalUnits: max(totalUnits, 1),
	}
	s.rate.Store(math.Float64bits(initial))
	return s
}

// RateAt returns max(floor, initial*(1-k/total))
func (s *LearningRateScheduler) RateAt(k int64) float64 {
	return math.Max(s.floor, s.initial*(1-float64(k)/float64(s.totalUnits)))
}

// Update lowers the current rate to RateAt(k). Concurrent callers with stale k never
// raise the rate back up.
func (s *LearningRateScheduler) Update(k int64) float64 {
	next := s.RateAt(k)
	for {
		bits := s.rate.Load()
		if math.Float64frombits(bits) <= next {
			return math.Float64frombits(bits)
		}
		if s.rate.CompareAndSwap(bits, math.Float64bits(next)) {
			return next
		}
	}
}

// Rate returns the current learning rate
func (s *LearningRateScheduler) Rate() float64 {
	return math.Float64frombits(s.rate.Load())
}
