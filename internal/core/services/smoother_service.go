package services

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"veristream/internal/core/domain"

	"go.uber.org/zap"
)

const (
	// BufferSize bounds each per-source score history.
	BufferSize = 25

	// OutlierThreshold is the maximum absolute deviation from the median
	// a sample may have and still contribute to the weighted mean.
	OutlierThreshold = 0.12

	// DeepfakeStrictness is the hard verdict threshold on the weighted
	// mean. Below it is genuine, at or above is fake.
	DeepfakeStrictness = 0.92

	// Outlier rejection only kicks in once a history has this many
	// samples; shorter histories use the full buffer.
	minSamplesForTrim = 5

	maxDisplayConfidence = 0.99
)

// SmootherService keeps one bounded score history per caller-declared
// source and folds each new raw score into a stable verdict. Histories
// are protected individually so concurrent sources never block each
// other; the top-level map lock is only held for lookup and create.
type SmootherService struct {
	mu      sync.Mutex
	sources map[string]*scoreHistory

	idleTimeout time.Duration
	logger      *zap.SugaredLogger
}

type scoreHistory struct {
	mu       sync.Mutex
	scores   []float64
	lastSeen time.Time
}

func NewSmootherService(idleTimeout time.Duration, logger *zap.SugaredLogger) *SmootherService {
	return &SmootherService{
		sources:     make(map[string]*scoreHistory),
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

// Update appends rawScore to the source's history and recomputes the
// smoothed verdict. Given an identical score sequence for a source, the
// output sequence is fully deterministic.
func (s *SmootherService) Update(source string, rawScore float64) domain.SmoothedResult {
	h := s.history(source)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastSeen = time.Now()
	h.scores = append(h.scores, rawScore)
	if len(h.scores) > BufferSize {
		// Ring semantics: evict the oldest, reuse the backing array.
		copy(h.scores, h.scores[1:])
		h.scores = h.scores[:BufferSize]
	}

	working := h.scores
	if len(working) >= minSamplesForTrim {
		med := median(working)
		trimmed := make([]float64, 0, len(working))
		for _, v := range working {
			if math.Abs(v-med) <= OutlierThreshold {
				trimmed = append(trimmed, v)
			}
		}
		// Never operate on an empty set; fall back to the full history
		// when trimming would discard everything.
		if len(trimmed) > 0 {
			working = trimmed
		}
	}

	avg := weightedMean(working)
	isFake := avg >= DeepfakeStrictness

	var confidence float64
	if isFake {
		confidence = math.Min(maxDisplayConfidence, avg)
	} else {
		confidence = math.Min(maxDisplayConfidence, 1.0-avg)
	}

	return domain.SmoothedResult{
		IsFake:            isFake,
		DisplayConfidence: confidence,
	}
}

// Reset drops the history for a source.
func (s *SmootherService) Reset(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sources, source)
}

// SourceCount reports how many histories are currently tracked.
func (s *SmootherService) SourceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources)
}

// EvictIdle drops histories that have not been updated within the idle
// timeout and returns how many were removed. Source keys are supplied by
// callers, so without eviction the keyed set grows without bound.
func (s *SmootherService) EvictIdle() int {
	cutoff := time.Now().Add(-s.idleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for source, h := range s.sources {
		h.mu.Lock()
		idle := h.lastSeen.Before(cutoff)
		h.mu.Unlock()
		if idle {
			delete(s.sources, source)
			evicted++
		}
	}
	return evicted
}

// RunJanitor evicts idle histories on the given interval until ctx is
// cancelled.
func (s *SmootherService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(); n > 0 {
				s.logger.Debugw("evicted idle score histories", "count", n)
			}
		}
	}
}

func (s *SmootherService) history(source string) *scoreHistory {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.sources[source]
	if !ok {
		h = &scoreHistory{lastSeen: time.Now()}
		s.sources[source] = h
	}
	return h
}

func median(scores []float64) float64 {
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// weightedMean weights the i-th oldest sample by i^1.5 (1-indexed), so
// recent samples dominate.
func weightedMean(scores []float64) float64 {
	var sum, weightSum float64
	for i, v := range scores {
		w := math.Pow(float64(i+1), 1.5)
		sum += v * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}
