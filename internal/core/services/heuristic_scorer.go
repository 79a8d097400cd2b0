package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"veristream/internal/core/domain"
)

const (
	// Frames smaller than this carry no analyzable content.
	minContentBytes = 16

	// Bytes inspected for the entropy hint.
	entropyWindow = 512

	// Raw score at or above this reads as anomalous in the scorer's
	// advisory message. The binding verdict threshold lives in the
	// smoother.
	anomalyHint = 0.75

	replayScore = 0.95
)

// HeuristicScorer is the built-in classifier collaborator used when no
// external model service is wired in. It scores a frame from its byte
// entropy and flags stale frames as potential replays. Unlike a real
// model it is fully deterministic, so smoothed verdicts are reproducible
// for a given input sequence.
type HeuristicScorer struct {
	replayWindow time.Duration
	now          func() time.Time
}

func NewHeuristicScorer(replayWindow time.Duration) *HeuristicScorer {
	return &HeuristicScorer{
		replayWindow: replayWindow,
		now:          time.Now,
	}
}

func (s *HeuristicScorer) Name() string {
	return "entropy-heuristic"
}

func (s *HeuristicScorer) Score(ctx context.Context, frame domain.FramePayload) (domain.ScoreResult, error) {
	payload := frame.Data
	// Strip a data-URL prefix if present.
	if i := strings.LastIndex(payload, ","); i >= 0 {
		payload = payload[i+1:]
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return domain.ScoreResult{}, fmt.Errorf("invalid frame encoding: %w", err)
	}

	if len(decoded) < minContentBytes {
		return domain.ScoreResult{
			Detected: false,
			RawScore: 0,
			Message:  "No face detected",
		}, nil
	}

	if !frame.SentAt.IsZero() && s.now().Sub(frame.SentAt) > s.replayWindow {
		return domain.ScoreResult{
			Detected: true,
			RawScore: replayScore,
			Message:  fmt.Sprintf("Potential replay attack: frame older than %s", s.replayWindow),
		}, nil
	}

	raw := 0.5 + entropyHint(decoded)
	if raw > 0.99 {
		raw = 0.99
	}

	message := "Frame appears authentic"
	if raw >= anomalyHint {
		message = "Anomaly detected"
	}

	return domain.ScoreResult{
		Detected: true,
		RawScore: raw,
		Message:  message,
	}, nil
}

// entropyHint approximates payload entropy as the fraction of distinct
// byte values in the leading window, capped at 64 distinct values.
func entropyHint(data []byte) float64 {
	window := data
	if len(window) > entropyWindow {
		window = window[:entropyWindow]
	}

	var seen [256]bool
	distinct := 0
	for _, b := range window {
		if !seen[b] {
			seen[b] = true
			distinct++
		}
	}
	if distinct > 64 {
		distinct = 64
	}
	return float64(distinct) / 64
}
