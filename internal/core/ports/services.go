package ports

import (
	"context"

	"veristream/internal/core/domain"
)

// Scorer is the external classifier collaborator. Implementations never
// smooth; they score one payload in isolation. A returned error means the
// payload was undecodable, which the analysis endpoint treats as
// suspicious (fail-closed).
type Scorer interface {
	Score(ctx context.Context, frame domain.FramePayload) (domain.ScoreResult, error)

	// Name identifies the backing model for health reporting.
	Name() string
}

// Smoother turns a sequence of independent per-frame raw scores into a
// stable binary verdict, keyed by caller-declared source. Histories for
// different sources are independent.
type Smoother interface {
	Update(source string, rawScore float64) domain.SmoothedResult

	// Reset drops the history for a source.
	Reset(source string)
}
