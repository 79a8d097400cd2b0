package signal

import (
	"context"
	"errors"
	"testing"

	"veristream/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubScorer struct {
	result  domain.ScoreResult
	err     error
	lastArg domain.FramePayload
}

func (s *stubScorer) Score(ctx context.Context, frame domain.FramePayload) (domain.ScoreResult, error) {
	s.lastArg = frame
	return s.result, s.err
}

func (s *stubScorer) Name() string { return "stub" }

type stubSmoother struct {
	result     domain.SmoothedResult
	lastSource string
	lastScore  float64
	calls      int
}

func (s *stubSmoother) Update(source string, rawScore float64) domain.SmoothedResult {
	s.lastSource = source
	s.lastScore = rawScore
	s.calls++
	return s.result
}

func (s *stubSmoother) Reset(source string) {}

func newTestAnalysisServer(scorer *stubScorer, smoother *stubSmoother) *AnalysisServer {
	return NewAnalysisServer(scorer, smoother, nil, zap.NewNop().Sugar(), Options{})
}

func TestAnalyzeBadJSON(t *testing.T) {
	srv := newTestAnalysisServer(&stubScorer{}, &stubSmoother{})

	v := srv.analyze(context.Background(), []byte(`{broken`))

	assert.True(t, v.IsFake)
	assert.Equal(t, 0.99, v.Confidence)
	assert.Equal(t, "Bad payload", v.AlertMsg)
	assert.False(t, v.FaceDetected)
	assert.NotEmpty(t, v.Timestamp)
}

func TestAnalyzeScorerError(t *testing.T) {
	scorer := &stubScorer{err: errors.New("illegal base64 data")}
	smoother := &stubSmoother{}
	srv := newTestAnalysisServer(scorer, smoother)

	v := srv.analyze(context.Background(), []byte(`{"frame":"not-base64!!"}`))

	assert.True(t, v.IsFake)
	assert.Equal(t, 0.99, v.Confidence)
	assert.Equal(t, "Bad payload", v.AlertMsg)
	assert.Zero(t, smoother.calls)
}

func TestAnalyzeNoContentBypassesSmoother(t *testing.T) {
	scorer := &stubScorer{result: domain.ScoreResult{Detected: false, Message: "No face detected"}}
	smoother := &stubSmoother{}
	srv := newTestAnalysisServer(scorer, smoother)

	v := srv.analyze(context.Background(), []byte(`{"frame":"AAAA"}`))

	assert.False(t, v.IsFake)
	assert.Zero(t, v.Confidence)
	assert.Equal(t, "No face detected", v.AlertMsg)
	assert.False(t, v.FaceDetected)
	assert.Zero(t, smoother.calls)
}

func TestAnalyzeDetectedGoesThroughSmoother(t *testing.T) {
	scorer := &stubScorer{result: domain.ScoreResult{Detected: true, RawScore: 0.95, Message: "Anomaly detected"}}
	smoother := &stubSmoother{result: domain.SmoothedResult{IsFake: true, DisplayConfidence: 0.95}}
	srv := newTestAnalysisServer(scorer, smoother)

	v := srv.analyze(context.Background(), []byte(`{"frame":"AAAA","source":"webcam-1"}`))

	assert.True(t, v.IsFake)
	assert.Equal(t, 0.95, v.Confidence)
	assert.Equal(t, "Anomaly detected", v.AlertMsg)
	assert.True(t, v.FaceDetected)
	assert.Equal(t, 1, smoother.calls)
	assert.Equal(t, "webcam-1", smoother.lastSource)
	assert.Equal(t, 0.95, smoother.lastScore)
}

func TestAnalyzeDefaultSource(t *testing.T) {
	scorer := &stubScorer{result: domain.ScoreResult{Detected: true, RawScore: 0.3, Message: "Frame appears authentic"}}
	smoother := &stubSmoother{result: domain.SmoothedResult{IsFake: false, DisplayConfidence: 0.7}}
	srv := newTestAnalysisServer(scorer, smoother)

	srv.analyze(context.Background(), []byte(`{"frame":"AAAA"}`))

	assert.Equal(t, domain.DefaultSource, smoother.lastSource)
	assert.Equal(t, domain.DefaultSource, scorer.lastArg.Source)
}

func TestAnalyzeDataFieldAlias(t *testing.T) {
	scorer := &stubScorer{result: domain.ScoreResult{Detected: true, RawScore: 0.3, Message: "Frame appears authentic"}}
	srv := newTestAnalysisServer(scorer, &stubSmoother{})

	srv.analyze(context.Background(), []byte(`{"data":"QUJD","sentAt":1730000000000}`))

	assert.Equal(t, "QUJD", scorer.lastArg.Data)
	assert.Equal(t, int64(1730000000000), scorer.lastArg.SentAt.UnixMilli())
}
