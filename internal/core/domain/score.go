package domain

import "time"

// DefaultSource is the score history used when a frame declares no source.
const DefaultSource = "default"

// ScoreResult is the contract of the external classifier collaborator:
// Detected reports whether any face or voice content was present at all,
// RawScore is the unsmoothed per-frame output in [0, 1], and Message is a
// human-readable summary.
type ScoreResult struct {
	Detected bool
	RawScore float64
	Message  string
}

// SmoothedResult is the outcome of feeding one raw score through the
// temporal smoother for a source.
type SmoothedResult struct {
	IsFake bool
	// DisplayConfidence is confidence in the predicted class, capped at
	// 0.99, not the raw model probability.
	DisplayConfidence float64
}

// FramePayload is one inbound frame on the analysis endpoint.
type FramePayload struct {
	Data   string
	Source string
	SentAt time.Time
}

// Verdict is the outbound per-frame message on the analysis endpoint.
type Verdict struct {
	IsFake       bool    `json:"isFake"`
	Confidence   float64 `json:"confidence"`
	AlertMsg     string  `json:"alertMsg"`
	FaceDetected bool    `json:"faceDetected"`
	Timestamp    string  `json:"timestamp"`
}
