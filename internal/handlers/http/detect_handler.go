package http

import (
	"math"
	"net/http"
	"time"

	"veristream/internal/core/domain"
	"veristream/internal/core/ports"
	"veristream/internal/core/services"
	apperrors "veristream/pkg/errors"
	"veristream/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DetectHandler serves single-shot detection requests. Unlike the
// streaming endpoint, verdicts here are computed from one payload in
// isolation and never touch any source history.
type DetectHandler struct {
	scorer ports.Scorer
}

func NewDetectHandler(scorer ports.Scorer) *DetectHandler {
	return &DetectHandler{scorer: scorer}
}

func (h *DetectHandler) SetupRoutes(api *gin.RouterGroup) {
	api.POST("/detect", h.DetectFrame)
	api.POST("/detect/audio", h.DetectAudio)
}

type detectFrameRequest struct {
	Frame string `json:"frame" binding:"required"`
}

type detectAudioRequest struct {
	Audio string `json:"audio" binding:"required"`
}

type detectResponse struct {
	IsFake       bool    `json:"is_fake"`
	Confidence   float64 `json:"confidence"`
	Message      string  `json:"message"`
	FaceDetected bool    `json:"face_detected"`
	Timestamp    string  `json:"timestamp"`
}

type detectAudioResponse struct {
	IsFake     bool    `json:"is_fake"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
	Timestamp  string  `json:"timestamp"`
}

func (h *DetectHandler) DetectFrame(c *gin.Context) {
	var req detectFrameRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.scorer.Score(c.Request.Context(), domain.FramePayload{
		Data:   req.Frame,
		Source: domain.DefaultSource,
	})
	if err != nil {
		c.Error(apperrors.NewInvalidInputError("undecodable frame"))
		return
	}

	isFake, confidence := singleShotVerdict(res)
	c.JSON(http.StatusOK, detectResponse{
		IsFake:       isFake,
		Confidence:   confidence,
		Message:      res.Message,
		FaceDetected: res.Detected,
		Timestamp:    utils.FormatTimestamp(time.Now()),
	})
}

func (h *DetectHandler) DetectAudio(c *gin.Context) {
	var req detectAudioRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.scorer.Score(c.Request.Context(), domain.FramePayload{
		Data:   req.Audio,
		Source: domain.DefaultSource,
	})
	if err != nil {
		c.Error(apperrors.NewInvalidInputError("undecodable audio"))
		return
	}

	isFake, confidence := singleShotVerdict(res)
	c.JSON(http.StatusOK, detectAudioResponse{
		IsFake:     isFake,
		Confidence: confidence,
		Message:    res.Message,
		Timestamp:  utils.FormatTimestamp(time.Now()),
	})
}

// singleShotVerdict classifies one raw score with the same strictness
// the streaming smoother applies to a whole history, reporting
// confidence in the predicted class.
func singleShotVerdict(res domain.ScoreResult) (bool, float64) {
	if !res.Detected {
		return false, 0
	}
	isFake := res.RawScore >= services.DeepfakeStrictness
	if isFake {
		return true, math.Min(0.99, res.RawScore)
	}
	return false, math.Min(0.99, 1.0-res.RawScore)
}
