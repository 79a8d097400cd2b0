package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"veristream/internal/core/domain"
	"veristream/internal/core/ports"
	"veristream/pkg/tracing"
	"veristream/pkg/utils"
	"veristream/pkg/validation"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const badPayloadConfidence = 0.99

// frameRequest is one inbound analysis message. Frame and Data are
// aliases; clients use either. SentAt is a millisecond Unix timestamp.
type frameRequest struct {
	Frame  string `json:"frame"`
	Data   string `json:"data"`
	Source string `json:"source"`
	SentAt int64  `json:"sentAt"`
}

// AnalysisServer terminates frame-analysis WebSocket connections. The
// protocol is strictly request/response: one verdict out per frame in,
// on the same connection, in order. The connection goroutine owns the
// socket exclusively, so no writer goroutine is needed.
type AnalysisServer struct {
	scorer   ports.Scorer
	smoother ports.Smoother
	metrics  Metrics
	opts     Options
	logger   *zap.SugaredLogger
}

func NewAnalysisServer(scorer ports.Scorer, smoother ports.Smoother, metrics Metrics, logger *zap.SugaredLogger, opts Options) *AnalysisServer {
	return &AnalysisServer{
		scorer:   scorer,
		smoother: smoother,
		metrics:  metrics,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

func (s *AnalysisServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.RecordAnalysisOpened()
		defer s.metrics.RecordAnalysisClosed()
	}
	s.logger.Infow("analysis connection opened", "remote", r.RemoteAddr)
	defer s.logger.Infow("analysis connection closed", "remote", r.RemoteAddr)

	ctx := r.Context()
	conn.SetReadLimit(s.opts.MaxMessageSize)

	for {
		conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Infow("read failed", "error", err)
			}
			return
		}

		verdict := s.analyze(ctx, raw)

		conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
		if err := conn.WriteJSON(verdict); err != nil {
			s.logger.Debugw("write failed", "error", err)
			return
		}
	}
}

// analyze scores one raw message and always produces a verdict. Unlike
// the relay path, undecodable input here is treated as suspicious rather
// than dropped.
func (s *AnalysisServer) analyze(ctx context.Context, raw []byte) domain.Verdict {
	started := time.Now()

	var req frameRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return s.record(badPayloadVerdict(), started)
	}

	data := req.Frame
	if data == "" {
		data = req.Data
	}
	// Source keys land in the smoother's per-source map; anything
	// unusable collapses onto the shared default history.
	source := req.Source
	if source == "" || validation.ValidateSource(source) != nil {
		source = domain.DefaultSource
	}

	ctx, span := tracing.TraceFrameAnalysis(ctx, source)
	defer span.End()

	payload := domain.FramePayload{
		Data:   data,
		Source: source,
	}
	if req.SentAt > 0 {
		payload.SentAt = time.UnixMilli(req.SentAt)
	}

	res, err := s.scorer.Score(ctx, payload)
	if err != nil {
		tracing.RecordError(ctx, err)
		s.logger.Debugw("frame rejected", "source", source, "error", err)
		return s.record(badPayloadVerdict(), started)
	}

	if !res.Detected {
		// Nothing to classify; the verdict bypasses the smoother so the
		// source history keeps only frames with actual content.
		return s.record(domain.Verdict{
			IsFake:       false,
			Confidence:   0,
			AlertMsg:     res.Message,
			FaceDetected: false,
			Timestamp:    utils.FormatTimestamp(time.Now()),
		}, started)
	}

	smoothed := s.smoother.Update(source, res.RawScore)
	tracing.AddSpanAttributes(ctx, tracing.VerdictKey.Bool(smoothed.IsFake))
	return s.record(domain.Verdict{
		IsFake:       smoothed.IsFake,
		Confidence:   smoothed.DisplayConfidence,
		AlertMsg:     res.Message,
		FaceDetected: true,
		Timestamp:    utils.FormatTimestamp(time.Now()),
	}, started)
}

func (s *AnalysisServer) record(v domain.Verdict, started time.Time) domain.Verdict {
	if s.metrics != nil {
		s.metrics.RecordFrameAnalyzed(v.IsFake, time.Since(started))
	}
	return v
}

func badPayloadVerdict() domain.Verdict {
	return domain.Verdict{
		IsFake:       true,
		Confidence:   badPayloadConfidence,
		AlertMsg:     "Bad payload",
		FaceDetected: false,
		Timestamp:    utils.FormatTimestamp(time.Now()),
	}
}
