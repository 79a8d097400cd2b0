package signal

import (
	"context"
	"encoding/json"
	"errors"

	"veristream/internal/core/domain"
	"veristream/internal/core/ports"
	"veristream/pkg/tracing"
	"veristream/pkg/validation"

	"go.uber.org/zap"
)

// MessageRouter dispatches inbound signaling messages for one session.
// Join feedback goes back to the sender; offer, answer and ice-candidate
// are relayed to the meeting they name with fromPeerId stamped in, and
// failures on the relay path are dropped silently so one peer's mistakes
// never disturb the rest of the room.
type MessageRouter struct {
	registry ports.RoomRegistry
	metrics  Metrics
	logger   *zap.SugaredLogger
}

func NewMessageRouter(registry ports.RoomRegistry, metrics Metrics, logger *zap.SugaredLogger) *MessageRouter {
	return &MessageRouter{
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

func (r *MessageRouter) Route(ctx context.Context, session *domain.Session, raw []byte) {
	var env domain.SignalEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		session.Enqueue(domain.EncodeError("Invalid payload"))
		return
	}

	if r.metrics != nil {
		r.metrics.RecordSignalMessage(env.Type)
	}

	ctx, span := tracing.TraceSignalMessage(ctx, env.Type, string(session.ID))
	defer span.End()

	switch env.Type {
	case domain.MessageTypeJoin:
		r.handleJoin(ctx, session, env)
	case domain.MessageTypeOffer, domain.MessageTypeAnswer, domain.MessageTypeICECandidate:
		r.relay(ctx, session, env, raw)
	default:
		// Unknown types are dropped without feedback.
		r.logger.Debugw("ignoring unknown message type",
			"peer_id", session.ID, "type", env.Type)
	}
}

func (r *MessageRouter) handleJoin(ctx context.Context, session *domain.Session, env domain.SignalEnvelope) {
	if env.MeetingID == "" {
		session.Enqueue(domain.EncodeError("Meeting ID required"))
		return
	}
	if err := validation.ValidateMeetingID(env.MeetingID); err != nil {
		session.Enqueue(domain.EncodeError("Invalid meeting ID"))
		return
	}

	meetingID := domain.MeetingID(env.MeetingID)
	res, err := r.registry.Join(ctx, meetingID, session)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyJoined):
			session.Enqueue(domain.EncodeError("Already joined"))
		case errors.Is(err, domain.ErrMeetingRequired):
			session.Enqueue(domain.EncodeError("Meeting ID required"))
		default:
			r.logger.Warnw("join failed",
				"peer_id", session.ID, "meeting_id", meetingID, "error", err)
			session.Enqueue(domain.EncodeError("Join failed"))
		}
		return
	}

	tracing.AddSpanAttributes(ctx, tracing.MeetingIDKey.String(string(meetingID)))
	session.Enqueue(domain.EncodeJoined(session.ID, res.ExistingPeers, res.ParticipantCount))

	r.logger.Infow("peer joined meeting",
		"peer_id", session.ID,
		"meeting_id", meetingID,
		"participant_count", res.ParticipantCount,
	)
}

// relay forwards the raw message to the meeting named in the message
// itself. Senders do not have to be members; the room just has to exist.
func (r *MessageRouter) relay(ctx context.Context, session *domain.Session, env domain.SignalEnvelope, raw []byte) {
	if env.MeetingID == "" {
		r.logger.Debugw("dropping relay message without meeting",
			"peer_id", session.ID, "type", env.Type)
		return
	}

	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		session.Enqueue(domain.EncodeError("Invalid payload"))
		return
	}
	// The sender never chooses its own fromPeerId.
	body["fromPeerId"] = string(session.ID)
	stamped, err := json.Marshal(body)
	if err != nil {
		return
	}

	meetingID := domain.MeetingID(env.MeetingID)
	delivered, err := r.registry.Relay(ctx, meetingID, session.ID, domain.PeerID(env.TargetPeerID), stamped)
	if err != nil {
		r.logger.Debugw("relay dropped", "peer_id", session.ID,
			"meeting_id", meetingID, "type", env.Type, "error", err)
		return
	}
	if r.metrics != nil {
		r.metrics.RecordRelay(delivered)
	}
}

// Disconnect removes the session from its room and notifies the
// remaining members.
func (r *MessageRouter) Disconnect(ctx context.Context, session *domain.Session) {
	res := r.registry.Leave(ctx, session)
	if res.Removed {
		r.logger.Infow("peer left meeting",
			"peer_id", session.ID,
			"meeting_id", res.MeetingID,
			"participant_count", res.ParticipantCount,
		)
	}
}
