package registry

import (
	"context"
	"sync"

	"veristream/internal/core/domain"
	"veristream/internal/core/ports"

	"go.uber.org/zap"
)

// Metrics receives room lifecycle events. A nil recorder disables them.
type Metrics interface {
	RecordRoomCreated()
	RecordRoomDeleted()
}

// MemoryRoomRegistry is the single-process, in-memory implementation of
// ports.RoomRegistry. The top-level lock guards only the meeting map and
// the session index; each room carries its own lock, so traffic in one
// meeting never contends with another.
type MemoryRoomRegistry struct {
	mu       sync.Mutex
	rooms    map[domain.MeetingID]*room
	sessions map[domain.PeerID]domain.MeetingID

	maxParticipants int
	metrics         Metrics
	logger          *zap.SugaredLogger
}

type room struct {
	mu      sync.Mutex
	id      domain.MeetingID
	members map[domain.PeerID]*domain.Session
	// Insertion order, for stable iteration during fan-out.
	order []domain.PeerID
	// Set when the last member left and the room is being unlinked;
	// joiners that raced the deletion retry against a fresh room.
	closed bool
}

func NewMemoryRoomRegistry(maxParticipants int, metrics Metrics, logger *zap.SugaredLogger) ports.RoomRegistry {
	return &MemoryRoomRegistry{
		rooms:           make(map[domain.MeetingID]*room),
		sessions:        make(map[domain.PeerID]domain.MeetingID),
		maxParticipants: maxParticipants,
		metrics:         metrics,
		logger:          logger,
	}
}

func (r *MemoryRoomRegistry) Join(ctx context.Context, meetingID domain.MeetingID, session *domain.Session) (domain.JoinResult, error) {
	if meetingID == "" {
		return domain.JoinResult{}, domain.ErrMeetingRequired
	}

	for {
		r.mu.Lock()
		if current, joined := r.sessions[session.ID]; joined {
			r.mu.Unlock()
			if current == meetingID {
				return domain.JoinResult{}, domain.ErrAlreadyJoined
			}
			// A different live session already owns this id.
			return domain.JoinResult{}, domain.ErrPeerIDTaken
		}
		rm, ok := r.rooms[meetingID]
		if !ok {
			rm = &room{
				id:      meetingID,
				members: make(map[domain.PeerID]*domain.Session),
			}
			r.rooms[meetingID] = rm
			if r.metrics != nil {
				r.metrics.RecordRoomCreated()
			}
		}
		r.sessions[session.ID] = meetingID
		r.mu.Unlock()

		rm.mu.Lock()
		if rm.closed {
			rm.mu.Unlock()
			// The last member left while we were between the index claim
			// and the room lock. Undo the claim so the retry does not
			// mistake it for an existing membership, and unlink the dead
			// room if the departing member has not done so yet.
			r.mu.Lock()
			if r.sessions[session.ID] == meetingID {
				delete(r.sessions, session.ID)
			}
			if r.rooms[meetingID] == rm {
				delete(r.rooms, meetingID)
			}
			r.mu.Unlock()
			continue
		}

		// Snapshot membership strictly before inserting the joiner.
		existing := make([]domain.PeerID, len(rm.order))
		copy(existing, rm.order)

		rm.members[session.ID] = session
		rm.order = append(rm.order, session.ID)
		count := len(rm.members)

		// Notify existing members inside the critical section; Enqueue
		// never blocks, so no send-wait is held under the lock.
		notification := domain.EncodePeerJoined(session.ID, count)
		for _, id := range existing {
			if !rm.members[id].Enqueue(notification) {
				r.logger.Warnw("dropped peer-joined notification",
					"meeting_id", meetingID, "peer_id", id)
			}
		}
		rm.mu.Unlock()

		return domain.JoinResult{
			ExistingPeers:    existing,
			ParticipantCount: count,
		}, nil
	}
}

func (r *MemoryRoomRegistry) Leave(ctx context.Context, session *domain.Session) domain.LeaveResult {
	r.mu.Lock()
	meetingID, joined := r.sessions[session.ID]
	if !joined {
		r.mu.Unlock()
		return domain.LeaveResult{}
	}
	delete(r.sessions, session.ID)
	rm, ok := r.rooms[meetingID]
	r.mu.Unlock()
	if !ok {
		return domain.LeaveResult{}
	}

	rm.mu.Lock()
	if _, member := rm.members[session.ID]; !member {
		rm.mu.Unlock()
		return domain.LeaveResult{}
	}
	delete(rm.members, session.ID)
	for i, id := range rm.order {
		if id == session.ID {
			rm.order = append(rm.order[:i], rm.order[i+1:]...)
			break
		}
	}
	count := len(rm.members)

	// Best-effort fan-out: a full queue on one peer never aborts the rest.
	notification := domain.EncodePeerLeft(session.ID, count)
	for _, id := range rm.order {
		if !rm.members[id].Enqueue(notification) {
			r.logger.Warnw("dropped peer-left notification",
				"meeting_id", meetingID, "peer_id", id)
		}
	}

	empty := count == 0
	if empty {
		rm.closed = true
	}
	rm.mu.Unlock()

	if empty {
		r.mu.Lock()
		if r.rooms[meetingID] == rm {
			delete(r.rooms, meetingID)
		}
		r.mu.Unlock()
		if r.metrics != nil {
			r.metrics.RecordRoomDeleted()
		}
		r.logger.Debugw("room deleted", "meeting_id", meetingID)
	}

	return domain.LeaveResult{
		MeetingID:        meetingID,
		ParticipantCount: count,
		Removed:          true,
	}
}

func (r *MemoryRoomRegistry) Relay(ctx context.Context, meetingID domain.MeetingID, fromPeerID domain.PeerID, targetPeerID domain.PeerID, payload []byte) (int, error) {
	r.mu.Lock()
	rm, ok := r.rooms[meetingID]
	r.mu.Unlock()
	if !ok {
		return 0, domain.ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if targetPeerID != "" {
		if target, member := rm.members[targetPeerID]; member {
			if target.Enqueue(payload) {
				return 1, nil
			}
			return 0, nil
		}
	}

	// No target, or the target is gone: broadcast to everyone but the
	// sender.
	delivered := 0
	for _, id := range rm.order {
		if id == fromPeerID {
			continue
		}
		if rm.members[id].Enqueue(payload) {
			delivered++
		} else {
			r.logger.Warnw("dropped relay message",
				"meeting_id", meetingID, "from", fromPeerID, "to", id)
		}
	}
	return delivered, nil
}

func (r *MemoryRoomRegistry) IsActive(ctx context.Context, peerID domain.PeerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[peerID]
	return ok
}

func (r *MemoryRoomRegistry) RoomInfo(ctx context.Context, meetingID domain.MeetingID) domain.RoomInfo {
	r.mu.Lock()
	rm, ok := r.rooms[meetingID]
	r.mu.Unlock()

	info := domain.RoomInfo{MaxParticipants: r.maxParticipants}
	if !ok {
		return info
	}

	rm.mu.Lock()
	info.Exists = true
	info.ParticipantCount = len(rm.members)
	rm.mu.Unlock()
	return info
}
