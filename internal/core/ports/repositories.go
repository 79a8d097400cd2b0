package ports

import (
	"context"

	"veristream/internal/core/domain"
)

// RoomRegistry is the sole holder of cross-session shared state: the
// mapping from meeting identifiers to the sessions currently joined.
//
// Implementations must make Join ("snapshot existing peers, insert
// member, notify") and Leave ("remove member, notify remaining, delete
// room if empty") atomic with respect to other operations on the same
// room, while operations on different rooms proceed independently.
type RoomRegistry interface {
	// Join adds the session to the room, lazily creating it. The returned
	// ExistingPeers snapshot is taken strictly before the insert.
	// Notifications to existing members are enqueued inside the same
	// critical section.
	Join(ctx context.Context, meetingID domain.MeetingID, session *domain.Session) (domain.JoinResult, error)

	// Leave removes the session from whatever room it is in, notifies the
	// remaining members best-effort, and deletes the room when it becomes
	// empty. Removed is false when the session was not a member anywhere.
	Leave(ctx context.Context, session *domain.Session) domain.LeaveResult

	// Relay enqueues payload to the target member when targetPeerID names
	// a current member, otherwise to every member except the sender.
	// Returns domain.ErrRoomNotFound when the meeting is absent; the
	// caller decides whether that is an error or a silent drop.
	Relay(ctx context.Context, meetingID domain.MeetingID, fromPeerID domain.PeerID, targetPeerID domain.PeerID, payload []byte) (int, error)

	// IsActive reports whether the peer id belongs to a current member of
	// any room. Used for uniqueness verification at id assignment.
	IsActive(ctx context.Context, peerID domain.PeerID) bool

	// RoomInfo answers the synchronous room-status query.
	RoomInfo(ctx context.Context, meetingID domain.MeetingID) domain.RoomInfo
}
