package domain

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrPeerNotFound    = errors.New("peer not found")
	ErrMeetingRequired = errors.New("meeting ID required")
	ErrPeerIDTaken     = errors.New("peer ID already in use")
	ErrAlreadyJoined   = errors.New("session already joined a room")
	ErrSessionClosed   = errors.New("session closed")
)
