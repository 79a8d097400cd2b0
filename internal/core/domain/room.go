package domain

// RoomInfo is the synchronous room-status view exposed over HTTP.
// MaxParticipants is advisory metadata only; the relay logic does not
// enforce it.
type RoomInfo struct {
	Exists           bool `json:"exists"`
	ParticipantCount int  `json:"participantCount"`
	MaxParticipants  int  `json:"maxParticipants"`
}

// JoinResult is returned to the joining session. ExistingPeers reflects
// room membership strictly prior to the join and never includes the
// joining peer itself.
type JoinResult struct {
	ExistingPeers    []PeerID
	ParticipantCount int
}

// LeaveResult describes the outcome of removing a session from its room.
type LeaveResult struct {
	MeetingID        MeetingID
	ParticipantCount int
	Removed          bool
}
