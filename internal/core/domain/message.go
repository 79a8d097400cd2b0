package domain

import "encoding/json"

// Signaling message types understood by the router. Offer, answer and
// ice-candidate payloads are opaque: they are relayed verbatim with only
// fromPeerId injected.
const (
	MessageTypeJoin         = "join"
	MessageTypeOffer        = "offer"
	MessageTypeAnswer       = "answer"
	MessageTypeICECandidate = "ice-candidate"

	MessageTypeJoined     = "joined"
	MessageTypePeerJoined = "peer-joined"
	MessageTypePeerLeft   = "peer-left"
	MessageTypeError      = "error"
)

// SignalEnvelope carries the fields the router needs to dispatch an
// inbound message. The rest of the body stays in the raw bytes.
type SignalEnvelope struct {
	Type         string `json:"type"`
	MeetingID    string `json:"meetingId"`
	TargetPeerID string `json:"targetPeerId"`
}

type JoinedMessage struct {
	Type             string   `json:"type"`
	PeerID           PeerID   `json:"peerId"`
	ExistingPeers    []PeerID `json:"existingPeers"`
	ParticipantCount int      `json:"participantCount"`
}

type PeerJoinedMessage struct {
	Type             string `json:"type"`
	PeerID           PeerID `json:"peerId"`
	ParticipantCount int    `json:"participantCount"`
}

type PeerLeftMessage struct {
	Type             string `json:"type"`
	PeerID           PeerID `json:"peerId"`
	ParticipantCount int    `json:"participantCount"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// EncodeJoined builds the confirmation sent to a joining session.
// ExistingPeers marshals as an empty array, never null.
func EncodeJoined(peerID PeerID, existing []PeerID, count int) []byte {
	if existing == nil {
		existing = []PeerID{}
	}
	b, _ := json.Marshal(JoinedMessage{
		Type:             MessageTypeJoined,
		PeerID:           peerID,
		ExistingPeers:    existing,
		ParticipantCount: count,
	})
	return b
}

// EncodePeerJoined builds the notification fanned out to existing members.
func EncodePeerJoined(peerID PeerID, count int) []byte {
	b, _ := json.Marshal(PeerJoinedMessage{
		Type:             MessageTypePeerJoined,
		PeerID:           peerID,
		ParticipantCount: count,
	})
	return b
}

// EncodePeerLeft builds the notification fanned out after a departure.
func EncodePeerLeft(peerID PeerID, count int) []byte {
	b, _ := json.Marshal(PeerLeftMessage{
		Type:             MessageTypePeerLeft,
		PeerID:           peerID,
		ParticipantCount: count,
	})
	return b
}

// EncodeError builds an error reply scoped to the sender.
func EncodeError(message string) []byte {
	b, _ := json.Marshal(ErrorMessage{
		Type:    MessageTypeError,
		Message: message,
	})
	return b
}
