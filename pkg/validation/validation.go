package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// MeetingIDRegex validates meeting ID format
	MeetingIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// PeerIDRegex validates peer ID format (8 lowercase hex characters)
	PeerIDRegex = regexp.MustCompile(`^[0-9a-f]{8}$`)

	// SourceRegex validates score source labels
	SourceRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// ValidateMeetingID validates a caller-supplied meeting identifier.
func ValidateMeetingID(meetingID string) error {
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return fmt.Errorf("meeting ID is required")
	}
	if len(meetingID) > 100 {
		return fmt.Errorf("meeting ID is too long (max 100 characters)")
	}
	if !MeetingIDRegex.MatchString(meetingID) {
		return fmt.Errorf("meeting ID may only contain letters, digits, '-' and '_'")
	}
	return nil
}

// ValidatePeerID validates a wire-visible peer identifier.
func ValidatePeerID(peerID string) error {
	if peerID == "" {
		return fmt.Errorf("peer ID is required")
	}
	if !PeerIDRegex.MatchString(peerID) {
		return fmt.Errorf("invalid peer ID format")
	}
	return nil
}

// ValidateSource validates a caller-declared score source label.
func ValidateSource(source string) error {
	if source == "" {
		return fmt.Errorf("source is required")
	}
	if len(source) > 64 {
		return fmt.Errorf("source is too long (max 64 characters)")
	}
	if !SourceRegex.MatchString(source) {
		return fmt.Errorf("source may only contain letters, digits, '.', '-' and '_'")
	}
	return nil
}
