package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// PeerIDBytes is the number of random bytes behind a wire-visible peer id.
// Four bytes encode to the 8 hex characters clients see.
const PeerIDBytes = 4

// GeneratePeerID generates the random token assigned to a session at
// connection accept. Uniqueness among live sessions is checked by the
// caller against the room registry.
func GeneratePeerID() string {
	b := make([]byte, PeerIDBytes)
	rand.Read(b)
	return hex.EncodeToString(b)
}
