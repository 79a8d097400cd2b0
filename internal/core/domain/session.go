package domain

import (
	"sync"
	"time"
)

type PeerID string
type MeetingID string

// Session represents one live signaling connection. It is created at
// connection accept, before any message is processed, and destroyed when
// the connection closes. The outbound channel is drained exclusively by
// the connection's writer; other goroutines may only enqueue onto it.
type Session struct {
	ID     PeerID
	ConnID string
	Joined time.Time

	outbound  chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession creates a session handle with an outbound queue of the given
// capacity.
func NewSession(id PeerID, connID string, bufferSize int) *Session {
	return &Session{
		ID:       id,
		ConnID:   connID,
		Joined:   time.Now(),
		outbound: make(chan []byte, bufferSize),
		done:     make(chan struct{}),
	}
}

// Enqueue offers a pre-encoded message to the session's outbound queue
// without blocking. It reports false when the session is closed or the
// queue is full; callers treat that as a best-effort delivery failure.
func (s *Session) Enqueue(msg []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.outbound <- msg:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

// Outbound exposes the queue drained by the connection writer.
func (s *Session) Outbound() <-chan []byte {
	return s.outbound
}

// Close marks the session dead. Safe to call more than once; enqueues
// after Close are rejected.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Done is closed when the session has been shut down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
