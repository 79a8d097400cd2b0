package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"veristream/internal/core/domain"
	"veristream/internal/core/ports"
	"veristream/pkg/utils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const peerIDAllocRetries = 5

// Options tunes per-connection behavior. Zero values fall back to the
// defaults below.
type Options struct {
	PingInterval time.Duration
	PongTimeout  time.Duration
	// ReadTimeout bounds the wait for the next frame on the analysis
	// endpoint; signaling reads are bounded by PongTimeout instead.
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	MaxMessageSize     int64
	OutboundBufferSize int
}

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 60 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 1024 * 1024
	}
	if o.OutboundBufferSize <= 0 {
		o.OutboundBufferSize = 32
	}
	return o
}

// ConferenceServer terminates signaling WebSocket connections. Each
// connection gets a fresh peer id, a session handle, a writer goroutine
// draining the session queue, and a read loop feeding the router.
type ConferenceServer struct {
	registry ports.RoomRegistry
	router   *MessageRouter
	metrics  Metrics
	opts     Options
	logger   *zap.SugaredLogger
}

func NewConferenceServer(registry ports.RoomRegistry, metrics Metrics, logger *zap.SugaredLogger, opts Options) *ConferenceServer {
	return &ConferenceServer{
		registry: registry,
		router:   NewMessageRouter(registry, metrics, logger),
		metrics:  metrics,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

func (s *ConferenceServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()

	peerID, ok := s.assignPeerID(ctx)
	if !ok {
		s.logger.Errorw("peer id allocation failed", "retries", peerIDAllocRetries)
		return
	}

	session := domain.NewSession(peerID, uuid.NewString(), s.opts.OutboundBufferSize)

	if s.metrics != nil {
		s.metrics.RecordSessionOpened()
	}
	s.logger.Infow("signaling connection opened",
		"peer_id", peerID, "conn_id", session.ConnID, "remote", r.RemoteAddr)

	var cleanup sync.Once
	disconnect := func() {
		cleanup.Do(func() {
			session.Close()
			s.router.Disconnect(context.Background(), session)
			if s.metrics != nil {
				s.metrics.RecordSessionClosed()
			}
			s.logger.Infow("signaling connection closed",
				"peer_id", peerID, "conn_id", session.ConnID)
		})
	}
	defer disconnect()

	// Writer goroutine: sole writer on the connection. The read loop
	// never writes; everything outbound goes through the session queue.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		pingTicker := time.NewTicker(s.opts.PingInterval)
		defer pingTicker.Stop()

		for {
			select {
			case msg := <-session.Outbound():
				conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					s.logger.Debugw("write failed", "peer_id", peerID, "error", err)
					return
				}
			case <-pingTicker.C:
				conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					s.logger.Debugw("ping failed", "peer_id", peerID, "error", err)
					return
				}
			case <-session.Done():
				return
			}
		}
	}()

	conn.SetReadLimit(s.opts.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Infow("read failed", "peer_id", peerID, "error", err)
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
		s.router.Route(ctx, session, raw)
	}

	disconnect()
	<-writerDone
}

// assignPeerID draws random ids until one is not held by a live session.
func (s *ConferenceServer) assignPeerID(ctx context.Context) (domain.PeerID, bool) {
	for i := 0; i < peerIDAllocRetries; i++ {
		id := domain.PeerID(utils.GeneratePeerID())
		if !s.registry.IsActive(ctx, id) {
			return id, true
		}
	}
	return "", false
}
