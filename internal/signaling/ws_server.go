package signaling

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"signal-relay/internal/config"
	"signal-relay/internal/metrics"
	"signal-relay/internal/registry"
)

// WebSocketServer exposes the two signaling channels as WebSocket endpoints:
//
//   - GET /list : presence channel (identity via the `user` query parameter)
//   - GET /call : call channel
//
// One goroutine per connection runs the read loop; handler bodies execute
// synchronously on it, so per-connection inbound ordering maps directly to
// the relay's processing order.
type WebSocketServer struct {
	cfg config.Config
	log *slog.Logger

	presence *Channel
	call     *Channel

	upgrader websocket.Upgrader
}

func NewWebSocketServer(cfg config.Config, logger *slog.Logger, m *metrics.Metrics) *WebSocketServer {
	if m == nil {
		m = metrics.New()
	}
	return &WebSocketServer{
		cfg:      cfg,
		log:      logger,
		presence: NewPresenceChannel(registry.New(), logger, m),
		call:     NewCallChannel(registry.New(), logger, m),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return cfg.OriginAllowed(r.Header.Get("Origin"))
			},
		},
	}
}

func (s *WebSocketServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /list", s.channelHandler(s.presence))
	mux.HandleFunc("GET /call", s.channelHandler(s.call))
}

func (s *WebSocketServer) Presence() *Channel { return s.presence }
func (s *WebSocketServer) Call() *Channel     { return s.call }

func (s *WebSocketServer) channelHandler(ch *Channel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote an HTTP error response.
			return
		}

		peer := NewPeer(conn, s.cfg.WriteTimeout)
		peer.markOpen()
		defer func() {
			peer.close()
			ch.HandleClose(peer)
		}()

		ch.HandleOpen(peer, r.URL.Query().Get("user"))

		conn.SetReadLimit(s.cfg.MaxMessageBytes)
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType != websocket.TextMessage {
				s.log.Warn("dropping non-text frame",
					"channel", ch.kind,
					"conn_id", peer.ID(),
				)
				continue
			}
			ch.HandleMessage(peer, data)
		}
	}
}
