package signaling

import (
	"log/slog"
	"sync"

	"signal-relay/internal/metrics"
	"signal-relay/internal/registry"
)

type Kind string

const (
	KindPresence Kind = "presence"
	KindCall     Kind = "call"
)

// Channel binds a registry and a dispatcher (plus, for the presence channel,
// a broadcaster) to the connection-lifecycle contract: HandleOpen,
// HandleMessage, HandleClose. Each channel owns its registry; the two
// channels are fully independent.
type Channel struct {
	kind        Kind
	reg         *registry.Registry
	dispatcher  *Dispatcher
	broadcaster *Broadcaster
	log         *slog.Logger
	metrics     *metrics.Metrics

	// bound tracks which user identifier each connection registered under so
	// close notifications can remove exactly that entry.
	mu    sync.Mutex
	bound map[Conn]string
}

func newChannel(kind Kind, reg *registry.Registry, logger *slog.Logger, m *metrics.Metrics) *Channel {
	if m == nil {
		m = metrics.New()
	}
	return &Channel{
		kind:    kind,
		reg:     reg,
		log:     logger,
		metrics: m,
		bound:   make(map[Conn]string),
	}
}

// NewPresenceChannel builds the /list channel: registration, presence
// broadcast, chat relay, and call-initiation relay.
func NewPresenceChannel(reg *registry.Registry, logger *slog.Logger, m *metrics.Metrics) *Channel {
	c := newChannel(KindPresence, reg, logger, m)
	c.broadcaster = NewBroadcaster(reg, logger, c.metrics)

	d := NewDispatcher(KindPresence, logger, c.metrics)
	d.Handle(TypeAddUser, c.handleAddUser)
	d.Handle(TypeChat, c.handleChat)
	d.Handle(TypeCallRequest, c.handleCallRequest)
	d.Handle(TypeCallAccepted, c.handleCallAccepted)
	d.Handle(TypeCallRejected, c.handleCallRejected)
	c.dispatcher = d
	return c
}

// NewCallChannel builds the /call channel: WebRTC offer/answer/candidate and
// endCall relay for an already-agreed call.
func NewCallChannel(reg *registry.Registry, logger *slog.Logger, m *metrics.Metrics) *Channel {
	c := newChannel(KindCall, reg, logger, m)

	d := NewDispatcher(KindCall, logger, c.metrics)
	d.Handle(TypeOffer, c.handleOffer)
	d.Handle(TypeAnswer, c.handleAnswer)
	d.Handle(TypeCandidate, c.handleCandidate)
	d.Handle(TypeEndCall, c.handleEndCall)
	c.dispatcher = d
	return c
}

func (c *Channel) Kind() Kind { return c.kind }

// Registry exposes the channel's registry for wiring and tests.
func (c *Channel) Registry() *registry.Registry { return c.reg }

// HandleOpen registers the connection under userID (the `user` query
// parameter; may be empty) and, on the presence channel, re-broadcasts the
// user list.
func (c *Channel) HandleOpen(conn Conn, userID string) {
	c.metrics.Inc(metrics.ConnectionOpened)
	c.log.Info("connection established",
		"channel", c.kind,
		"conn_id", conn.ID(),
		"user", userID,
	)

	if userID == "" {
		return
	}
	c.bind(conn, userID)
	if c.broadcaster != nil {
		c.broadcaster.BroadcastAll()
	}
}

// HandleMessage dispatches one inbound frame from conn.
func (c *Channel) HandleMessage(conn Conn, data []byte) {
	c.dispatcher.Dispatch(conn, data)
}

// HandleClose removes the connection's registration (if any) and, on the
// presence channel, re-broadcasts the user list.
func (c *Channel) HandleClose(conn Conn) {
	c.mu.Lock()
	userID, wasBound := c.bound[conn]
	delete(c.bound, conn)
	c.mu.Unlock()

	c.metrics.Inc(metrics.ConnectionClosed)
	if !wasBound {
		return
	}

	c.reg.RemoveConn(userID, conn)
	c.log.Info("user disconnected",
		"channel", c.kind,
		"user", userID,
		"conn_id", conn.ID(),
	)
	if c.broadcaster != nil {
		c.broadcaster.BroadcastAll()
	}
}

func (c *Channel) bind(conn Conn, userID string) {
	c.reg.Put(userID, conn)
	c.mu.Lock()
	c.bound[conn] = userID
	c.mu.Unlock()
}
