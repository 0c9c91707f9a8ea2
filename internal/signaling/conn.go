package signaling

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"signal-relay/internal/registry"
)

// ErrConnClosed is returned by Send on a connection that has left the OPEN
// state.
var ErrConnClosed = errors.New("connection closed")

// Conn is one live client connection as seen by the channels.
type Conn interface {
	registry.Conn

	// ID is a per-connection identifier used only for log correlation; it is
	// unrelated to the client-asserted user identifier.
	ID() string
}

type peerState int32

const (
	peerConnecting peerState = iota
	peerOpen
	peerClosed
)

// Peer wraps one WebSocket connection. Its lifecycle is a straight
// CONNECTING -> OPEN -> CLOSED progression driven by the transport: markOpen
// after the upgrade succeeds, close when the read loop ends. Sends are
// serialized so concurrent handlers targeting the same recipient keep one
// write in flight at a time.
type Peer struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration

	state     atomic.Int32
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func NewPeer(conn *websocket.Conn, writeTimeout time.Duration) *Peer {
	return &Peer{
		id:           uuid.NewString(),
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (p *Peer) ID() string { return p.id }

func (p *Peer) IsOpen() bool {
	return peerState(p.state.Load()) == peerOpen
}

func (p *Peer) Send(data []byte) error {
	if !p.IsOpen() {
		return ErrConnClosed
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout))
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

func (p *Peer) markOpen() {
	p.state.CompareAndSwap(int32(peerConnecting), int32(peerOpen))
}

// close is terminal; a reconnecting client gets a brand-new Peer.
func (p *Peer) close() {
	p.closeOnce.Do(func() {
		p.state.Store(int32(peerClosed))
		_ = p.conn.Close()
	})
}
