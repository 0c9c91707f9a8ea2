package metrics

import "sync"

// Event names used by the signaling core. Each maps to one counter.
const (
	DecodeError          = "decode_error"
	UnknownType          = "unknown_type"
	MissingField         = "missing_field"
	RecipientUnreachable = "recipient_unreachable"
	SendFailure          = "send_failure"
	MessageForwarded     = "message_forwarded"
	PresenceBroadcast    = "presence_broadcast"
	ConnectionOpened     = "connection_opened"
	ConnectionClosed     = "connection_closed"
)

// Metrics is a minimal, concurrency-safe counter registry.
//
// A production deployment is expected to scrape these via the Prometheus
// text handler; the in-process registry exists to keep the routing logic
// observable and testable without a metrics backend.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		m: make(map[string]uint64),
	}
}

func (m *Metrics) Inc(name string) {
	m.mu.Lock()
	if m.m == nil {
		m.m = make(map[string]uint64)
	}
	m.m[name]++
	m.mu.Unlock()
}

func (m *Metrics) Add(name string, delta uint64) {
	m.mu.Lock()
	if m.m == nil {
		m.m = make(map[string]uint64)
	}
	m.m[name] += delta
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

// Snapshot returns a point-in-time copy of all counters.
func (m *Metrics) Snapshot() map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[string]uint64, len(m.m))
	for k, v := range m.m {
		snap[k] = v
	}
	return snap
}
