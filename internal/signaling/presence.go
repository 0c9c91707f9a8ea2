package signaling

import (
	"encoding/json"
	"log/slog"
	"sort"

	"signal-relay/internal/metrics"
	"signal-relay/internal/registry"
)

// Broadcaster fans the full presence list out to every connection in the
// presence registry. It is triggered on connect, addUser, and disconnect.
type Broadcaster struct {
	reg     *registry.Registry
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewBroadcaster(reg *registry.Registry, logger *slog.Logger, m *metrics.Metrics) *Broadcaster {
	if m == nil {
		m = metrics.New()
	}
	return &Broadcaster{
		reg:     reg,
		log:     logger,
		metrics: m,
	}
}

// BroadcastAll snapshots the registry keys, encodes one userList message, and
// sends the identical bytes to every currently-open connection in the
// snapshot. A connection that closes mid-broadcast is skipped; partial
// delivery is expected, since the next membership change re-broadcasts.
func (b *Broadcaster) BroadcastAll() {
	users := b.reg.SnapshotKeys()
	sort.Strings(users)

	data, err := json.Marshal(userListMessage{
		Type:  TypeUserList,
		Users: users,
	})
	if err != nil {
		b.log.Error("encoding user list failed", "err", err)
		return
	}

	for _, userID := range users {
		conn, ok := b.reg.Get(userID)
		if !ok || !conn.IsOpen() {
			continue
		}
		if err := conn.Send(data); err != nil {
			b.metrics.Inc(metrics.SendFailure)
			b.log.Error("user list send failed", "user", userID, "err", err)
		}
	}

	b.metrics.Inc(metrics.PresenceBroadcast)
	b.log.Debug("user list broadcast", "users", len(users))
}
