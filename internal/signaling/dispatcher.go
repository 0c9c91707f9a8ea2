package signaling

import (
	"log/slog"

	"signal-relay/internal/metrics"
)

// HandlerFunc handles one decoded inbound message. Exactly one handler runs
// per frame; handlers never re-dispatch.
type HandlerFunc func(src Conn, msg Message)

// Dispatcher decodes inbound frames and routes them to the handler registered
// for their type. Frames that fail to decode and types with no handler are
// dropped with a diagnostic; the source connection is never closed or
// answered with an error for either.
type Dispatcher struct {
	channel  Kind
	handlers map[string]HandlerFunc
	log      *slog.Logger
	metrics  *metrics.Metrics
}

func NewDispatcher(channel Kind, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		channel:  channel,
		handlers: make(map[string]HandlerFunc),
		log:      logger,
		metrics:  m,
	}
}

// Handle registers the handler for msgType, replacing any previous one.
func (d *Dispatcher) Handle(msgType string, h HandlerFunc) {
	d.handlers[msgType] = h
}

func (d *Dispatcher) Dispatch(src Conn, data []byte) {
	msg, err := Decode(data)
	if err != nil {
		d.metrics.Inc(metrics.DecodeError)
		d.log.Warn("dropping undecodable frame",
			"channel", d.channel,
			"conn_id", src.ID(),
			"err", err,
		)
		return
	}

	handler, ok := d.handlers[msg.Type]
	if !ok {
		d.metrics.Inc(metrics.UnknownType)
		d.log.Warn("dropping message of unknown type",
			"channel", d.channel,
			"type", msg.Type,
			"conn_id", src.ID(),
		)
		return
	}

	handler(src, msg)
}
