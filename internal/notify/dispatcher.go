package notify

import (
	"encoding/json"
	"log/slog"
)

// Dispatcher turns raw stream frames into typed notifications and routes
// them: persistent ones into the cache, call alerts onto the transient side
// channel. Decode failures drop the offending frame only, the stream stays up.

// envelope is the outer frame shape
type envelope struct {
	Type         string            `json:"type"`
	Notification *wireNotification `json:"notification"`
}

const callAlertBuffer = 4

// Dispatcher decodes and classifies inbound frames
type Dispatcher struct {
	cache  *Cache
	calls  chan CallAlert
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher feeding the given cache
func NewDispatcher(cache *Cache, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		cache:  cache,
		calls:  make(chan CallAlert, callAlertBuffer),
		logger: logger,
	}
}

// Calls is the transient side channel for incoming-call alerts. Alerts are
// dropped when nobody is listening: they have no lifecycle beyond immediate
// delivery.
func (d *Dispatcher) Calls() <-chan CallAlert {
	return d.calls
}

// HandleFrame processes one raw text frame from the stream
func (d *Dispatcher) HandleFrame(frame []byte) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		d.logger.Warn("dropping malformed frame",
			"error", err.Error(),
		)
		return
	}
	if env.Type != "notification" || env.Notification == nil {
		d.logger.Debug("ignoring frame",
			"type", env.Type,
		)
		return
	}

	n, err := env.Notification.decode()
	if err != nil {
		d.logger.Warn("dropping undecodable notification",
			"id", env.Notification.ID,
			"error", err.Error(),
		)
		return
	}

	d.cache.IngestRealtime(n)

	if n.Payload.Kind == KindCall {
		alert := CallAlert{
			From:       n.Payload.From,
			RoomID:     n.Payload.RoomID,
			CallID:     n.Payload.CallID,
			CallStatus: n.Payload.CallStatus,
		}
		select {
		case d.calls <- alert:
		default:
			// no listener, drop
		}
	}
}
