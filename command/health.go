package command

import "context"

// Health exposes spec.md §6.1's health family: PING, used by callers
// (distinct from the Channel-internal PING heartbeat in package channel,
// which never goes through the command layer or its observability).
type Health struct {
	ex *Executor
}

// NewHealth builds a Health façade over ex.
func NewHealth(ex *Executor) *Health { return &Health{ex: ex} }

// Ping sends a PING, dispatched with an empty routing key (so the router
// picks the node), and fails unless the server replies with the
// SimpleString "PONG".
func (h *Health) Ping(ctx context.Context) error {
	data, err := h.ex.call(ctx, "PING", "", true, "PING")
	if err != nil {
		return err
	}
	s, err := asSimpleString("PING", data)
	if err != nil {
		return err
	}
	if s != "PONG" {
		return unexpectedKind("PING", "unexpected reply "+s)
	}
	return nil
}
