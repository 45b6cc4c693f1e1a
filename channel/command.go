package channel

import (
	"sync"

	"github.com/google/uuid"
	"github.com/nodewire/rediskit/resp"
)

// Command is a single request submitted to a Channel: its serialized
// wire bytes (frozen once constructed), a single-assignment slot for the
// response frame, an error slot, and a completion signal. Per spec.md
// §3, a Command is created by a caller, enqueued, consumed exactly once
// by the owning Channel's I/O loop, and then discarded.
type Command struct {
	// ID is a unique identifier stamped when the command is built;
	// slow-log records do not carry it.
	ID string

	// Name is the command's method name (e.g. "GET", "ZADD"), used only
	// for observability — it plays no role in wire framing.
	Name string

	// Payload is the already-RESP-encoded command; frozen at
	// construction, never mutated afterward.
	Payload []byte

	once sync.Once
	done chan struct{}

	mu     sync.Mutex
	result resp.Data
	err    error
}

// NewCommand builds a Command ready for Channel.Send. payload must
// already be RESP-encoded (see resp.Encode); Command itself has no
// opinion about framing.
func NewCommand(name string, payload []byte) *Command {
	return &Command{
		ID:      uuid.NewString(),
		Name:    name,
		Payload: payload,
		done:    make(chan struct{}),
	}
}

// complete resolves the command exactly once; subsequent calls are
// no-ops. This is the single place a Command transitions from pending to
// resolved, whether by the I/O loop delivering a frame, a close()
// draining it, or (conceptually) a timeout racing a late response — a
// timed-out Command is never removed from the FIFO, so it may still be
// completed once by the loop after its caller has already given up.
func (c *Command) complete(result resp.Data, err error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.result, c.err = result, err
		c.mu.Unlock()
		close(c.done)
	})
}

// Done returns the channel that closes once this Command has been
// resolved, for callers that want to select on it directly alongside a
// timeout or context.
func (c *Command) Done() <-chan struct{} {
	return c.done
}

// Result returns the resolved frame and error. Calling it before Done()
// has fired yields the zero Data and a nil error — callers must wait on
// Done() (or Channel.Send's own timeout handling) first.
func (c *Command) Result() (resp.Data, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.err
}
