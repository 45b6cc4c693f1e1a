package channel

import (
	"fmt"
	"time"

	"github.com/nodewire/rediskit/resp"
)

// runLoop is the Channel's single I/O loop: the sole reader and sole
// writer of its socket, never running concurrently with itself
// (spec.md §4.3/§5). It exits the moment the Channel's context is
// canceled (by close()) or the socket produces an error.
func (c *Channel) runLoop() {
	defer c.loopWG.Done()

	for {
		cmd, ok := c.waitForCommand()
		if !ok {
			return
		}

		if cmd != nil {
			if err := c.writeCommand(cmd); err != nil {
				c.close(err)
				return
			}
			c.drainQueuedWrites()
		}

		if !c.merge.empty() {
			if err := c.flushMerge(); err != nil {
				c.close(err)
				return
			}
		}

		if err := c.readResponses(); err != nil {
			c.close(err)
			return
		}
	}
}

// waitForCommand blocks for at most the heartbeat interval waiting on
// the send-queue (spec.md §4.3 step 1). If it times out and heartbeats
// are enabled, it synthesizes a PING and returns (nil, true) so the
// caller proceeds straight to flushing/reading. The second return value
// is false only when the Channel's context has been canceled.
func (c *Channel) waitForCommand() (*Command, bool) {
	if c.cfg.PingPeriod <= 0 {
		select {
		case cmd := <-c.sendQueue:
			return cmd, true
		case <-c.ctx.Done():
			return nil, false
		}
	}

	timer := time.NewTimer(c.cfg.PingPeriod)
	defer timer.Stop()
	select {
	case cmd := <-c.sendQueue:
		return cmd, true
	case <-timer.C:
		c.heartbeat()
		return nil, true
	case <-c.ctx.Done():
		return nil, false
	}
}

// drainQueuedWrites merges in any further commands already sitting in
// the send-queue without blocking, so a burst of small commands gets
// coalesced into the same flush (spec.md §4.3's no-starvation
// guarantee) instead of round-tripping one at a time.
func (c *Channel) drainQueuedWrites() {
	for {
		select {
		case next := <-c.sendQueue:
			if err := c.writeCommand(next); err != nil {
				c.close(err)
				return
			}
		default:
			return
		}
	}
}

// writeCommand implements spec.md §4.3 steps 2-3: a payload at or above
// the send-buffer capacity bypasses the merge buffer entirely (so one
// large command can never be held hostage behind a backlog, and vice
// versa); anything smaller is merged, flushing first if it doesn't
// currently fit.
func (c *Channel) writeCommand(cmd *Command) error {
	if len(cmd.Payload) >= c.cfg.SendBufferBytes {
		if err := c.flushMerge(); err != nil {
			return err
		}
		c.pushInFlight(cmd)
		_, err := c.conn.Write(cmd.Payload)
		return err
	}

	if !c.merge.fits(cmd.Payload) {
		if err := c.flushMerge(); err != nil {
			return err
		}
		if !c.merge.fits(cmd.Payload) {
			// Can only happen if SendBufferBytes is misconfigured smaller
			// than a single valid command payload; spec.md §4.3 calls
			// this a bug that must fail loudly rather than silently
			// desync the FIFO.
			panic(fmt.Sprintf("rediskit: payload of %d bytes cannot fit empty merge buffer of capacity %d", len(cmd.Payload), c.cfg.SendBufferBytes))
		}
	}

	c.merge.append(cmd.Payload)
	c.pushInFlight(cmd)
	return nil
}

func (c *Channel) flushMerge() error {
	if c.merge.empty() {
		return nil
	}
	_, err := c.conn.Write(c.merge.bytes())
	c.merge.reset()
	return err
}

func (c *Channel) pushInFlight(cmd *Command) {
	c.inFlightMu.Lock()
	c.inFlight = append(c.inFlight, cmd)
	c.inFlightMu.Unlock()
}

func (c *Channel) inFlightLen() int {
	c.inFlightMu.Lock()
	defer c.inFlightMu.Unlock()
	return len(c.inFlight)
}

func (c *Channel) popInFlight() *Command {
	c.inFlightMu.Lock()
	defer c.inFlightMu.Unlock()
	if len(c.inFlight) == 0 {
		return nil
	}
	cmd := c.inFlight[0]
	c.inFlight = c.inFlight[1:]
	return cmd
}

// readResponses implements spec.md §4.3 step 5: while the in-flight FIFO
// is non-empty, read exactly one frame and hand it to the head Command.
// The FIFO is the sole source of truth for which command a given
// response belongs to; a nil (EOF) read closes the channel.
func (c *Channel) readResponses() error {
	for c.inFlightLen() > 0 {
		data, err := resp.ReadData(c.reader)
		if err != nil {
			return err
		}
		cmd := c.popInFlight()
		if cmd == nil {
			// Can't happen: inFlightLen() > 0 was just observed and only
			// this goroutine pops. Guard anyway rather than panic on a
			// nil dereference below.
			continue
		}
		cmd.complete(data, nil)
	}
	return nil
}

// heartbeat synthesizes a PING, writes it immediately (bypassing normal
// batching so it isn't delayed behind the next real command), and hands
// off the 5-second PONG deadline to a separate watcher goroutine. The
// loop itself still waits in readResponses for the reply before it
// dequeues further sends; if no reply comes in time, the watcher closes
// the channel, which ends that wait (spec.md §9).
func (c *Channel) heartbeat() {
	cmd := NewCommand("PING", resp.EncodeStrings("PING"))
	if err := c.writeCommand(cmd); err != nil {
		c.close(err)
		return
	}
	if err := c.flushMerge(); err != nil {
		c.close(err)
		return
	}
	go c.watchHeartbeat(cmd)
}

// watchHeartbeat waits up to 5 seconds (spec.md §4.3 step 1) for cmd to
// resolve as a PONG SimpleString; any mismatch, timeout, or error closes
// the channel. It never touches the socket itself — the loop's normal
// readResponses path is what actually resolves cmd.
func (c *Channel) watchHeartbeat(cmd *Command) {
	select {
	case <-cmd.Done():
		data, err := cmd.Result()
		if err != nil {
			c.close(fmt.Errorf("heartbeat failed: %w", err))
			return
		}
		if data.Type != resp.SimpleString || data.Str != "PONG" {
			c.close(fmt.Errorf("heartbeat failed: unexpected reply %v", data))
			return
		}
	case <-time.After(heartbeatPongTimeout):
		c.close(fmt.Errorf("heartbeat timed out waiting for PONG"))
	case <-c.ctx.Done():
	}
}
