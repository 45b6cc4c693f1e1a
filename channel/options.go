package channel

import (
	"crypto/tls"
	"time"

	"github.com/nodewire/rediskit/logging"
)

// Config holds every caller-visible Channel option from spec.md §6.2.
// Zero values are replaced with the documented defaults by Dial.
type Config struct {
	// Timeout bounds how long Send waits for a response (default 5s).
	Timeout time.Duration

	// ConnectTimeout bounds the initial TCP dial (default 3s).
	ConnectTimeout time.Duration

	// PingPeriod is the heartbeat interval; <=0 disables heartbeats
	// (default 30s).
	PingPeriod time.Duration

	// SendBufferBytes is the merge-buffer capacity (default 64KiB).
	SendBufferBytes int

	// ReceiveBufferBytes sizes the buffered reader (default 64KiB).
	ReceiveBufferBytes int

	// KeepAlive enables TCP keep-alives on the dialed socket.
	KeepAlive bool

	// TLSConfig, if set, upgrades the dial to TLS. TLS/AUTH handshakes
	// themselves are out of spec.md's scope; this hook is where an
	// implementer wires them in (spec.md §1 Non-goals).
	TLSConfig *tls.Config

	// Logger receives lifecycle, heartbeat, and close diagnostics.
	Logger logging.Logger

	// OnUnusable is invoked at most once, from its own goroutine, after
	// this Channel has transitioned to Closed, its I/O loop has exited and
	// every pending Command has been drained.
	OnUnusable func(*Channel)

	// InitHook runs once after the TCP/TLS dial succeeds, after the
	// Channel is marked Normal but before its I/O loop starts — the place to splice in an
	// AUTH/HELLO handshake (spec.md §1 Non-goals).
	InitHook func(*Channel) error
}

const (
	defaultTimeout            = 5 * time.Second
	defaultConnectTimeout     = 3 * time.Second
	defaultPingPeriod         = 30 * time.Second
	defaultSendBufferBytes    = 64 * 1024
	defaultReceiveBufferBytes = 64 * 1024

	// maxConsecutiveTimeouts is the self-close threshold from spec.md
	// §4.3: more than 50 consecutive timeouts, each within 1s of the
	// last, closes the channel.
	maxConsecutiveTimeouts = 50

	// consecutiveTimeoutWindow is the "within 1 second" window spec.md
	// §4.3 requires between two timeouts for them to count as
	// consecutive.
	consecutiveTimeoutWindow = time.Second

	// heartbeatPongTimeout is the fixed 5-second watcher deadline from
	// spec.md §4.3 step 1.
	heartbeatPongTimeout = 5 * time.Second

	// sendQueueCapacity bounds the send-queue spec.md §3 requires; a
	// caller that floods past this blocks in Send like any bounded
	// channel write would.
	sendQueueCapacity = 4096
)

func (c *Config) withDefaults() *Config {
	cfg := *c
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.PingPeriod == 0 {
		cfg.PingPeriod = defaultPingPeriod
	}
	if cfg.SendBufferBytes <= 0 {
		cfg.SendBufferBytes = defaultSendBufferBytes
	}
	if cfg.ReceiveBufferBytes <= 0 {
		cfg.ReceiveBufferBytes = defaultReceiveBufferBytes
	}
	return &cfg
}
