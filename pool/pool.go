/*
Package pool implements spec.md §4.5: a fixed array of Channels, one per
configured host, with automatic revival of any slot whose Channel goes
unusable. Grounded on the teacher's (l00pss-redkit) server.go connection
bookkeeping — activeConns tracking and its periodic ticker sweep — turned
into a client-side per-host slot table instead of a server-side
per-connection set.
*/
package pool

import (
	"sync/atomic"
	"time"

	"github.com/nodewire/rediskit/channel"
	"github.com/nodewire/rediskit/logging"
	"github.com/nodewire/rediskit/metrics"
	"github.com/nodewire/rediskit/rkerrors"
)

// defaultRevivalInterval is spec.md §4.5's default per-host revival tick.
const defaultRevivalInterval = 5 * time.Second

// defaultConstructionTimeout bounds how long New blocks waiting for at
// least one slot to come up before giving up.
const defaultConstructionTimeout = 5 * time.Second

// EventListener is notified of slot lifecycle transitions (spec.md
// §4.5's "can be notified of created/recovered/closed"). Implementations
// must not block; Pool calls them synchronously from whichever goroutine
// observed the transition.
type EventListener interface {
	Created(host string)
	Recovered(host string)
	Closed(host string, cause error)
}

// loggingListener is the default EventListener: every transition becomes
// a log line and nothing else.
type loggingListener struct {
	log logging.Logger
}

func (l loggingListener) Created(host string)  { l.log.Infof("pool: channel created host=%s", host) }
func (l loggingListener) Recovered(host string) {
	l.log.Infof("pool: channel recovered host=%s", host)
}
func (l loggingListener) Closed(host string, cause error) {
	l.log.Warnf("pool: channel closed host=%s cause=%v", host, cause)
}

// metricsListener is the EventListener client.New wires by default: it
// logs exactly like loggingListener and additionally feeds spec.md
// §4.8's per-host availability gauge and socket event counter, so a
// running client's observability surface reflects real slot transitions
// instead of staying permanently empty.
type metricsListener struct {
	log logging.Logger
	m   *metrics.Collector
}

// NewMetricsListener builds an EventListener that logs through log and
// reports Created/Recovered/Closed transitions to m. m may be nil, in
// which case it behaves exactly like the default logging-only listener.
func NewMetricsListener(m *metrics.Collector, log logging.Logger) EventListener {
	return metricsListener{log: log, m: m}
}

func (l metricsListener) Created(host string) {
	l.log.Infof("pool: channel created host=%s", host)
	if l.m != nil {
		l.m.SetHostAvailable(host, true)
		l.m.ObserveSocketEvent(host, "created")
	}
}

func (l metricsListener) Recovered(host string) {
	l.log.Infof("pool: channel recovered host=%s", host)
	if l.m != nil {
		l.m.SetHostAvailable(host, true)
		l.m.ObserveSocketEvent(host, "recovered")
	}
}

func (l metricsListener) Closed(host string, cause error) {
	l.log.Warnf("pool: channel closed host=%s cause=%v", host, cause)
	if l.m != nil {
		l.m.SetHostAvailable(host, false)
		l.m.ObserveSocketEvent(host, "closed")
	}
}

// Options configures a Pool.
type Options struct {
	Hosts               []string
	ChannelConfig       channel.Config
	RevivalInterval     time.Duration
	ConstructionTimeout time.Duration
	Listener            EventListener
	Logger              logging.Logger
}

func (o Options) withDefaults() Options {
	if o.RevivalInterval <= 0 {
		o.RevivalInterval = defaultRevivalInterval
	}
	if o.ConstructionTimeout <= 0 {
		o.ConstructionTimeout = defaultConstructionTimeout
	}
	if o.Logger == (logging.Logger{}) {
		o.Logger = logging.Noop()
	}
	if o.Listener == nil {
		o.Listener = loggingListener{log: o.Logger}
	}
	return o
}

// slot holds one configured host's current Channel. The Channel pointer
// is swapped atomically on revival so routers reading it concurrently
// never observe a torn value.
type slot struct {
	host string
	ch   atomic.Pointer[channel.Channel]
}

func (s *slot) isAvailable() bool {
	ch := s.ch.Load()
	return ch != nil && ch.IsAvailable()
}

// Pool holds one slot per configured host and keeps them alive.
type Pool struct {
	opt   Options
	slots []*slot
	stop  chan struct{}
}

// New dials every configured host, starts the revival loop for any that
// fail, and blocks up to ConstructionTimeout for at least one slot to
// reach Normal. It returns rkerrors.ErrIllegalState if none does.
func New(opt Options) (*Pool, error) {
	full := opt.withDefaults()
	p := &Pool{opt: full, stop: make(chan struct{})}

	for _, host := range full.Hosts {
		s := &slot{host: host}
		p.slots = append(p.slots, s)
		p.dial(s)
	}

	deadline := time.Now().Add(full.ConstructionTimeout)
	for {
		if p.anyAvailable() {
			break
		}
		if time.Now().After(deadline) {
			p.Close()
			return nil, rkerrors.ErrIllegalState
		}
		time.Sleep(10 * time.Millisecond)
	}

	for _, s := range p.slots {
		go p.reviveLoop(s)
	}
	return p, nil
}

func (p *Pool) anyAvailable() bool {
	for _, s := range p.slots {
		if s.isAvailable() {
			return true
		}
	}
	return false
}

// dial attempts to bring s up exactly once; failures are left for the
// revival loop to retry. cfg.OnUnusable is overridden here so every
// Channel this Pool owns reports back to it regardless of what the
// caller set.
func (p *Pool) dial(s *slot) {
	cfg := p.opt.ChannelConfig
	cfg.OnUnusable = func(ch *channel.Channel) {
		s.ch.CompareAndSwap(ch, nil)
		p.opt.Listener.Closed(s.host, rkerrors.ErrIllegalState)
	}
	ch, err := channel.Dial(s.host, cfg)
	if err != nil {
		return
	}
	s.ch.Store(ch)
	p.opt.Listener.Created(s.host)
}

// reviveLoop ticks at RevivalInterval, redialing s whenever its slot has
// gone empty (the Channel closed), until the Pool itself is closed.
func (p *Pool) reviveLoop(s *slot) {
	ticker := time.NewTicker(p.opt.RevivalInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.ch.Load() != nil {
				continue
			}
			cfg := p.opt.ChannelConfig
			cfg.OnUnusable = func(ch *channel.Channel) {
				s.ch.CompareAndSwap(ch, nil)
				p.opt.Listener.Closed(s.host, rkerrors.ErrIllegalState)
			}
			ch, err := channel.Dial(s.host, cfg)
			if err != nil {
				continue
			}
			s.ch.Store(ch)
			p.opt.Listener.Recovered(s.host)
		case <-p.stop:
			return
		}
	}
}

// Len returns the number of configured hosts (not necessarily all
// available).
func (p *Pool) Len() int { return len(p.slots) }

// IsAvailable implements spec.md §4.5's availability contract: slot i's
// channel is non-nil and in the Normal state.
func (p *Pool) IsAvailable(i int) bool {
	if i < 0 || i >= len(p.slots) {
		return false
	}
	return p.slots[i].isAvailable()
}

// Host returns the configured host string for slot i.
func (p *Pool) Host(i int) string { return p.slots[i].host }

// Channel returns slot i's current Channel, or nil if it's down.
func (p *Pool) Channel(i int) *channel.Channel {
	return p.slots[i].ch.Load()
}

// Close tears down every slot's Channel and stops all revival loops.
func (p *Pool) Close() {
	close(p.stop)
	for _, s := range p.slots {
		if ch := s.ch.Swap(nil); ch != nil {
			ch.Close()
		}
	}
}
