/*
Package metrics implements spec.md §4.8's observability surface: every
command increments a total/error-kind counter breakdown and an execution
time histogram, compression/socket/lock counters accumulate, per-host
availability is tracked as a gauge, and slow executions are logged
without ever blocking the caller that triggered them.

Grounded on packetd-packetd's controller/metrics.go: package-scoped
metric objects built once via promauto, labeled vectors rather than one
metric per entity.
*/
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nodewire/rediskit/logging"
	"github.com/nodewire/rediskit/rkerrors"
)

const namespace = "rediskit"

// defaultSlowExecutionThreshold is spec.md §4.8's default for what counts
// as a slow command worth its own structured log line.
const defaultSlowExecutionThreshold = 50 * time.Millisecond

// slowLogBacklog bounds the non-blocking best-effort queue; a full
// backlog means logging is falling behind, so newer slow-log records are
// dropped rather than stalling a caller goroutine.
const slowLogBacklog = 1024

// Collector is the one Prometheus registration point for a Client.
// Construct it once per process (or per Registry in tests) with New.
type Collector struct {
	log                    logging.Logger
	slowExecutionThreshold time.Duration
	slowLog                chan slowRecord

	totalCount      *prometheus.CounterVec
	executionTime   *prometheus.HistogramVec
	compressionSave *prometheus.CounterVec
	socketEvents    *prometheus.CounterVec
	lockEvents      *prometheus.CounterVec
	hostAvailable   *prometheus.GaugeVec
	multiGetErrors  prometheus.Counter
}

// Options configures a Collector. A zero Options is valid: it registers
// against prometheus.DefaultRegisterer and uses the default slow
// threshold.
type Options struct {
	Registerer             prometheus.Registerer
	SlowExecutionThreshold time.Duration
	Logger                 logging.Logger
}

// New registers every metric this package exposes and starts the
// background slow-log drain goroutine. It never returns an error, but
// registering two Collectors against the same Registerer panics on the
// second call (promauto's own behavior, unchanged here) — callers that
// need more than one Collector in the same process, such as tests,
// must give each its own Options.Registerer (e.g. prometheus.NewRegistry()).
func New(opt Options) *Collector {
	reg := opt.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	threshold := opt.SlowExecutionThreshold
	if threshold <= 0 {
		threshold = defaultSlowExecutionThreshold
	}
	log := opt.Logger
	if log == (logging.Logger{}) {
		log = logging.Noop()
	}

	factory := promauto.With(reg)
	c := &Collector{
		log:                    log,
		slowExecutionThreshold: threshold,
		slowLog:                make(chan slowRecord, slowLogBacklog),
		totalCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands executed, by method and result kind.",
		}, []string{"method", "kind"}),
		executionTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command execution time, by method and host.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "host"}),
		compressionSave: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compression_bytes_saved_total",
			Help:      "Bytes saved by opaque value compression.",
		}, []string{"host"}),
		socketEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "socket_events_total",
			Help:      "Socket lifecycle events, by host and kind.",
		}, []string{"host", "kind"}),
		lockEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_events_total",
			Help:      "Distributed lock events, by kind.",
		}, []string{"kind"}),
		hostAvailable: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_available",
			Help:      "1 if the host's channel pool has at least one usable channel, else 0.",
		}, []string{"host"}),
		multiGetErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "multiget_errors_total",
			Help:      "MultiGet lookups that failed and were left out of the result.",
		}),
	}

	go c.drainSlowLog()
	return c
}

type slowRecord struct {
	method  string
	host    string
	elapsed time.Duration
	params  map[string]any
}

// ObserveExecution records spec.md §4.8's per-command metrics: the
// total/error-kind counter, the execution time histogram, and — if
// elapsed exceeds the slow threshold — a best-effort slow-log record.
func (c *Collector) ObserveExecution(method, host string, elapsed time.Duration, err error) {
	c.ObserveExecutionWithParams(method, host, elapsed, err, nil)
}

// ObserveExecutionWithParams is ObserveExecution plus the parameter map
// a slow-log record should carry (spec.md §4.8); callers that already
// have the command's arguments handy use this instead.
func (c *Collector) ObserveExecutionWithParams(method, host string, elapsed time.Duration, err error, params map[string]any) {
	kind := string(rkerrors.KindOf(err))
	if kind == "" {
		kind = "ok"
	}
	c.totalCount.WithLabelValues(method, kind).Inc()
	c.executionTime.WithLabelValues(method, host).Observe(elapsed.Seconds())

	if elapsed > c.slowExecutionThreshold {
		c.logSlow(slowRecord{method: method, host: host, elapsed: elapsed, params: params})
	}
}

func (c *Collector) logSlow(r slowRecord) {
	select {
	case c.slowLog <- r:
	default:
		// Backlog full: dropping is preferable to blocking the caller
		// that is, by definition, already running slow.
	}
}

func (c *Collector) drainSlowLog() {
	for r := range c.slowLog {
		c.log.Warnf("slow command: method=%s host=%s elapsed=%s params=%v", r.method, r.host, r.elapsed, r.params)
	}
}

// ObserveBytesSaved implements transcoder.CompressionObserver.
func (c *Collector) ObserveBytesSaved(saved int) {
	if saved <= 0 {
		return
	}
	c.compressionSave.WithLabelValues("").Add(float64(saved))
}

// ObserveBytesSavedForHost is ObserveBytesSaved labeled by host, for
// callers (the command layer) that know which node produced the value.
func (c *Collector) ObserveBytesSavedForHost(host string, saved int) {
	if saved <= 0 {
		return
	}
	c.compressionSave.WithLabelValues(host).Add(float64(saved))
}

// ObserveSocketEvent counts a channel lifecycle event: "created",
// "closed", "timeout", "heartbeat-failed".
func (c *Collector) ObserveSocketEvent(host, kind string) {
	c.socketEvents.WithLabelValues(host, kind).Inc()
}

// ObserveLockEvent counts a distributed-lock event: "acquired",
// "contended", "released", "expired".
func (c *Collector) ObserveLockEvent(kind string) {
	c.lockEvents.WithLabelValues(kind).Inc()
}

// SetHostAvailable records whether host currently has at least one
// usable channel in its pool.
func (c *Collector) SetHostAvailable(host string, available bool) {
	v := 0.0
	if available {
		v = 1.0
	}
	c.hostAvailable.WithLabelValues(host).Set(v)
}

// ObserveMultiGetError counts one failed MultiGet lookup (cluster.Router):
// a key with no available slot, a slot whose channel is gone, or a GET
// that returned an error. A single MultiGet call can count several times.
func (c *Collector) ObserveMultiGetError() {
	c.multiGetErrors.Inc()
}
