/*
Package config builds the caller-visible option structs for every
rediskit component (spec.md §6.2) from a loosely-typed source — an env
map, a flag set, a parsed file — the way packetd-packetd's
common.Options does: a plain map[string]any decoded with
github.com/mitchellh/mapstructure into a typed struct, with
github.com/spf13/cast-based accessors for callers that only have one or
two values to pull out rather than a whole struct's worth.
*/
package config

import (
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/nodewire/rediskit/logging"
)

// Config is the top-level, caller-assembled configuration for a
// rediskit Client: every field spec.md §6.2 names, plus the topology
// (hosts, master/slaves) and ambient (logging) settings SPEC_FULL.md
// adds.
type Config struct {
	// Hosts are the cluster member addresses ("host:port"), used when
	// Master is empty.
	Hosts []string `mapstructure:"hosts"`

	// Master and Slaves configure replication routing instead of plain
	// clustering: when Master is set, Hosts is ignored. Master must then
	// hold exactly one host and Slaves at least one.
	Master []string `mapstructure:"master"`
	Slaves []string `mapstructure:"slaves"`

	// FallbackToMaster lets reads fall through to the master when every
	// slave is down (spec.md §4.7, default true).
	FallbackToMaster *bool `mapstructure:"fallbackToMaster"`

	TimeoutMillis             int64 `mapstructure:"timeout"`
	CompressionThresholdBytes int   `mapstructure:"compressionThreshold"`
	SlowExecutionMillis       int64 `mapstructure:"slowExecutionThreshold"`
	PingPeriodSeconds         int64 `mapstructure:"pingPeriod"`
	SendBufferBytes           int   `mapstructure:"sendBufferBytes"`
	ReceiveBufferBytes        int   `mapstructure:"receiveBufferBytes"`
	ConnectTimeoutMillis      int64 `mapstructure:"connectTimeout"`
	KeepAlive                 bool  `mapstructure:"keepAlive"`

	// UseRendezvous selects cluster.RendezvousStrategy over the default
	// CRC32Strategy (spec.md §9's explicit allowance).
	UseRendezvous bool `mapstructure:"useRendezvous"`

	Logging logging.Options `mapstructure:"logging"`
}

// defaults mirror spec.md §6.2 exactly.
const (
	defaultTimeoutMillis             = 5000
	defaultCompressionThresholdBytes = 64 * 1024
	defaultSlowExecutionMillis       = 50
	defaultPingPeriodSeconds         = 30
	defaultBufferBytes               = 64 * 1024
	defaultConnectTimeoutMillis      = 3000
)

// FromMap decodes a loosely-typed source (parsed YAML/JSON, env-derived
// map, flags collected into a map) into a Config via mapstructure, the
// same decode path packetd-packetd's config loader uses.
func FromMap(m map[string]any) (*Config, error) {
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "config: building decoder")
	}
	if err := dec.Decode(m); err != nil {
		return nil, errors.Wrap(err, "config: decoding")
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills every unset field with spec.md §6.2's documented
// default, in place. FromMap and rediskit.New both call it, so a Config
// literal passed to rediskit.New needs no separate call.
func (c *Config) ApplyDefaults() {
	if c.TimeoutMillis <= 0 {
		c.TimeoutMillis = defaultTimeoutMillis
	}
	if c.CompressionThresholdBytes <= 0 {
		c.CompressionThresholdBytes = defaultCompressionThresholdBytes
	}
	if c.SlowExecutionMillis <= 0 {
		c.SlowExecutionMillis = defaultSlowExecutionMillis
	}
	if c.PingPeriodSeconds == 0 {
		c.PingPeriodSeconds = defaultPingPeriodSeconds
	}
	if c.SendBufferBytes <= 0 {
		c.SendBufferBytes = defaultBufferBytes
	}
	if c.ReceiveBufferBytes <= 0 {
		c.ReceiveBufferBytes = defaultBufferBytes
	}
	if c.ConnectTimeoutMillis <= 0 {
		c.ConnectTimeoutMillis = defaultConnectTimeoutMillis
	}
	if c.FallbackToMaster == nil {
		t := true
		c.FallbackToMaster = &t
	}
}

// Timeout returns TimeoutMillis as a time.Duration.
func (c *Config) Timeout() time.Duration { return time.Duration(c.TimeoutMillis) * time.Millisecond }

// ConnectTimeout returns ConnectTimeoutMillis as a time.Duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMillis) * time.Millisecond
}

// SlowExecutionThreshold returns SlowExecutionMillis as a time.Duration.
func (c *Config) SlowExecutionThreshold() time.Duration {
	return time.Duration(c.SlowExecutionMillis) * time.Millisecond
}

// PingPeriod returns PingPeriodSeconds as a time.Duration; <= 0 disables
// heartbeats per spec.md §6.2.
func (c *Config) PingPeriod() time.Duration {
	return time.Duration(c.PingPeriodSeconds) * time.Second
}

// Fallback reports FallbackToMaster's effective value, defaulting true
// if unset (ApplyDefaults already does this, but Fallback is also safe to
// call on a Config built directly rather than through FromMap).
func (c *Config) Fallback() bool {
	if c.FallbackToMaster == nil {
		return true
	}
	return *c.FallbackToMaster
}

// Overrides is a flat map[string]any of ad-hoc values (env vars, CLI
// flags) a caller wants to layer over a Config without redecoding the
// whole struct — packetd-packetd's common.Options accessor style,
// kept separate from Config itself since Config's fields are typed and
// these callers' aren't yet.
type Overrides map[string]any

// Int reads k as an int, coercing loosely-typed input (string, float64,
// json.Number) via spf13/cast.
func (o Overrides) Int(k string) (int, error) { return cast.ToIntE(o[k]) }

// Bool reads k as a bool.
func (o Overrides) Bool(k string) (bool, error) { return cast.ToBoolE(o[k]) }

// Duration reads k as a time.Duration.
func (o Overrides) Duration(k string) (time.Duration, error) { return cast.ToDurationE(o[k]) }

// StringSlice reads k as a []string.
func (o Overrides) StringSlice(k string) ([]string, error) { return cast.ToStringSliceE(o[k]) }
