package command

import "context"

// Counters exposes spec.md §6.1's "counters" family: keys holding a
// decimal integer string, read and written directly (no transcoder
// header — the wire value is exactly the ASCII decimal form).
type Counters struct {
	ex *Executor
	k  *Keys
}

// NewCounters builds a Counters façade over ex.
func NewCounters(ex *Executor) *Counters { return &Counters{ex: ex, k: NewKeys(ex)} }

// Get returns key's current integer value, or false if key doesn't
// exist.
func (c *Counters) Get(ctx context.Context, key string) (int64, bool, error) {
	if err := validateKey(key); err != nil {
		return 0, false, err
	}
	data, err := c.ex.call(ctx, "GET", key, true, "GET", key)
	if err != nil {
		return 0, false, err
	}
	raw, found, err := asBulk("GET", data)
	if err != nil || !found {
		return 0, false, err
	}
	n, err := parseDecimal("GET", raw)
	return n, err == nil, err
}

// MGet returns the integer values of the keys that currently exist; an
// empty keys slice short-circuits with zero I/O.
func (c *Counters) MGet(ctx context.Context, keys []string) (map[string]int64, error) {
	if len(keys) == 0 {
		return map[string]int64{}, nil
	}
	args := append([]string{"MGET"}, keys...)
	data, err := c.ex.call(ctx, "MGET", keys[0], true, args...)
	if err != nil {
		return nil, err
	}
	raws, err := asBulkArray("MGET", data)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(keys))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		n, err := parseDecimal("MGET", raw)
		if err != nil {
			return nil, err
		}
		out[keys[i]] = n
	}
	return out, nil
}

// IncrBy adds delta to key's integer value (creating it at delta if
// absent) and returns the new value.
func (c *Counters) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	data, err := c.ex.call(ctx, "INCRBY", key, false, "INCRBY", key, formatInt(delta))
	if err != nil {
		return 0, err
	}
	return asInt("INCRBY", data)
}

// AddAndGet implements spec.md §4.4's first-write expiry rule: it adds
// delta to key (creating it if absent) and, iff expireSeconds is
// positive AND the resulting value equals delta — meaning the key was
// just created by this call — issues a follow-up EXPIRE. This is
// observable exactly once per key's lifetime; a concurrent increment
// from another client racing the "was this a fresh key" check can, in
// rare interleavings, cause EXPIRE to be skipped or (less likely)
// applied to a key another writer also just created (spec.md §9's
// documented hazard — this is not a bug to fix here).
func (c *Counters) AddAndGet(ctx context.Context, key string, delta, expireSeconds int64) (int64, error) {
	if expireSeconds < 0 {
		return 0, invalidArg("expireSeconds must not be negative")
	}
	result, err := c.IncrBy(ctx, key, delta)
	if err != nil {
		return 0, err
	}
	if expireSeconds > 0 && result == delta {
		if _, err := c.k.Expire(ctx, key, expireSeconds); err != nil {
			return result, err
		}
	}
	return result, nil
}
