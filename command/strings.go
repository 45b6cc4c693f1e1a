package command

import (
	"context"

	"github.com/nodewire/rediskit/resp"
	"github.com/nodewire/rediskit/rkerrors"
)

// Strings exposes spec.md §6.1's "opaque storage" family: arbitrary
// in-memory values round-tripped through the Opaque transcoder (§4.2),
// so a caller can GET/SET any gob-encodable Go value rather than being
// limited to strings.
type Strings struct {
	ex *Executor
}

// NewStrings builds a Strings façade over ex.
func NewStrings(ex *Executor) *Strings { return &Strings{ex: ex} }

// Get decodes key's value into out (a pointer), returning false if key
// doesn't exist. A missing key is not an error for get-style operations
// (spec.md §7's KeyNotFound kind).
func (s *Strings) Get(ctx context.Context, key string, out any) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	data, err := s.ex.call(ctx, "GET", key, true, "GET", key)
	if err != nil {
		return false, err
	}
	raw, found, err := asBulk("GET", data)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if err := s.ex.Opaque.Decode(raw, out); err != nil {
		return false, &rkerrors.UnexpectedError{Cause: err}
	}
	return true, nil
}

// MGet decodes every present key's value into a freshly-allocated
// instance produced by newValue, returning a map keyed by the subset of
// keys that existed. An empty keys slice short-circuits with zero I/O
// (spec.md §4.4, §8).
func (s *Strings) MGet(ctx context.Context, keys []string, newValue func() any) (map[string]any, error) {
	if len(keys) == 0 {
		return map[string]any{}, nil
	}
	args := append([]string{"MGET"}, keys...)
	data, err := s.ex.call(ctx, "MGET", keys[0], true, args...)
	if err != nil {
		return nil, err
	}
	raws, err := asBulkArray("MGET", data)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(keys))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		v := newValue()
		if err := s.ex.Opaque.Decode(raw, v); err != nil {
			return nil, &rkerrors.UnexpectedError{Cause: err}
		}
		out[keys[i]] = v
	}
	return out, nil
}

// Set unconditionally stores value at key.
func (s *Strings) Set(ctx context.Context, key string, value any) error {
	return s.set(ctx, key, value, "", false, false)
}

// SetEX stores value at key with an expiry in seconds.
func (s *Strings) SetEX(ctx context.Context, key string, value any, seconds int64) error {
	if seconds <= 0 {
		return invalidArg("seconds must be positive")
	}
	return s.set(ctx, key, value, formatInt(seconds), false, false)
}

// SetNX stores value at key only if key doesn't already exist, reporting
// whether it was set.
func (s *Strings) SetNX(ctx context.Context, key string, value any) (bool, error) {
	return s.setCond(ctx, key, value, "", true, false)
}

// SetNXEX is SetNX with an accompanying expiry in seconds.
func (s *Strings) SetNXEX(ctx context.Context, key string, value any, seconds int64) (bool, error) {
	if seconds <= 0 {
		return false, invalidArg("seconds must be positive")
	}
	return s.setCond(ctx, key, value, formatInt(seconds), true, false)
}

// SetXX stores value at key only if key already exists, reporting
// whether it was set.
func (s *Strings) SetXX(ctx context.Context, key string, value any) (bool, error) {
	return s.setCond(ctx, key, value, "", false, true)
}

// SetXXEX is SetXX with an accompanying expiry in seconds.
func (s *Strings) SetXXEX(ctx context.Context, key string, value any, seconds int64) (bool, error) {
	if seconds <= 0 {
		return false, invalidArg("seconds must be positive")
	}
	return s.setCond(ctx, key, value, formatInt(seconds), false, true)
}

func (s *Strings) set(ctx context.Context, key string, value any, expirySeconds string, nx, xx bool) error {
	_, err := s.doSet(ctx, key, value, expirySeconds, nx, xx)
	return err
}

func (s *Strings) setCond(ctx context.Context, key string, value any, expirySeconds string, nx, xx bool) (bool, error) {
	return s.doSet(ctx, key, value, expirySeconds, nx, xx)
}

func (s *Strings) doSet(ctx context.Context, key string, value any, expirySeconds string, nx, xx bool) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if value == nil {
		return false, invalidArg("value must not be nil")
	}
	encoded, err := s.ex.Opaque.Encode(value)
	if err != nil {
		return false, &rkerrors.UnexpectedError{Cause: err}
	}

	args := []string{"SET", key, string(encoded)}
	if expirySeconds != "" {
		args = append(args, "EX", expirySeconds)
	}
	if nx {
		args = append(args, "NX")
	}
	if xx {
		args = append(args, "XX")
	}

	data, err := s.ex.call(ctx, "SET", key, false, args...)
	if err != nil {
		return false, err
	}
	if !nx && !xx {
		_, err := asSimpleString("SET", data)
		return err == nil, err
	}
	// NX/XX SET replies with a nil bulk string on failure to apply
	// rather than the usual +OK.
	if data.Type == resp.SimpleString {
		return true, nil
	}
	_, found, err := asBulk("SET", data)
	if err != nil {
		return false, err
	}
	return found, nil
}
