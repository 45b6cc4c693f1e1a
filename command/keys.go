package command

import "context"

// Keys exposes spec.md §6.1's generic key-management family: EXPIRE,
// DEL, EXISTS, TYPE, TTL. All read except DEL and EXPIRE, which mutate.
type Keys struct {
	ex *Executor
}

// NewKeys builds a Keys façade over ex.
func NewKeys(ex *Executor) *Keys { return &Keys{ex: ex} }

// Expire sets key's time-to-live to seconds, returning whether key
// existed. seconds must be positive.
func (k *Keys) Expire(ctx context.Context, key string, seconds int64) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if seconds <= 0 {
		return false, invalidArg("seconds must be positive")
	}
	data, err := k.ex.call(ctx, "EXPIRE", key, false, "EXPIRE", key, formatInt(seconds))
	if err != nil {
		return false, err
	}
	return asBool("EXPIRE", data)
}

// Del deletes the given keys, returning how many actually existed.
// Per spec.md §4.4, an empty key list short-circuits with zero I/O.
func (k *Keys) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	args := append([]string{"DEL"}, keys...)
	data, err := k.ex.call(ctx, "DEL", keys[0], false, args...)
	if err != nil {
		return 0, err
	}
	return asInt("DEL", data)
}

// Exists reports whether key exists.
func (k *Keys) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	data, err := k.ex.call(ctx, "EXISTS", key, true, "EXISTS", key)
	if err != nil {
		return false, err
	}
	return asBool("EXISTS", data)
}

// Type returns key's Redis type name ("string", "list", "hash", "set",
// "zset", or "none" if key doesn't exist).
func (k *Keys) Type(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	data, err := k.ex.call(ctx, "TYPE", key, true, "TYPE", key)
	if err != nil {
		return "", err
	}
	return asSimpleString("TYPE", data)
}

// TTL returns key's remaining time-to-live in seconds, -1 if key exists
// with no expiry, or -2 if key doesn't exist.
func (k *Keys) TTL(ctx context.Context, key string) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	data, err := k.ex.call(ctx, "TTL", key, true, "TTL", key)
	if err != nil {
		return 0, err
	}
	return asInt("TTL", data)
}
