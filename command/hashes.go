package command

import "context"

// Hashes exposes spec.md §6.1's hash family: HSET, HMSET, HSETNX,
// HINCRBY, HINCRBYFLOAT, HDEL, HEXISTS, HLEN, HGET, HSTRLEN, HMGET,
// HGETALL, HKEYS, HVALS.
type Hashes struct {
	ex *Executor
}

// NewHashes builds a Hashes façade over ex.
func NewHashes(ex *Executor) *Hashes { return &Hashes{ex: ex} }

// HSet sets field to value in key's hash, returning whether field was
// newly created (false if it already existed and was merely updated).
func (h *Hashes) HSet(ctx context.Context, key, field string, value []byte) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if field == "" {
		return false, invalidArg("field must not be empty")
	}
	if value == nil {
		return false, invalidArg("value must not be nil")
	}
	data, err := h.ex.call(ctx, "HSET", key, false, "HSET", key, field, string(value))
	if err != nil {
		return false, err
	}
	return asBool("HSET", data)
}

// HMSet sets multiple fields in key's hash in one round trip. An empty
// fields map short-circuits with zero I/O.
func (h *Hashes) HMSet(ctx context.Context, key string, fields map[string][]byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	args := make([]string, 0, len(fields)*2+2)
	args = append(args, "HMSET", key)
	for f, v := range fields {
		if f == "" {
			return invalidArg("field must not be empty")
		}
		args = append(args, f, string(v))
	}
	_, err := h.ex.call(ctx, "HMSET", key, false, args...)
	return err
}

// HSetNX sets field to value only if field doesn't already exist,
// reporting whether it was set.
func (h *Hashes) HSetNX(ctx context.Context, key, field string, value []byte) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if field == "" {
		return false, invalidArg("field must not be empty")
	}
	data, err := h.ex.call(ctx, "HSETNX", key, false, "HSETNX", key, field, string(value))
	if err != nil {
		return false, err
	}
	return asBool("HSETNX", data)
}

// HIncrBy adds delta to field's integer value (creating it at delta if
// absent), returning the new value.
func (h *Hashes) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	if field == "" {
		return 0, invalidArg("field must not be empty")
	}
	data, err := h.ex.call(ctx, "HINCRBY", key, false, "HINCRBY", key, field, formatInt(delta))
	if err != nil {
		return 0, err
	}
	return asInt("HINCRBY", data)
}

// HIncrByFloat adds delta to field's float value, returning the new
// value.
func (h *Hashes) HIncrByFloat(ctx context.Context, key, field string, delta float64) (float64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	if field == "" {
		return 0, invalidArg("field must not be empty")
	}
	data, err := h.ex.call(ctx, "HINCRBYFLOAT", key, false, "HINCRBYFLOAT", key, field, formatFloat(delta))
	if err != nil {
		return 0, err
	}
	return asFloat("HINCRBYFLOAT", data)
}

// HDel removes fields from key's hash, returning the count actually
// removed.
func (h *Hashes) HDel(ctx context.Context, key string, fields ...string) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	if len(fields) == 0 {
		return 0, nil
	}
	args := append([]string{"HDEL", key}, fields...)
	data, err := h.ex.call(ctx, "HDEL", key, false, args...)
	if err != nil {
		return 0, err
	}
	return asInt("HDEL", data)
}

// HExists reports whether field exists in key's hash.
func (h *Hashes) HExists(ctx context.Context, key, field string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if field == "" {
		return false, invalidArg("field must not be empty")
	}
	data, err := h.ex.call(ctx, "HEXISTS", key, true, "HEXISTS", key, field)
	if err != nil {
		return false, err
	}
	return asBool("HEXISTS", data)
}

// HLen returns the number of fields in key's hash.
func (h *Hashes) HLen(ctx context.Context, key string) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	data, err := h.ex.call(ctx, "HLEN", key, true, "HLEN", key)
	if err != nil {
		return 0, err
	}
	return asInt("HLEN", data)
}

// HGet returns field's value, or false if field (or key) doesn't exist.
func (h *Hashes) HGet(ctx context.Context, key, field string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	if field == "" {
		return nil, false, invalidArg("field must not be empty")
	}
	data, err := h.ex.call(ctx, "HGET", key, true, "HGET", key, field)
	if err != nil {
		return nil, false, err
	}
	return asBulk("HGET", data)
}

// HStrLen returns the byte length of field's value, 0 if absent.
func (h *Hashes) HStrLen(ctx context.Context, key, field string) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	if field == "" {
		return 0, invalidArg("field must not be empty")
	}
	data, err := h.ex.call(ctx, "HSTRLEN", key, true, "HSTRLEN", key, field)
	if err != nil {
		return 0, err
	}
	return asInt("HSTRLEN", data)
}

// HMGet returns the values of fields that exist in key's hash; fields
// that don't exist are simply absent from the result. An empty fields
// list short-circuits with zero I/O.
func (h *Hashes) HMGet(ctx context.Context, key string, fields ...string) (map[string][]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return map[string][]byte{}, nil
	}
	args := append([]string{"HMGET", key}, fields...)
	data, err := h.ex.call(ctx, "HMGET", key, true, args...)
	if err != nil {
		return nil, err
	}
	raws, err := asBulkArray("HMGET", data)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(fields))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		out[fields[i]] = raw
	}
	return out, nil
}

// HGetAll returns every field/value pair in key's hash.
func (h *Hashes) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := h.ex.call(ctx, "HGETALL", key, true, "HGETALL", key)
	if err != nil {
		return nil, err
	}
	items, err := asArray("HGETALL", data)
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, unexpectedKind("HGETALL", "reply had an odd element count")
	}
	out := make(map[string][]byte, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		field, _, err := asBulk("HGETALL", items[i])
		if err != nil {
			return nil, err
		}
		value, _, err := asBulk("HGETALL", items[i+1])
		if err != nil {
			return nil, err
		}
		out[string(field)] = value
	}
	return out, nil
}

// HKeys returns every field name in key's hash.
func (h *Hashes) HKeys(ctx context.Context, key string) ([]string, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := h.ex.call(ctx, "HKEYS", key, true, "HKEYS", key)
	if err != nil {
		return nil, err
	}
	raws, err := asBulkArray("HKEYS", data)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(raws))
	for i, r := range raws {
		out[i] = string(r)
	}
	return out, nil
}

// HVals returns every value in key's hash, in the same order as HKeys.
func (h *Hashes) HVals(ctx context.Context, key string) ([][]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := h.ex.call(ctx, "HVALS", key, true, "HVALS", key)
	if err != nil {
		return nil, err
	}
	return asBulkArray("HVALS", data)
}
