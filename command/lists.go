package command

import "context"

// Lists exposes spec.md §6.1's list family: LPUSH, LPUSHX, RPUSH,
// RPUSHX, LPOP, RPOP, LINSERT, LSET, LREM, LTRIM, LLEN, LINDEX, LRANGE.
type Lists struct {
	ex *Executor
}

// NewLists builds a Lists façade over ex.
func NewLists(ex *Executor) *Lists { return &Lists{ex: ex} }

func (l *Lists) push(ctx context.Context, name, key string, values [][]byte) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, invalidArg("values must not be empty")
	}
	args := make([]string, 0, len(values)+2)
	args = append(args, name, key)
	for _, v := range values {
		args = append(args, string(v))
	}
	data, err := l.ex.call(ctx, name, key, false, args...)
	if err != nil {
		return 0, err
	}
	return asInt(name, data)
}

// LPush prepends values to key's list, creating it if absent.
func (l *Lists) LPush(ctx context.Context, key string, values ...[]byte) (int64, error) {
	return l.push(ctx, "LPUSH", key, values)
}

// LPushX prepends values only if key already holds a list.
func (l *Lists) LPushX(ctx context.Context, key string, values ...[]byte) (int64, error) {
	return l.push(ctx, "LPUSHX", key, values)
}

// RPush appends values to key's list, creating it if absent.
func (l *Lists) RPush(ctx context.Context, key string, values ...[]byte) (int64, error) {
	return l.push(ctx, "RPUSH", key, values)
}

// RPushX appends values only if key already holds a list.
func (l *Lists) RPushX(ctx context.Context, key string, values ...[]byte) (int64, error) {
	return l.push(ctx, "RPUSHX", key, values)
}

func (l *Lists) pop(ctx context.Context, name, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	data, err := l.ex.call(ctx, name, key, false, name, key)
	if err != nil {
		return nil, false, err
	}
	return asBulk(name, data)
}

// LPop removes and returns key's first element.
func (l *Lists) LPop(ctx context.Context, key string) ([]byte, bool, error) {
	return l.pop(ctx, "LPOP", key)
}

// RPop removes and returns key's last element.
func (l *Lists) RPop(ctx context.Context, key string) ([]byte, bool, error) {
	return l.pop(ctx, "RPOP", key)
}

// LInsert inserts value immediately before (or after) the first
// occurrence of pivot, returning the new list length, or -1 if pivot
// wasn't found.
func (l *Lists) LInsert(ctx context.Context, key string, before bool, pivot, value []byte) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	if pivot == nil || value == nil {
		return 0, invalidArg("pivot and value must not be nil")
	}
	where := "AFTER"
	if before {
		where = "BEFORE"
	}
	data, err := l.ex.call(ctx, "LINSERT", key, false, "LINSERT", key, where, string(pivot), string(value))
	if err != nil {
		return 0, err
	}
	return asInt("LINSERT", data)
}

// LSet overwrites the element at index (negative addresses from the
// tail).
func (l *Lists) LSet(ctx context.Context, key string, index int64, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if value == nil {
		return invalidArg("value must not be nil")
	}
	_, err := l.ex.call(ctx, "LSET", key, false, "LSET", key, formatInt(index), string(value))
	return err
}

// LRem removes up to count occurrences of value. count > 0 removes from
// head to tail, count < 0 removes from tail to head, count == 0 removes
// all occurrences. Returns the number removed.
func (l *Lists) LRem(ctx context.Context, key string, count int64, value []byte) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	if value == nil {
		return 0, invalidArg("value must not be nil")
	}
	data, err := l.ex.call(ctx, "LREM", key, false, "LREM", key, formatInt(count), string(value))
	if err != nil {
		return 0, err
	}
	return asInt("LREM", data)
}

// LTrim trims key's list to the [start, stop] range (inclusive,
// negative addresses from the tail).
func (l *Lists) LTrim(ctx context.Context, key string, start, stop int64) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := l.ex.call(ctx, "LTRIM", key, false, "LTRIM", key, formatInt(start), formatInt(stop))
	return err
}

// LLen returns key's list length, 0 if key doesn't exist.
func (l *Lists) LLen(ctx context.Context, key string) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	data, err := l.ex.call(ctx, "LLEN", key, true, "LLEN", key)
	if err != nil {
		return 0, err
	}
	return asInt("LLEN", data)
}

// LIndex returns the element at index (negative addresses from the
// tail), or false if out of range.
func (l *Lists) LIndex(ctx context.Context, key string, index int64) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	data, err := l.ex.call(ctx, "LINDEX", key, true, "LINDEX", key, formatInt(index))
	if err != nil {
		return nil, false, err
	}
	return asBulk("LINDEX", data)
}

// LRange returns the elements in [start, stop] (inclusive, negative
// addresses from the tail). An out-of-range request returns an empty
// slice rather than an error (spec.md §8's boundary behaviors).
func (l *Lists) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := l.ex.call(ctx, "LRANGE", key, true, "LRANGE", key, formatInt(start), formatInt(stop))
	if err != nil {
		return nil, err
	}
	return asBulkArray("LRANGE", data)
}
