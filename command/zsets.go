package command

import (
	"context"
	"strconv"

	"github.com/nodewire/rediskit/resp"
)

// SortedSets exposes spec.md §6.1's sorted-set family: ZADD (with
// modifier flags), ZINCRBY, ZREM, ZREMRANGEBYRANK, ZREMRANGEBYSCORE,
// ZSCORE, ZRANK, ZREVRANK, ZCARD, ZCOUNT, and the WITHSCORES/LIMIT range
// queries.
type SortedSets struct {
	ex *Executor
}

// NewSortedSets builds a SortedSets façade over ex.
func NewSortedSets(ex *Executor) *SortedSets { return &SortedSets{ex: ex} }

// ZAddMode selects ZADD's update semantics (spec.md §6.1).
type ZAddMode int

const (
	// ZAddDefault adds-or-replaces; the returned count is new elements
	// only.
	ZAddDefault ZAddMode = iota
	// ZAddXX updates existing members only, adding nothing new.
	ZAddXX
	// ZAddNX adds new members only, never updating an existing score.
	ZAddNX
	// ZAddCH returns new-plus-updated instead of new-only.
	ZAddCH
)

func (m ZAddMode) flag() string {
	switch m {
	case ZAddXX:
		return "XX"
	case ZAddNX:
		return "NX"
	case ZAddCH:
		return "CH"
	default:
		return ""
	}
}

// Member is one ZADD input: a set member and its score.
type Member struct {
	Value []byte
	Score float64
}

// Bound is a ZCOUNT/ZRANGEBYSCORE range endpoint: a finite score
// (inclusive or exclusive), or +/-infinity. Use Inclusive, Exclusive,
// NegInf, or PosInf to build one.
type Bound struct {
	value     float64
	exclusive bool
	inf       int8 // -1, 0, +1
}

// Inclusive builds a closed bound at v.
func Inclusive(v float64) Bound { return Bound{value: v} }

// Exclusive builds an open bound at v, wire-prefixed "(" per spec.md §6.1.
func Exclusive(v float64) Bound { return Bound{value: v, exclusive: true} }

// NegInf is the unbounded low end ("-inf" on the wire).
func NegInf() Bound { return Bound{inf: -1} }

// PosInf is the unbounded high end ("+inf" on the wire).
func PosInf() Bound { return Bound{inf: 1} }

func (b Bound) wire() string {
	switch b.inf {
	case -1:
		return "-inf"
	case 1:
		return "+inf"
	}
	s := strconv.FormatFloat(b.value, 'f', -1, 64)
	if b.exclusive {
		return "(" + s
	}
	return s
}

// Limit restricts a score-range query to Count entries starting at
// Offset, the wire's "LIMIT offset count".
type Limit struct {
	Offset int64
	Count  int64
}

// ZAdd adds or updates members in key's sorted set under mode, returning
// the count spec.md §6.1 defines per mode. An empty members slice
// short-circuits with zero I/O.
func (z *SortedSets) ZAdd(ctx context.Context, key string, mode ZAddMode, members []Member) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}
	args := make([]string, 0, len(members)*2+3)
	args = append(args, "ZADD", key)
	if flag := mode.flag(); flag != "" {
		args = append(args, flag)
	}
	for _, m := range members {
		if m.Value == nil {
			return 0, invalidArg("member value must not be nil")
		}
		args = append(args, formatFloat(m.Score), string(m.Value))
	}
	data, err := z.ex.call(ctx, "ZADD", key, false, args...)
	if err != nil {
		return 0, err
	}
	return asInt("ZADD", data)
}

// ZIncrBy adds delta to member's score (creating member at delta if
// absent), returning the new score.
func (z *SortedSets) ZIncrBy(ctx context.Context, key string, member []byte, delta float64) (float64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	if member == nil {
		return 0, invalidArg("member must not be nil")
	}
	data, err := z.ex.call(ctx, "ZINCRBY", key, false, "ZINCRBY", key, formatFloat(delta), string(member))
	if err != nil {
		return 0, err
	}
	return asFloat("ZINCRBY", data)
}

// ZRem removes members from key's sorted set, returning the count
// actually removed. This is also spec.md §6.1's geo-member removal path
// (Geo.Remove delegates here).
func (z *SortedSets) ZRem(ctx context.Context, key string, members ...[]byte) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}
	args := make([]string, 0, len(members)+2)
	args = append(args, "ZREM", key)
	for _, m := range members {
		args = append(args, string(m))
	}
	data, err := z.ex.call(ctx, "ZREM", key, false, args...)
	if err != nil {
		return 0, err
	}
	return asInt("ZREM", data)
}

// ZRemRangeByRank removes members whose rank falls in [start, stop]
// (negative addresses from the tail), returning the count removed.
func (z *SortedSets) ZRemRangeByRank(ctx context.Context, key string, start, stop int64) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	data, err := z.ex.call(ctx, "ZREMRANGEBYRANK", key, false, "ZREMRANGEBYRANK", key, formatInt(start), formatInt(stop))
	if err != nil {
		return 0, err
	}
	return asInt("ZREMRANGEBYRANK", data)
}

// ZRemRangeByScore removes members whose score falls in [min, max],
// returning the count removed.
func (z *SortedSets) ZRemRangeByScore(ctx context.Context, key string, min, max Bound) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	data, err := z.ex.call(ctx, "ZREMRANGEBYSCORE", key, false, "ZREMRANGEBYSCORE", key, min.wire(), max.wire())
	if err != nil {
		return 0, err
	}
	return asInt("ZREMRANGEBYSCORE", data)
}

// ZScore returns member's score, or false if member isn't in key's set.
func (z *SortedSets) ZScore(ctx context.Context, key string, member []byte) (float64, bool, error) {
	if err := validateKey(key); err != nil {
		return 0, false, err
	}
	if member == nil {
		return 0, false, invalidArg("member must not be nil")
	}
	data, err := z.ex.call(ctx, "ZSCORE", key, true, "ZSCORE", key, string(member))
	if err != nil {
		return 0, false, err
	}
	raw, found, err := asBulk("ZSCORE", data)
	if err != nil || !found {
		return 0, found, err
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false, unexpectedKind("ZSCORE", "invalid float reply "+strconv.Quote(string(raw)))
	}
	return f, true, nil
}

func (z *SortedSets) rank(ctx context.Context, name, key string, member []byte) (int64, bool, error) {
	if err := validateKey(key); err != nil {
		return 0, false, err
	}
	if member == nil {
		return 0, false, invalidArg("member must not be nil")
	}
	data, err := z.ex.call(ctx, name, key, true, name, key, string(member))
	if err != nil {
		return 0, false, err
	}
	if data.Type == resp.BulkString {
		// A missing member replies with a nil bulk string rather than
		// an Integer.
		_, found, err := asBulk(name, data)
		return 0, found, err
	}
	n, err := asInt(name, data)
	return n, err == nil, err
}

// ZRank returns member's ascending-score rank (0-based), or false if
// member isn't in key's set.
func (z *SortedSets) ZRank(ctx context.Context, key string, member []byte) (int64, bool, error) {
	return z.rank(ctx, "ZRANK", key, member)
}

// ZRevRank returns member's descending-score rank (0-based), or false if
// member isn't in key's set.
func (z *SortedSets) ZRevRank(ctx context.Context, key string, member []byte) (int64, bool, error) {
	return z.rank(ctx, "ZREVRANK", key, member)
}

// ZCard returns the number of members in key's sorted set.
func (z *SortedSets) ZCard(ctx context.Context, key string) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	data, err := z.ex.call(ctx, "ZCARD", key, true, "ZCARD", key)
	if err != nil {
		return 0, err
	}
	return asInt("ZCARD", data)
}

// ZCount counts members whose score falls in [min, max].
func (z *SortedSets) ZCount(ctx context.Context, key string, min, max Bound) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	data, err := z.ex.call(ctx, "ZCOUNT", key, true, "ZCOUNT", key, min.wire(), max.wire())
	if err != nil {
		return 0, err
	}
	return asInt("ZCOUNT", data)
}

func (z *SortedSets) rangeByRank(ctx context.Context, name, key string, start, stop int64, withScores bool) ([]Member, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	args := []string{name, key, formatInt(start), formatInt(stop)}
	if withScores {
		args = append(args, "WITHSCORES")
	}
	data, err := z.ex.call(ctx, name, key, true, args...)
	if err != nil {
		return nil, err
	}
	return decodeMembers(name, data, withScores)
}

// ZRange returns members in ascending-score rank order over
// [start, stop] (negative addresses from the tail). An out-of-range
// request returns an empty slice rather than an error.
func (z *SortedSets) ZRange(ctx context.Context, key string, start, stop int64, withScores bool) ([]Member, error) {
	return z.rangeByRank(ctx, "ZRANGE", key, start, stop, withScores)
}

// ZRevRange is ZRange in descending-score order.
func (z *SortedSets) ZRevRange(ctx context.Context, key string, start, stop int64, withScores bool) ([]Member, error) {
	return z.rangeByRank(ctx, "ZREVRANGE", key, start, stop, withScores)
}

func (z *SortedSets) rangeByScore(ctx context.Context, name, key string, min, max Bound, withScores bool, limit *Limit) ([]Member, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	args := []string{name, key, min.wire(), max.wire()}
	if withScores {
		args = append(args, "WITHSCORES")
	}
	if limit != nil {
		args = append(args, "LIMIT", formatInt(limit.Offset), formatInt(limit.Count))
	}
	data, err := z.ex.call(ctx, name, key, true, args...)
	if err != nil {
		return nil, err
	}
	return decodeMembers(name, data, withScores)
}

// ZRangeByScore returns members with score in [min, max] in ascending
// order, optionally paginated by limit (nil for no limit).
func (z *SortedSets) ZRangeByScore(ctx context.Context, key string, min, max Bound, withScores bool, limit *Limit) ([]Member, error) {
	return z.rangeByScore(ctx, "ZRANGEBYSCORE", key, min, max, withScores, limit)
}

// ZRevRangeByScore is ZRangeByScore in descending order; per the wire
// protocol min and max keep their normal (not swapped) meaning.
func (z *SortedSets) ZRevRangeByScore(ctx context.Context, key string, max, min Bound, withScores bool, limit *Limit) ([]Member, error) {
	return z.rangeByScore(ctx, "ZREVRANGEBYSCORE", key, max, min, withScores, limit)
}

// decodeMembers turns a RANGE-family Array reply into []Member. Without
// WITHSCORES every item is a bare member value (Score left zero);
// with WITHSCORES the array alternates member, score.
func decodeMembers(name string, data resp.Data, withScores bool) ([]Member, error) {
	items, err := asArray(name, data)
	if err != nil {
		return nil, err
	}
	if !withScores {
		out := make([]Member, len(items))
		for i, it := range items {
			b, _, err := asBulk(name, it)
			if err != nil {
				return nil, err
			}
			out[i] = Member{Value: b}
		}
		return out, nil
	}
	if len(items)%2 != 0 {
		return nil, unexpectedKind(name, "WITHSCORES reply had an odd element count")
	}
	out := make([]Member, 0, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		value, _, err := asBulk(name, items[i])
		if err != nil {
			return nil, err
		}
		scoreRaw, _, err := asBulk(name, items[i+1])
		if err != nil {
			return nil, err
		}
		score, err := strconv.ParseFloat(string(scoreRaw), 64)
		if err != nil {
			return nil, unexpectedKind(name, "invalid float reply "+strconv.Quote(string(scoreRaw)))
		}
		out = append(out, Member{Value: value, Score: score})
	}
	return out, nil
}
