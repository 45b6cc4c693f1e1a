package command

import (
	"bufio"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nodewire/rediskit/channel"
	"github.com/nodewire/rediskit/resp"
)

// recordedCall captures one Dispatch invocation for assertions.
type recordedCall struct {
	key      string
	readOnly bool
	args     []string
}

// scriptedDispatcher replays a fixed queue of responses, one per
// Dispatch call, and records every call it saw. It implements
// command.Dispatcher directly (no real socket), matching this package's
// own Dispatcher interface rather than dialing through channel/pool.
type scriptedDispatcher struct {
	calls     []recordedCall
	responses []resp.Data
	errs      []error
}

// Dispatch pops the next scripted response/error off the front of the
// queue, independent of how many calls have already been recorded — so
// a test can append a response right before the call it answers.
func (d *scriptedDispatcher) Dispatch(_ context.Context, key string, readOnly bool, cmd *channel.Command) (resp.Data, error) {
	args := decodeArgs(cmd.Payload)
	d.calls = append(d.calls, recordedCall{key: key, readOnly: readOnly, args: args})

	var data resp.Data
	if len(d.responses) > 0 {
		data = d.responses[0]
		d.responses = d.responses[1:]
	}
	var err error
	if len(d.errs) > 0 {
		err = d.errs[0]
		d.errs = d.errs[1:]
	}
	return data, err
}

func decodeArgs(payload []byte) []string {
	r := bufio.NewReader(bytes.NewReader(payload))
	data, err := resp.ReadData(r)
	if err != nil {
		return nil
	}
	out := make([]string, len(data.Items))
	for i, it := range data.Items {
		out[i] = string(it.Bulk)
	}
	return out
}

func bulk(s string) resp.Data   { return resp.Data{Type: resp.BulkString, Bulk: []byte(s)} }
func nilBulk() resp.Data        { return resp.Data{Type: resp.BulkString, Bulk: nil} }
func integer(n int64) resp.Data { return resp.Data{Type: resp.Integer, Int: n} }
func simple(s string) resp.Data { return resp.Data{Type: resp.SimpleString, Str: s} }
func array(items ...resp.Data) resp.Data {
	return resp.Data{Type: resp.Array, Items: items}
}

func TestKeysFamily(t *testing.T) {
	d := &scriptedDispatcher{responses: []resp.Data{integer(1), integer(2), integer(1), simple("string"), integer(30)}}
	ex := NewExecutor(d, nil)
	k := NewKeys(ex)
	ctx := context.Background()

	ok, err := k.Expire(ctx, "a", 30)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"EXPIRE", "a", "30"}, d.calls[0].args)

	n, err := k.Del(ctx, "a", "b")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	exists, err := k.Exists(ctx, "a")
	require.NoError(t, err)
	require.True(t, exists)
	require.True(t, d.calls[2].readOnly)

	typ, err := k.Type(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "string", typ)

	ttl, err := k.TTL(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, int64(30), ttl)
}

func TestKeysDelShortCircuitsOnEmpty(t *testing.T) {
	d := &scriptedDispatcher{}
	ex := NewExecutor(d, nil)
	k := NewKeys(ex)

	n, err := k.Del(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
	require.Empty(t, d.calls)
}

func TestKeysValidatesEmptyKey(t *testing.T) {
	d := &scriptedDispatcher{}
	ex := NewExecutor(d, nil)
	k := NewKeys(ex)

	_, err := k.Expire(context.Background(), "", 30)
	require.Error(t, err)
	require.Empty(t, d.calls)
}

func TestCountersAddAndGetSetsExpiryExactlyOnce(t *testing.T) {
	// spec.md §8 scenario 1: addAndGet(k, 7, 30) on an absent key returns
	// 7 and issues EXPIRE; a subsequent addAndGet(k, 5, 30) returns 12 and
	// does not.
	d := &scriptedDispatcher{responses: []resp.Data{integer(7), integer(1), integer(12)}}
	ex := NewExecutor(d, nil)
	c := NewCounters(ex)
	ctx := context.Background()

	got, err := c.AddAndGet(ctx, "k", 7, 30)
	require.NoError(t, err)
	require.Equal(t, int64(7), got)
	require.Len(t, d.calls, 2)
	require.Equal(t, []string{"INCRBY", "k", "7"}, d.calls[0].args)
	require.Equal(t, []string{"EXPIRE", "k", "30"}, d.calls[1].args)

	got, err = c.AddAndGet(ctx, "k", 5, 30)
	require.NoError(t, err)
	require.Equal(t, int64(12), got)
	require.Len(t, d.calls, 3)
	require.Equal(t, []string{"INCRBY", "k", "5"}, d.calls[2].args)
}

func TestCountersMGet(t *testing.T) {
	d := &scriptedDispatcher{responses: []resp.Data{array(bulk("1"), bulk("2"), nilBulk())}}
	ex := NewExecutor(d, nil)
	c := NewCounters(ex)

	out, err := c.MGet(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"a": 1, "b": 2}, out)
}

func TestStringsSetNXReportsFailureAsNilBulk(t *testing.T) {
	d := &scriptedDispatcher{responses: []resp.Data{nilBulk()}}
	ex := NewExecutor(d, nil)
	s := NewStrings(ex)

	set, err := s.SetNX(context.Background(), "k", "v")
	require.NoError(t, err)
	require.False(t, set)
}

func TestStringsSetRoundTrip(t *testing.T) {
	d := &scriptedDispatcher{}
	ex := NewExecutor(d, nil)
	s := NewStrings(ex)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "ignored-because-scripted"))
	require.Len(t, d.calls, 1)
	require.Equal(t, "SET", d.calls[0].args[0])
	require.Equal(t, "k", d.calls[0].args[1])

	// Feed the SET call's own encoded payload back in as the GET reply
	// to prove Encode/Decode round-trip through the wire args.
	encoded := []byte(d.calls[0].args[2])
	d.responses = append(d.responses, bulk(string(encoded)))

	var out string
	found, err := s.Get(ctx, "k", &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "ignored-because-scripted", out)
}

func TestListsLInsertSpecScenario(t *testing.T) {
	// spec.md §8 scenario 5: [a,pivot,pivot,tail]; LINSERT BEFORE pivot X
	// -> length 5; a second call -> length 6.
	d := &scriptedDispatcher{responses: []resp.Data{integer(5), integer(6)}}
	ex := NewExecutor(d, nil)
	l := NewLists(ex)
	ctx := context.Background()

	n, err := l.LInsert(ctx, "list", true, []byte("pivot"), []byte("X"))
	require.NoError(t, err)
	require.Equal(t, int64(5), n)
	require.Equal(t, []string{"LINSERT", "list", "BEFORE", "pivot", "X"}, d.calls[0].args)

	n, err = l.LInsert(ctx, "list", true, []byte("pivot"), []byte("X"))
	require.NoError(t, err)
	require.Equal(t, int64(6), n)
}

func TestZSetRankAndRangeSpecScenario(t *testing.T) {
	// spec.md §8 scenario 3.
	d := &scriptedDispatcher{responses: []resp.Data{
		integer(1), integer(1),
		array(bulk("m1"), bulk("m2"), bulk("m3")),
	}}
	ex := NewExecutor(d, nil)
	z := NewSortedSets(ex)
	ctx := context.Background()

	rank, found, err := z.ZRank(ctx, "z", []byte("m2"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(1), rank)

	revRank, found, err := z.ZRevRank(ctx, "z", []byte("m2"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(1), revRank)

	members, err := z.ZRange(ctx, "z", 0, -1, false)
	require.NoError(t, err)
	require.Equal(t, []Member{{Value: []byte("m1")}, {Value: []byte("m2")}, {Value: []byte("m3")}}, members)
}

func TestZSetScoreBoundsWireForm(t *testing.T) {
	require.Equal(t, "-inf", NegInf().wire())
	require.Equal(t, "+inf", PosInf().wire())
	require.Equal(t, "1", Inclusive(1).wire())
	require.Equal(t, "(4", Exclusive(4).wire())
}

func TestZAddShortCircuitsOnEmpty(t *testing.T) {
	d := &scriptedDispatcher{}
	ex := NewExecutor(d, nil)
	z := NewSortedSets(ex)

	n, err := z.ZAdd(context.Background(), "z", ZAddDefault, nil)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
	require.Empty(t, d.calls)
}

func TestHashesHGetAll(t *testing.T) {
	d := &scriptedDispatcher{responses: []resp.Data{array(bulk("f1"), bulk("v1"), bulk("f2"), bulk("v2"))}}
	ex := NewExecutor(d, nil)
	h := NewHashes(ex)

	out, err := h.HGetAll(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, map[string][]byte{"f1": []byte("v1"), "f2": []byte("v2")}, out)
}

func TestHMSetShortCircuitsOnEmpty(t *testing.T) {
	d := &scriptedDispatcher{}
	ex := NewExecutor(d, nil)
	h := NewHashes(ex)

	require.NoError(t, h.HMSet(context.Background(), "k", nil))
	require.Empty(t, d.calls)
}

func TestHealthPingRejectsUnexpectedReply(t *testing.T) {
	d := &scriptedDispatcher{responses: []resp.Data{simple("WRONG")}}
	ex := NewExecutor(d, nil)
	h := NewHealth(ex)

	err := h.Ping(context.Background())
	require.Error(t, err)
}

func TestGeoAddShortCircuitsOnEmpty(t *testing.T) {
	d := &scriptedDispatcher{}
	ex := NewExecutor(d, nil)
	g := NewGeo(ex)

	n, err := g.GeoAdd(context.Background(), "k", nil)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
	require.Empty(t, d.calls)
}
