/*
Package cluster implements spec.md §4.6: a client-side deterministic
key-to-host mapping over a pool.Pool, with linear-probing fallback to the
next available slot and a concurrent, partial-result MultiGet.

Grounded on wegjgwioj-myRedis's cluster/peer_client.go for the
probe-to-next-alive-peer shape, generalized from a fixed ring of peers to
pool.Pool's slot table.
*/
package cluster

import (
	"context"
	"sync"

	"github.com/nodewire/rediskit/channel"
	"github.com/nodewire/rediskit/metrics"
	"github.com/nodewire/rediskit/pool"
	"github.com/nodewire/rediskit/resp"
	"github.com/nodewire/rediskit/rkerrors"
)

// RoutingStrategy picks a starting slot index for key among n configured
// hosts. Router then linearly probes from that index for the first
// available slot, so a strategy only needs to supply the deterministic
// starting point, not fallback behavior.
type RoutingStrategy interface {
	Select(key string, n int) int
}

// Router wraps a pool.Pool with a RoutingStrategy, implementing
// command.Dispatcher.
type Router struct {
	Pool     *pool.Pool
	Strategy RoutingStrategy
	Metrics  *metrics.Collector
}

// New builds a Router over p using strategy. A nil strategy defaults to
// CRC32Strategy, spec.md §4.6's default.
func New(p *pool.Pool, strategy RoutingStrategy, m *metrics.Collector) *Router {
	if strategy == nil {
		strategy = CRC32Strategy{}
	}
	return &Router{Pool: p, Strategy: strategy, Metrics: m}
}

// selectSlot implements spec.md §4.6 step 2: starting from the
// strategy's chosen index, probe forward for the first available slot.
func (r *Router) selectSlot(key string) (int, bool) {
	n := r.Pool.Len()
	if n == 0 {
		return 0, false
	}
	start := r.Strategy.Select(key, n) % n
	if start < 0 {
		start += n
	}
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if r.Pool.IsAvailable(idx) {
			return idx, true
		}
	}
	return 0, false
}

// Dispatch implements command.Dispatcher: route key to its selected
// slot's Channel and send cmd. readOnly is accepted for interface
// symmetry with replication.Router but otherwise ignored — every slot in
// a cluster Router is a peer, not a master/slave pair.
func (r *Router) Dispatch(ctx context.Context, key string, readOnly bool, cmd *channel.Command) (resp.Data, error) {
	idx, ok := r.selectSlot(key)
	if !ok {
		return resp.Data{}, rkerrors.ErrIllegalState
	}
	ch := r.Pool.Channel(idx)
	if ch == nil {
		return resp.Data{}, rkerrors.ErrIllegalState
	}
	return ch.Send(ctx, cmd)
}

// MultiGet implements spec.md §4.6's fan-out GET: group keys by selected
// slot, run one goroutine per slot that issues a GET for each of its keys
// in turn, and merge found values into a single map. Each failed lookup
// increments the multiGetError counter but never fails the call — the
// key is simply absent from the result, indistinguishable from keys that
// don't exist.
func (r *Router) MultiGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}

	bySlot := make(map[int][]string)
	for _, k := range keys {
		idx, ok := r.selectSlot(k)
		if !ok {
			if r.Metrics != nil {
				r.Metrics.ObserveMultiGetError()
			}
			continue
		}
		bySlot[idx] = append(bySlot[idx], k)
	}

	result := make(map[string][]byte)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for idx, slotKeys := range bySlot {
		idx, slotKeys := idx, slotKeys
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := r.Pool.Channel(idx)
			if ch == nil {
				if r.Metrics != nil {
					r.Metrics.ObserveMultiGetError()
				}
				return
			}
			for _, k := range slotKeys {
				cmd := channel.NewCommand("GET", resp.EncodeStrings("GET", k))
				data, err := ch.Send(ctx, cmd)
				if err != nil {
					if r.Metrics != nil {
						r.Metrics.ObserveMultiGetError()
					}
					continue
				}
				if data.IsNilBulk() {
					continue
				}
				mu.Lock()
				result[k] = data.Bulk
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return result, nil
}
