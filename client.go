/*
Package rediskit is the root façade SPEC_FULL.md's "Supplemented
features" section calls for (design note §9: "expose typed operations
directly on one concrete client"): Client composes the routing layer
([C6] cluster.Router or [C7] replication.Router, picked by how Config is
populated), the [C2] transcoder pair, and [C8] metrics.Collector behind
one constructor, and hands out the per-family façades package command
builds over its Executor.
*/
package rediskit

import (
	"context"

	"github.com/nodewire/rediskit/channel"
	"github.com/nodewire/rediskit/cluster"
	"github.com/nodewire/rediskit/command"
	"github.com/nodewire/rediskit/config"
	"github.com/nodewire/rediskit/logging"
	"github.com/nodewire/rediskit/metrics"
	"github.com/nodewire/rediskit/pool"
	"github.com/nodewire/rediskit/replication"
	"github.com/nodewire/rediskit/rkerrors"
)

// Client is the single concrete entry point most callers need: one
// Executor routed through either a plain cluster.Router (Config.Hosts)
// or a replication.Router (Config.Master/Slaves), with every command
// family façade built on top of it.
type Client struct {
	Keys       *command.Keys
	Strings    *command.Strings
	Counters   *command.Counters
	Lists      *command.Lists
	Sets       *command.Sets
	SortedSets *command.SortedSets
	Hashes     *command.Hashes
	Geo        *command.Geo
	Health     *command.Health

	Metrics *metrics.Collector

	clusterRouter *cluster.Router

	cluster *pool.Pool
	master  *pool.Pool
	slaves  *pool.Pool
}

// New builds a Client from cfg: dials every configured host into pools,
// wires the appropriate router, and constructs every command family
// façade over one shared Executor. It fails with rkerrors.ErrIllegalState
// if no configured node comes up within its construction timeout
// (pool.New's contract, spec.md §4.5).
func New(cfg *config.Config) (*Client, error) {
	if len(cfg.Hosts) == 0 && len(cfg.Master) == 0 {
		return nil, rkerrors.ErrInvalidArgument
	}
	cfg.ApplyDefaults()
	log := logging.New(cfg.Logging)
	m := metrics.New(metrics.Options{
		SlowExecutionThreshold: cfg.SlowExecutionThreshold(),
		Logger:                 log,
	})

	chCfg := channel.Config{
		Timeout:            cfg.Timeout(),
		ConnectTimeout:     cfg.ConnectTimeout(),
		PingPeriod:         cfg.PingPeriod(),
		SendBufferBytes:    cfg.SendBufferBytes,
		ReceiveBufferBytes: cfg.ReceiveBufferBytes,
		KeepAlive:          cfg.KeepAlive,
		Logger:             log,
	}

	var strategy cluster.RoutingStrategy
	c := &Client{Metrics: m}

	var dispatcher command.Dispatcher
	var err error

	if len(cfg.Master) > 0 {
		dispatcher, err = c.buildReplication(cfg, chCfg, m)
	} else {
		if cfg.UseRendezvous {
			strategy = cluster.NewRendezvousStrategy(cfg.Hosts)
		}
		router, buildErr := c.buildCluster(cfg.Hosts, chCfg, strategy, m)
		dispatcher, err = router, buildErr
		if buildErr == nil {
			c.clusterRouter = router
		}
	}
	if err != nil {
		return nil, err
	}

	ex := command.NewExecutor(dispatcher, m)
	ex.Opaque.CompressionThreshold = cfg.CompressionThresholdBytes
	c.Keys = command.NewKeys(ex)
	c.Strings = command.NewStrings(ex)
	c.Counters = command.NewCounters(ex)
	c.Lists = command.NewLists(ex)
	c.Sets = command.NewSets(ex)
	c.SortedSets = command.NewSortedSets(ex)
	c.Hashes = command.NewHashes(ex)
	c.Geo = command.NewGeo(ex)
	c.Health = command.NewHealth(ex)
	return c, nil
}

func (c *Client) buildCluster(hosts []string, chCfg channel.Config, strategy cluster.RoutingStrategy, m *metrics.Collector) (*cluster.Router, error) {
	if len(hosts) == 0 {
		return nil, rkerrors.ErrInvalidArgument
	}
	p, err := pool.New(pool.Options{
		Hosts:         hosts,
		ChannelConfig: chCfg,
		Logger:        chCfg.Logger,
		Listener:      pool.NewMetricsListener(m, chCfg.Logger),
	})
	if err != nil {
		return nil, err
	}
	c.cluster = p
	return cluster.New(p, strategy, m), nil
}

func (c *Client) buildReplication(cfg *config.Config, chCfg channel.Config, m *metrics.Collector) (*replication.Router, error) {
	if len(cfg.Master) != 1 {
		return nil, rkerrors.ErrInvalidArgument
	}
	if len(cfg.Slaves) == 0 {
		return nil, rkerrors.ErrInvalidArgument
	}

	master, err := pool.New(pool.Options{
		Hosts:         cfg.Master,
		ChannelConfig: chCfg,
		Logger:        chCfg.Logger,
		Listener:      pool.NewMetricsListener(m, chCfg.Logger),
	})
	if err != nil {
		return nil, err
	}
	c.master = master

	var strategy cluster.RoutingStrategy
	if cfg.UseRendezvous {
		strategy = cluster.NewRendezvousStrategy(cfg.Slaves)
	}
	slavePool, err := pool.New(pool.Options{
		Hosts:         cfg.Slaves,
		ChannelConfig: chCfg,
		Logger:        chCfg.Logger,
		Listener:      pool.NewMetricsListener(m, chCfg.Logger),
	})
	if err != nil {
		master.Close()
		return nil, err
	}
	c.slaves = slavePool

	slaveRouter := cluster.New(slavePool, strategy, m)
	return replication.New(master, slaveRouter, cfg.Fallback()), nil
}

// Close tears down every dialed Channel and stops all revival loops.
func (c *Client) Close() {
	if c.cluster != nil {
		c.cluster.Close()
	}
	if c.master != nil {
		c.master.Close()
	}
	if c.slaves != nil {
		c.slaves.Close()
	}
}

// MultiGet fans a batch GET out across cluster slots, per spec.md
// §4.6's MultiGet contract. It's only meaningful for a cluster-routed
// Client (Config.Hosts, not Master/Slaves), which has no single "the"
// node to fan a batch across otherwise; a replication-routed Client
// returns rkerrors.ErrIllegalState.
func (c *Client) MultiGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	if c.clusterRouter == nil {
		return nil, rkerrors.ErrIllegalState
	}
	return c.clusterRouter.MultiGet(ctx, keys)
}
