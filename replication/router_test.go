package replication

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nodewire/rediskit/channel"
	"github.com/nodewire/rediskit/cluster"
	"github.com/nodewire/rediskit/pool"
	"github.com/nodewire/rediskit/resp"
	"github.com/nodewire/rediskit/rkerrors"
)

type scriptedServer struct {
	ln      net.Listener
	respond func(name string, args []resp.Data) []byte
}

func newScriptedServer(t *testing.T, respond func(name string, args []resp.Data) []byte) *scriptedServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &scriptedServer{ln: ln, respond: respond}
	go s.serve()
	return s
}

func (s *scriptedServer) addr() string { return s.ln.Addr().String() }
func (s *scriptedServer) close()       { _ = s.ln.Close() }

func (s *scriptedServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go func() {
			defer conn.Close()
			r := bufio.NewReader(conn)
			for {
				data, err := resp.ReadData(r)
				if err != nil {
					return
				}
				var name string
				if len(data.Items) > 0 {
					name = string(data.Items[0].Bulk)
				}
				out := s.respond(name, data.Items)
				if out == nil {
					continue
				}
				if _, err := conn.Write(out); err != nil {
					return
				}
			}
		}()
	}
}

func TestReplicationRouterWritesGoToMaster(t *testing.T) {
	master := newScriptedServer(t, func(name string, args []resp.Data) []byte { return []byte("+OK\r\n") })
	slave := newScriptedServer(t, func(name string, args []resp.Data) []byte {
		t.Error("write must not reach a slave")
		return []byte("+OK\r\n")
	})
	defer master.close()
	defer slave.close()

	r := buildRouter(t, master.addr(), []string{slave.addr()}, true)
	defer r.Master.Close()
	defer r.Slaves.Pool.Close()

	cmd := channel.NewCommand("SET", resp.EncodeStrings("SET", "k", "v"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := r.Dispatch(ctx, "k", false, cmd)
	require.NoError(t, err)
}

func TestReplicationRouterReadsGoToSlave(t *testing.T) {
	master := newScriptedServer(t, func(name string, args []resp.Data) []byte {
		t.Error("read should have been served by the slave")
		return []byte("$-1\r\n")
	})
	slave := newScriptedServer(t, func(name string, args []resp.Data) []byte { return []byte("$1\r\nv\r\n") })
	defer master.close()
	defer slave.close()

	r := buildRouter(t, master.addr(), []string{slave.addr()}, true)
	defer r.Master.Close()
	defer r.Slaves.Pool.Close()

	cmd := channel.NewCommand("GET", resp.EncodeStrings("GET", "k"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	data, err := r.Dispatch(ctx, "k", true, cmd)
	require.NoError(t, err)
	require.Equal(t, "v", string(data.Bulk))
}

func TestReplicationRouterFallsBackToMasterWhenSlavesDown(t *testing.T) {
	master := newScriptedServer(t, func(name string, args []resp.Data) []byte { return []byte("$1\r\nm\r\n") })
	defer master.close()

	masterPool, err := pool.New(pool.Options{
		Hosts:         []string{master.addr()},
		ChannelConfig: channel.Config{PingPeriod: -1},
	})
	require.NoError(t, err)
	defer masterPool.Close()

	slavePool, err := pool.New(pool.Options{
		Hosts:               []string{master.addr()},
		ChannelConfig:       channel.Config{PingPeriod: -1},
		ConstructionTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	slavePool.Channel(0).Close()
	require.Eventually(t, func() bool { return !slavePool.IsAvailable(0) }, time.Second, time.Millisecond)

	slaveRouter := cluster.New(slavePool, cluster.CRC32Strategy{}, nil)
	r := New(masterPool, slaveRouter, true)

	cmd := channel.NewCommand("GET", resp.EncodeStrings("GET", "k"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	data, err := r.Dispatch(ctx, "k", true, cmd)
	require.NoError(t, err)
	require.Equal(t, "m", string(data.Bulk))
}

func TestReplicationRouterDoesNotFallBackOnSlaveTimeout(t *testing.T) {
	master := newScriptedServer(t, func(name string, args []resp.Data) []byte {
		t.Error("a live slave's timeout must not fall back to the master")
		return []byte("$1\r\nm\r\n")
	})
	defer master.close()

	// A slave that accepts the connection but never replies, so the
	// command times out rather than erroring with ErrIllegalState.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	r := buildRouter(t, master.addr(), []string{ln.Addr().String()}, true)
	defer r.Master.Close()
	defer r.Slaves.Pool.Close()

	cmd := channel.NewCommand("GET", resp.EncodeStrings("GET", "k"))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = r.Dispatch(ctx, "k", true, cmd)
	require.ErrorIs(t, err, rkerrors.ErrTimeout)
}

func buildRouter(t *testing.T, masterAddr string, slaveAddrs []string, fallback bool) *Router {
	t.Helper()
	masterPool, err := pool.New(pool.Options{
		Hosts:         []string{masterAddr},
		ChannelConfig: channel.Config{PingPeriod: -1},
	})
	require.NoError(t, err)

	slavePool, err := pool.New(pool.Options{
		Hosts:         slaveAddrs,
		ChannelConfig: channel.Config{PingPeriod: -1},
	})
	require.NoError(t, err)

	slaveRouter := cluster.New(slavePool, cluster.CRC32Strategy{}, nil)
	return New(masterPool, slaveRouter, fallback)
}
