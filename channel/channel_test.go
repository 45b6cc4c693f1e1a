package channel

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/nodewire/rediskit/resp"
	"github.com/stretchr/testify/require"
)

// fakeServer is a minimal RESP echo/scripted server used to drive
// Channel from the other end of a real socket, the same way the
// teacher's server_test.go drives its server with a real client.
type fakeServer struct {
	ln net.Listener
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return &fakeServer{ln: ln}
}

func (s *fakeServer) addr() string { return s.ln.Addr().String() }

func (s *fakeServer) close() { _ = s.ln.Close() }

// acceptAndHandle accepts exactly one connection and invokes handle for
// every RESP array it reads, writing back whatever handle returns.
func (s *fakeServer) acceptAndHandle(t *testing.T, handle func(name string, args []resp.Data) []byte) {
	t.Helper()
	conn, err := s.ln.Accept()
	require.NoError(t, err)
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
			out := handle(name, data.Items)
			if out == nil {
				continue // withhold a response but keep the connection open
			}
			if _, err := conn.Write(out); err != nil {
				return
			}
		}
	}()
}

func TestChannelSendSuccess(t *testing.T) {
	srv := newFakeServer(t)
	defer srv.close()
	srv.acceptAndHandle(t, func(name string, args []resp.Data) []byte {
		return []byte("+OK\r\n")
	})

	ch, err := Dial(srv.addr(), Config{PingPeriod: -1})
	require.NoError(t, err)
	defer ch.Close()

	cmd := NewCommand("SET", resp.EncodeStrings("SET", "k", "v"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	data, err := ch.Send(ctx, cmd)
	require.NoError(t, err)
	require.Equal(t, resp.SimpleString, data.Type)
	require.Equal(t, "OK", data.Str)
}

func TestChannelSendServerError(t *testing.T) {
	srv := newFakeServer(t)
	defer srv.close()
	srv.acceptAndHandle(t, func(name string, args []resp.Data) []byte {
		return []byte("-ERR bad thing\r\n")
	})

	ch, err := Dial(srv.addr(), Config{PingPeriod: -1})
	require.NoError(t, err)
	defer ch.Close()

	cmd := NewCommand("GET", resp.EncodeStrings("GET", "k"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = ch.Send(ctx, cmd)
	require.Error(t, err)
}

func TestChannelPipelinesInOrder(t *testing.T) {
	srv := newFakeServer(t)
	defer srv.close()

	var seen []string
	done := make(chan struct{})
	srv.acceptAndHandle(t, func(name string, args []resp.Data) []byte {
		key := string(args[1].Bulk)
		seen = append(seen, key)
		if len(seen) == 3 {
			defer close(done)
		}
		// Echo the single-byte key back so each caller can check that the
		// reply paired with its command is the one sent for it.
		return []byte("$1\r\n" + key + "\r\n")
	})

	ch, err := Dial(srv.addr(), Config{PingPeriod: -1})
	require.NoError(t, err)
	defer ch.Close()

	results := make(chan error, 3)
	for _, k := range []string{"a", "b", "c"} {
		go func(k string) {
			cmd := NewCommand("SET", resp.EncodeStrings("SET", k, "1"))
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			data, err := ch.Send(ctx, cmd)
			if err == nil && string(data.Bulk) != k {
				err = fmt.Errorf("sent key %q, got reply %q", k, data.Bulk)
			}
			results <- err
		}(k)
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, <-results)
	}
	<-done
	require.Len(t, seen, 3)
}

func TestChannelClosedRejectsSend(t *testing.T) {
	srv := newFakeServer(t)
	defer srv.close()
	srv.acceptAndHandle(t, func(name string, args []resp.Data) []byte { return []byte("+OK\r\n") })

	ch, err := Dial(srv.addr(), Config{PingPeriod: -1})
	require.NoError(t, err)
	ch.Close()
	// close() finishes asynchronously; wait for state to settle.
	require.Eventually(t, func() bool { return ch.State() == Closed }, time.Second, time.Millisecond)

	cmd := NewCommand("PING", resp.EncodeStrings("PING"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = ch.Send(ctx, cmd)
	require.Error(t, err)
}

func TestChannelHeartbeatSendsPing(t *testing.T) {
	srv := newFakeServer(t)
	defer srv.close()

	pinged := make(chan struct{}, 1)
	srv.acceptAndHandle(t, func(name string, args []resp.Data) []byte {
		if name == "PING" {
			select {
			case pinged <- struct{}{}:
			default:
			}
			return []byte("+PONG\r\n")
		}
		return []byte("+OK\r\n")
	})

	ch, err := Dial(srv.addr(), Config{PingPeriod: 30 * time.Millisecond})
	require.NoError(t, err)
	defer ch.Close()

	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a PING within the heartbeat period")
	}
}

func TestChannelConsecutiveTimeoutsSelfClose(t *testing.T) {
	srv := newFakeServer(t)
	defer srv.close()
	srv.acceptAndHandle(t, func(name string, args []resp.Data) []byte {
		return nil // withhold every response
	})

	ch, err := Dial(srv.addr(), Config{PingPeriod: -1})
	require.NoError(t, err)
	defer ch.Close()

	for i := 0; i < maxConsecutiveTimeouts+2; i++ {
		if ch.State() != Normal {
			break
		}
		cmd := NewCommand("GET", resp.EncodeStrings("GET", "k"))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, _ = ch.Send(ctx, cmd)
		cancel()
	}

	require.Eventually(t, func() bool { return ch.State() == Closed }, time.Second, time.Millisecond)
}

func TestChannelUnusableCallbackFiresOnce(t *testing.T) {
	srv := newFakeServer(t)
	defer srv.close()
	srv.acceptAndHandle(t, func(name string, args []resp.Data) []byte { return []byte("+OK\r\n") })

	var calls int
	ch, err := Dial(srv.addr(), Config{
		PingPeriod: -1,
		OnUnusable: func(*Channel) { calls++ },
	})
	require.NoError(t, err)

	ch.Close()
	ch.Close()
	require.Eventually(t, func() bool { return calls == 1 }, time.Second, time.Millisecond)
}
