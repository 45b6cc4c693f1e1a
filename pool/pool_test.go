package pool

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nodewire/rediskit/channel"
	"github.com/nodewire/rediskit/resp"
)

// echoServer accepts connections and answers every command with +OK,
// staying up for the test's duration unless closed.
type echoServer struct {
	ln net.Listener
}

func newEchoServer(t *testing.T) *echoServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &echoServer{ln: ln}
	go s.serve()
	return s
}

func (s *echoServer) addr() string { return s.ln.Addr().String() }
func (s *echoServer) close()       { _ = s.ln.Close() }

func (s *echoServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go func() {
			defer conn.Close()
			r := bufio.NewReader(conn)
			for {
				if _, err := resp.ReadData(r); err != nil {
					return
				}
				if _, err := conn.Write([]byte("+OK\r\n")); err != nil {
					return
				}
			}
		}()
	}
}

func TestPoolConstructionSucceedsWithOneHostUp(t *testing.T) {
	up := newEchoServer(t)
	defer up.close()

	p, err := New(Options{
		Hosts:               []string{up.addr(), "127.0.0.1:1"},
		ChannelConfig:       channel.Config{PingPeriod: -1, ConnectTimeout: 50 * time.Millisecond},
		ConstructionTimeout: 500 * time.Millisecond,
	})
	require.NoError(t, err)
	defer p.Close()

	require.Equal(t, 2, p.Len())
	require.True(t, p.IsAvailable(0))
}

func TestPoolConstructionFailsWithNoHostsUp(t *testing.T) {
	_, err := New(Options{
		Hosts:               []string{"127.0.0.1:1", "127.0.0.1:2"},
		ChannelConfig:       channel.Config{PingPeriod: -1, ConnectTimeout: 20 * time.Millisecond},
		ConstructionTimeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
}

func TestPoolRevivesClosedSlot(t *testing.T) {
	up := newEchoServer(t)
	defer up.close()

	var closedEvents, recoveredEvents int
	p, err := New(Options{
		Hosts:           []string{up.addr()},
		ChannelConfig:   channel.Config{PingPeriod: -1},
		RevivalInterval: 20 * time.Millisecond,
		Listener: countingListener{
			onClosed:    func() { closedEvents++ },
			onRecovered: func() { recoveredEvents++ },
		},
	})
	require.NoError(t, err)
	defer p.Close()

	p.Channel(0).Close()

	require.Eventually(t, func() bool { return recoveredEvents >= 1 }, 2*time.Second, 10*time.Millisecond)
	require.True(t, p.IsAvailable(0))
}

type countingListener struct {
	onClosed    func()
	onRecovered func()
}

func (c countingListener) Created(host string)            {}
func (c countingListener) Recovered(host string)           { c.onRecovered() }
func (c countingListener) Closed(host string, cause error) { c.onClosed() }
