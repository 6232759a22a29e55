package connection_test

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/connection"
	"github.com/crowbarz/pioneeravr-go/param"
)

// lineServer is a minimal line-oriented TCP peer for connection tests.
type lineServer struct {
	t  *testing.T
	ln net.Listener

	mu       sync.Mutex
	conn     net.Conn
	received []string
	accepted chan net.Conn
}

func newLineServer(t *testing.T) *lineServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &lineServer{t: t, ln: ln, accepted: make(chan net.Conn, 4)}
	go s.acceptLoop()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *lineServer) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		s.accepted <- conn
		go s.readLoop(conn)
	}
}

func (s *lineServer) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		s.mu.Lock()
		s.received = append(s.received, line)
		s.mu.Unlock()
	}
}

func (s *lineServer) addr() *connection.TCPTransport {
	addr := s.ln.Addr().(*net.TCPAddr)
	return &connection.TCPTransport{Host: "127.0.0.1", Port: addr.Port}
}

func (s *lineServer) send(line string) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		s.t.Fatal("no client connected")
	}
	if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
		s.t.Fatalf("server write: %v", err)
	}
}

func (s *lineServer) lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

func (s *lineServer) closeConn() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func newTestConn(t *testing.T, s *lineServer) (*connection.Connection, *param.Params) {
	t.Helper()
	params := param.New()
	if err := params.SetUserParams(map[param.Key]any{
		param.CommandDelay: 0.0,
		param.Timeout:      1.0,
	}); err != nil {
		t.Fatal(err)
	}
	c := connection.New(s.addr(), params, nil)
	t.Cleanup(c.ShutdownNow)
	return c, params
}

func TestConnectAndSend(t *testing.T) {
	s := newLineServer(t)
	c, _ := newTestConn(t, s)

	var frames []string
	var mu sync.Mutex
	c.OnFrame = func(frame string) {
		mu.Lock()
		frames = append(frames, frame)
		mu.Unlock()
	}

	if err := c.Connect(context.Background(), false); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := c.State(); got != connection.Starting {
		t.Errorf("state = %v, want starting", got)
	}
	c.SetReady()
	if !c.Available() {
		t.Error("connection should be available when ready")
	}

	if err := c.Send(context.Background(), "?P", true); err != nil {
		t.Fatalf("Send: %v", err)
	}
	waitFor(t, time.Second, func() bool {
		for _, l := range s.lines() {
			if l == "?P" {
				return true
			}
		}
		return false
	})

	s.send("PWR0")
	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(frames) == 1 && frames[0] == "PWR0"
	})
}

func TestEmptyLinesAreKeepalives(t *testing.T) {
	s := newLineServer(t)
	c, _ := newTestConn(t, s)

	var frames []string
	var mu sync.Mutex
	c.OnFrame = func(frame string) {
		mu.Lock()
		frames = append(frames, frame)
		mu.Unlock()
	}
	if err := c.Connect(context.Background(), false); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	before := c.LastInbound()
	s.send("") // bare \r\n keepalive
	waitFor(t, time.Second, func() bool { return c.LastInbound().After(before) })
	mu.Lock()
	n := len(frames)
	mu.Unlock()
	if n != 0 {
		t.Errorf("keepalive delivered %d frames, want 0", n)
	}
}

func TestInitialDialFailure(t *testing.T) {
	params := param.New()
	_ = params.SetUserParams(map[param.Key]any{param.Timeout: 0.2})
	c := connection.New(&connection.TCPTransport{Host: "127.0.0.1", Port: 1}, params, nil)
	t.Cleanup(c.ShutdownNow)

	err := c.Connect(context.Background(), false)
	if !errors.Is(err, avrerr.ErrConnectionFailure) {
		t.Errorf("error = %v, want ConnectionFailure", err)
	}
	if got := c.State(); got != connection.Disconnected {
		t.Errorf("state = %v, want disconnected", got)
	}
}

func TestReconnectAfterDrop(t *testing.T) {
	s := newLineServer(t)
	c, _ := newTestConn(t, s)

	downs := make(chan error, 1)
	ups := make(chan struct{}, 1)
	c.OnDown = func(err error) { downs <- err }
	c.OnUp = func() { ups <- struct{}{} }

	if err := c.Connect(context.Background(), true); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c.SetReady()
	<-s.accepted

	s.closeConn()

	select {
	case <-downs:
	case <-time.After(2 * time.Second):
		t.Fatal("OnDown not called after drop")
	}
	if got := c.State(); got != connection.Reconnecting {
		t.Errorf("state = %v, want reconnecting", got)
	}

	// First backoff step is 1s.
	select {
	case <-ups:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not reconnect")
	}
	if got := c.State(); got != connection.Starting {
		t.Errorf("state after reconnect = %v, want starting", got)
	}
}

func TestDisconnectWithoutReconnect(t *testing.T) {
	s := newLineServer(t)
	c, _ := newTestConn(t, s)
	if err := c.Connect(context.Background(), true); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c.SetReady()
	c.Disconnect(false)
	if got := c.State(); got != connection.Disconnected {
		t.Errorf("state = %v, want disconnected", got)
	}
	if err := c.Send(context.Background(), "?P", false); !errors.Is(err, avrerr.ErrUnavailable) {
		t.Errorf("Send after disconnect = %v, want Unavailable", err)
	}
}

func TestShutdownIsTerminal(t *testing.T) {
	s := newLineServer(t)
	c, _ := newTestConn(t, s)
	if err := c.Connect(context.Background(), true); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c.ShutdownNow()
	if got := c.State(); got != connection.Shutdown {
		t.Errorf("state = %v, want shutdown", got)
	}
	if err := c.Connect(context.Background(), true); !errors.Is(err, avrerr.ErrUnavailable) {
		t.Errorf("Connect after shutdown = %v, want Unavailable", err)
	}
}
