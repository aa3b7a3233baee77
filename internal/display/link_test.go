package display

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/genricoloni/sbcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingConn is an in-memory net.Conn that fails every write after failAfter writes
type recordingConn struct {
	mu        sync.Mutex
	lines     []string
	failAfter int // -1 never fails
	closed    bool
}

func newRecordingConn(failAfter int) *recordingConn {
	return &recordingConn{failAfter: failAfter}
}

func (c *recordingConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, net.ErrClosed
	}
	if c.failAfter >= 0 && len(c.lines) >= c.failAfter {
		return 0, errors.New("broken pipe")
	}
	c.lines = append(c.lines, strings.TrimSuffix(string(b), "\n"))
	return len(b), nil
}

func (c *recordingConn) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recordingConn) Read([]byte) (int, error)         { return 0, errors.New("not readable") }
func (c *recordingConn) LocalAddr() net.Addr              { return &net.TCPAddr{} }
func (c *recordingConn) RemoteAddr() net.Addr             { return &net.TCPAddr{} }
func (c *recordingConn) SetDeadline(time.Time) error      { return nil }
func (c *recordingConn) SetReadDeadline(time.Time) error  { return nil }
func (c *recordingConn) SetWriteDeadline(time.Time) error { return nil }

// fakeDialer hands out the queued conns in order, then fails
type fakeDialer struct {
	conns []net.Conn
	dials int
}

func (d *fakeDialer) Dial(network, address string) (net.Conn, error) {
	d.dials++
	if len(d.conns) == 0 {
		return nil, errors.New("connection refused")
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

var initLines = []string{"sketch", "encoding utf8", "clear"}

func TestLink_EnsureConnectedSendsInitOnce(t *testing.T) {
	conn := newRecordingConn(-1)
	dialer := &fakeDialer{conns: []net.Conn{conn}}
	link := NewLinkWithDialer(zap.NewNop(), "display:4444", time.Second, dialer)

	require.True(t, link.EnsureConnected())
	require.True(t, link.EnsureConnected())

	assert.Equal(t, 1, dialer.dials)
	assert.Equal(t, initLines, conn.Lines())
	assert.True(t, link.Connected())
}

func TestLink_DialFailure(t *testing.T) {
	dialer := &fakeDialer{}
	link := NewLinkWithDialer(zap.NewNop(), "display:4444", time.Second, dialer)

	assert.False(t, link.EnsureConnected())
	assert.False(t, link.Connected())
	assert.False(t, link.Send([]domain.DrawCommand{domain.Clear()}))
}

func TestLink_InitFailureDisconnects(t *testing.T) {
	conn := newRecordingConn(1)
	link := NewLinkWithDialer(zap.NewNop(), "display:4444", time.Second, &fakeDialer{conns: []net.Conn{conn}})

	assert.False(t, link.EnsureConnected())
	assert.False(t, link.Connected())
	assert.True(t, conn.closed)
}

func TestLink_WriteFailureReconnectsWithInit(t *testing.T) {
	// First connection dies after the init sequence plus one command
	first := newRecordingConn(len(initLines) + 1)
	second := newRecordingConn(-1)
	dialer := &fakeDialer{conns: []net.Conn{first, second}}
	link := NewLinkWithDialer(zap.NewNop(), "display:4444", time.Second, dialer)

	require.True(t, link.EnsureConnected())

	batch := []domain.DrawCommand{
		domain.Clear(),
		domain.SetColor(domain.ColorForeground),
		domain.Text(0, 0, "lost"),
	}
	assert.False(t, link.Send(batch))
	assert.False(t, link.Connected())
	assert.Equal(t, append(append([]string{}, initLines...), "clear"), first.Lines(), "rest of batch must be aborted")

	require.True(t, link.EnsureConnected())
	require.True(t, link.Send(batch))
	assert.Equal(t, 2, dialer.dials)
	assert.Equal(t, []string{"sketch", "encoding utf8", "clear", "clear", "color 1", `text 0 0 "lost"`}, second.Lines())
}

func TestLink_DisconnectIdempotent(t *testing.T) {
	conn := newRecordingConn(-1)
	link := NewLinkWithDialer(zap.NewNop(), "display:4444", time.Second, &fakeDialer{conns: []net.Conn{conn}})

	link.Disconnect() // never connected
	require.True(t, link.EnsureConnected())
	link.Disconnect()
	link.Disconnect()

	assert.True(t, conn.closed)
	assert.False(t, link.Connected())
}

// TestLink_TCP talks to a real loopback listener
func TestLink_TCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan string, 16)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			received <- scanner.Text()
		}
	}()

	link := NewLinkWithDialer(zap.NewNop(), ln.Addr().String(), time.Second, &net.Dialer{Timeout: time.Second})
	require.True(t, link.EnsureConnected())
	require.True(t, link.Send([]domain.DrawCommand{domain.Text(0, 0, `a "b"`)}))
	defer link.Disconnect()

	want := []string{"sketch", "encoding utf8", "clear", `text 0 0 "a \"b\""`}
	for _, w := range want {
		select {
		case got := <-received:
			assert.Equal(t, w, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("Timeout waiting for %q", w)
		}
	}
}
