package display

import (
	"net"
	"sync"
	"time"

	"github.com/genricoloni/sbcast/internal/domain"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Dialer opens stream connections. *net.Dialer satisfies it.
type Dialer interface {
	Dial(network, address string) (net.Conn, error)
}

// Link is a lazily connected line protocol connection to the display.
// Every I/O failure drops the connection so the next call reconnects
// and re-initializes from scratch.
type Link struct {
	logger  *zap.Logger
	addr    string
	timeout time.Duration
	dialer  Dialer

	mu          sync.Mutex
	conn        net.Conn
	initialized bool
}

// NewLink creates a display link from the application configuration
func NewLink(logger *zap.Logger, cfg domain.Config) *Link {
	timeout := cfg.GetConnectTimeout()
	return NewLinkWithDialer(logger, cfg.GetDisplayAddress(), timeout, &net.Dialer{Timeout: timeout})
}

// NewLinkWithDialer creates a display link using a custom dialer
func NewLinkWithDialer(logger *zap.Logger, addr string, timeout time.Duration, dialer Dialer) *Link {
	return &Link{
		logger:  logger,
		addr:    addr,
		timeout: timeout,
		dialer:  dialer,
	}
}

// EnsureConnected connects and sends the init sequence if needed.
// It is a no-op when already connected and initialized.
func (l *Link) EnsureConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil {
		l.initialized = false
		l.logger.Info("Connecting to display", zap.String("addr", l.addr))

		conn, err := l.dialer.Dial("tcp", l.addr)
		if err != nil {
			l.logger.Info("Failed to connect to display",
				zap.String("addr", l.addr),
				zap.Duration("timeout", l.timeout),
				zap.Error(err))
			return false
		}
		l.conn = conn
		l.logger.Info("Connected to display", zap.String("addr", l.addr))
	}

	if !l.initialized {
		l.initialized = l.sendLocked(initSequence)
	}
	return l.initialized
}

// Send writes the batch line by line. Any failure aborts the rest of the
// batch and disconnects.
func (l *Link) Send(commands []domain.DrawCommand) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sendLocked(commands)
}

func (l *Link) sendLocked(commands []domain.DrawCommand) bool {
	if l.conn == nil {
		l.logger.Info("Display not connected, not sending commands", zap.Int("commands", len(commands)))
		return false
	}

	for _, cmd := range commands {
		line := Encode(cmd)
		if line == "" {
			l.logger.Warn("Skipping unknown draw command", zap.Int("kind", int(cmd.Kind)))
			continue
		}

		if l.timeout > 0 {
			if err := l.conn.SetWriteDeadline(time.Now().Add(l.timeout)); err != nil {
				l.logger.Error("Failed to set write deadline, disconnecting", zap.Error(err))
				l.disconnectLocked()
				return false
			}
		}
		if _, err := l.conn.Write([]byte(line + "\n")); err != nil {
			l.logger.Error("Failed to send command to display, disconnecting",
				zap.String("command", line),
				zap.Error(err))
			l.disconnectLocked()
			return false
		}
	}
	return true
}

// Disconnect shuts the connection down. Calling it when already
// disconnected only logs.
func (l *Link) Disconnect() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disconnectLocked()
}

func (l *Link) disconnectLocked() {
	if l.conn == nil {
		l.logger.Info("Already disconnected")
		return
	}

	var err error
	if tc, ok := l.conn.(*net.TCPConn); ok {
		err = multierr.Append(err, tc.CloseWrite())
	}
	err = multierr.Append(err, l.conn.Close())
	if err != nil {
		l.logger.Error("Failed to close connection to display", zap.Error(err))
	}

	// Cleared regardless of shutdown errors
	l.conn = nil
	l.initialized = false
	l.logger.Info("Disconnected from display", zap.String("addr", l.addr))
}

// Connected reports whether a socket is currently held
func (l *Link) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil
}
