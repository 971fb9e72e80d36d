// Package mpv writes script messages to mpv's JSON IPC server.
package mpv

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/heartmarshall/yomipv-lookup/internal/domain"
)

// Client is a connection to mpv's input-ipc-server. Once the connection
// is closed by either side every Send fails with domain.ErrNotConnected.
type Client struct {
	mu           sync.Mutex
	conn         net.Conn
	writeTimeout time.Duration
	log          *slog.Logger
}

// DefaultWriteTimeout bounds a single script-message write. A pipe that
// stays full longer than this is treated as gone.
const DefaultWriteTimeout = 2 * time.Second

type command struct {
	Command []string `json:"command"`
}

// Dial connects to the IPC server at address: a unix socket path, or a
// named pipe such as \\.\pipe\mpvsocket on Windows.
func Dial(ctx context.Context, address string, logger *slog.Logger) (*Client, error) {
	conn, err := dialPipe(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("mpv: dial %s: %w", address, err)
	}
	logger.Info("connected to mpv", slog.String("pipe", address))
	return NewClient(conn, logger), nil
}

// NewClient wraps an established connection. A nil conn yields a client
// that is permanently disconnected.
func NewClient(conn net.Conn, logger *slog.Logger) *Client {
	c := &Client{conn: conn, writeTimeout: DefaultWriteTimeout, log: logger.With("adapter", "mpv")}
	if conn != nil {
		go c.drain(conn)
	}
	return c
}

// Connected reports whether the pipe is still open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Send writes {"command":["script-message",kind,payload]} as one line.
func (c *Client) Send(kind, payload string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(command{Command: []string{"script-message", kind, payload}}); err != nil {
		return fmt.Errorf("mpv: encode %s: %w", kind, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return domain.ErrNotConnected
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		c.log.Debug("set write deadline", slog.String("error", err.Error()))
	}
	if _, err := c.conn.Write(buf.Bytes()); err != nil {
		c.log.Warn("pipe write failed, dropping connection", slog.String("error", err.Error()))
		c.conn.Close()
		c.conn = nil
		return fmt.Errorf("mpv: write %s: %w", kind, err)
	}
	return nil
}

// Close closes the pipe. Further sends fail with domain.ErrNotConnected.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// drain consumes mpv's replies and events until the connection ends,
// then forgets the connection.
func (c *Client) drain(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		c.log.Debug("mpv event", slog.String("line", scanner.Text()))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.log.Info("mpv pipe closed", slog.Any("error", scanner.Err()))
		conn.Close()
		c.conn = nil
	}
}
