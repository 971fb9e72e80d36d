// Package popup serves the lookup popup page and keeps every open page in
// sync with the relay over a websocket.
package popup

import (
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/heartmarshall/yomipv-lookup/internal/service/overlay"
)

//go:embed static/index.html
var page []byte

const (
	sendBuffer     = 16
	writeWait      = 5 * time.Second
	maxMessageSize = 1 << 20
)

// Handler receives the page's user interactions.
type Handler interface {
	SelectionChanged(text string)
	DictionarySelected(dictionary, blockHTML string)
	Navigate(step int)
	Hide()
}

type outbound struct {
	Type string        `json:"type"`
	View *overlay.View `json:"view,omitempty"`
}

type inbound struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	Dictionary string `json:"dictionary"`
	HTML       string `json:"html"`
	Step       int    `json:"step"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub is the popup window. Every connected page shows the same state and
// a page that connects late receives the current state first.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	visible bool
	view    *overlay.View
	closed  bool

	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		log: logger.With("adapter", "popup"),
	}
}

// ShowInactive shows the popup without taking focus from mpv.
func (h *Hub) ShowInactive() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.visible = true
	h.broadcastLocked(outbound{Type: "show"})
}

// Hide hides the popup.
func (h *Hub) Hide() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.visible = false
	h.broadcastLocked(outbound{Type: "hide"})
}

// Render replaces the popup content.
func (h *Hub) Render(v overlay.View) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.view = &v
	h.broadcastLocked(outbound{Type: "render", View: &v})
}

// Visible reports whether the popup is shown.
func (h *Hub) Visible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.visible
}

// Clients returns the number of connected pages.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every page. Later connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// Routes returns the page and websocket endpoints. Page events are passed
// to handler.
func (h *Hub) Routes(handler Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", servePage)
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		h.serveWS(w, r, handler)
	})
	return mux
}

func servePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(page)
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request, handler Handler) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	go h.writeLoop(c)

	h.readLoop(c, handler)
}

// register adds c and queues the current state for it.
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.log.Debug("popup page connected", slog.String("remote", c.conn.RemoteAddr().String()), slog.Int("clients", len(h.clients)))

	if h.view != nil {
		h.queueLocked(c, outbound{Type: "render", View: h.view})
	}
	state := outbound{Type: "hide"}
	if h.visible {
		state.Type = "show"
	}
	h.queueLocked(c, state)
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.log.Debug("popup page disconnected", slog.Int("clients", len(h.clients)))
}

func (h *Hub) broadcastLocked(msg outbound) {
	for c := range h.clients {
		h.queueLocked(c, msg)
	}
}

func (h *Hub) queueLocked(c *client, msg outbound) {
	b, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("encode popup message", slog.String("type", msg.Type), slog.String("error", err.Error()))
		return
	}
	select {
	case c.send <- b:
	default:
		h.log.Warn("popup page not keeping up, disconnecting")
		h.removeLocked(c)
	}
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()

	for b := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			h.log.Debug("popup write failed", slog.String("error", err.Error()))
			h.remove(c)
			for range c.send {
			}
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (h *Hub) readLoop(c *client, handler Handler) {
	defer h.remove(c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				h.log.Debug("popup read ended", slog.String("error", err.Error()))
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			h.log.Debug("malformed popup message", slog.String("error", err.Error()))
			continue
		}
		dispatch(handler, msg, h.log)
	}
}

func dispatch(handler Handler, msg inbound, log *slog.Logger) {
	switch msg.Type {
	case "selection":
		handler.SelectionChanged(msg.Text)
	case "dictionary":
		if msg.Dictionary == "" || msg.HTML == "" {
			return
		}
		handler.DictionarySelected(msg.Dictionary, msg.HTML)
	case "navigate":
		if msg.Step != 0 {
			handler.Navigate(msg.Step)
		}
	case "hide":
		handler.Hide()
	default:
		log.Debug("unknown popup message", slog.String("type", msg.Type))
	}
}
