// Package ws broadcasts status frames to connected websocket clients.
// The hub is the sink of every status controller: each Show or Hide
// becomes one frame fanned out to all clients.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/status"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

type frame struct {
	Type     string           `json:"type"`
	Snapshot *status.Snapshot `json:"snapshot,omitempty"`
	Id       string           `json:"id,omitempty"`
}

// client owns its connection's write side. All frames go through the
// send channel and a single writer goroutine, the connection itself
// never sees concurrent writers.
type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

func (c *client) writeLoop() {
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			c.conn.Close()
			return
		}
	}
}

type Hub struct {
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[*client]struct{}
	retained map[string]status.Snapshot
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[*client]struct{}),
		retained: make(map[string]status.Snapshot),
	}
}

// Show implements status.Sink.
func (h *Hub) Show(s status.Snapshot) {
	h.mu.Lock()
	h.retained[s.ID] = s
	h.mu.Unlock()

	h.broadcast(frame{Type: "show", Snapshot: &s})
}

// Hide implements status.Sink.
func (h *Hub) Hide(id string) {
	h.mu.Lock()
	delete(h.retained, id)
	h.mu.Unlock()

	h.broadcast(frame{Type: "hide", Id: id})
}

// Retained returns the currently visible snapshots, newest version
// wins per session.
func (h *Hub) Retained() []status.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]status.Snapshot, 0, len(h.retained))
	for _, s := range h.retained {
		out = append(out, s)
	}
	return out
}

func (h *Hub) broadcast(f frame) {
	payload, err := json.Marshal(f)
	if err != nil {
		return
	}

	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// slow or dead client, drop it
			delete(h.clients, c)
			c.close()
		}
	}
	h.mu.Unlock()
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// Handler upgrades the request and replays the retained snapshots so
// a late joiner sees the current state immediately. Registration and
// replay happen under one lock, so a concurrent Show lands either in
// the replay or in a later broadcast, never nowhere.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", slog.String("err", err.Error()))
			return
		}

		c := &client{
			conn: conn,
			send: make(chan []byte, sendBuffer),
		}

		h.mu.Lock()
		h.clients[c] = struct{}{}
		for _, s := range h.retained {
			s := s
			payload, err := json.Marshal(frame{Type: "show", Snapshot: &s})
			if err != nil {
				continue
			}
			select {
			case c.send <- payload:
			default:
			}
		}
		h.mu.Unlock()

		go c.writeLoop()

		// drain control frames, drop on error
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					h.drop(c)
					return
				}
			}
		}()
	}
}
