package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ghostPayload streams root candidates while an engine thinks.
type ghostPayload struct {
	Mode       string  `json:"mode,omitempty"`
	Player     int     `json:"player,omitempty"`
	Move       Move    `json:"move"`
	Utility    float64 `json:"utility"`
	Index      int     `json:"index"`
	HistoryLen int     `json:"history_len,omitempty"`
	Active     bool    `json:"active"`
}

type GhostClient struct {
	hub  *GhostHub
	conn *websocket.Conn
	send chan []byte
}

type GhostHub struct {
	mu          sync.Mutex
	clients     map[*GhostClient]struct{}
	broadcast   chan ghostPayload
	throttle    time.Duration
	lastPublish time.Time
}

func NewGhostHub(throttle time.Duration) *GhostHub {
	return &GhostHub{
		clients:   make(map[*GhostClient]struct{}),
		broadcast: make(chan ghostPayload, 32),
		throttle:  throttle,
	}
}

func (h *GhostHub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				client.sendJSON(wsMessage{Type: "ghost", Payload: mustMarshal(payload)})
			}
			h.mu.Unlock()
		}
	}
}

func (h *GhostHub) Register(c *GhostClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Publish drops payloads arriving faster than the throttle or while the
// queue is full; the search thread never waits on subscribers.
func (h *GhostHub) Publish(payload ghostPayload) {
	h.mu.Lock()
	now := time.Now()
	if h.throttle > 0 && !h.lastPublish.IsZero() && now.Sub(h.lastPublish) < h.throttle {
		h.mu.Unlock()
		return
	}
	h.lastPublish = now
	h.mu.Unlock()
	select {
	case h.broadcast <- payload:
	default:
	}
}

func (h *GhostHub) Unregister(c *GhostClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *GhostHub) HasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (c *GhostClient) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func serveGhostWS(hub *GhostHub, w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("[ws:ghost] upgrade failed")
		return
	}
	client := &GhostClient{hub: hub, conn: conn, send: make(chan []byte, 16)}
	hub.Register(client)

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send, wsIdlePingInterval); err != nil {
			log.Debug().Err(err).Msg("[ws:ghost] writer stopped")
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			hub.Unregister(client)
			return
		}
	}
}
