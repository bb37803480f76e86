package main

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const analiticsRecentLimit = 64

// analiticsDecisionDTO summarizes one engine decision of the running match.
type analiticsDecisionDTO struct {
	ID         string  `json:"id"`
	Player     int     `json:"player"`
	Move       Move    `json:"move"`
	Utility    float64 `json:"utility"`
	Algorithm  string  `json:"algorithm"`
	Depth      int     `json:"depth"`
	Caching    bool    `json:"caching"`
	Ordering   bool    `json:"ordering"`
	Nodes      int64   `json:"nodes"`
	LeafEvals  int64   `json:"leaf_evals"`
	Cutoffs    int64   `json:"cutoffs"`
	TTHits     int64   `json:"tt_hits"`
	MaxPly     int     `json:"max_ply"`
	ElapsedMs  int64   `json:"elapsed_ms"`
	RecordedAt int64   `json:"recorded_at_ms"`
	seq        int64
}

type analiticsResponse struct {
	Decisions []analiticsDecisionDTO `json:"decisions"`
	Total     int                    `json:"total"`
}

type analiticsPayload struct {
	Event     string                `json:"event"`
	Entry     *analiticsDecisionDTO `json:"entry,omitempty"`
	Recent    int                   `json:"recent"`
	UpdatedAt int64                 `json:"updated_at_ms"`
}

type AnaliticsClient struct {
	hub  *AnaliticsHub
	conn *websocket.Conn
	send chan []byte
}

// AnaliticsHub keeps the latest engine decisions and streams new ones to
// subscribers.
type AnaliticsHub struct {
	mu        sync.Mutex
	clients   map[*AnaliticsClient]struct{}
	broadcast chan analiticsPayload
	recent    []analiticsDecisionDTO
	seq       int64
}

func NewAnaliticsHub() *AnaliticsHub {
	return &AnaliticsHub{
		clients:   make(map[*AnaliticsClient]struct{}),
		broadcast: make(chan analiticsPayload, 64),
	}
}

func (h *AnaliticsHub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-h.broadcast:
			h.mu.Lock()
			if len(h.clients) == 0 {
				h.mu.Unlock()
				continue
			}
			for client := range h.clients {
				client.sendJSON(wsMessage{Type: "analitics", Payload: mustMarshal(payload)})
			}
			h.mu.Unlock()
		}
	}
}

// Record stores decision and queues it for subscribers. It never blocks the
// match loop.
func (h *AnaliticsHub) Record(color PlayerColor, positionHash uint64, decision Decision) {
	h.mu.Lock()
	h.seq++
	entry := analiticsDecisionFromDecision(color, positionHash, decision)
	entry.seq = h.seq
	h.recent = append(h.recent, entry)
	if len(h.recent) > analiticsRecentLimit {
		h.recent = h.recent[len(h.recent)-analiticsRecentLimit:]
	}
	recent := len(h.recent)
	h.mu.Unlock()

	h.publish(analiticsPayload{
		Event:     "decision",
		Entry:     &entry,
		Recent:    recent,
		UpdatedAt: time.Now().UnixMilli(),
	})
}

// Reset forgets the decisions of the previous match.
func (h *AnaliticsHub) Reset() {
	h.mu.Lock()
	h.recent = nil
	h.mu.Unlock()
	h.publish(analiticsPayload{Event: "reset", UpdatedAt: time.Now().UnixMilli()})
}

func (h *AnaliticsHub) publish(payload analiticsPayload) {
	select {
	case h.broadcast <- payload:
	default:
	}
}

// Heaviest returns up to limit recorded decisions, most expensive first.
func (h *AnaliticsHub) Heaviest(limit int) analiticsResponse {
	h.mu.Lock()
	entries := make([]analiticsDecisionDTO, len(h.recent))
	copy(entries, h.recent)
	h.mu.Unlock()

	sortAnaliticsDecisions(entries)
	total := len(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return analiticsResponse{Decisions: entries, Total: total}
}

func (h *AnaliticsHub) Register(c *AnaliticsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *AnaliticsHub) Unregister(c *AnaliticsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (c *AnaliticsClient) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func serveAnaliticsWS(hub *AnaliticsHub, w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("[ws:analitics] upgrade failed")
		return
	}
	client := &AnaliticsClient{hub: hub, conn: conn, send: make(chan []byte, 16)}
	hub.Register(client)

	initial := analiticsPayload{
		Event:     "snapshot",
		Recent:    hub.Heaviest(0).Total,
		UpdatedAt: time.Now().UnixMilli(),
	}
	client.sendJSON(wsMessage{Type: "analitics", Payload: mustMarshal(initial)})

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send, wsIdlePingInterval); err != nil {
			log.Debug().Err(err).Msg("[ws:analitics] writer stopped")
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			hub.Unregister(client)
			return
		}
	}
}

func hashToBoardID(hash uint64) string {
	return "0x" + strconv.FormatUint(hash, 16)
}

func analiticsDecisionFromDecision(color PlayerColor, positionHash uint64, decision Decision) analiticsDecisionDTO {
	stats := decision.Stats
	return analiticsDecisionDTO{
		ID:         hashToBoardID(positionHash),
		Player:     int(color),
		Move:       decision.Move,
		Utility:    decision.Utility,
		Algorithm:  decision.Config.Algorithm.String(),
		Depth:      decision.Config.Depth.Int(),
		Caching:    decision.Config.Caching,
		Ordering:   decision.Config.Ordering,
		Nodes:      stats.Nodes,
		LeafEvals:  stats.LeafEvals,
		Cutoffs:    stats.Cutoffs,
		TTHits:     stats.TTHits,
		MaxPly:     stats.MaxPly,
		ElapsedMs:  decision.Elapsed.Milliseconds(),
		RecordedAt: time.Now().UnixMilli(),
	}
}

func sortAnaliticsDecisions(entries []analiticsDecisionDTO) {
	sort.Slice(entries, func(i, j int) bool {
		return compareAnaliticsPriority(entries[i], entries[j]) < 0
	})
}

// compareAnaliticsPriority orders by nodes, then elapsed time, then recency.
func compareAnaliticsPriority(a, b analiticsDecisionDTO) int {
	if a.Nodes != b.Nodes {
		if a.Nodes > b.Nodes {
			return -1
		}
		return 1
	}
	if a.ElapsedMs != b.ElapsedMs {
		if a.ElapsedMs > b.ElapsedMs {
			return -1
		}
		return 1
	}
	if a.seq > b.seq {
		return -1
	}
	if a.seq < b.seq {
		return 1
	}
	return 0
}

func analiticsLimitFromQuery(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return 10
	}
	if limit > analiticsRecentLimit {
		return analiticsRecentLimit
	}
	return limit
}
