package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// seatDiagnostics bundles one AI seat's latest search counters and
// cache occupancy for the analytics stream and the cache endpoint.
type seatDiagnostics struct {
	Player string        `json:"player"`
	Stats  SearchStats   `json:"stats"`
	Caches CacheSnapshot `json:"caches"`
}

// seatTTEntries carries one seat's hottest transposition entries; the
// HTTP layer converts them to wire DTOs.
type seatTTEntries struct {
	Player  string
	Total   int
	Entries []TTEntryView
}

type analyticsPayload struct {
	Event     string            `json:"event"`
	Player    string            `json:"player,omitempty"`
	Depth     *DepthReport      `json:"depth_report,omitempty"`
	Seats     []seatDiagnostics `json:"seats,omitempty"`
	UpdatedAt int64             `json:"updated_at_ms"`
}

type AnalyticsHub struct {
	mu        sync.Mutex
	clients   map[*AnalyticsClient]struct{}
	broadcast chan analyticsPayload
}

type AnalyticsClient struct {
	hub  *AnalyticsHub
	send chan []byte
}

func NewAnalyticsHub() *AnalyticsHub {
	return &AnalyticsHub{
		clients:   make(map[*AnalyticsClient]struct{}),
		broadcast: make(chan analyticsPayload, 64),
	}
}

func (h *AnalyticsHub) Run(done <-chan struct{}) {
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
			data := mustMarshal(payload)
			for client := range h.clients {
				client.sendJSON(wsMessage{Type: "analytics", Payload: data})
			}
			h.mu.Unlock()
		}
	}
}

func (h *AnalyticsHub) Publish(payload analyticsPayload) {
	select {
	case h.broadcast <- payload:
	default:
	}
}

// PublishDepth streams one completed deepening pass of the thinking
// side.
func (h *AnalyticsHub) PublishDepth(player PlayerColor, report DepthReport) {
	h.Publish(analyticsPayload{
		Event:     "depth",
		Player:    player.String(),
		Depth:     &report,
		UpdatedAt: time.Now().UnixMilli(),
	})
}

// PublishSeats streams the per-seat counters, sent after every applied
// move.
func (h *AnalyticsHub) PublishSeats(seats []seatDiagnostics) {
	h.Publish(analyticsPayload{
		Event:     "seats",
		Seats:     seats,
		UpdatedAt: time.Now().UnixMilli(),
	})
}

func (h *AnalyticsHub) Register(c *AnalyticsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *AnalyticsHub) Unregister(c *AnalyticsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *AnalyticsHub) HasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (c *AnalyticsClient) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func serveAnalyticsWS(hub *AnalyticsHub, controller *GameController, w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrade(w, r)
	if err != nil {
		return
	}
	client := &AnalyticsClient{hub: hub, send: make(chan []byte, 16)}
	hub.Register(client)

	initial := analyticsPayload{
		Event:     "snapshot",
		Seats:     controller.SearchDiagnostics(),
		UpdatedAt: time.Now().UnixMilli(),
	}
	client.sendJSON(wsMessage{Type: "analytics", Payload: mustMarshal(initial)})

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send); err != nil {
			return
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			hub.Unregister(client)
			return
		}
	}
}
