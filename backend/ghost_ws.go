package main

import (
	"encoding/json"
	"net/http"
	"sync"
)

// Ghost overlay modes. preview_board streams the search's in-flight
// board while an AI thinks; best_move streams the suggestion search's
// current best reply on a human turn.
const (
	ghostModePreview  = "preview_board"
	ghostModeBestMove = "best_move"
)

type ghostCell struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Player int `json:"player"`
}

type ghostPayload struct {
	Mode       string      `json:"mode,omitempty"`
	Positions  []ghostCell `json:"positions,omitempty"`
	Best       *ghostCell  `json:"best,omitempty"`
	Depth      int         `json:"depth,omitempty"`
	Score      float64     `json:"score,omitempty"`
	NextPlayer int         `json:"next_player,omitempty"`
	HistoryLen int         `json:"history_len,omitempty"`
	Active     bool        `json:"active"`
	Final      bool        `json:"final,omitempty"`
}

type GhostHub struct {
	mu        sync.Mutex
	clients   map[*GhostClient]struct{}
	broadcast chan ghostPayload
}

type GhostClient struct {
	hub  *GhostHub
	send chan []byte
}

func NewGhostHub() *GhostHub {
	return &GhostHub{
		clients:   make(map[*GhostClient]struct{}),
		broadcast: make(chan ghostPayload, 32),
	}
}

func (h *GhostHub) Run(done <-chan struct{}) {
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
				client.sendJSON(wsMessage{Type: "ghost", Payload: data})
			}
			h.mu.Unlock()
		}
	}
}

func (h *GhostHub) Publish(payload ghostPayload) {
	select {
	case h.broadcast <- payload:
	default:
	}
}

func (h *GhostHub) Register(c *GhostClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
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
	conn, err := wsUpgrade(w, r)
	if err != nil {
		return
	}
	client := &GhostClient{hub: hub, send: make(chan []byte, 16)}
	hub.Register(client)

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

func ghostPositionsFromBoard(board Board) []ghostCell {
	positions := []ghostCell{}
	size := board.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			cell := board.At(x, y)
			if cell == CellEmpty {
				continue
			}
			positions = append(positions, ghostCell{X: x, Y: y, Player: cellToInt(cell)})
		}
	}
	return positions
}
