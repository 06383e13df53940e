package main

import (
	"encoding/json"
	"sync"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub tracks connected clients and delivers game messages to them
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	byID    map[string]*Client
	game    *Game

	// Connection limiting (accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		byID:    make(map[string]*Client),
		ipConns: make(map[string]int),
	}
}

// SetGame attaches the session that clients feed commands into
func (h *Hub) SetGame(g *Game) {
	h.game = g
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	return h.ipConns[ip] < maxConnsPerIP
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Register makes c addressable by its id
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	h.byID[c.id] = c
}

// Unregister drops c and removes its player from the game
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		delete(h.byID, c.id)
		close(c.send)
	}
	h.mu.Unlock()

	if c.joined && h.game != nil {
		h.game.Leave(c.id)
	}
}

// PublishAll sends msg to every connected client
func (h *Hub) PublishAll(msg Envelope) {
	data, err := json.Marshal(msg)
	if err != nil {
		Log.Errorw("marshal broadcast", "type", msg.T, "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.enqueue(frame{data: data})
	}
}

// PublishTo sends msg to the client with the given id, if still connected
func (h *Hub) PublishTo(id string, msg Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.byID[id]; ok {
		c.Send(msg)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
