package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"subway/internal/domain"
)

// Client is one WebSocket connection. A client with no line subscriptions
// receives nothing; subscribing to AllLines receives every event.
type Client struct {
	ID    string
	Send  chan []byte
	lines map[int64]struct{}
	mu    sync.RWMutex
}

// AllLines subscribes a client to events of every line, including
// station events that carry no line.
const AllLines int64 = 0

func NewClient(id string, bufferSize int) *Client {
	return &Client{
		ID:    id,
		Send:  make(chan []byte, bufferSize),
		lines: make(map[int64]struct{}),
	}
}

func (c *Client) HasLine(lineID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.lines[lineID]
	return ok
}

func (c *Client) addLines(lineIDs []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range lineIDs {
		c.lines[id] = struct{}{}
	}
}

func (c *Client) removeLines(lineIDs []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range lineIDs {
		delete(c.lines, id)
	}
}

func (c *Client) Lines() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	lines := make([]int64, 0, len(c.lines))
	for id := range c.lines {
		lines = append(lines, id)
	}
	return lines
}

type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]struct{}
	lineClients map[int64]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan domain.NetworkEvent

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]struct{}),
		lineClients: make(map[int64]map[*Client]struct{}),
		register:    make(chan *Client, 16),
		unregister:  make(chan *Client, 16),
		broadcast:   make(chan domain.NetworkEvent, 256),
		logger:      logger.With("component", "hub"),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.ID, "total", total)

		case client := <-h.unregister:
			h.removeClient(client)

		case event := <-h.broadcast:
			h.fanout(event)
		}
	}
}

func (h *Hub) Subscribe(client *Client, lineIDs []int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.addLines(lineIDs)

	for _, lineID := range lineIDs {
		if h.lineClients[lineID] == nil {
			h.lineClients[lineID] = make(map[*Client]struct{})
		}
		h.lineClients[lineID][client] = struct{}{}
	}
}

func (h *Hub) Unsubscribe(client *Client, lineIDs []int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.removeLines(lineIDs)
	h.dropSubscriptions(client, lineIDs)
}

// Publish queues an event for fan-out. It never blocks the caller.
func (h *Hub) Publish(event domain.NetworkEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event", "type", event.Type, "line_id", event.LineID)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type EventMessage struct {
	Type    string              `json:"type"`
	Payload domain.NetworkEvent `json:"payload"`
}

// audience is the delivery rule for network events, as subscription keys.
// Every event reaches AllLines subscribers. An event about a line also
// reaches that line's subscribers; a station event carries no line and
// reaches AllLines subscribers only.
func audience(event domain.NetworkEvent) []int64 {
	if event.LineID == AllLines {
		return []int64{AllLines}
	}
	return []int64{AllLines, event.LineID}
}

func (h *Hub) fanout(event domain.NetworkEvent) {
	h.deliver(event)
	if event.Type == domain.EventLineDeleted && event.LineID != AllLines {
		h.retireLine(event.LineID)
	}
}

func (h *Hub) deliver(event domain.NetworkEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := make(map[*Client]struct{})
	for _, key := range audience(event) {
		for client := range h.lineClients[key] {
			targets[client] = struct{}{}
		}
	}
	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(EventMessage{Type: "event", Payload: event})
	if err != nil {
		h.logger.Error("failed to encode event", "type", event.Type, "error", err)
		return
	}

	for client := range targets {
		select {
		case client.Send <- data:
		default:
			h.logger.Debug("client send buffer full", "client_id", client.ID)
		}
	}
}

// retireLine ends every subscription to a deleted line once its deletion
// event has been delivered. Line IDs are never reused, so nothing else
// would ever be sent under it.
func (h *Hub) retireLine(lineID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscribers := h.lineClients[lineID]
	for client := range subscribers {
		client.removeLines([]int64{lineID})
	}
	delete(h.lineClients, lineID)
	if len(subscribers) > 0 {
		h.logger.Debug("line subscriptions retired", "line_id", lineID, "clients", len(subscribers))
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	h.dropSubscriptions(client, client.Lines())
	delete(h.clients, client)
	close(client.Send)
	h.logger.Debug("client unregistered", "client_id", client.ID, "total", len(h.clients))
}

// dropSubscriptions must be called with h.mu held.
func (h *Hub) dropSubscriptions(client *Client, lineIDs []int64) {
	for _, lineID := range lineIDs {
		if h.lineClients[lineID] != nil {
			delete(h.lineClients[lineID], client)
			if len(h.lineClients[lineID]) == 0 {
				delete(h.lineClients, lineID)
			}
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]struct{})
	h.lineClients = make(map[int64]map[*Client]struct{})
}
