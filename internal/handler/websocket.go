package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"subway/internal/hub"
	"subway/internal/service"
)

type WSHandler struct {
	hub    *hub.Hub
	lines  *service.LineService
	logger *slog.Logger
}

func NewWSHandler(h *hub.Hub, lines *service.LineService, logger *slog.Logger) *WSHandler {
	return &WSHandler{hub: h, lines: lines, logger: logger.With("component", "ws_handler")}
}

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SubscribePayload lists line IDs; 0 subscribes to the whole network.
type SubscribePayload struct {
	LineIDs []int64 `json:"lineIds"`
}

type SnapshotMessage struct {
	Type    string          `json:"type"`
	Payload SnapshotPayload `json:"payload"`
}

type SnapshotPayload struct {
	Lines []*service.LineDetail `json:"lines"`
}

type PongMessage struct {
	Type string `json:"type"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := hub.NewClient(clientID, 256)

	h.hub.Register(client)
	ServerStats.IncWSConnections()
	defer ServerStats.DecWSConnections()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, conn, client)

	h.readLoop(ctx, conn, client)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug("websocket read error", "client_id", client.ID, "error", err)
			}
			return
		}
		ServerStats.IncWSMessagesIn()

		if msgType != websocket.MessageText {
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("invalid message format", "client_id", client.ID, "error", err)
			continue
		}

		switch msg.Type {
		case "subscribe":
			var payload SubscribePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			if len(payload.LineIDs) > 0 {
				h.hub.Subscribe(client, payload.LineIDs)
				h.sendSnapshot(ctx, client, payload.LineIDs)
			}

		case "unsubscribe":
			var payload SubscribePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			if len(payload.LineIDs) > 0 {
				h.hub.Unsubscribe(client, payload.LineIDs)
			}

		case "ping":
			h.send(client, PongMessage{Type: "pong"})
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
			ServerStats.IncWSMessagesOut()

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// sendSnapshot sends the current state of the subscribed lines so the
// client can apply later events on top of it.
func (h *WSHandler) sendSnapshot(ctx context.Context, client *hub.Client, lineIDs []int64) {
	all, err := h.lines.ListLines(ctx)
	if err != nil {
		h.logger.Warn("failed to load snapshot", "client_id", client.ID, "error", err)
		return
	}

	lines := all
	if !slices.Contains(lineIDs, hub.AllLines) {
		lines = make([]*service.LineDetail, 0, len(lineIDs))
		for _, line := range all {
			if slices.Contains(lineIDs, line.ID) {
				lines = append(lines, line)
			}
		}
	}

	h.send(client, SnapshotMessage{
		Type:    "snapshot",
		Payload: SnapshotPayload{Lines: lines},
	})
}

func (h *WSHandler) send(client *hub.Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case client.Send <- data:
	default:
		h.logger.Debug("failed to send message, buffer full", "client_id", client.ID)
	}
}
