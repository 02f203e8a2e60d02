package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/syncsyntax/messaging/internal/metrics"
	"github.com/syncsyntax/messaging/internal/repository"
	"github.com/syncsyntax/messaging/internal/service"
	"go.uber.org/zap"
)

// Hub manages all active WebSocket connections and routes events.
// Connections are keyed by connection id, not user id: one user may
// hold several live sessions and every one of them gets the fan-out.
type Hub struct {
	messages *service.MessageService
	users    repository.UserRepository
	log      *zap.Logger

	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
}

type broadcastMsg struct {
	// groupID targets every connection subscribed to a message group.
	groupID *uuid.UUID
	// userIDs targets every connection belonging to any listed user.
	userIDs []uuid.UUID
	data    []byte
}

func NewHub(messages *service.MessageService, users repository.UserRepository, log *zap.Logger) *Hub {
	return &Hub{
		messages:   messages,
		users:      users,
		log:        log,
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.id] = client
			metrics.OnlineConns.Set(float64(len(h.clients)))
			h.log.Info("ws hub: user connected",
				zap.String("user_id", client.userID.String()),
				zap.Int("total", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
				close(client.done)
				metrics.OnlineConns.Set(float64(len(h.clients)))
				h.log.Info("ws hub: user disconnected",
					zap.String("user_id", client.userID.String()),
					zap.Int("total", len(h.clients)))
			}

		case msg := <-h.broadcast:
			for id, client := range h.clients {
				if !msg.targets(client) {
					continue
				}
				select {
				case client.send <- msg.data:
					metrics.EventsBroadcast.Inc()
				default:
					// Client buffer full - disconnect
					delete(h.clients, id)
					close(client.send)
					close(client.done)
				}
			}
		}
	}
}

func (m *broadcastMsg) targets(c *Client) bool {
	if m.groupID != nil && c.InGroup(*m.groupID) {
		return true
	}
	for _, uid := range m.userIDs {
		if c.userID == uid {
			return true
		}
	}
	return false
}

// BroadcastToUsers sends an event to every connection of the listed
// users.
func (h *Hub) BroadcastToUsers(userIDs []uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("ws hub: marshal error", zap.Error(err))
		return
	}
	h.broadcast <- &broadcastMsg{userIDs: userIDs, data: data}
}

// BroadcastToGroup sends an event to every connection subscribed to a
// message's broadcast group.
func (h *Hub) BroadcastToGroup(messageID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("ws hub: marshal error", zap.Error(err))
		return
	}
	h.broadcast <- &broadcastMsg{groupID: &messageID, data: data}
}

// handleSendMessage persists and fans out a message.send command. A
// command whose sender can't be resolved is dropped without a reply;
// the client protocol treats sends as fire-and-forget.
func (h *Hub) handleSendMessage(c *Client, p MessageSendPayload) {
	ctx := context.Background()

	sender, err := h.users.GetByID(ctx, c.userID)
	if err != nil || sender == nil {
		metrics.CommandsDropped.Inc()
		h.log.Debug("ws hub: dropped message.send, unknown sender",
			zap.String("user_id", c.userID.String()), zap.Error(err))
		return
	}

	msg, err := h.messages.Send(ctx, c.userID, p.ReceiverID, p.Content)
	if err != nil {
		metrics.CommandsDropped.Inc()
		h.log.Debug("ws hub: dropped message.send",
			zap.String("user_id", c.userID.String()), zap.Error(err))
		return
	}

	// The sending connection joins the new message's group immediately
	// so reaction updates reach it without a page reload.
	c.JoinGroup(msg.ID)
}

// handleSendReaction toggles a reaction; the resulting aggregate goes
// out to the message's whole group via the notifier.
func (h *Hub) handleSendReaction(c *Client, p ReactionSendPayload) {
	ctx := context.Background()

	if _, _, err := h.messages.ToggleReaction(ctx, c.userID, p.MessageID, p.Reaction); err != nil {
		metrics.CommandsDropped.Inc()
		h.log.Debug("ws hub: dropped reaction.send",
			zap.String("user_id", c.userID.String()),
			zap.String("message_id", p.MessageID.String()),
			zap.Error(err))
		return
	}
	c.JoinGroup(p.MessageID)
}
