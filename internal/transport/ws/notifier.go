package ws

import (
	"go.uber.org/zap"

	"github.com/google/uuid"
	"github.com/syncsyntax/messaging/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub. The
// store write has already committed by the time any method here runs;
// delivery failures are logged and never propagate back.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// NotifyMessageReceived pushes a new message to both participants, so a
// sender's other open sessions see their own outgoing message too.
func (n *HubNotifier) NotifyMessageReceived(msg *domain.Message) {
	evt, err := NewEvent(EventTypeMessageReceived, MessageReceivedPayload{
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		SentAt:    msg.SentAt,
		IsRead:    msg.IsRead,
		IsPinned:  msg.IsPinned,
	})
	if err != nil {
		n.hub.log.Error("ws notifier: marshal error", zap.Error(err))
		return
	}
	n.hub.BroadcastToUsers([]uuid.UUID{msg.ReceiverID, msg.SenderID}, evt)
}

// NotifyReactionUpdate pushes aggregated reaction counts to everyone
// subscribed to the message's group, not just the two participants.
func (n *HubNotifier) NotifyReactionUpdate(messageID uuid.UUID, counts []domain.ReactionCount) {
	evt, err := NewEvent(EventTypeReactionUpdate, ReactionUpdatePayload{
		MessageID: messageID,
		Reactions: counts,
	})
	if err != nil {
		n.hub.log.Error("ws notifier: marshal error", zap.Error(err))
		return
	}
	n.hub.BroadcastToGroup(messageID, evt)
}
