package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/syncsyntax/messaging/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeMessageSend  = "message.send"
	EventTypeReactionSend = "reaction.send"
	EventTypeGroupJoin    = "group.join"
	EventTypePing         = "ping"
)

// Event types - Server → Client
const (
	EventTypeMessageReceived = "message.received"
	EventTypeReactionUpdate  = "reaction.update"
	EventTypePong            = "pong"
	EventTypeError           = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type MessageSendPayload struct {
	ReceiverID uuid.UUID `json:"receiver_id"`
	Content    string    `json:"content"`
}

type ReactionSendPayload struct {
	MessageID uuid.UUID `json:"message_id"`
	Reaction  string    `json:"reaction"`
}

// GroupJoinPayload subscribes the connection to a message's broadcast
// group, for messages the client rendered from a page load rather than
// a live push.
type GroupJoinPayload struct {
	MessageID uuid.UUID `json:"message_id"`
}

// --- Server → Client payloads ---

type MessageReceivedPayload struct {
	MessageID uuid.UUID `json:"message_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sent_at"`
	IsRead    bool      `json:"is_read"`
	IsPinned  bool      `json:"is_pinned"`
}

type ReactionUpdatePayload struct {
	MessageID uuid.UUID              `json:"message_id"`
	Reactions []domain.ReactionCount `json:"reactions"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
