package domain

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID         uuid.UUID  `json:"id"`
	SenderID   uuid.UUID  `json:"sender_id"`
	ReceiverID uuid.UUID  `json:"receiver_id"`
	Content    string     `json:"content"`
	SentAt     time.Time  `json:"sent_at"`
	IsRead     bool       `json:"is_read"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	IsPinned   bool       `json:"is_pinned"`
	// Joined fields
	SenderUsername    string `json:"sender_username,omitempty"`
	SenderDisplayName string `json:"sender_display_name,omitempty"`
}

// CounterpartOf returns the other participant from userID's point of view.
func (m *Message) CounterpartOf(userID uuid.UUID) uuid.UUID {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// IsParticipant reports whether userID is the sender or the receiver.
func (m *Message) IsParticipant(userID uuid.UUID) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// MessageDeletion hides a message from one user's view without touching
// the other participant's copy.
type MessageDeletion struct {
	UserID    uuid.UUID `json:"user_id"`
	MessageID uuid.UUID `json:"message_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// MessageReaction is the single reaction a user holds on a message.
// Reacting again replaces or removes it, never duplicates it.
type MessageReaction struct {
	UserID    uuid.UUID `json:"user_id"`
	MessageID uuid.UUID `json:"message_id"`
	Reaction  string    `json:"reaction"`
	ReactedAt time.Time `json:"reacted_at"`
}

type ReactionCount struct {
	Reaction string `json:"reaction"`
	Count    int    `json:"count"`
}

// ArchivedMessage is a cold-storage copy of a Message, written once by
// the archival sweep and never mutated.
type ArchivedMessage struct {
	ID         uuid.UUID  `json:"id"`
	SenderID   uuid.UUID  `json:"sender_id"`
	ReceiverID uuid.UUID  `json:"receiver_id"`
	Content    string     `json:"content"`
	SentAt     time.Time  `json:"sent_at"`
	IsRead     bool       `json:"is_read"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	IsPinned   bool       `json:"is_pinned"`
	ArchivedAt time.Time  `json:"archived_at"`
}

// Conversation is one row of a user's inbox: the counterpart and the
// most recent message exchanged with them.
type Conversation struct {
	CounterpartID          uuid.UUID `json:"counterpart_id"`
	CounterpartUsername    string    `json:"counterpart_username"`
	CounterpartDisplayName string    `json:"counterpart_display_name"`
	LastMessage            Message   `json:"last_message"`
}
