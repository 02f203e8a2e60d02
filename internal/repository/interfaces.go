package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/syncsyntax/messaging/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string) error
	// Delete hard-deletes a message; reactions and deletion markers
	// cascade with it.
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteAllBySender removes only the subset of ids sent by senderID
	// and reports how many went away.
	DeleteAllBySender(ctx context.Context, ids []uuid.UUID, senderID uuid.UUID) (int64, error)

	// InsertDeletion records a delete-for-me marker. It reports false
	// when the marker already existed.
	InsertDeletion(ctx context.Context, userID, messageID uuid.UUID) (bool, error)
	InsertDeletions(ctx context.Context, userID uuid.UUID, messageIDs []uuid.UUID) (int64, error)

	SetPinned(ctx context.Context, id uuid.UUID, pinned bool) error
	// PinExclusive pins msg and unpins every other message of the same
	// unordered conversation in one transaction.
	PinExclusive(ctx context.Context, msg *domain.Message) error

	GetReaction(ctx context.Context, userID, messageID uuid.UUID) (*domain.MessageReaction, error)
	UpsertReaction(ctx context.Context, reaction *domain.MessageReaction) error
	DeleteReaction(ctx context.Context, userID, messageID uuid.UUID) error
	ListReactions(ctx context.Context, messageID uuid.UUID) ([]domain.MessageReaction, error)
	CountReactions(ctx context.Context, messageID uuid.UUID) ([]domain.ReactionCount, error)

	MarkConversationRead(ctx context.Context, receiverID, senderID uuid.UUID, readAt time.Time) (int64, error)

	ListConversations(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error)
	ListThread(ctx context.Context, viewerID, counterpartID uuid.UUID) ([]domain.Message, error)
	ListIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type ArchiveRepository interface {
	// ArchiveOlderThan copies every live message sent before cutoff into
	// cold storage and deletes the originals, returning the count moved.
	ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
