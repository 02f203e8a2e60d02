package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/syncsyntax/messaging/internal/domain"
	"github.com/syncsyntax/messaging/internal/metrics"
	"github.com/syncsyntax/messaging/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrNotSender       = errors.New("only the message sender can perform this action")
	ErrNotParticipant  = errors.New("you are not a participant of this conversation")
	ErrEmptyContent    = errors.New("message content is empty")
	ErrEmptyReaction   = errors.New("reaction is empty")
)

// Notifier fans realtime events out to connected clients. The store
// write always completes before a Notify call is made.
type Notifier interface {
	NotifyMessageReceived(msg *domain.Message)
	NotifyReactionUpdate(messageID uuid.UUID, counts []domain.ReactionCount)
}

// ThreadCache shadows recent conversation windows. Cache failures are
// logged, never surfaced to callers.
type ThreadCache interface {
	Get(ctx context.Context, userID, counterpartID uuid.UUID) ([]domain.Message, error)
	Set(ctx context.Context, userID, counterpartID uuid.UUID, messages []domain.Message) error
	Invalidate(ctx context.Context, userID, counterpartID uuid.UUID) error
}

type MessageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	cache    ThreadCache
	notifier Notifier
	log      *zap.Logger
}

func NewMessageService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	cache ThreadCache,
	log *zap.Logger,
) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		cache:    cache,
		log:      log,
	}
}

// SetNotifier sets the realtime notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

// MessageInfo is the sender-only delivery report for a message.
type MessageInfo struct {
	SentAt time.Time  `json:"sent_at"`
	IsRead bool       `json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`
}

// Send persists a message and notifies both participants' live
// connections.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID uuid.UUID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, ErrUserNotFound
	}
	receiver, err := s.users.GetByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrUserNotFound
	}

	msg := &domain.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		SentAt:     time.Now().UTC(),
		IsRead:     false,
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}
	metrics.MessagesSent.Inc()

	full, err := s.messages.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	s.invalidateThread(ctx, senderID, receiverID)

	if s.notifier != nil {
		s.notifier.NotifyMessageReceived(full)
	}

	return full, nil
}

// Edit replaces a message's content. Sender-only.
func (s *MessageService) Edit(ctx context.Context, editorID, messageID uuid.UUID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != editorID {
		return nil, ErrNotSender
	}

	if err := s.messages.UpdateContent(ctx, messageID, content); err != nil {
		return nil, fmt.Errorf("updating message: %w", err)
	}

	s.invalidateThread(ctx, msg.SenderID, msg.ReceiverID)

	return s.messages.GetByID(ctx, messageID)
}

// Delete applies the requested scope. ScopeMine is idempotent and open
// to anyone; ScopeEveryone hard-deletes and is sender-only.
func (s *MessageService) Delete(ctx context.Context, requesterID, messageID uuid.UUID, scope domain.DeleteScope) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}

	switch scope {
	case domain.ScopeMine:
		if _, err := s.messages.InsertDeletion(ctx, requesterID, messageID); err != nil {
			return fmt.Errorf("recording deletion: %w", err)
		}
	case domain.ScopeEveryone:
		if msg.SenderID != requesterID {
			return ErrNotSender
		}
		if err := s.messages.Delete(ctx, messageID); err != nil {
			return fmt.Errorf("deleting message: %w", err)
		}
	default:
		return domain.ErrUnknownScope
	}

	s.invalidateThread(ctx, msg.SenderID, msg.ReceiverID)
	return nil
}

// BulkDelete is best-effort: for ScopeEveryone only the requester's own
// messages are removed and the rest are skipped without error. Returns
// the number of messages affected.
func (s *MessageService) BulkDelete(ctx context.Context, requesterID uuid.UUID, messageIDs []uuid.UUID, scope domain.DeleteScope) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}

	switch scope {
	case domain.ScopeMine:
		n, err := s.messages.InsertDeletions(ctx, requesterID, messageIDs)
		if err != nil {
			return 0, fmt.Errorf("recording deletions: %w", err)
		}
		return n, nil
	case domain.ScopeEveryone:
		n, err := s.messages.DeleteAllBySender(ctx, messageIDs, requesterID)
		if err != nil {
			return 0, fmt.Errorf("deleting messages: %w", err)
		}
		return n, nil
	}
	return 0, domain.ErrUnknownScope
}

// TogglePin flips the pin state of a message. Either participant may
// pin; pinning unpins every other message of the same conversation.
// Returns the newly pinned message, or nil when the toggle unpinned.
func (s *MessageService) TogglePin(ctx context.Context, requesterID, messageID uuid.UUID) (*domain.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if !msg.IsParticipant(requesterID) {
		return nil, ErrNotParticipant
	}

	if msg.IsPinned {
		if err := s.messages.SetPinned(ctx, messageID, false); err != nil {
			return nil, fmt.Errorf("unpinning message: %w", err)
		}
		s.invalidateThread(ctx, msg.SenderID, msg.ReceiverID)
		return nil, nil
	}

	if err := s.messages.PinExclusive(ctx, msg); err != nil {
		return nil, fmt.Errorf("pinning message: %w", err)
	}
	s.invalidateThread(ctx, msg.SenderID, msg.ReceiverID)

	return s.messages.GetByID(ctx, messageID)
}

// ToggleReaction creates, replaces, or removes the caller's reaction.
// It returns the resulting reaction (nil when toggled off) and the
// aggregated per-symbol counts after the change.
func (s *MessageService) ToggleReaction(ctx context.Context, userID, messageID uuid.UUID, reaction string) (*domain.MessageReaction, []domain.ReactionCount, error) {
	reaction = strings.TrimSpace(reaction)
	if reaction == "" {
		return nil, nil, ErrEmptyReaction
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}
	if msg == nil {
		return nil, nil, ErrMessageNotFound
	}

	existing, err := s.messages.GetReaction(ctx, userID, messageID)
	if err != nil {
		return nil, nil, err
	}

	var result *domain.MessageReaction
	if existing != nil && existing.Reaction == reaction {
		if err := s.messages.DeleteReaction(ctx, userID, messageID); err != nil {
			return nil, nil, fmt.Errorf("removing reaction: %w", err)
		}
	} else {
		result = &domain.MessageReaction{
			UserID:    userID,
			MessageID: messageID,
			Reaction:  reaction,
			ReactedAt: time.Now().UTC(),
		}
		if err := s.messages.UpsertReaction(ctx, result); err != nil {
			return nil, nil, fmt.Errorf("saving reaction: %w", err)
		}
	}

	counts, err := s.messages.CountReactions(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyReactionUpdate(messageID, counts)
	}

	return result, counts, nil
}

// MarkRead marks every unread message from counterpartID to viewerID as
// read, stamping the read time. Returns the number of messages touched.
func (s *MessageService) MarkRead(ctx context.Context, viewerID, counterpartID uuid.UUID) (int64, error) {
	n, err := s.messages.MarkConversationRead(ctx, viewerID, counterpartID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.invalidateThread(ctx, viewerID, counterpartID)
	}
	return n, nil
}

// Info returns delivery details for a message. Sender-only.
func (s *MessageService) Info(ctx context.Context, requesterID, messageID uuid.UUID) (*MessageInfo, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != requesterID {
		return nil, ErrNotSender
	}
	return &MessageInfo{SentAt: msg.SentAt, IsRead: msg.IsRead, ReadAt: msg.ReadAt}, nil
}

// Reactions lists individual reactions on a message.
func (s *MessageService) Reactions(ctx context.Context, messageID uuid.UUID) ([]domain.MessageReaction, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	reactions, err := s.messages.ListReactions(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if reactions == nil {
		reactions = []domain.MessageReaction{}
	}
	return reactions, nil
}

func (s *MessageService) invalidateThread(ctx context.Context, a, b uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, a, b); err != nil {
		s.log.Warn("thread cache invalidate failed", zap.Error(err))
	}
}
