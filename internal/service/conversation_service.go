package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/syncsyntax/messaging/internal/domain"
	"github.com/syncsyntax/messaging/internal/metrics"
	"github.com/syncsyntax/messaging/internal/repository"
	"go.uber.org/zap"
)

// ConversationService serves the inbox view and thread opens. Opening a
// thread marks the counterpart's messages read as a navigation side
// effect; no realtime "seen" event is pushed for it.
type ConversationService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	cache    ThreadCache
	log      *zap.Logger
}

func NewConversationService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	cache ThreadCache,
	log *zap.Logger,
) *ConversationService {
	return &ConversationService{
		messages: messages,
		users:    users,
		cache:    cache,
		log:      log,
	}
}

// List returns one row per counterpart, newest conversation first.
// Conversations where the viewer has deleted every message for
// themselves don't appear.
func (s *ConversationService) List(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	convs, err := s.messages.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

// OpenThread marks unread messages from the counterpart as read, then
// returns the two-way thread in send order, minus messages the viewer
// has deleted for themselves. Recent windows are served from the cache.
func (s *ConversationService) OpenThread(ctx context.Context, viewerID, counterpartID uuid.UUID) ([]domain.Message, error) {
	counterpart, err := s.users.GetByID(ctx, counterpartID)
	if err != nil {
		return nil, err
	}
	if counterpart == nil {
		return nil, ErrUserNotFound
	}

	marked, err := s.messages.MarkConversationRead(ctx, viewerID, counterpartID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if marked > 0 && s.cache != nil {
		if err := s.cache.Invalidate(ctx, viewerID, counterpartID); err != nil {
			s.log.Warn("thread cache invalidate failed", zap.Error(err))
		}
	}

	if err := s.users.TouchLastSeen(ctx, viewerID, time.Now().UTC()); err != nil {
		s.log.Warn("touch last seen failed", zap.Error(err))
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, viewerID, counterpartID)
		if err != nil {
			s.log.Warn("thread cache get failed", zap.Error(err))
		} else if cached != nil {
			metrics.ThreadCacheHits.Inc()
			return cached, nil
		}
		metrics.ThreadCacheMisses.Inc()
	}

	messages, err := s.messages.ListThread(ctx, viewerID, counterpartID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	if s.cache != nil && len(messages) > 0 {
		if err := s.cache.Set(ctx, viewerID, counterpartID, messages); err != nil {
			s.log.Warn("thread cache set failed", zap.Error(err))
		}
	}

	return messages, nil
}
