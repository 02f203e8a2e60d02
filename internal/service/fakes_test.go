package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/syncsyntax/messaging/internal/domain"
)

// In-memory stand-ins for the postgres repositories, mirroring their
// documented contracts.

type fakeMessageRepo struct {
	messages  map[uuid.UUID]*domain.Message
	deletions map[uuid.UUID]map[uuid.UUID]time.Time          // userID -> messageID -> deletedAt
	reactions map[uuid.UUID]map[uuid.UUID]*domain.MessageReaction // messageID -> userID -> reaction
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages:  make(map[uuid.UUID]*domain.Message),
		deletions: make(map[uuid.UUID]map[uuid.UUID]time.Time),
		reactions: make(map[uuid.UUID]map[uuid.UUID]*domain.MessageReaction),
	}
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	cp := *msg
	r.messages[msg.ID] = &cp
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	msg, ok := r.messages[id]
	if !ok {
		return nil, nil
	}
	cp := *msg
	return &cp, nil
}

func (r *fakeMessageRepo) UpdateContent(_ context.Context, id uuid.UUID, content string) error {
	if msg, ok := r.messages[id]; ok {
		msg.Content = content
	}
	return nil
}

func (r *fakeMessageRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.messages, id)
	delete(r.reactions, id)
	for _, byMsg := range r.deletions {
		delete(byMsg, id)
	}
	return nil
}

func (r *fakeMessageRepo) DeleteAllBySender(_ context.Context, ids []uuid.UUID, senderID uuid.UUID) (int64, error) {
	var n int64
	for _, id := range ids {
		if msg, ok := r.messages[id]; ok && msg.SenderID == senderID {
			delete(r.messages, id)
			delete(r.reactions, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeMessageRepo) InsertDeletion(_ context.Context, userID, messageID uuid.UUID) (bool, error) {
	byMsg, ok := r.deletions[userID]
	if !ok {
		byMsg = make(map[uuid.UUID]time.Time)
		r.deletions[userID] = byMsg
	}
	if _, exists := byMsg[messageID]; exists {
		return false, nil
	}
	byMsg[messageID] = time.Now().UTC()
	return true, nil
}

func (r *fakeMessageRepo) InsertDeletions(ctx context.Context, userID uuid.UUID, messageIDs []uuid.UUID) (int64, error) {
	var n int64
	for _, id := range messageIDs {
		if _, ok := r.messages[id]; !ok {
			continue
		}
		inserted, _ := r.InsertDeletion(ctx, userID, id)
		if inserted {
			n++
		}
	}
	return n, nil
}

func (r *fakeMessageRepo) SetPinned(_ context.Context, id uuid.UUID, pinned bool) error {
	if msg, ok := r.messages[id]; ok {
		msg.IsPinned = pinned
	}
	return nil
}

func (r *fakeMessageRepo) PinExclusive(_ context.Context, msg *domain.Message) error {
	for _, m := range r.messages {
		sameConv := (m.SenderID == msg.SenderID && m.ReceiverID == msg.ReceiverID) ||
			(m.SenderID == msg.ReceiverID && m.ReceiverID == msg.SenderID)
		if sameConv {
			m.IsPinned = false
		}
	}
	if m, ok := r.messages[msg.ID]; ok {
		m.IsPinned = true
	}
	return nil
}

func (r *fakeMessageRepo) GetReaction(_ context.Context, userID, messageID uuid.UUID) (*domain.MessageReaction, error) {
	if byUser, ok := r.reactions[messageID]; ok {
		if reaction, ok := byUser[userID]; ok {
			cp := *reaction
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeMessageRepo) UpsertReaction(_ context.Context, reaction *domain.MessageReaction) error {
	byUser, ok := r.reactions[reaction.MessageID]
	if !ok {
		byUser = make(map[uuid.UUID]*domain.MessageReaction)
		r.reactions[reaction.MessageID] = byUser
	}
	cp := *reaction
	byUser[reaction.UserID] = &cp
	return nil
}

func (r *fakeMessageRepo) DeleteReaction(_ context.Context, userID, messageID uuid.UUID) error {
	if byUser, ok := r.reactions[messageID]; ok {
		delete(byUser, userID)
	}
	return nil
}

func (r *fakeMessageRepo) ListReactions(_ context.Context, messageID uuid.UUID) ([]domain.MessageReaction, error) {
	var out []domain.MessageReaction
	for _, reaction := range r.reactions[messageID] {
		out = append(out, *reaction)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReactedAt.Before(out[j].ReactedAt) })
	return out, nil
}

func (r *fakeMessageRepo) CountReactions(_ context.Context, messageID uuid.UUID) ([]domain.ReactionCount, error) {
	counts := make(map[string]int)
	for _, reaction := range r.reactions[messageID] {
		counts[reaction.Reaction]++
	}
	var out []domain.ReactionCount
	for symbol, n := range counts {
		out = append(out, domain.ReactionCount{Reaction: symbol, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reaction < out[j].Reaction
	})
	return out, nil
}

func (r *fakeMessageRepo) MarkConversationRead(_ context.Context, receiverID, senderID uuid.UUID, readAt time.Time) (int64, error) {
	var n int64
	for _, msg := range r.messages {
		if msg.ReceiverID == receiverID && msg.SenderID == senderID && !msg.IsRead {
			msg.IsRead = true
			at := readAt
			msg.ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (r *fakeMessageRepo) deletedFor(userID, messageID uuid.UUID) bool {
	byMsg, ok := r.deletions[userID]
	if !ok {
		return false
	}
	_, deleted := byMsg[messageID]
	return deleted
}

func (r *fakeMessageRepo) ListConversations(_ context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	latest := make(map[uuid.UUID]*domain.Message)
	for _, msg := range r.messages {
		if !msg.IsParticipant(userID) || r.deletedFor(userID, msg.ID) {
			continue
		}
		counterpart := msg.CounterpartOf(userID)
		if cur, ok := latest[counterpart]; !ok || msg.SentAt.After(cur.SentAt) {
			latest[counterpart] = msg
		}
	}
	var out []domain.Conversation
	for counterpart, msg := range latest {
		out = append(out, domain.Conversation{CounterpartID: counterpart, LastMessage: *msg})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessage.SentAt.After(out[j].LastMessage.SentAt)
	})
	return out, nil
}

func (r *fakeMessageRepo) ListThread(_ context.Context, viewerID, counterpartID uuid.UUID) ([]domain.Message, error) {
	var out []domain.Message
	for _, msg := range r.messages {
		inThread := (msg.SenderID == viewerID && msg.ReceiverID == counterpartID) ||
			(msg.SenderID == counterpartID && msg.ReceiverID == viewerID)
		if inThread && !r.deletedFor(viewerID, msg.ID) {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

func (r *fakeMessageRepo) ListIDsForUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, msg := range r.messages {
		if msg.IsParticipant(userID) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) TouchLastSeen(_ context.Context, id uuid.UUID, at time.Time) error {
	if user, ok := r.users[id]; ok {
		user.LastSeen = &at
	}
	return nil
}

type fakeThreadCache struct {
	entries     map[string][]domain.Message
	invalidates int
	hits        int
}

func newFakeThreadCache() *fakeThreadCache {
	return &fakeThreadCache{entries: make(map[string][]domain.Message)}
}

func cacheKey(viewerID, counterpartID uuid.UUID) string {
	return viewerID.String() + ":" + counterpartID.String()
}

func (c *fakeThreadCache) Get(_ context.Context, userID, counterpartID uuid.UUID) ([]domain.Message, error) {
	messages, ok := c.entries[cacheKey(userID, counterpartID)]
	if !ok {
		return nil, nil
	}
	c.hits++
	return messages, nil
}

func (c *fakeThreadCache) Set(_ context.Context, userID, counterpartID uuid.UUID, messages []domain.Message) error {
	c.entries[cacheKey(userID, counterpartID)] = messages
	return nil
}

func (c *fakeThreadCache) Invalidate(_ context.Context, userID, counterpartID uuid.UUID) error {
	delete(c.entries, cacheKey(userID, counterpartID))
	delete(c.entries, cacheKey(counterpartID, userID))
	c.invalidates++
	return nil
}

type captureNotifier struct {
	received []*domain.Message
	updates  []struct {
		MessageID uuid.UUID
		Counts    []domain.ReactionCount
	}
}

func (n *captureNotifier) NotifyMessageReceived(msg *domain.Message) {
	n.received = append(n.received, msg)
}

func (n *captureNotifier) NotifyReactionUpdate(messageID uuid.UUID, counts []domain.ReactionCount) {
	n.updates = append(n.updates, struct {
		MessageID uuid.UUID
		Counts    []domain.ReactionCount
	}{messageID, counts})
}

type fakeArchiveRepo struct {
	repo     *fakeMessageRepo
	archived []domain.ArchivedMessage
}

func (r *fakeArchiveRepo) ArchiveOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, msg := range r.repo.messages {
		if msg.SentAt.Before(cutoff) {
			r.archived = append(r.archived, domain.ArchivedMessage{
				ID:         msg.ID,
				SenderID:   msg.SenderID,
				ReceiverID: msg.ReceiverID,
				Content:    msg.Content,
				SentAt:     msg.SentAt,
				IsRead:     msg.IsRead,
				ReadAt:     msg.ReadAt,
				IsPinned:   msg.IsPinned,
				ArchivedAt: time.Now().UTC(),
			})
			delete(r.repo.messages, id)
			n++
		}
	}
	return n, nil
}
