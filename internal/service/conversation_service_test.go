package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncsyntax/messaging/internal/domain"
	"go.uber.org/zap"
)

func newTestConversationService() (*ConversationService, *MessageService, *fakeMessageRepo, *fakeThreadCache) {
	repo := newFakeMessageRepo()
	users := newFakeUserRepo(
		&domain.User{ID: alice, Username: "alice", DisplayName: "Alice"},
		&domain.User{ID: bob, Username: "bob", DisplayName: "Bob"},
		&domain.User{ID: carol, Username: "carol", DisplayName: "Carol"},
	)
	threadCache := newFakeThreadCache()

	messages := NewMessageService(repo, users, threadCache, zap.NewNop())
	conversations := NewConversationService(repo, users, threadCache, zap.NewNop())
	return conversations, messages, repo, threadCache
}

func TestListConversations(t *testing.T) {
	convSvc, msgSvc, _, _ := newTestConversationService()
	ctx := context.Background()

	mustSend(t, msgSvc, alice, bob, "hi bob")
	time.Sleep(time.Millisecond)
	mustSend(t, msgSvc, bob, alice, "hi alice")
	time.Sleep(time.Millisecond)
	mustSend(t, msgSvc, carol, alice, "hi from carol")

	convs, err := convSvc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, convs, 2)

	// Newest conversation first, each carrying its latest message.
	assert.Equal(t, carol, convs[0].CounterpartID)
	assert.Equal(t, "hi from carol", convs[0].LastMessage.Content)
	assert.Equal(t, bob, convs[1].CounterpartID)
	assert.Equal(t, "hi alice", convs[1].LastMessage.Content)
}

func TestListConversationsEmpty(t *testing.T) {
	convSvc, _, _, _ := newTestConversationService()

	convs, err := convSvc.List(context.Background(), alice)
	require.NoError(t, err)
	assert.NotNil(t, convs)
	assert.Empty(t, convs)
}

func TestListConversationsSkipsFullySelfDeletedThreads(t *testing.T) {
	convSvc, msgSvc, _, _ := newTestConversationService()
	ctx := context.Background()

	m1 := mustSend(t, msgSvc, bob, alice, "one")
	m2 := mustSend(t, msgSvc, bob, alice, "two")

	require.NoError(t, msgSvc.Delete(ctx, alice, m1.ID, domain.ScopeMine))
	require.NoError(t, msgSvc.Delete(ctx, alice, m2.ID, domain.ScopeMine))

	convs, err := convSvc.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, convs, "a thread deleted-for-self in full must vanish from the inbox")

	// bob's inbox is unaffected by alice's local deletions.
	convs, err = convSvc.List(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestListConversationsFallsBackToOlderMessage(t *testing.T) {
	convSvc, msgSvc, _, _ := newTestConversationService()
	ctx := context.Background()

	mustSend(t, msgSvc, bob, alice, "older")
	time.Sleep(time.Millisecond)
	newest := mustSend(t, msgSvc, bob, alice, "newest")

	require.NoError(t, msgSvc.Delete(ctx, alice, newest.ID, domain.ScopeMine))

	convs, err := convSvc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "older", convs[0].LastMessage.Content)
}

func TestOpenThreadMarksRead(t *testing.T) {
	convSvc, msgSvc, repo, _ := newTestConversationService()
	ctx := context.Background()

	sent := mustSend(t, msgSvc, alice, bob, "hi")

	// Before opening, bob's inbox shows the message unread.
	convs, err := convSvc.List(ctx, bob)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.False(t, convs[0].LastMessage.IsRead)

	messages, err := convSvc.OpenThread(ctx, bob, alice)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsRead)
	require.NotNil(t, messages[0].ReadAt)

	// Same row, so the sender's view reflects the read mark too.
	stored, err := repo.GetByID(ctx, sent.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)
}

func TestOpenThreadDoesNotMarkOwnMessages(t *testing.T) {
	convSvc, msgSvc, repo, _ := newTestConversationService()
	ctx := context.Background()

	sent := mustSend(t, msgSvc, alice, bob, "hi")

	// The sender opening the thread must not mark their own outgoing
	// message as read.
	_, err := convSvc.OpenThread(ctx, alice, bob)
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, sent.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsRead)
}

func TestOpenThreadUsesCache(t *testing.T) {
	convSvc, msgSvc, _, threadCache := newTestConversationService()
	ctx := context.Background()

	mustSend(t, msgSvc, alice, bob, "hi")

	// First open populates the cache, second is served from it.
	_, err := convSvc.OpenThread(ctx, bob, alice)
	require.NoError(t, err)
	hitsAfterFirst := threadCache.hits

	messages, err := convSvc.OpenThread(ctx, bob, alice)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.Greater(t, threadCache.hits, hitsAfterFirst)
}

func TestOpenThreadUnknownCounterpart(t *testing.T) {
	convSvc, _, _, _ := newTestConversationService()

	_, err := convSvc.OpenThread(context.Background(), alice, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestOpenThreadExcludesSelfDeleted(t *testing.T) {
	convSvc, msgSvc, _, _ := newTestConversationService()
	ctx := context.Background()

	m1 := mustSend(t, msgSvc, alice, bob, "keep")
	m2 := mustSend(t, msgSvc, alice, bob, "hide")
	require.NoError(t, msgSvc.Delete(ctx, bob, m2.ID, domain.ScopeMine))

	messages, err := convSvc.OpenThread(ctx, bob, alice)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, m1.ID, messages[0].ID)

	// The other participant still sees both.
	messages, err = convSvc.OpenThread(ctx, alice, bob)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}
