package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/syncsyntax/messaging/internal/domain"
)

const defaultTimeout = 5 * time.Second

// ThreadCache shadows the recent window of an active conversation in
// redis so thread opens don't hit postgres on every navigation. Entries
// expire on their own; writers invalidate eagerly.
type ThreadCache struct {
	cli   *redis.Client
	ttl   time.Duration
	limit int
}

func New(addr string, ttl time.Duration, limit int) *ThreadCache {
	cli := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  defaultTimeout,
		ReadTimeout:  defaultTimeout,
		WriteTimeout: defaultTimeout,
	})
	return &ThreadCache{cli: cli, ttl: ttl, limit: limit}
}

func (c *ThreadCache) Close() error { return c.cli.Close() }

// threadKey is viewer-scoped: per-user deletions mean the two
// participants can see different threads, so each view caches under its
// own key.
func threadKey(viewerID, counterpartID uuid.UUID) string {
	return "chat:thread:" + viewerID.String() + ":" + counterpartID.String()
}

// Get returns nil, nil on a miss.
func (c *ThreadCache) Get(ctx context.Context, userID, counterpartID uuid.UUID) ([]domain.Message, error) {
	data, err := c.cli.Get(ctx, threadKey(userID, counterpartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var messages []domain.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Set stores the tail of the thread, newest last.
func (c *ThreadCache) Set(ctx context.Context, userID, counterpartID uuid.UUID, messages []domain.Message) error {
	messages = clampTail(messages, c.limit)
	data, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	return c.cli.Set(ctx, threadKey(userID, counterpartID), data, c.ttl).Err()
}

// Invalidate drops both participants' views of the conversation.
func (c *ThreadCache) Invalidate(ctx context.Context, userID, counterpartID uuid.UUID) error {
	return c.cli.Del(ctx,
		threadKey(userID, counterpartID),
		threadKey(counterpartID, userID),
	).Err()
}

// clampTail is the truncation Set applies, split out for tests.
func clampTail(messages []domain.Message, limit int) []domain.Message {
	if limit > 0 && len(messages) > limit {
		return messages[len(messages)-limit:]
	}
	return messages
}
