package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/syncsyntax/messaging/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, receiver_id, content, sent_at, is_read, is_pinned)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.SentAt, msg.IsRead, msg.IsPinned,
	)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT m.id, m.sender_id, m.receiver_id, m.content, m.sent_at,
			m.is_read, m.read_at, m.is_pinned, u.username, u.display_name
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.id = $1`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.SentAt,
		&msg.IsRead, &msg.ReadAt, &msg.IsPinned,
		&msg.SenderUsername, &msg.SenderDisplayName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &msg, err
}

func (r *MessageRepo) UpdateContent(ctx context.Context, id uuid.UUID, content string) error {
	_, err := r.pool.Exec(ctx, `UPDATE messages SET content = $1 WHERE id = $2`, content, id)
	return err
}

func (r *MessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

func (r *MessageRepo) DeleteAllBySender(ctx context.Context, ids []uuid.UUID, senderID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM messages WHERE id = ANY($1) AND sender_id = $2`, ids, senderID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *MessageRepo) InsertDeletion(ctx context.Context, userID, messageID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO message_deletions (user_id, message_id, deleted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, message_id) DO NOTHING`,
		userID, messageID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *MessageRepo) InsertDeletions(ctx context.Context, userID uuid.UUID, messageIDs []uuid.UUID) (int64, error) {
	// SELECT against messages so unknown ids are skipped silently.
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO message_deletions (user_id, message_id, deleted_at)
		SELECT $1, m.id, $3 FROM messages m WHERE m.id = ANY($2)
		ON CONFLICT (user_id, message_id) DO NOTHING`,
		userID, messageIDs, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *MessageRepo) SetPinned(ctx context.Context, id uuid.UUID, pinned bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE messages SET is_pinned = $1 WHERE id = $2`, pinned, id)
	return err
}

func (r *MessageRepo) PinExclusive(ctx context.Context, msg *domain.Message) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE messages SET is_pinned = false
		WHERE is_pinned
			AND ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))`,
		msg.SenderID, msg.ReceiverID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE messages SET is_pinned = true WHERE id = $1`, msg.ID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *MessageRepo) GetReaction(ctx context.Context, userID, messageID uuid.UUID) (*domain.MessageReaction, error) {
	query := `
		SELECT user_id, message_id, reaction, reacted_at
		FROM message_reactions
		WHERE user_id = $1 AND message_id = $2`
	var reaction domain.MessageReaction
	err := r.pool.QueryRow(ctx, query, userID, messageID).Scan(
		&reaction.UserID, &reaction.MessageID, &reaction.Reaction, &reaction.ReactedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &reaction, err
}

func (r *MessageRepo) UpsertReaction(ctx context.Context, reaction *domain.MessageReaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO message_reactions (user_id, message_id, reaction, reacted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, message_id)
		DO UPDATE SET reaction = EXCLUDED.reaction, reacted_at = EXCLUDED.reacted_at`,
		reaction.UserID, reaction.MessageID, reaction.Reaction, reaction.ReactedAt)
	return err
}

func (r *MessageRepo) DeleteReaction(ctx context.Context, userID, messageID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM message_reactions WHERE user_id = $1 AND message_id = $2`, userID, messageID)
	return err
}

func (r *MessageRepo) ListReactions(ctx context.Context, messageID uuid.UUID) ([]domain.MessageReaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, message_id, reaction, reacted_at
		FROM message_reactions
		WHERE message_id = $1
		ORDER BY reacted_at`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reactions []domain.MessageReaction
	for rows.Next() {
		var reaction domain.MessageReaction
		if err := rows.Scan(&reaction.UserID, &reaction.MessageID, &reaction.Reaction, &reaction.ReactedAt); err != nil {
			return nil, err
		}
		reactions = append(reactions, reaction)
	}
	return reactions, rows.Err()
}

func (r *MessageRepo) CountReactions(ctx context.Context, messageID uuid.UUID) ([]domain.ReactionCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT reaction, COUNT(*) AS cnt
		FROM message_reactions
		WHERE message_id = $1
		GROUP BY reaction
		ORDER BY cnt DESC, reaction`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []domain.ReactionCount
	for rows.Next() {
		var rc domain.ReactionCount
		if err := rows.Scan(&rc.Reaction, &rc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, rc)
	}
	return counts, rows.Err()
}

func (r *MessageRepo) MarkConversationRead(ctx context.Context, receiverID, senderID uuid.UUID, readAt time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages SET is_read = true, read_at = $3
		WHERE receiver_id = $1 AND sender_id = $2 AND NOT is_read`,
		receiverID, senderID, readAt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *MessageRepo) ListConversations(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	// One pass: group qualifying messages by counterpart, keep the
	// newest per group, order groups by that message's sent_at.
	query := `
		SELECT t.id, t.sender_id, t.receiver_id, t.content, t.sent_at,
			t.is_read, t.read_at, t.is_pinned,
			t.counterpart_id, u.username, u.display_name
		FROM (
			SELECT DISTINCT ON (c.counterpart_id) c.*
			FROM (
				SELECT m.*,
					CASE WHEN m.sender_id = $1 THEN m.receiver_id ELSE m.sender_id END AS counterpart_id
				FROM messages m
				WHERE (m.sender_id = $1 OR m.receiver_id = $1)
					AND NOT EXISTS (
						SELECT 1 FROM message_deletions d
						WHERE d.user_id = $1 AND d.message_id = m.id)
			) c
			ORDER BY c.counterpart_id, c.sent_at DESC
		) t
		JOIN users u ON u.id = t.counterpart_id
		ORDER BY t.sent_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(
			&conv.LastMessage.ID, &conv.LastMessage.SenderID, &conv.LastMessage.ReceiverID,
			&conv.LastMessage.Content, &conv.LastMessage.SentAt,
			&conv.LastMessage.IsRead, &conv.LastMessage.ReadAt, &conv.LastMessage.IsPinned,
			&conv.CounterpartID, &conv.CounterpartUsername, &conv.CounterpartDisplayName,
		); err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (r *MessageRepo) ListThread(ctx context.Context, viewerID, counterpartID uuid.UUID) ([]domain.Message, error) {
	query := `
		SELECT m.id, m.sender_id, m.receiver_id, m.content, m.sent_at,
			m.is_read, m.read_at, m.is_pinned, u.username, u.display_name
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE ((m.sender_id = $1 AND m.receiver_id = $2) OR (m.sender_id = $2 AND m.receiver_id = $1))
			AND NOT EXISTS (
				SELECT 1 FROM message_deletions d
				WHERE d.user_id = $1 AND d.message_id = m.id)
		ORDER BY m.sent_at`

	rows, err := r.pool.Query(ctx, query, viewerID, counterpartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.SentAt,
			&msg.IsRead, &msg.ReadAt, &msg.IsPinned,
			&msg.SenderUsername, &msg.SenderDisplayName,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *MessageRepo) ListIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM messages WHERE sender_id = $1 OR receiver_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
