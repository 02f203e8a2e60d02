package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ArchiveRepo struct {
	pool *pgxpool.Pool
}

func NewArchiveRepo(pool *pgxpool.Pool) *ArchiveRepo {
	return &ArchiveRepo{pool: pool}
}

// ArchiveOlderThan copies aged messages into archived_messages and
// deletes the originals in one transaction. If the sweep is interrupted
// the transaction rolls back, so a message is never lost mid-move.
func (r *ArchiveRepo) ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO archived_messages
			(id, sender_id, receiver_id, content, sent_at, is_read, read_at, is_pinned, archived_at)
		SELECT id, sender_id, receiver_id, content, sent_at, is_read, read_at, is_pinned, $2
		FROM messages
		WHERE sent_at < $1`, cutoff, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM messages WHERE sent_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
