package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mklancir/orbit/internal/apperr"
	"github.com/mklancir/orbit/internal/domain"
)

type ReceiptRepo struct {
	pool *pgxpool.Pool
}

func NewReceiptRepo(pool *pgxpool.Pool) *ReceiptRepo {
	return &ReceiptRepo{pool: pool}
}

// Upsert records the receipt and advances the participant's last_read_at
// watermark. Re-marking an already-read message is a no-op, and GREATEST
// keeps the watermark monotonic even when receipts arrive out of order.
func (r *ReceiptRepo) Upsert(ctx context.Context, messageID, userID uuid.UUID, messageCreatedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", apperr.ErrTransient, err)
	}
	defer tx.Rollback(context.Background())

	_, err = tx.Exec(ctx, `
		INSERT INTO message_read_receipts (message_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (message_id, user_id) DO NOTHING`,
		messageID, userID,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE conversation_participants
		SET last_read_at = GREATEST(COALESCE(last_read_at, 'epoch'::timestamptz), $1)
		WHERE user_id = $2
		  AND conversation_id = (SELECT conversation_id FROM messages WHERE id = $3)`,
		messageCreatedAt, userID, messageID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ReceiptRepo) ListForMessage(ctx context.Context, messageID uuid.UUID) ([]domain.ReadReceipt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, message_id, user_id, read_at
		FROM message_read_receipts
		WHERE message_id = $1
		ORDER BY read_at`,
		messageID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []domain.ReadReceipt
	for rows.Next() {
		var rr domain.ReadReceipt
		if err := rows.Scan(&rr.ID, &rr.MessageID, &rr.UserID, &rr.ReadAt); err != nil {
			return nil, err
		}
		receipts = append(receipts, rr)
	}
	return receipts, rows.Err()
}
