package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mklancir/orbit/internal/domain"
)

type TypingRepo struct {
	pool *pgxpool.Pool
}

func NewTypingRepo(pool *pgxpool.Pool) *TypingRepo {
	return &TypingRepo{pool: pool}
}

// Upsert refreshes the signal's started_at; a fresh signal always overwrites
// any prior one for the same (conversation, user) pair.
func (r *TypingRepo) Upsert(ctx context.Context, conversationID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO typing_indicators (conversation_id, user_id, started_at)
		VALUES ($1, $2, now())
		ON CONFLICT (conversation_id, user_id) DO UPDATE SET started_at = now()`,
		conversationID, userID,
	)
	return err
}

func (r *TypingRepo) Delete(ctx context.Context, conversationID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM typing_indicators
		WHERE conversation_id = $1 AND user_id = $2`,
		conversationID, userID,
	)
	return err
}

func (r *TypingRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.TypingSignal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT conversation_id, user_id, started_at
		FROM typing_indicators
		WHERE conversation_id = $1`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []domain.TypingSignal
	for rows.Next() {
		var s domain.TypingSignal
		if err := rows.Scan(&s.ConversationID, &s.UserID, &s.StartedAt); err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}
