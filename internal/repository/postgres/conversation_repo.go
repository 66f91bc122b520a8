package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mklancir/orbit/internal/apperr"
	"github.com/mklancir/orbit/internal/domain"
)

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

// Create inserts the conversation row and bulk-inserts its participants in a
// single transaction, so a half-created group is never visible. A unique
// violation on the direct_key index means another caller won the
// find-or-create race; it surfaces as apperr.ErrConflict for the resolver to
// re-resolve.
func (r *ConversationRepo) Create(ctx context.Context, conv *domain.Conversation, participants []domain.Participant) error {
	if !conv.IsGroup && len(participants) != 2 {
		return fmt.Errorf("%w: a direct conversation has exactly two participants", apperr.ErrValidation)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", apperr.ErrTransient, err)
	}
	defer tx.Rollback(context.Background())

	query := `
		INSERT INTO conversations (id, is_group, name, created_by, direct_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`
	_, err = tx.Exec(ctx, query,
		conv.ID, conv.IsGroup, conv.Name, conv.CreatedBy, conv.DirectKey, conv.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: direct conversation already exists", apperr.ErrConflict)
		}
		return err
	}

	rows := make([][]any, 0, len(participants))
	for _, p := range participants {
		rows = append(rows, []any{p.ID, p.ConversationID, p.UserID, p.Role, p.IsMuted, p.JoinedAt})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"conversation_participants"},
		[]string{"id", "conversation_id", "user_id", "role", "is_muted", "joined_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("%w: unknown participant", apperr.ErrNotFound)
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *ConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT id, is_group, name, created_by, direct_key, last_message_at, created_at, updated_at
		FROM conversations
		WHERE id = $1`
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&conv.ID, &conv.IsGroup, &conv.Name, &conv.CreatedBy,
		&conv.DirectKey, &conv.LastMessageAt, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &conv, err
}

func (r *ConversationRepo) GetDirectByKey(ctx context.Context, directKey string) (*domain.Conversation, error) {
	query := `
		SELECT id, is_group, name, created_by, direct_key, last_message_at, created_at, updated_at
		FROM conversations
		WHERE direct_key = $1 AND is_group = false`
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, query, directKey).Scan(
		&conv.ID, &conv.IsGroup, &conv.Name, &conv.CreatedBy,
		&conv.DirectKey, &conv.LastMessageAt, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &conv, err
}

// ListSummaries returns the caller's conversations ordered by last activity,
// with the other participant's profile for direct conversations and the
// unread count derived from the participant's last_read_at watermark.
func (r *ConversationRepo) ListSummaries(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	query := `
		SELECT c.id, c.is_group, c.name, c.created_by, c.last_message_at, c.created_at, c.updated_at,
			p.is_muted,
			op.user_id, op.username, op.avatar_url,
			(SELECT count(*) FROM messages m
				WHERE m.conversation_id = c.id
				  AND m.sender_id <> $1
				  AND m.is_deleted = false
				  AND m.created_at > COALESCE(p.last_read_at, 'epoch'::timestamptz)
			) AS unread_count
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id AND p.user_id = $1
		LEFT JOIN LATERAL (
			SELECT u.id AS user_id, u.username, u.avatar_url
			FROM conversation_participants p2
			JOIN users u ON u.id = p2.user_id
			WHERE p2.conversation_id = c.id AND p2.user_id <> $1 AND c.is_group = false
			LIMIT 1
		) op ON true
		ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.ConversationSummary
	for rows.Next() {
		var s domain.ConversationSummary
		if err := rows.Scan(
			&s.ID, &s.IsGroup, &s.Name, &s.CreatedBy, &s.LastMessageAt, &s.CreatedAt, &s.UpdatedAt,
			&s.IsMuted,
			&s.OtherUserID, &s.OtherUsername, &s.OtherAvatarURL,
			&s.UnreadCount,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *ConversationRepo) GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Participant, error) {
	query := `
		SELECT id, conversation_id, user_id, role, is_muted, last_read_at, joined_at
		FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2`
	var p domain.Participant
	err := r.pool.QueryRow(ctx, query, conversationID, userID).Scan(
		&p.ID, &p.ConversationID, &p.UserID, &p.Role, &p.IsMuted, &p.LastReadAt, &p.JoinedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &p, err
}

func (r *ConversationRepo) ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]domain.Participant, error) {
	query := `
		SELECT id, conversation_id, user_id, role, is_muted, last_read_at, joined_at
		FROM conversation_participants
		WHERE conversation_id = $1
		ORDER BY joined_at`
	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(
			&p.ID, &p.ConversationID, &p.UserID, &p.Role, &p.IsMuted, &p.LastReadAt, &p.JoinedAt,
		); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *ConversationRepo) SetMuted(ctx context.Context, conversationID, userID uuid.UUID, muted bool) error {
	query := `
		UPDATE conversation_participants SET is_muted = $1
		WHERE conversation_id = $2 AND user_id = $3`
	tag, err := r.pool.Exec(ctx, query, muted, conversationID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: participant", apperr.ErrNotFound)
	}
	return nil
}
