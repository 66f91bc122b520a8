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

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

const messageColumns = `
	m.id, m.conversation_id, m.sender_id, m.message_type, m.content, m.media_urls,
	m.shared_post_id, m.shared_reel_id, m.shared_story_id, m.reply_to_id,
	m.is_edited, m.is_deleted, m.created_at, m.updated_at,
	u.username, u.avatar_url`

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var msg domain.Message
	err := row.Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Type, &msg.Content, &msg.MediaURLs,
		&msg.SharedPostID, &msg.SharedReelID, &msg.SharedStoryID, &msg.ReplyToID,
		&msg.IsEdited, &msg.IsDeleted, &msg.CreatedAt, &msg.UpdatedAt,
		&msg.SenderUsername, &msg.SenderAvatarURL,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Create inserts the message and advances the conversation's last_message_at
// to the message's created_at in the same transaction, so list ordering and
// the message sequence can never disagree.
func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", apperr.ErrTransient, err)
	}
	defer tx.Rollback(context.Background())

	query := `
		INSERT INTO messages (id, conversation_id, sender_id, message_type, content, media_urls,
			shared_post_id, shared_reel_id, shared_story_id, reply_to_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`
	_, err = tx.Exec(ctx, query,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Type, msg.Content, msg.MediaURLs,
		msg.SharedPostID, msg.SharedReelID, msg.SharedStoryID, msg.ReplyToID, msg.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("%w: %s", apperr.ErrNotFound, pgErr.ConstraintName)
		}
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE conversations SET last_message_at = $1, updated_at = $1 WHERE id = $2`,
		msg.CreatedAt, msg.ConversationID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.id = $1`
	msg, err := scanMessage(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return msg, err
}

// ListAfter pages ascending by (created_at, id). The id tie-break keeps the
// order total for equal timestamps, and the tuple comparison makes the cursor
// restartable from any previously seen message. Tombstones are returned; the
// service redacts them.
func (r *MessageRepo) ListAfter(ctx context.Context, conversationID uuid.UUID, after *uuid.UUID, limit int) ([]domain.Message, error) {
	var query string
	var args []any

	if after != nil {
		query = `
			SELECT ` + messageColumns + `
			FROM messages m
			JOIN users u ON u.id = m.sender_id
			WHERE m.conversation_id = $1
				AND (m.created_at, m.id) > (SELECT created_at, id FROM messages WHERE id = $2)
			ORDER BY m.created_at, m.id
			LIMIT $3`
		args = []any{conversationID, *after, limit}
	} else {
		query = `
			SELECT ` + messageColumns + `
			FROM messages m
			JOIN users u ON u.id = m.sender_id
			WHERE m.conversation_id = $1
			ORDER BY m.created_at, m.id
			LIMIT $2`
		args = []any{conversationID, limit}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

func (r *MessageRepo) Update(ctx context.Context, msg *domain.Message) error {
	query := `
		UPDATE messages
		SET content = $1, is_edited = $2, is_deleted = $3, updated_at = now()
		WHERE id = $4`
	_, err := r.pool.Exec(ctx, query, msg.Content, msg.IsEdited, msg.IsDeleted, msg.ID)
	return err
}

func (r *MessageRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET is_deleted = true, updated_at = now() WHERE id = $1`, id)
	return err
}
