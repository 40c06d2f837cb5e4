package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverdesk/riverdesk-chat/internal/models"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

const messageColumns = `id, channel_id, sender_id, content, type, file_url, reply_to, edited_at, created_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var msg models.Message
	err := row.Scan(
		&msg.ID,
		&msg.ChannelID,
		&msg.SenderID,
		&msg.Content,
		&msg.Type,
		&msg.FileURL,
		&msg.ReplyTo,
		&msg.EditedAt,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *MessageStore) Create(ctx context.Context, channelID, senderID uuid.UUID, content, msgType string, fileURL *string, replyTo *int64) (*models.Message, error) {
	// Messages use bigserial; Postgres assigns the id and RETURNING hands
	// it back. The monotonic id is also the created_at tie-break.
	query := `
		INSERT INTO messages (channel_id, sender_id, content, type, file_url, reply_to, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING ` + messageColumns

	msg, err := scanMessage(s.pool.QueryRow(ctx, query, channelID, senderID, content, msgType, fileURL, replyTo))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

func (s *MessageStore) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE id = $1`

	msg, err := scanMessage(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}

func (s *MessageStore) ListByChannel(ctx context.Context, channelID uuid.UUID, beforeID int64, limit int) ([]models.Message, error) {
	// Newest first; the service reverses to chronological before handing
	// the page to callers. beforeID > 0 is the cursor for older pages.
	var query string
	var args []any

	if beforeID > 0 {
		query = `
			SELECT ` + messageColumns + `
			FROM messages
			WHERE channel_id = $1 AND id < $2
			ORDER BY created_at DESC, id DESC
			LIMIT $3`
		args = []any{channelID, beforeID, limit}
	} else {
		query = `
			SELECT ` + messageColumns + `
			FROM messages
			WHERE channel_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`
		args = []any{channelID, limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

func (s *MessageStore) UpdateContent(ctx context.Context, id int64, content string, editedAt time.Time) (*models.Message, error) {
	// Only content and edited_at are writable. Channel, sender, and type
	// are immutable post-insert and have no UPDATE path at all.
	query := `
		UPDATE messages
		SET content = $2, edited_at = $3
		WHERE id = $1
		RETURNING ` + messageColumns

	msg, err := scanMessage(s.pool.QueryRow(ctx, query, id, content, editedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update message: %w", err)
	}
	return msg, nil
}

func (s *MessageStore) Delete(ctx context.Context, id int64) error {
	// No cascade: replies keep their reply_to id and render it as a
	// tombstone reference.
	_, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (s *MessageStore) DeleteByChannel(ctx context.Context, channelID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE channel_id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("delete channel messages: %w", err)
	}
	return nil
}

func (s *MessageStore) Search(ctx context.Context, channelID uuid.UUID, substring string, limit int) ([]models.Message, error) {
	// ILIKE with escaped metacharacters gives a plain case-insensitive
	// substring match, not a pattern match.
	pattern := "%" + escapeLike(substring) + "%"
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE channel_id = $1 AND content ILIKE $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	rows, err := s.pool.Query(ctx, query, channelID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

func collectMessages(rows pgx.Rows) ([]models.Message, error) {
	messages := make([]models.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
