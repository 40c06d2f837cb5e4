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

type ChannelStore struct {
	pool *pgxpool.Pool
}

func NewChannelStore(pool *pgxpool.Pool) *ChannelStore {
	return &ChannelStore{pool: pool}
}

const channelColumns = `id, tenant_id, name, description, type, created_by, created_at, updated_at`

func scanChannel(row pgx.Row) (*models.Channel, error) {
	var ch models.Channel
	err := row.Scan(
		&ch.ID,
		&ch.TenantID,
		&ch.Name,
		&ch.Description,
		&ch.Type,
		&ch.CreatedBy,
		&ch.CreatedAt,
		&ch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *ChannelStore) Create(ctx context.Context, tenantID uuid.UUID, name string, description *string, chType string, createdBy uuid.UUID) (*models.Channel, error) {
	// created_at and updated_at come from the same now(), so a fresh
	// channel always satisfies created_at == updated_at.
	query := `
		INSERT INTO channels (id, tenant_id, name, description, type, created_by, created_at, updated_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $5, now(), now())
		RETURNING ` + channelColumns

	ch, err := scanChannel(s.pool.QueryRow(ctx, query, tenantID, name, description, chType, createdBy))
	if err != nil {
		return nil, fmt.Errorf("insert channel: %w", err)
	}
	return ch, nil
}

func (s *ChannelStore) GetByID(ctx context.Context, channelID uuid.UUID) (*models.Channel, error) {
	query := `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE id = $1`

	ch, err := scanChannel(s.pool.QueryRow(ctx, query, channelID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return ch, nil
}

func (s *ChannelStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Channel, error) {
	// updated_at DESC keeps the most recently active channel on top —
	// the ordering the per-message Touch exists to maintain.
	query := `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE tenant_id = $1
		ORDER BY updated_at DESC, id`

	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	channels := make([]models.Channel, 0)
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, *ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}

	return channels, nil
}

func (s *ChannelStore) Update(ctx context.Context, channelID uuid.UUID, name, description *string) (*models.Channel, error) {
	// COALESCE leaves a column untouched when its patch argument is NULL,
	// so one statement covers rename, re-describe, or both.
	query := `
		UPDATE channels
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description)
		WHERE id = $1
		RETURNING ` + channelColumns

	ch, err := scanChannel(s.pool.QueryRow(ctx, query, channelID, name, description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update channel: %w", err)
	}
	return ch, nil
}

func (s *ChannelStore) Touch(ctx context.Context, channelID uuid.UUID, at time.Time) error {
	// GREATEST keeps updated_at monotonic even when touches land out of
	// order (two sends racing, or a retried bump arriving late).
	query := `
		UPDATE channels
		SET updated_at = GREATEST(updated_at, $2)
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, channelID, at)
	if err != nil {
		return fmt.Errorf("touch channel: %w", err)
	}
	return nil
}

func (s *ChannelStore) Delete(ctx context.Context, channelID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}
