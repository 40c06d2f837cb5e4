package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverdesk/riverdesk-chat/internal/models"
)

// ProfileStore serves both identity writes (signup) and display-identity
// reads (the resolver the chat services enrich results with).
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

const profileColumns = `id, tenant_id, email, display_name, avatar_url, password_hash, created_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.UserID,
		&p.TenantID,
		&p.Email,
		&p.DisplayName,
		&p.AvatarURL,
		&p.PasswordHash,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProfileStore) CreateTenant(ctx context.Context, name string) (uuid.UUID, error) {
	query := `
		INSERT INTO tenants (name, created_at)
		VALUES ($1, now())
		RETURNING id`

	var id uuid.UUID
	if err := s.pool.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("insert tenant: %w", err)
	}
	return id, nil
}

func (s *ProfileStore) CreateUser(ctx context.Context, tenantID uuid.UUID, email, displayName, passwordHash string) (*models.Profile, error) {
	query := `
		INSERT INTO users (tenant_id, email, display_name, avatar_url, password_hash, created_at)
		VALUES ($1, $2, $3, '', $4, now())
		RETURNING ` + profileColumns

	p, err := scanProfile(s.pool.QueryRow(ctx, query, tenantID, email, displayName, passwordHash))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM users
		WHERE email = $1`

	p, err := scanProfile(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) Resolve(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM users
		WHERE id = $1`

	p, err := scanProfile(s.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) ResolveMany(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*models.Profile, error) {
	// One query for the whole batch; list enrichment calls this once per
	// page instead of once per row.
	resolved := make(map[uuid.UUID]*models.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return resolved, nil
	}

	query := `
		SELECT ` + profileColumns + `
		FROM users
		WHERE id = ANY($1)`

	rows, err := s.pool.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		resolved[p.UserID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return resolved, nil
}
