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

type MembershipStore struct {
	pool *pgxpool.Pool
}

func NewMembershipStore(pool *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{pool: pool}
}

func (s *MembershipStore) Add(ctx context.Context, channelID, userID uuid.UUID, role string) (*models.Membership, error) {
	// No ON CONFLICT here: the service treats a duplicate add as a caller
	// bug and checks existence first. If two adds race past that check,
	// the primary key still rejects the second one.
	query := `
		INSERT INTO channel_members (channel_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, now())
		RETURNING channel_id, user_id, role, joined_at`

	var m models.Membership
	err := s.pool.QueryRow(ctx, query, channelID, userID, role).Scan(
		&m.ChannelID,
		&m.UserID,
		&m.Role,
		&m.JoinedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	return &m, nil
}

func (s *MembershipStore) Get(ctx context.Context, channelID, userID uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT channel_id, user_id, role, joined_at
		FROM channel_members
		WHERE channel_id = $1 AND user_id = $2`

	var m models.Membership
	err := s.pool.QueryRow(ctx, query, channelID, userID).Scan(
		&m.ChannelID,
		&m.UserID,
		&m.Role,
		&m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

func (s *MembershipStore) List(ctx context.Context, channelID uuid.UUID) ([]models.Membership, error) {
	query := `
		SELECT channel_id, user_id, role, joined_at
		FROM channel_members
		WHERE channel_id = $1
		ORDER BY joined_at ASC, user_id`

	rows, err := s.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]models.Membership, 0)
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.ChannelID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	return members, nil
}

func (s *MembershipStore) SetRole(ctx context.Context, channelID, userID uuid.UUID, role string) (*models.Membership, error) {
	query := `
		UPDATE channel_members
		SET role = $3
		WHERE channel_id = $1 AND user_id = $2
		RETURNING channel_id, user_id, role, joined_at`

	var m models.Membership
	err := s.pool.QueryRow(ctx, query, channelID, userID, role).Scan(
		&m.ChannelID,
		&m.UserID,
		&m.Role,
		&m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("set role: %w", err)
	}
	return &m, nil
}

func (s *MembershipStore) CountByRole(ctx context.Context, channelID uuid.UUID, role string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM channel_members
		WHERE channel_id = $1 AND role = $2`

	var count int
	err := s.pool.QueryRow(ctx, query, channelID, role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count members by role: %w", err)
	}
	return count, nil
}

func (s *MembershipStore) Remove(ctx context.Context, channelID, userID uuid.UUID) error {
	query := `
		DELETE FROM channel_members
		WHERE channel_id = $1 AND user_id = $2`

	_, err := s.pool.Exec(ctx, query, channelID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *MembershipStore) RemoveByChannel(ctx context.Context, channelID uuid.UUID) error {
	query := `
		DELETE FROM channel_members
		WHERE channel_id = $1`

	_, err := s.pool.Exec(ctx, query, channelID)
	if err != nil {
		return fmt.Errorf("remove channel members: %w", err)
	}
	return nil
}
