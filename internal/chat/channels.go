package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/riverdesk/riverdesk-chat/internal/models"
	"github.com/riverdesk/riverdesk-chat/internal/repository"
	"go.uber.org/zap"
)

// ChannelService owns the channel lifecycle: create (paired with seeding
// the creator as admin), rename, and the ordered cascade delete.
type ChannelService struct {
	channels repository.ChannelRepository
	members  repository.MembershipRepository
	messages repository.MessageRepository
	logger   *zap.Logger
}

func NewChannelService(
	channels repository.ChannelRepository,
	members repository.MembershipRepository,
	messages repository.MessageRepository,
	logger *zap.Logger,
) *ChannelService {
	return &ChannelService{
		channels: channels,
		members:  members,
		messages: messages,
		logger:   logger,
	}
}

type CreateChannelInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Type        string  `json:"type"`
}

type UpdateChannelInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Create inserts the channel and seeds the creator as its admin member.
// The store has no multi-record transactions, so the pairing is enforced by
// compensation: if the membership insert fails, the fresh channel row is
// deleted again so no channel ever exists without an admin.
func (s *ChannelService) Create(ctx context.Context, tenantID, creatorID uuid.UUID, input CreateChannelInput) (*models.Channel, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrEmptyChannelName
	}

	chType := input.Type
	if chType == "" {
		chType = models.ChannelPublic
	}
	switch chType {
	case models.ChannelPublic, models.ChannelPrivate, models.ChannelDirect:
	default:
		return nil, ErrInvalidChannelType
	}

	ch, err := s.channels.Create(ctx, tenantID, name, input.Description, chType, creatorID)
	if err != nil {
		return nil, fmt.Errorf("creating channel: %w", err)
	}

	if _, err := s.members.Add(ctx, ch.ID, creatorID, models.RoleAdmin); err != nil {
		// Roll the channel back. If the compensating delete also fails we
		// can only log it; the orphan row has no members and stays
		// invisible until an operator retries the delete.
		if delErr := s.channels.Delete(ctx, ch.ID); delErr != nil {
			s.logger.Error("compensating channel delete failed",
				zap.String("channel_id", ch.ID.String()),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("seeding creator membership: %w", err)
	}

	return ch, nil
}

// Get returns a channel scoped to the tenant. A channel belonging to a
// different tenant is reported as not found, never as forbidden — the id
// alone must not leak existence across tenants.
func (s *ChannelService) Get(ctx context.Context, tenantID, channelID uuid.UUID) (*models.Channel, error) {
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch == nil || ch.TenantID != tenantID {
		return nil, ErrChannelNotFound
	}
	return ch, nil
}

// List returns the tenant's channels, most recently active first.
func (s *ChannelService) List(ctx context.Context, tenantID uuid.UUID) ([]models.Channel, error) {
	return s.channels.ListByTenant(ctx, tenantID)
}

// Update renames and/or re-describes a channel. Type and tenant are fixed
// at creation and cannot be patched.
func (s *ChannelService) Update(ctx context.Context, tenantID, channelID uuid.UUID, input UpdateChannelInput) (*models.Channel, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, ErrEmptyChannelName
	}

	if _, err := s.Get(ctx, tenantID, channelID); err != nil {
		return nil, err
	}

	ch, err := s.channels.Update(ctx, channelID, input.Name, input.Description)
	if err != nil {
		return nil, fmt.Errorf("updating channel: %w", err)
	}
	if ch == nil {
		return nil, ErrChannelNotFound
	}
	return ch, nil
}

// Delete removes a channel and everything it owns. Children go first —
// messages, then memberships, then the channel row — so a failure partway
// leaves a channel that still owns its remaining data and can be retried,
// never a dangling channel whose children are gone.
func (s *ChannelService) Delete(ctx context.Context, tenantID, channelID uuid.UUID) error {
	if _, err := s.Get(ctx, tenantID, channelID); err != nil {
		return err
	}

	if err := s.messages.DeleteByChannel(ctx, channelID); err != nil {
		return &DependencyError{Step: "messages", Err: err}
	}
	if err := s.members.RemoveByChannel(ctx, channelID); err != nil {
		return &DependencyError{Step: "memberships", Err: err}
	}
	if err := s.channels.Delete(ctx, channelID); err != nil {
		return fmt.Errorf("deleting channel: %w", err)
	}

	s.logger.Info("channel deleted",
		zap.String("channel_id", channelID.String()),
		zap.String("tenant_id", tenantID.String()),
	)
	return nil
}

// statsPageSize bounds each message page walked by Stats.
const statsPageSize = 200

// Stats computes channel aggregates by walking the typed membership and
// message collections rather than trusting an untyped store aggregate.
func (s *ChannelService) Stats(ctx context.Context, tenantID, channelID uuid.UUID) (*models.ChannelStats, error) {
	if _, err := s.Get(ctx, tenantID, channelID); err != nil {
		return nil, err
	}

	members, err := s.members.List(ctx, channelID)
	if err != nil {
		return nil, err
	}

	stats := &models.ChannelStats{
		ChannelID:   channelID,
		MemberCount: len(members),
	}
	for _, m := range members {
		if m.Role == models.RoleAdmin {
			stats.AdminCount++
		}
	}

	// Pages come newest-first, so the very first message seen is the
	// latest one in the channel.
	var cursor int64
	for {
		page, err := s.messages.ListByChannel(ctx, channelID, cursor, statsPageSize)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		if stats.LastMessageAt == nil {
			at := page[0].CreatedAt
			stats.LastMessageAt = &at
		}
		stats.MessageCount += len(page)
		cursor = page[len(page)-1].ID
		if len(page) < statsPageSize {
			break
		}
	}

	return stats, nil
}
