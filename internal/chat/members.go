package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/riverdesk/riverdesk-chat/internal/models"
	"github.com/riverdesk/riverdesk-chat/internal/repository"
	"go.uber.org/zap"
)

// MembershipService owns the channel↔user relation and its role rules.
//
// The sole invariant it defends: a channel that has members always has at
// least one admin. Removal or demotion of the last admin is rejected with
// ErrLastAdmin rather than auto-promoting someone — promotion would have to
// invent a policy about who gets the role.
//
// The guard is read-then-write: two concurrent removals of the two last
// admins can both pass the count check. Closing that race needs a
// conditional write at the store; this layer only narrows the window.
type MembershipService struct {
	channels repository.ChannelRepository
	members  repository.MembershipRepository
	profiles repository.ProfileResolver
	logger   *zap.Logger
}

func NewMembershipService(
	channels repository.ChannelRepository,
	members repository.MembershipRepository,
	profiles repository.ProfileResolver,
	logger *zap.Logger,
) *MembershipService {
	return &MembershipService{
		channels: channels,
		members:  members,
		profiles: profiles,
		logger:   logger,
	}
}

// ListMembers returns a channel's members ordered by join time, enriched
// with display identity. Resolver trouble degrades the display fields to
// empty — it never fails the read.
func (s *MembershipService) ListMembers(ctx context.Context, channelID uuid.UUID) ([]models.Membership, error) {
	members, err := s.members.List(ctx, channelID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}

	resolved, err := s.profiles.ResolveMany(ctx, ids)
	if err != nil {
		s.logger.Warn("member identity resolution failed",
			zap.String("channel_id", channelID.String()),
			zap.Error(err),
		)
		return members, nil
	}

	for i := range members {
		if p, ok := resolved[members[i].UserID]; ok {
			members[i].DisplayName = p.DisplayName
			members[i].AvatarURL = p.AvatarURL
		}
	}
	return members, nil
}

// AddMember adds a user to a channel. Re-adding an existing member is a
// conflict, not a silent no-op — a silent success would mask caller bugs.
func (s *MembershipService) AddMember(ctx context.Context, channelID, userID uuid.UUID, role string) (*models.Membership, error) {
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, ErrInvalidRole
	}

	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrChannelNotFound
	}

	existing, err := s.members.Get(ctx, channelID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	m, err := s.members.Add(ctx, channelID, userID, role)
	if err != nil {
		return nil, fmt.Errorf("adding member: %w", err)
	}
	return m, nil
}

// RemoveMember removes a user from a channel, refusing to orphan the
// channel without an admin.
func (s *MembershipService) RemoveMember(ctx context.Context, channelID, userID uuid.UUID) error {
	m, err := s.members.Get(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrMemberNotFound
	}

	if m.Role == models.RoleAdmin {
		admins, err := s.members.CountByRole(ctx, channelID, models.RoleAdmin)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	if err := s.members.Remove(ctx, channelID, userID); err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	return nil
}

// SetRole changes a member's role. Demoting the sole remaining admin is
// rejected the same way removing them is.
func (s *MembershipService) SetRole(ctx context.Context, channelID, userID uuid.UUID, role string) (*models.Membership, error) {
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, ErrInvalidRole
	}

	m, err := s.members.Get(ctx, channelID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}

	if m.Role == models.RoleAdmin && role == models.RoleMember {
		admins, err := s.members.CountByRole(ctx, channelID, models.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if admins <= 1 {
			return nil, ErrLastAdmin
		}
	}

	updated, err := s.members.SetRole(ctx, channelID, userID, role)
	if err != nil {
		return nil, fmt.Errorf("setting role: %w", err)
	}
	if updated == nil {
		// Removed between the read and the write.
		return nil, ErrMemberNotFound
	}
	return updated, nil
}
