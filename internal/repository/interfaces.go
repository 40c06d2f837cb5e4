package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/riverdesk/riverdesk-chat/internal/models"
)

// Every method takes context.Context first: all of these touch the network,
// so caller deadlines and cancellation flow through to the store. The store
// offers no multi-record transactions — cross-record consistency
// (compensating deletes, child-before-parent cascades) is the job of the
// services in internal/chat, not of these adapters.
//
// Getter methods return nil, nil when the row does not exist; only
// infrastructure failures produce an error. The services translate the nil
// case into their own not-found errors.

// ChannelRepository is the record store adapter for the channels collection.
type ChannelRepository interface {
	// Create inserts a channel and returns it with ID and timestamps
	// populated. created_at == updated_at on a fresh row.
	Create(ctx context.Context, tenantID uuid.UUID, name string, description *string, chType string, createdBy uuid.UUID) (*models.Channel, error)

	GetByID(ctx context.Context, channelID uuid.UUID) (*models.Channel, error)

	// ListByTenant returns the tenant's channels, most recently active
	// first (updated_at desc). Returns an empty slice, never nil.
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Channel, error)

	// Update patches name and/or description; nil fields are left alone.
	// Type, tenant, and creator are immutable and have no patch path.
	Update(ctx context.Context, channelID uuid.UUID, name, description *string) (*models.Channel, error)

	// Touch advances updated_at to at. Implementations must keep the
	// column monotonic: a Touch older than the current value is a no-op.
	Touch(ctx context.Context, channelID uuid.UUID, at time.Time) error

	Delete(ctx context.Context, channelID uuid.UUID) error
}

// MembershipRepository is the record store adapter for the channel_members
// collection. The row identity is the (channel, user) pair.
type MembershipRepository interface {
	Add(ctx context.Context, channelID, userID uuid.UUID, role string) (*models.Membership, error)

	Get(ctx context.Context, channelID, userID uuid.UUID) (*models.Membership, error)

	// List returns members ordered by joined_at ascending. Empty slice,
	// never nil.
	List(ctx context.Context, channelID uuid.UUID) ([]models.Membership, error)

	SetRole(ctx context.Context, channelID, userID uuid.UUID, role string) (*models.Membership, error)

	// CountByRole is the admin-guard read. Without store-level conditional
	// writes the guard is read-then-write and racy; see the service docs.
	CountByRole(ctx context.Context, channelID uuid.UUID, role string) (int, error)

	Remove(ctx context.Context, channelID, userID uuid.UUID) error

	// RemoveByChannel deletes every membership of a channel. Used by the
	// cascade in ChannelService.Delete.
	RemoveByChannel(ctx context.Context, channelID uuid.UUID) error
}

// MessageRepository is the record store adapter for the messages collection.
type MessageRepository interface {
	Create(ctx context.Context, channelID, senderID uuid.UUID, content, msgType string, fileURL *string, replyTo *int64) (*models.Message, error)

	GetByID(ctx context.Context, id int64) (*models.Message, error)

	// ListByChannel returns messages newest-first with (created_at, id)
	// as the sort key. beforeID = 0 starts from the latest; otherwise only
	// messages with id < beforeID are returned (cursor pagination).
	ListByChannel(ctx context.Context, channelID uuid.UUID, beforeID int64, limit int) ([]models.Message, error)

	// UpdateContent replaces the body and stamps edited_at. Nothing else
	// about a message is mutable.
	UpdateContent(ctx context.Context, id int64, content string, editedAt time.Time) (*models.Message, error)

	Delete(ctx context.Context, id int64) error

	// DeleteByChannel deletes every message of a channel. Used by the
	// cascade in ChannelService.Delete.
	DeleteByChannel(ctx context.Context, channelID uuid.UUID) error

	// Search does a case-insensitive substring match over content,
	// newest first.
	Search(ctx context.Context, channelID uuid.UUID, substring string, limit int) ([]models.Message, error)
}

// ProfileResolver turns user ids into display identity. A failed or missing
// resolution never fails the surrounding read — callers leave the display
// fields empty instead.
type ProfileResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*models.Profile, error)

	// ResolveMany batches resolution for list enrichment. Unknown ids are
	// simply absent from the result map.
	ResolveMany(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*models.Profile, error)
}

// IdentityRepository backs the host's signup/login surface. The chat core
// never writes identities; it only reads them through ProfileResolver.
type IdentityRepository interface {
	CreateTenant(ctx context.Context, name string) (uuid.UUID, error)

	CreateUser(ctx context.Context, tenantID uuid.UUID, email, displayName, passwordHash string) (*models.Profile, error)

	// GetByEmail is the login lookup (global, not tenant-scoped).
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
}
