package models

import (
	"time"

	"github.com/google/uuid"
)

// Channel kinds. Direct channels are two-person conversations surfaced
// differently by clients but stored like any other channel.
const (
	ChannelPublic  = "public"
	ChannelPrivate = "private"
	ChannelDirect  = "direct"
)

// Membership roles. Every live channel with members keeps at least one
// admin; the services enforce that, not the model.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Message kinds. Non-text messages carry a FileURL instead of relying on
// Content.
const (
	MessageText  = "text"
	MessageFile  = "file"
	MessageImage = "image"
)

// Channel is a named conversation scope within a tenant.
//
// UpdatedAt is the recency marker: it is bumped on every message sent in
// the channel and never moves backwards. Client sidebars sort on it, so a
// missed bump degrades ordering but breaks nothing.
type Channel struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Type        string    `json:"type"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership is the join row between channels and users. Its identity is
// the (ChannelID, UserID) pair — there is no surrogate key.
//
// DisplayName and AvatarURL are not columns of the membership row; they are
// filled in by the profile resolver after the base fetch and stay empty
// when the identity cannot be resolved.
type Membership struct {
	ChannelID uuid.UUID `json:"channel_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`

	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Message is a single entry in a channel's feed.
//
// IDs are int64 (bigserial): messages are the highest-volume table, and a
// monotonically increasing integer doubles as the tie-break when two
// messages share a created_at. ReplyTo points at another message in the
// SAME channel; after the parent is deleted the id dangles and readers
// render it as a tombstone reference.
type Message struct {
	ID        int64      `json:"id"`
	ChannelID uuid.UUID  `json:"channel_id"`
	SenderID  uuid.UUID  `json:"sender_id"`
	Content   string     `json:"content"`
	Type      string     `json:"type"`
	FileURL   *string    `json:"file_url,omitempty"`
	ReplyTo   *int64     `json:"reply_to,omitempty"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	SenderName   string `json:"sender_name,omitempty"`
	SenderAvatar string `json:"sender_avatar,omitempty"`
}

// Profile is the display identity of a user, owned by the identity layer.
// The chat services only ever read it through the resolver.
type Profile struct {
	UserID      uuid.UUID `json:"user_id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// Never serialized; only the auth handlers touch it.
	PasswordHash string `json:"-"`
}

// ChannelStats is a tagged aggregate computed from the typed membership and
// message collections, not from an untyped store aggregate.
type ChannelStats struct {
	ChannelID     uuid.UUID  `json:"channel_id"`
	MemberCount   int        `json:"member_count"`
	AdminCount    int        `json:"admin_count"`
	MessageCount  int        `json:"message_count"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}
