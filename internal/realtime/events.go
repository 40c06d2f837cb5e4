package realtime

import (
	"time"

	"github.com/google/uuid"
	"github.com/riverdesk/riverdesk-chat/internal/models"
)

// Kind is the row-level change a feed event describes.
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Event is the envelope delivered to channel feed subscribers.
//
// Delivery is at-least-once with no ordering promise beyond what the bus
// happens to give, so consumers treat an event as a hint to reconcile
// against the authoritative feed read, not as an ordered log entry.
type Event struct {
	Kind      Kind            `json:"kind"`
	ChannelID uuid.UUID       `json:"channel_id"`
	MessageID int64           `json:"message_id"`
	Message   *models.Message `json:"message,omitempty"` // nil for deletes
	At        time.Time       `json:"at"`
}

// MessageTopic names the per-channel topic on the messages collection.
// Only message changes flow over the bus: channel deletion has no event,
// subscribers discover it by a not-found on their next refresh.
func MessageTopic(channelID uuid.UUID) string {
	return "chat.messages." + channelID.String()
}
