package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/riverdesk/riverdesk-chat/internal/models"
	"github.com/riverdesk/riverdesk-chat/internal/repository"
	"go.uber.org/zap"
)

const (
	// DefaultListLimit bounds a feed page when the caller does not say.
	DefaultListLimit = 50
	// DefaultSearchLimit bounds a search result when the caller does not say.
	DefaultSearchLimit = 20
	// MaxLimit caps any caller-supplied page size.
	MaxLimit = 100
)

// EventSink receives message mutations for fan-out to live subscribers.
// Delivery is best-effort: the sink must not block and its failures never
// fail the mutation that triggered them.
type EventSink interface {
	MessageCreated(ctx context.Context, msg *models.Message)
	MessageUpdated(ctx context.Context, msg *models.Message)
	MessageDeleted(ctx context.Context, channelID uuid.UUID, messageID int64)
}

// MessageService owns the message lifecycle within a channel: send with
// reply threading, in-place edits, deletes, search, and the chronological
// feed read.
type MessageService struct {
	channels repository.ChannelRepository
	messages repository.MessageRepository
	profiles repository.ProfileResolver
	sink     EventSink
	logger   *zap.Logger
}

func NewMessageService(
	channels repository.ChannelRepository,
	messages repository.MessageRepository,
	profiles repository.ProfileResolver,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		channels: channels,
		messages: messages,
		profiles: profiles,
		logger:   logger,
	}
}

// SetSink attaches the realtime sink. Optional; a nil sink means mutations
// are stored but not fanned out.
func (s *MessageService) SetSink(sink EventSink) {
	s.sink = sink
}

type SendInput struct {
	ChannelID uuid.UUID `json:"channel_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	FileURL   *string   `json:"file_url,omitempty"`
	ReplyTo   *int64    `json:"reply_to,omitempty"`
}

// SendReceipt is the result of a successful send. RecencyWarning is non-nil
// when the message was stored but the channel's updated_at bump failed —
// the sidebar ordering is then stale until the next send, which is why the
// failure is surfaced instead of swallowed.
type SendReceipt struct {
	Message *models.Message `json:"message"`
	// Not serialized; hosts decide how to report it.
	RecencyWarning error `json:"-"`
}

// List returns a channel's feed in chronological order. The store fetches
// newest-first so LIMIT trims old messages, then the page is reversed here:
// feeds are read top to bottom.
func (s *MessageService) List(ctx context.Context, channelID uuid.UUID, limit int) ([]models.Message, error) {
	limit = clampLimit(limit, DefaultListLimit)

	messages, err := s.messages.ListByChannel(ctx, channelID, 0, limit)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	s.enrich(ctx, messages)
	return messages, nil
}

// Send validates, stores, and fans out a new message, then bumps the owning
// channel's recency marker.
func (s *MessageService) Send(ctx context.Context, input SendInput) (*SendReceipt, error) {
	msgType := input.Type
	if msgType == "" {
		msgType = models.MessageText
	}

	switch msgType {
	case models.MessageText:
		if strings.TrimSpace(input.Content) == "" {
			return nil, ErrEmptyContent
		}
	case models.MessageFile, models.MessageImage:
		if input.FileURL == nil || strings.TrimSpace(*input.FileURL) == "" {
			return nil, ErrMissingFileURL
		}
	default:
		return nil, ErrInvalidMessageType
	}

	ch, err := s.channels.GetByID(ctx, input.ChannelID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrChannelNotFound
	}

	if input.ReplyTo != nil {
		// Replies are single-level and channel-local: the target must
		// exist right now and live in the same channel. Target deletion
		// later is fine (tombstone), cross-channel targets never are.
		parent, err := s.messages.GetByID(ctx, *input.ReplyTo)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.ChannelID != input.ChannelID {
			return nil, ErrInvalidReply
		}
	}

	msg, err := s.messages.Create(ctx, input.ChannelID, input.SenderID, input.Content, msgType, input.FileURL, input.ReplyTo)
	if err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	receipt := &SendReceipt{Message: msg}

	// Best-effort recency bump: the message is already stored, so a failed
	// bump degrades sidebar ordering but must not fail the send.
	if err := s.channels.Touch(ctx, msg.ChannelID, msg.CreatedAt); err != nil {
		s.logger.Warn("channel recency bump failed",
			zap.String("channel_id", msg.ChannelID.String()),
			zap.Int64("message_id", msg.ID),
			zap.Error(err),
		)
		receipt.RecencyWarning = err
	}

	if s.sink != nil {
		s.sink.MessageCreated(ctx, msg)
	}

	s.enrichOne(ctx, msg)
	return receipt, nil
}

// Edit replaces a message's content and stamps edited_at. Channel, sender,
// and type are immutable — there is deliberately no way to pass them here.
func (s *MessageService) Edit(ctx context.Context, messageID int64, content string) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.Type == models.MessageText && strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	updated, err := s.messages.UpdateContent(ctx, messageID, content, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("updating message: %w", err)
	}
	if updated == nil {
		// Deleted between the read and the write.
		return nil, ErrMessageNotFound
	}

	if s.sink != nil {
		s.sink.MessageUpdated(ctx, updated)
	}

	s.enrichOne(ctx, updated)
	return updated, nil
}

// Delete removes a single message. Replies that referenced it keep their
// reply_to id; readers render the dangling reference as a tombstone.
func (s *MessageService) Delete(ctx context.Context, messageID int64) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}

	if err := s.messages.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}

	if s.sink != nil {
		s.sink.MessageDeleted(ctx, msg.ChannelID, messageID)
	}
	return nil
}

// Search finds messages containing the substring, case-insensitively,
// newest first.
func (s *MessageService) Search(ctx context.Context, channelID uuid.UUID, term string, limit int) ([]models.Message, error) {
	if strings.TrimSpace(term) == "" {
		return nil, ErrEmptySearch
	}
	limit = clampLimit(limit, DefaultSearchLimit)

	messages, err := s.messages.Search(ctx, channelID, term, limit)
	if err != nil {
		return nil, err
	}

	s.enrich(ctx, messages)
	return messages, nil
}

// enrich fills sender display fields in place. Resolver trouble degrades to
// empty fields, never to a failed read.
func (s *MessageService) enrich(ctx context.Context, messages []models.Message) {
	if len(messages) == 0 {
		return
	}

	seen := make(map[uuid.UUID]struct{}, len(messages))
	ids := make([]uuid.UUID, 0, len(messages))
	for _, m := range messages {
		if _, ok := seen[m.SenderID]; ok {
			continue
		}
		seen[m.SenderID] = struct{}{}
		ids = append(ids, m.SenderID)
	}

	resolved, err := s.profiles.ResolveMany(ctx, ids)
	if err != nil {
		s.logger.Warn("sender identity resolution failed", zap.Error(err))
		return
	}

	for i := range messages {
		if p, ok := resolved[messages[i].SenderID]; ok {
			messages[i].SenderName = p.DisplayName
			messages[i].SenderAvatar = p.AvatarURL
		}
	}
}

func (s *MessageService) enrichOne(ctx context.Context, msg *models.Message) {
	p, err := s.profiles.Resolve(ctx, msg.SenderID)
	if err != nil {
		s.logger.Warn("sender identity resolution failed",
			zap.String("sender_id", msg.SenderID.String()),
			zap.Error(err),
		)
		return
	}
	if p != nil {
		msg.SenderName = p.DisplayName
		msg.SenderAvatar = p.AvatarURL
	}
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
