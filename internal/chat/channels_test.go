package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/riverdesk/riverdesk-chat/internal/chat"
	"github.com/riverdesk/riverdesk-chat/internal/models"
	"go.uber.org/zap"
)

type channelFixture struct {
	channels *memChannels
	members  *memMembers
	messages *memMessages
	service  *chat.ChannelService
}

func newChannelFixture() *channelFixture {
	f := &channelFixture{
		channels: newMemChannels(),
		members:  newMemMembers(),
		messages: newMemMessages(),
	}
	f.service = chat.NewChannelService(f.channels, f.members, f.messages, zap.NewNop())
	return f
}

func TestCreateChannelSeedsCreatorAsAdmin(t *testing.T) {
	f := newChannelFixture()
	tenantID, creatorID := uuid.New(), uuid.New()

	ch, err := f.service.Create(context.Background(), tenantID, creatorID, chat.CreateChannelInput{
		Name: "general",
		Type: models.ChannelPublic,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !ch.CreatedAt.Equal(ch.UpdatedAt) {
		t.Errorf("fresh channel: created_at %v != updated_at %v", ch.CreatedAt, ch.UpdatedAt)
	}

	m, err := f.members.Get(context.Background(), ch.ID, creatorID)
	if err != nil {
		t.Fatalf("Get member: %v", err)
	}
	if m == nil {
		t.Fatal("creator was not seeded as a member")
	}
	if m.Role != models.RoleAdmin {
		t.Errorf("creator role = %q, want %q", m.Role, models.RoleAdmin)
	}
}

func TestCreateChannelValidation(t *testing.T) {
	f := newChannelFixture()
	tenantID, creatorID := uuid.New(), uuid.New()

	tests := []struct {
		name    string
		input   chat.CreateChannelInput
		wantErr error
	}{
		{"empty name", chat.CreateChannelInput{Name: ""}, chat.ErrEmptyChannelName},
		{"whitespace name", chat.CreateChannelInput{Name: "   "}, chat.ErrEmptyChannelName},
		{"bad type", chat.CreateChannelInput{Name: "x", Type: "broadcast"}, chat.ErrInvalidChannelType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(context.Background(), tenantID, creatorID, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if f.channels.count() != 0 {
		t.Errorf("rejected creates left %d channel rows", f.channels.count())
	}
}

func TestCreateChannelDefaultsToPublic(t *testing.T) {
	f := newChannelFixture()

	ch, err := f.service.Create(context.Background(), uuid.New(), uuid.New(), chat.CreateChannelInput{Name: "general"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ch.Type != models.ChannelPublic {
		t.Errorf("default type = %q, want %q", ch.Type, models.ChannelPublic)
	}
}

func TestCreateChannelRollsBackWhenSeedingFails(t *testing.T) {
	f := newChannelFixture()
	f.members.failAdd = true

	_, err := f.service.Create(context.Background(), uuid.New(), uuid.New(), chat.CreateChannelInput{Name: "doomed"})
	if err == nil {
		t.Fatal("Create succeeded despite membership seeding failure")
	}

	// The compensating delete must leave no channel without an admin.
	if f.channels.count() != 0 {
		t.Errorf("orphan channel rows after rollback: %d", f.channels.count())
	}
}

func TestUpdateChannel(t *testing.T) {
	f := newChannelFixture()
	tenantID := uuid.New()
	ch, err := f.service.Create(context.Background(), tenantID, uuid.New(), chat.CreateChannelInput{Name: "old"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newName := "new"
	desc := "the renamed channel"
	updated, err := f.service.Update(context.Background(), tenantID, ch.ID, chat.UpdateChannelInput{
		Name:        &newName,
		Description: &desc,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "new" {
		t.Errorf("name = %q, want %q", updated.Name, "new")
	}
	if updated.Description == nil || *updated.Description != desc {
		t.Errorf("description not applied")
	}
	if updated.Type != ch.Type || updated.TenantID != ch.TenantID {
		t.Error("update changed immutable fields")
	}

	empty := " "
	if _, err := f.service.Update(context.Background(), tenantID, ch.ID, chat.UpdateChannelInput{Name: &empty}); !errors.Is(err, chat.ErrEmptyChannelName) {
		t.Errorf("blank rename = %v, want %v", err, chat.ErrEmptyChannelName)
	}

	if _, err := f.service.Update(context.Background(), tenantID, uuid.New(), chat.UpdateChannelInput{Name: &newName}); !errors.Is(err, chat.ErrChannelNotFound) {
		t.Errorf("unknown id = %v, want %v", err, chat.ErrChannelNotFound)
	}
}

func TestGetChannelScopedToTenant(t *testing.T) {
	f := newChannelFixture()
	tenantID := uuid.New()
	ch, err := f.service.Create(context.Background(), tenantID, uuid.New(), chat.CreateChannelInput{Name: "ours"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.service.Get(context.Background(), tenantID, ch.ID); err != nil {
		t.Errorf("Get within tenant: %v", err)
	}

	// A foreign tenant must see not-found, not forbidden.
	if _, err := f.service.Get(context.Background(), uuid.New(), ch.ID); !errors.Is(err, chat.ErrChannelNotFound) {
		t.Errorf("cross-tenant Get = %v, want %v", err, chat.ErrChannelNotFound)
	}
}

func TestDeleteChannelCascades(t *testing.T) {
	f := newChannelFixture()
	tenantID, creatorID := uuid.New(), uuid.New()
	ch, err := f.service.Create(context.Background(), tenantID, creatorID, chat.CreateChannelInput{Name: "general"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx := context.Background()
	if _, err := f.members.Add(ctx, ch.ID, uuid.New(), models.RoleMember); err != nil {
		t.Fatalf("Add member: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := f.messages.Create(ctx, ch.ID, creatorID, "hello", models.MessageText, nil, nil); err != nil {
			t.Fatalf("Create message: %v", err)
		}
	}

	if err := f.service.Delete(ctx, tenantID, ch.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if f.messages.count() != 0 {
		t.Errorf("%d message rows survived the cascade", f.messages.count())
	}
	if f.members.count() != 0 {
		t.Errorf("%d membership rows survived the cascade", f.members.count())
	}
	if f.channels.count() != 0 {
		t.Error("channel row survived its own delete")
	}

	if err := f.service.Delete(ctx, tenantID, ch.ID); !errors.Is(err, chat.ErrChannelNotFound) {
		t.Errorf("second delete = %v, want %v", err, chat.ErrChannelNotFound)
	}
}

func TestDeleteChannelFailsFastBeforeParent(t *testing.T) {
	f := newChannelFixture()
	tenantID, creatorID := uuid.New(), uuid.New()
	ch, err := f.service.Create(context.Background(), tenantID, creatorID, chat.CreateChannelInput{Name: "general"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx := context.Background()
	if _, err := f.messages.Create(ctx, ch.ID, creatorID, "hello", models.MessageText, nil, nil); err != nil {
		t.Fatalf("Create message: %v", err)
	}

	f.messages.failDeleteAll = true

	err = f.service.Delete(ctx, tenantID, ch.ID)
	var depErr *chat.DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("Delete = %v, want DependencyError", err)
	}
	if depErr.Step != "messages" {
		t.Errorf("failed step = %q, want %q", depErr.Step, "messages")
	}

	// Fail fast: the channel and its remaining children stay intact so
	// the delete can be retried.
	if f.channels.count() != 1 {
		t.Error("channel row removed despite child deletion failure")
	}
	if f.members.count() != 1 {
		t.Error("membership rows removed despite earlier step failing")
	}

	f.messages.failDeleteAll = false
	if err := f.service.Delete(ctx, tenantID, ch.ID); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestChannelStats(t *testing.T) {
	f := newChannelFixture()
	tenantID, creatorID := uuid.New(), uuid.New()
	ch, err := f.service.Create(context.Background(), tenantID, creatorID, chat.CreateChannelInput{Name: "general"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx := context.Background()
	if _, err := f.members.Add(ctx, ch.ID, uuid.New(), models.RoleMember); err != nil {
		t.Fatalf("Add member: %v", err)
	}
	var last *models.Message
	for i := 0; i < 5; i++ {
		last, err = f.messages.Create(ctx, ch.ID, creatorID, "hi", models.MessageText, nil, nil)
		if err != nil {
			t.Fatalf("Create message: %v", err)
		}
	}

	stats, err := f.service.Stats(ctx, tenantID, ch.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.MemberCount != 2 {
		t.Errorf("MemberCount = %d, want 2", stats.MemberCount)
	}
	if stats.AdminCount != 1 {
		t.Errorf("AdminCount = %d, want 1", stats.AdminCount)
	}
	if stats.MessageCount != 5 {
		t.Errorf("MessageCount = %d, want 5", stats.MessageCount)
	}
	if stats.LastMessageAt == nil || !stats.LastMessageAt.Equal(last.CreatedAt) {
		t.Errorf("LastMessageAt = %v, want %v", stats.LastMessageAt, last.CreatedAt)
	}
}
