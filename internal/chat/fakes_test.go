package chat_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/riverdesk/riverdesk-chat/internal/models"
)

// Mutex-guarded map fakes standing in for the record store. They mirror the
// adapter contract exactly: nil, nil on missing rows, newest-first message
// pages, monotonic Touch. The fail* switches simulate infrastructure
// failures at specific steps.

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

var errStoreDown = errors.New("store unavailable")

type memChannels struct {
	mu         sync.Mutex
	byID       map[uuid.UUID]models.Channel
	failTouch  bool
	failDelete bool
}

func newMemChannels() *memChannels {
	return &memChannels{byID: make(map[uuid.UUID]models.Channel)}
}

func (f *memChannels) Create(_ context.Context, tenantID uuid.UUID, name string, description *string, chType string, createdBy uuid.UUID) (*models.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := models.Channel{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        name,
		Description: description,
		Type:        chType,
		CreatedBy:   createdBy,
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
	f.byID[ch.ID] = ch
	out := ch
	return &out, nil
}

func (f *memChannels) GetByID(_ context.Context, channelID uuid.UUID) (*models.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.byID[channelID]
	if !ok {
		return nil, nil
	}
	out := ch
	return &out, nil
}

func (f *memChannels) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]models.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	channels := make([]models.Channel, 0)
	for _, ch := range f.byID {
		if ch.TenantID == tenantID {
			channels = append(channels, ch)
		}
	}
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].UpdatedAt.After(channels[j].UpdatedAt)
	})
	return channels, nil
}

func (f *memChannels) Update(_ context.Context, channelID uuid.UUID, name, description *string) (*models.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.byID[channelID]
	if !ok {
		return nil, nil
	}
	if name != nil {
		ch.Name = *name
	}
	if description != nil {
		ch.Description = description
	}
	f.byID[channelID] = ch
	out := ch
	return &out, nil
}

func (f *memChannels) Touch(_ context.Context, channelID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTouch {
		return errStoreDown
	}
	ch, ok := f.byID[channelID]
	if !ok {
		return nil
	}
	if at.After(ch.UpdatedAt) {
		ch.UpdatedAt = at
		f.byID[channelID] = ch
	}
	return nil
}

func (f *memChannels) Delete(_ context.Context, channelID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return errStoreDown
	}
	delete(f.byID, channelID)
	return nil
}

func (f *memChannels) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type memberKey struct {
	channel uuid.UUID
	user    uuid.UUID
}

type memMembers struct {
	mu              sync.Mutex
	rows            map[memberKey]models.Membership
	seq             int
	failAdd         bool
	failRemoveAll   bool
	failCountByRole bool
}

func newMemMembers() *memMembers {
	return &memMembers{rows: make(map[memberKey]models.Membership)}
}

func (f *memMembers) Add(_ context.Context, channelID, userID uuid.UUID, role string) (*models.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdd {
		return nil, errStoreDown
	}
	f.seq++
	m := models.Membership{
		ChannelID: channelID,
		UserID:    userID,
		Role:      role,
		JoinedAt:  baseTime.Add(time.Duration(f.seq) * time.Second),
	}
	f.rows[memberKey{channelID, userID}] = m
	out := m
	return &out, nil
}

func (f *memMembers) Get(_ context.Context, channelID, userID uuid.UUID) (*models.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.rows[memberKey{channelID, userID}]
	if !ok {
		return nil, nil
	}
	out := m
	return &out, nil
}

func (f *memMembers) List(_ context.Context, channelID uuid.UUID) ([]models.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	members := make([]models.Membership, 0)
	for _, m := range f.rows {
		if m.ChannelID == channelID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

func (f *memMembers) SetRole(_ context.Context, channelID, userID uuid.UUID, role string) (*models.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := memberKey{channelID, userID}
	m, ok := f.rows[key]
	if !ok {
		return nil, nil
	}
	m.Role = role
	f.rows[key] = m
	out := m
	return &out, nil
}

func (f *memMembers) CountByRole(_ context.Context, channelID uuid.UUID, role string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCountByRole {
		return 0, errStoreDown
	}
	count := 0
	for _, m := range f.rows {
		if m.ChannelID == channelID && m.Role == role {
			count++
		}
	}
	return count, nil
}

func (f *memMembers) Remove(_ context.Context, channelID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, memberKey{channelID, userID})
	return nil
}

func (f *memMembers) RemoveByChannel(_ context.Context, channelID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRemoveAll {
		return errStoreDown
	}
	for key := range f.rows {
		if key.channel == channelID {
			delete(f.rows, key)
		}
	}
	return nil
}

func (f *memMembers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type memMessages struct {
	mu            sync.Mutex
	byID          map[int64]models.Message
	nextID        int64
	failDeleteAll bool
}

func newMemMessages() *memMessages {
	return &memMessages{byID: make(map[int64]models.Message)}
}

func (f *memMessages) Create(_ context.Context, channelID, senderID uuid.UUID, content, msgType string, fileURL *string, replyTo *int64) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	msg := models.Message{
		ID:        f.nextID,
		ChannelID: channelID,
		SenderID:  senderID,
		Content:   content,
		Type:      msgType,
		FileURL:   fileURL,
		ReplyTo:   replyTo,
		CreatedAt: baseTime.Add(time.Duration(f.nextID) * time.Millisecond),
	}
	f.byID[msg.ID] = msg
	out := msg
	return &out, nil
}

// seed inserts a row directly, bypassing Create. Used to set up rows with
// colliding created_at values.
func (f *memMessages) seed(msg models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg.ID > f.nextID {
		f.nextID = msg.ID
	}
	f.byID[msg.ID] = msg
}

func (f *memMessages) GetByID(_ context.Context, id int64) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	out := msg
	return &out, nil
}

func (f *memMessages) ListByChannel(_ context.Context, channelID uuid.UUID, beforeID int64, limit int) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	messages := make([]models.Message, 0)
	for _, msg := range f.byID {
		if msg.ChannelID != channelID {
			continue
		}
		if beforeID > 0 && msg.ID >= beforeID {
			continue
		}
		messages = append(messages, msg)
	}
	sortNewestFirst(messages)
	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (f *memMessages) UpdateContent(_ context.Context, id int64, content string, editedAt time.Time) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	msg.Content = content
	msg.EditedAt = &editedAt
	f.byID[id] = msg
	out := msg
	return &out, nil
}

func (f *memMessages) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *memMessages) DeleteByChannel(_ context.Context, channelID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeleteAll {
		return errStoreDown
	}
	for id, msg := range f.byID {
		if msg.ChannelID == channelID {
			delete(f.byID, id)
		}
	}
	return nil
}

func (f *memMessages) Search(_ context.Context, channelID uuid.UUID, substring string, limit int) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	needle := strings.ToLower(substring)
	messages := make([]models.Message, 0)
	for _, msg := range f.byID {
		if msg.ChannelID != channelID {
			continue
		}
		if strings.Contains(strings.ToLower(msg.Content), needle) {
			messages = append(messages, msg)
		}
	}
	sortNewestFirst(messages)
	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (f *memMessages) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func sortNewestFirst(messages []models.Message) {
	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].CreatedAt.After(messages[j].CreatedAt)
		}
		return messages[i].ID > messages[j].ID
	})
}

type memProfiles struct {
	mu          sync.Mutex
	byID        map[uuid.UUID]models.Profile
	failResolve bool
}

func newMemProfiles() *memProfiles {
	return &memProfiles{byID: make(map[uuid.UUID]models.Profile)}
}

func (f *memProfiles) add(userID uuid.UUID, displayName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[userID] = models.Profile{
		UserID:      userID,
		DisplayName: displayName,
		AvatarURL:   "https://cdn.example.com/" + displayName + ".png",
	}
}

func (f *memProfiles) Resolve(_ context.Context, userID uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failResolve {
		return nil, errStoreDown
	}
	p, ok := f.byID[userID]
	if !ok {
		return nil, nil
	}
	out := p
	return &out, nil
}

func (f *memProfiles) ResolveMany(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failResolve {
		return nil, errStoreDown
	}
	resolved := make(map[uuid.UUID]*models.Profile, len(userIDs))
	for _, id := range userIDs {
		if p, ok := f.byID[id]; ok {
			out := p
			resolved[id] = &out
		}
	}
	return resolved, nil
}

// recordingSink captures fan-out calls for assertions.
type recordingSink struct {
	mu      sync.Mutex
	created []int64
	updated []int64
	deleted []int64
}

func (s *recordingSink) MessageCreated(_ context.Context, msg *models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, msg.ID)
}

func (s *recordingSink) MessageUpdated(_ context.Context, msg *models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = append(s.updated, msg.ID)
}

func (s *recordingSink) MessageDeleted(_ context.Context, _ uuid.UUID, messageID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, messageID)
}
