// Package storetest provides an in-memory store.Store used by service and
// handler tests in place of Postgres.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	db_models "snowbasin-backend/internal/models"
	"snowbasin-backend/internal/store"

	"github.com/google/uuid"
)

// Compile-time check to ensure MemStore implements store.Store
var _ store.Store = (*MemStore)(nil)

// MemStore is a thread-safe in-memory implementation of store.Store with the
// same ownership and ordering semantics as the Postgres implementation.
// Error fields, when set, are returned by the corresponding operation to
// simulate database failures.
type MemStore struct {
	mu       sync.Mutex
	users    map[string]db_models.User // by email
	chats    map[uuid.UUID]db_models.Chat
	messages map[uuid.UUID][]db_models.Message // by chat, append order
	clock    time.Time

	CreateChatErr    error
	CreateMessageErr error
	TouchChatErr     error
	UpdateChatErr    error
}

// New creates an empty MemStore.
func New() *MemStore {
	return &MemStore{
		users:    make(map[string]db_models.User),
		chats:    make(map[uuid.UUID]db_models.Chat),
		messages: make(map[uuid.UUID][]db_models.Message),
		clock:    time.Now(),
	}
}

// tick returns a strictly increasing timestamp so creation-order and
// timestamp-order always agree, as they do under a real database clock.
func (s *MemStore) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *MemStore) GetUserByEmail(_ context.Context, email string) (*db_models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *MemStore) CreateUser(_ context.Context, user *db_models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	stored := *user
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.users[user.Email] = stored
	return nil
}

func (s *MemStore) CreateChat(_ context.Context, arg store.CreateChatParams) (*db_models.Chat, error) {
	if s.CreateChatErr != nil {
		return nil, s.CreateChatErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := arg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := s.tick()
	chat := db_models.Chat{
		ID:        id,
		UserID:    arg.UserID,
		Title:     arg.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.chats[id] = chat
	return &chat, nil
}

func (s *MemStore) GetChatByID(_ context.Context, id uuid.UUID, userID uuid.UUID) (*db_models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[id]
	if !ok || chat.UserID != userID {
		return nil, store.ErrNotFound
	}
	return &chat, nil
}

func (s *MemStore) ListChatsByUser(_ context.Context, userID uuid.UUID) ([]db_models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var chats []db_models.Chat
	for _, chat := range s.chats {
		if chat.UserID == userID {
			chats = append(chats, chat)
		}
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats, nil
}

func (s *MemStore) UpdateChat(_ context.Context, arg store.UpdateChatParams) (*db_models.Chat, error) {
	if s.UpdateChatErr != nil {
		return nil, s.UpdateChatErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[arg.ID]
	if !ok || chat.UserID != arg.UserID {
		return nil, store.ErrNotFound
	}
	if arg.Title != nil {
		chat.Title = *arg.Title
	}
	if arg.Shared != nil {
		chat.Shared = *arg.Shared
	}
	if arg.ShareID != nil {
		shareID := *arg.ShareID
		chat.ShareID = &shareID
	}
	chat.UpdatedAt = s.tick()
	s.chats[arg.ID] = chat
	return &chat, nil
}

func (s *MemStore) TouchChat(_ context.Context, id uuid.UUID, userID uuid.UUID) error {
	if s.TouchChatErr != nil {
		return s.TouchChatErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[id]
	if !ok || chat.UserID != userID {
		return store.ErrNotFound
	}
	chat.UpdatedAt = s.tick()
	s.chats[id] = chat
	return nil
}

func (s *MemStore) DeleteChat(_ context.Context, id uuid.UUID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[id]
	if !ok || chat.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.chats, id)
	delete(s.messages, id)
	return nil
}

func (s *MemStore) GetSharedChat(_ context.Context, shareID string) (*db_models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chat := range s.chats {
		if chat.Shared && chat.ShareID != nil && *chat.ShareID == shareID {
			return &chat, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *MemStore) CreateMessage(_ context.Context, arg store.CreateMessageParams) (*db_models.Message, error) {
	if s.CreateMessageErr != nil {
		return nil, s.CreateMessageErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := arg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	msg := db_models.Message{
		ID:        id,
		ChatID:    arg.ChatID,
		Role:      arg.Role,
		Content:   arg.Content,
		CreatedAt: s.tick(),
	}
	s.messages[arg.ChatID] = append(s.messages[arg.ChatID], msg)
	return &msg, nil
}

func (s *MemStore) ListMessagesByChat(_ context.Context, chatID uuid.UUID) ([]db_models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]db_models.Message(nil), s.messages[chatID]...), nil
}
