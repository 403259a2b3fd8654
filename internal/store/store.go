package store

import (
	"context"
	"errors"

	db_models "snowbasin-backend/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// CreateChatParams contains parameters for creating a chat.
type CreateChatParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Title  string
}

// UpdateChatParams contains parameters for updating a chat.
// Pointer fields allow partial updates; nil fields are left unchanged.
// The updated_at timestamp is always bumped.
type UpdateChatParams struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Title   *string
	Shared  *bool
	ShareID *string
}

// CreateMessageParams contains parameters for appending a message to a chat.
type CreateMessageParams struct {
	ID      uuid.UUID
	ChatID  uuid.UUID
	Role    string
	Content string
}

// Store defines the interface for database operations.
// This allows for mocking in tests and potential DB backend switching.
type Store interface {
	// User operations
	GetUserByEmail(ctx context.Context, email string) (*db_models.User, error)
	CreateUser(ctx context.Context, user *db_models.User) error

	// Chat operations, scoped to the owning user.
	CreateChat(ctx context.Context, arg CreateChatParams) (*db_models.Chat, error)
	GetChatByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*db_models.Chat, error)
	ListChatsByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Chat, error)
	UpdateChat(ctx context.Context, arg UpdateChatParams) (*db_models.Chat, error)
	TouchChat(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	DeleteChat(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	// GetSharedChat looks up a chat by its share token. It only returns
	// chats whose shared flag is currently true.
	GetSharedChat(ctx context.Context, shareID string) (*db_models.Chat, error)

	// Message operations
	CreateMessage(ctx context.Context, arg CreateMessageParams) (*db_models.Message, error)
	ListMessagesByChat(ctx context.Context, chatID uuid.UUID) ([]db_models.Message, error)
}
