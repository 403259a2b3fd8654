package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the database.
type User struct {
	ID             uuid.UUID `db:"id"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Chat represents a conversation owned by a user.
// ShareID is only set once the chat has been shared at least once;
// it survives un-sharing so that re-sharing keeps the same link.
type Chat struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Title     string    `db:"title"`
	Shared    bool      `db:"shared"`
	ShareID   *string   `db:"share_id"` // Pointer for nullable varchar
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Message roles. A chat's message sequence conventionally alternates
// user/assistant but strict alternation is not enforced anywhere.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single entry in a chat transcript. Messages are
// immutable once created and are ordered by CreatedAt within their chat.
type Message struct {
	ID        uuid.UUID `db:"id"`
	ChatID    uuid.UUID `db:"chat_id"`
	Role      string    `db:"role"` // RoleUser or RoleAssistant
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}
