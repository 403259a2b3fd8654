package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Request Structs ---

// SignupRequest defines the expected body for the signup endpoint.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChatStreamRequest defines the body for the streaming chat endpoint.
// ChatID is empty for the first turn of a new conversation. Guest requests
// skip authentication and persistence entirely.
type ChatStreamRequest struct {
	ChatID  string `json:"chatId,omitempty"`
	Content string `json:"content"`
	Guest   bool   `json:"guest,omitempty"`
}

// UpdateChatRequest defines the body for PATCH /chats/{id}.
// All fields are optional; only provided fields are updated.
type UpdateChatRequest struct {
	Title   *string `json:"title,omitempty"`
	Shared  *bool   `json:"shared,omitempty"`
	ShareID *string `json:"shareId,omitempty"`
}

// --- Response Structs ---

// UserResponse defines the user information returned by the API.
// Avoid returning sensitive info like HashedPassword.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// AuthResponse defines the response body for successful authentication.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ChatResponse defines the data returned for a single chat.
type ChatResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Shared    bool      `json:"shared"`
	ShareID   *string   `json:"share_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageResponse defines the data returned for a single message.
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatWithMessagesResponse is returned by GET /chats/{id}.
type ChatWithMessagesResponse struct {
	ChatResponse
	Messages []MessageResponse `json:"messages"`
}

// SharedMessage is the reduced message shape exposed on public share links.
type SharedMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// SharedChatResponse is returned by the public GET /share/{shareId} endpoint.
type SharedChatResponse struct {
	Title    string          `json:"title"`
	Messages []SharedMessage `json:"messages"`
}

// DeleteChatResponse confirms a chat deletion.
type DeleteChatResponse struct {
	Success bool `json:"success"`
}
