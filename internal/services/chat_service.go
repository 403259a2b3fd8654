package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"snowbasin-backend/internal/models"
	"snowbasin-backend/internal/store"

	"github.com/google/uuid"
)

// placeholderTitle is assigned to a chat created on the first turn of a
// conversation, before the generated title is persisted.
const placeholderTitle = "New Chat"

// shareIDLength is the length of the opaque public share token.
const shareIDLength = 8

// ChatService is the persistence gateway for chats and messages. It owns the
// transactional sequencing around a streamed turn: the user message is durable
// before any model call, the assistant message only after the stream ends.
type ChatService struct {
	store store.Store
}

// NewChatService creates a new ChatService.
func NewChatService(s store.Store) *ChatService {
	return &ChatService{store: s}
}

// Turn captures the persisted state of a chat turn before streaming begins.
type Turn struct {
	Chat      *models.Chat
	History   []models.Message // Full prior history including the new user message, ascending
	IsNewChat bool
}

// BeginTurn persists the user side of a turn. When chatID is nil a new chat
// is created with a placeholder title and the turn is marked as a new chat.
// Any error here aborts the request before a model call is made.
func (s *ChatService) BeginTurn(ctx context.Context, userID uuid.UUID, chatID *uuid.UUID, content string) (*Turn, error) {
	var chat *models.Chat
	var err error
	isNewChat := false

	if chatID == nil {
		isNewChat = true
		chat, err = s.store.CreateChat(ctx, store.CreateChatParams{
			UserID: userID,
			Title:  placeholderTitle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create chat: %w", err)
		}
	} else {
		chat, err = s.store.GetChatByID(ctx, *chatID, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to get chat: %w", err)
		}
	}

	if _, err := s.store.CreateMessage(ctx, store.CreateMessageParams{
		ChatID:  chat.ID,
		Role:    models.RoleUser,
		Content: content,
	}); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	history, err := s.store.ListMessagesByChat(ctx, chat.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	return &Turn{Chat: chat, History: history, IsNewChat: isNewChat}, nil
}

// CompleteTurn persists the assistant side of a turn after the model stream
// has been fully consumed, and bumps the chat's updated timestamp. Failures
// here are logged and returned but must not retract content the client has
// already received; callers treat them as degraded durability, not request
// failure.
func (s *ChatService) CompleteTurn(ctx context.Context, userID, chatID uuid.UUID, content string) error {
	if _, err := s.store.CreateMessage(ctx, store.CreateMessageParams{
		ChatID:  chatID,
		Role:    models.RoleAssistant,
		Content: content,
	}); err != nil {
		log.Printf("[ChatService] CompleteTurn: Failed to save assistant message for chat %s: %v", chatID, err)
		return fmt.Errorf("failed to save assistant message: %w", err)
	}

	if err := s.store.TouchChat(ctx, chatID, userID); err != nil {
		log.Printf("[ChatService] CompleteTurn: Failed to touch chat %s: %v", chatID, err)
		return fmt.Errorf("failed to update chat timestamp: %w", err)
	}

	return nil
}

// SetTitle persists a generated title for a newly created chat.
func (s *ChatService) SetTitle(ctx context.Context, userID, chatID uuid.UUID, title string) error {
	_, err := s.store.UpdateChat(ctx, store.UpdateChatParams{
		ID:     chatID,
		UserID: userID,
		Title:  &title,
	})
	if err != nil {
		log.Printf("[ChatService] SetTitle: Failed to set title for chat %s: %v", chatID, err)
		return fmt.Errorf("failed to set chat title: %w", err)
	}
	return nil
}

// ListChats returns the caller's chats ordered by last update, newest first.
func (s *ChatService) ListChats(ctx context.Context, userID uuid.UUID) ([]models.ChatResponse, error) {
	chats, err := s.store.ListChatsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	resp := make([]models.ChatResponse, 0, len(chats))
	for i := range chats {
		resp = append(resp, mapChatToResponse(&chats[i]))
	}
	return resp, nil
}

// GetChatWithMessages returns a chat and its full ordered transcript.
func (s *ChatService) GetChatWithMessages(ctx context.Context, userID, chatID uuid.UUID) (*models.ChatWithMessagesResponse, error) {
	chat, err := s.store.GetChatByID(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	messages, err := s.store.ListMessagesByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	resp := &models.ChatWithMessagesResponse{
		ChatResponse: mapChatToResponse(chat),
		Messages:     make([]models.MessageResponse, 0, len(messages)),
	}
	for _, m := range messages {
		resp.Messages = append(resp.Messages, models.MessageResponse{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return resp, nil
}

// UpdateChat applies a partial update (rename, share toggle). When sharing is
// enabled and the chat has never been assigned a share token, an 8-character
// opaque token is minted; an existing token is never replaced unless the
// caller supplies one explicitly, so repeated shares keep the same link.
func (s *ChatService) UpdateChat(ctx context.Context, userID, chatID uuid.UUID, req models.UpdateChatRequest) (*models.ChatResponse, error) {
	params := store.UpdateChatParams{
		ID:     chatID,
		UserID: userID,
		Title:  req.Title,
		Shared: req.Shared,
	}

	if req.ShareID != nil {
		params.ShareID = req.ShareID
	} else if req.Shared != nil && *req.Shared {
		chat, err := s.store.GetChatByID(ctx, chatID, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to get chat: %w", err)
		}
		if chat.ShareID == nil {
			token := mintShareID()
			params.ShareID = &token
		}
	}

	updated, err := s.store.UpdateChat(ctx, params)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update chat: %w", err)
	}

	resp := mapChatToResponse(updated)
	return &resp, nil
}

// DeleteChat removes a chat and its messages.
func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error {
	if err := s.store.DeleteChat(ctx, chatID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return nil
}

// GetSharedChat returns the public view of a shared chat transcript.
// Chats whose shared flag is false are indistinguishable from missing ones.
func (s *ChatService) GetSharedChat(ctx context.Context, shareID string) (*models.SharedChatResponse, error) {
	chat, err := s.store.GetSharedChat(ctx, shareID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get shared chat: %w", err)
	}

	messages, err := s.store.ListMessagesByChat(ctx, chat.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared chat messages: %w", err)
	}

	resp := &models.SharedChatResponse{
		Title:    chat.Title,
		Messages: make([]models.SharedMessage, 0, len(messages)),
	}
	for _, m := range messages {
		resp.Messages = append(resp.Messages, models.SharedMessage{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return resp, nil
}

func mapChatToResponse(chat *models.Chat) models.ChatResponse {
	return models.ChatResponse{
		ID:        chat.ID,
		Title:     chat.Title,
		Shared:    chat.Shared,
		ShareID:   chat.ShareID,
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}
}

func mintShareID() string {
	return uuid.New().String()[:shareIDLength]
}
