package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"snowbasin-backend/internal/auth"
	"snowbasin-backend/internal/models"
	"snowbasin-backend/internal/services"
	"snowbasin-backend/internal/store"
	"snowbasin-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ChatHandlers handles HTTP requests for chat CRUD and share links.
type ChatHandlers struct {
	chatService *services.ChatService
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(chatService *services.ChatService) *ChatHandlers {
	return &ChatHandlers{chatService: chatService}
}

// HandleListChats handles GET /v1/chats.
// Chats are returned ordered by last update, newest first.
func (h *ChatHandlers) HandleListChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	chats, err := h.chatService.ListChats(r.Context(), userID)
	if err != nil {
		log.Printf("[ChatHandlers] ListChats failed for user %s: %v", userID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chats)
}

// HandleGetChat handles GET /v1/chats/{chatID}.
func (h *ChatHandlers) HandleGetChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		httputil.RespondError(w, http.StatusNotFound, "Chat not found")
		return
	}

	chat, err := h.chatService.GetChatWithMessages(r.Context(), userID, chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Chat not found")
			return
		}
		log.Printf("[ChatHandlers] GetChat failed for chat %s: %v", chatID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chat)
}

// HandleUpdateChat handles PATCH /v1/chats/{chatID} (rename, share toggle).
func (h *ChatHandlers) HandleUpdateChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		httputil.RespondError(w, http.StatusNotFound, "Chat not found")
		return
	}

	var req models.UpdateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.chatService.UpdateChat(r.Context(), userID, chatID, req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Chat not found")
			return
		}
		log.Printf("[ChatHandlers] UpdateChat failed for chat %s: %v", chatID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, updated)
}

// HandleDeleteChat handles DELETE /v1/chats/{chatID}.
func (h *ChatHandlers) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		httputil.RespondError(w, http.StatusNotFound, "Chat not found")
		return
	}

	if err := h.chatService.DeleteChat(r.Context(), userID, chatID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Chat not found")
			return
		}
		log.Printf("[ChatHandlers] DeleteChat failed for chat %s: %v", chatID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.DeleteChatResponse{Success: true})
}

// HandleGetSharedChat handles GET /share/{shareID}. Public, no auth required;
// un-shared chats look exactly like missing ones.
func (h *ChatHandlers) HandleGetSharedChat(w http.ResponseWriter, r *http.Request) {
	shareID := chi.URLParam(r, "shareID")
	if shareID == "" {
		httputil.RespondError(w, http.StatusNotFound, "Chat not found")
		return
	}

	chat, err := h.chatService.GetSharedChat(r.Context(), shareID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Chat not found")
			return
		}
		log.Printf("[ChatHandlers] GetSharedChat failed for share %s: %v", shareID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chat)
}
