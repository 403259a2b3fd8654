package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log"
	"net/http"
	"strings"

	"snowbasin-backend/internal/auth"
	"snowbasin-backend/internal/llm"
	"snowbasin-backend/internal/models"
	"snowbasin-backend/internal/services"
	"snowbasin-backend/internal/store"

	"github.com/google/uuid"
)

// StreamingLLM is the token-streaming text-generation API consumed by the
// stream handler. StreamChat yields content chunks in arrival order;
// GenerateTitle is a separate non-streaming call.
type StreamingLLM interface {
	StreamChat(ctx context.Context, messages []llm.TurnMessage, grounding string) iter.Seq2[string, error]
	GenerateTitle(ctx context.Context, message string) (string, error)
}

// Enricher produces best-effort real-time grounding text for a user message.
// Implementations must never fail the caller.
type Enricher interface {
	TryEnrich(ctx context.Context, content string) string
}

// StreamHandlers serves the streaming chat endpoint. It multiplexes model
// content chunks and out-of-band control events (chat id, title, error) onto
// a single SSE-style byte stream.
type StreamHandlers struct {
	chatService *services.ChatService
	llm         StreamingLLM
	enricher    Enricher
}

// NewStreamHandlers creates a new StreamHandlers instance.
func NewStreamHandlers(chatService *services.ChatService, streamer StreamingLLM, enricher Enricher) *StreamHandlers {
	return &StreamHandlers{
		chatService: chatService,
		llm:         streamer,
		enricher:    enricher,
	}
}

// Wire frames. Every frame is a single-line JSON object on the SSE data line;
// consumers ignore unknown fields.
type chatIDFrame struct {
	ChatID string `json:"chatId"`
}

type contentFrame struct {
	Content string `json:"content"`
}

type titleFrame struct {
	Title string `json:"title"`
}

type errorFrame struct {
	Error string `json:"error"`
}

// HandleChatStream handles POST /chat-stream.
//
// The response is a text/event-stream of `data: <json>` frames terminated by
// a literal `data: [DONE]` line. For newly created chats the first frame
// carries the chat id and the last frame before the sentinel carries the
// generated title. Guest requests skip authentication and persistence and
// receive content frames only.
func (h *StreamHandlers) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	var req models.ChatStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		http.Error(w, "Message content is required", http.StatusBadRequest)
		return
	}

	if req.Guest {
		h.handleGuestStream(w, r, req.Content)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var chatID *uuid.UUID
	if req.ChatID != "" {
		parsed, err := uuid.Parse(req.ChatID)
		if err != nil {
			http.Error(w, "Chat not found", http.StatusNotFound)
			return
		}
		chatID = &parsed
	}

	// Persist the user side of the turn before any model call. A failure
	// here surfaces as a plain server error; streaming has not started yet.
	turn, err := h.chatService.BeginTurn(r.Context(), userID, chatID, req.Content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Chat not found", http.StatusNotFound)
			return
		}
		log.Printf("[StreamHandlers] Failed to begin turn: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	grounding := h.enricher.TryEnrich(r.Context(), req.Content)

	setStreamHeaders(w)

	if turn.IsNewChat {
		writeFrame(w, flusher, chatIDFrame{ChatID: turn.Chat.ID.String()})
	}

	msgs := make([]llm.TurnMessage, 0, len(turn.History))
	for _, m := range turn.History {
		msgs = append(msgs, llm.TurnMessage{Role: m.Role, Content: m.Content})
	}

	var fullResponse strings.Builder
	for chunk, err := range h.llm.StreamChat(r.Context(), msgs, grounding) {
		if err != nil {
			log.Printf("[StreamHandlers] Stream error for chat %s: %v", turn.Chat.ID, err)
			writeFrame(w, flusher, errorFrame{Error: "Stream error"})
			writeDone(w, flusher)
			return
		}
		fullResponse.WriteString(chunk)
		writeFrame(w, flusher, contentFrame{Content: chunk})
	}

	// The stream is exhausted; persistence happens strictly after. Failures
	// from here on are degraded durability only, the client already has the
	// content.
	if err := h.chatService.CompleteTurn(r.Context(), userID, turn.Chat.ID, fullResponse.String()); err != nil {
		log.Printf("[StreamHandlers] Failed to persist assistant message for chat %s: %v", turn.Chat.ID, err)
	}

	if turn.IsNewChat {
		title, err := h.llm.GenerateTitle(r.Context(), req.Content)
		if err != nil {
			log.Printf("[StreamHandlers] Failed to generate title for chat %s: %v", turn.Chat.ID, err)
		} else {
			if err := h.chatService.SetTitle(r.Context(), userID, turn.Chat.ID, title); err != nil {
				log.Printf("[StreamHandlers] Failed to persist title for chat %s: %v", turn.Chat.ID, err)
			}
			writeFrame(w, flusher, titleFrame{Title: title})
		}
	}

	writeDone(w, flusher)
}

// handleGuestStream is the guest-mode variant: identical framing, no auth,
// no persistence, no chat-id or title frames.
func (h *StreamHandlers) handleGuestStream(w http.ResponseWriter, r *http.Request, content string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	grounding := h.enricher.TryEnrich(r.Context(), content)

	setStreamHeaders(w)

	messages := []llm.TurnMessage{{Role: models.RoleUser, Content: content}}
	for chunk, err := range h.llm.StreamChat(r.Context(), messages, grounding) {
		if err != nil {
			log.Printf("[StreamHandlers] Guest stream error: %v", err)
			writeFrame(w, flusher, errorFrame{Error: "Stream error"})
			writeDone(w, flusher)
			return
		}
		writeFrame(w, flusher, contentFrame{Content: chunk})
	}

	writeDone(w, flusher)
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

// writeFrame serializes one frame as `data: <json>` followed by a blank
// line and flushes it. Write errors mean the client went away; they are not
// actionable mid-stream, so they are ignored.
func writeFrame(w http.ResponseWriter, flusher http.Flusher, frame interface{}) {
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("[StreamHandlers] Failed to marshal frame: %v", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}

// writeDone emits the terminal sentinel. It is always the last line sequence
// of the stream, under both success and in-band-error outcomes.
func writeDone(w http.ResponseWriter, flusher http.Flusher) {
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}
