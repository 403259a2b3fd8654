package streamclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"snowbasin-backend/internal/models"
)

// Entry is one transcript entry in the local projection of a chat. IDs are
// locally generated; the server's message rows are the source of truth and
// the projection reconciles by refetching when the active chat changes.
type Entry struct {
	ID      string
	Role    string
	Content string
}

// Session drives one conversation against the streaming chat endpoint. It
// owns the optimistic transcript, the in-flight streaming buffer and the
// cancellation handle for the current turn. Only one turn can be in flight
// at a time; Send is a no-op while a turn is running.
//
// All exported methods are safe for concurrent use; Stop is expected to be
// called from a different goroutine than the one blocked in Send.
type Session struct {
	mu sync.Mutex

	httpClient *http.Client
	baseURL    string
	authToken  string
	guest      bool

	chatID     string
	transcript []Entry
	streamBuf  string
	loading    bool
	cancel     context.CancelFunc

	// OnContent is invoked with the accumulated streaming buffer after every
	// content frame, for live rendering. Optional.
	OnContent func(total string)
	// OnTitle is invoked when a title frame arrives, signalling that the
	// chat list should be refreshed. Optional.
	OnTitle func(title string)
	// OnStreamError is invoked when the server reports an in-band stream
	// error. Content already received is kept. Optional.
	OnStreamError func(msg string)
}

// NewSession creates a session for an authenticated user.
func NewSession(baseURL, authToken string) *Session {
	return &Session{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
	}
}

// NewGuestSession creates a session that streams without authentication or
// persistence. Guest streams never carry chat-id or title frames and the
// transcript is gone once the session is.
func NewGuestSession(baseURL string) *Session {
	return &Session{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		guest:      true,
	}
}

// Send submits one user message and blocks until the response stream
// terminates. The user entry is appended optimistically before the request
// goes out; on success the accumulated assistant response is committed to the
// transcript, on abort the optimistic entry is preserved, and on any other
// failure it is rolled back and the error returned.
//
// Send returns nil immediately if a turn is already in flight.
func (s *Session) Send(ctx context.Context, content string) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil
	}

	optimistic := Entry{
		ID:      fmt.Sprintf("temp-%d", time.Now().UnixNano()),
		Role:    models.RoleUser,
		Content: content,
	}
	s.transcript = append(s.transcript, optimistic)
	s.streamBuf = ""
	s.loading = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	chatID := s.chatID
	s.mu.Unlock()

	err := s.run(ctx, chatID, content)
	return s.finish(optimistic.ID, err)
}

// Stop cancels the in-flight turn, if any. This is a user-directed stop, not
// a failure: the optimistic user entry stays in the transcript and only the
// unfinished streaming buffer is discarded.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// EditAndResend replaces an already-sent user entry: the transcript is
// truncated to everything strictly before that entry and a fresh turn starts
// with the edited text. History is never mutated in place; this produces a
// new turn.
func (s *Session) EditAndResend(ctx context.Context, entryID, newContent string) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil
	}

	idx := -1
	for i, e := range s.transcript {
		if e.ID == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("transcript entry %s not found", entryID)
	}
	s.transcript = s.transcript[:idx]
	s.mu.Unlock()

	return s.Send(ctx, newContent)
}

// Reset replaces the local projection, used when the active chat changes and
// the transcript is refetched from the server.
func (s *Session) Reset(chatID string, entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatID = chatID
	s.transcript = append([]Entry(nil), entries...)
	s.streamBuf = ""
}

// Transcript returns a copy of the current transcript projection.
func (s *Session) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.transcript...)
}

// StreamingContent returns the partial assistant response accumulated so far
// for the in-flight turn, empty outside of one.
func (s *Session) StreamingContent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamBuf
}

// ChatID returns the active chat identifier, empty for a fresh or guest
// session.
func (s *Session) ChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatID
}

// Loading reports whether a turn is currently in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// run performs the streaming request and consumes the response body
// incrementally until exhaustion or failure.
func (s *Session) run(ctx context.Context, chatID, content string) error {
	body, err := json.Marshal(models.ChatStreamRequest{
		ChatID:  chatID,
		Content: content,
		Guest:   s.guest,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat-stream", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chat stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("chat stream request returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	var dec Decoder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			for _, frame := range dec.Feed(buf[:n]) {
				s.apply(frame)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// apply folds one decoded frame into session state.
func (s *Session) apply(frame Frame) {
	switch {
	case frame.Done:
		// Terminator, nothing to fold in.
	case frame.ChatID != "":
		s.mu.Lock()
		s.chatID = frame.ChatID
		s.mu.Unlock()
	case frame.Content != "":
		s.mu.Lock()
		s.streamBuf += frame.Content
		total := s.streamBuf
		onContent := s.OnContent
		s.mu.Unlock()
		if onContent != nil {
			onContent(total)
		}
	case frame.Title != "":
		s.mu.Lock()
		onTitle := s.OnTitle
		s.mu.Unlock()
		if onTitle != nil {
			onTitle(frame.Title)
		}
	case frame.Error != "":
		s.mu.Lock()
		onStreamError := s.OnStreamError
		s.mu.Unlock()
		if onStreamError != nil {
			onStreamError(frame.Error)
		}
	}
}

// finish settles the terminal transition of a turn: commit on graceful end,
// preserve-and-stop on abort, rollback on error. In every case the loading
// flag, streaming buffer and cancellation handle are released.
func (s *Session) finish(optimisticID string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.loading = false
	buf := s.streamBuf
	s.streamBuf = ""

	switch {
	case err == nil:
		if buf != "" {
			s.transcript = append(s.transcript, Entry{
				ID:      fmt.Sprintf("assistant-%d", time.Now().UnixNano()),
				Role:    models.RoleAssistant,
				Content: buf,
			})
		}
		return nil
	case errors.Is(err, context.Canceled):
		// User-directed stop: keep the optimistic entry, drop the buffer.
		return nil
	default:
		// Failure: the message was never durably sent, so the optimistic
		// entry must not linger in the transcript.
		for i, e := range s.transcript {
			if e.ID == optimisticID {
				s.transcript = append(s.transcript[:i], s.transcript[i+1:]...)
				break
			}
		}
		return err
	}
}
