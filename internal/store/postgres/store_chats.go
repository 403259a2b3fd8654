package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	db_models "snowbasin-backend/internal/models"
	"snowbasin-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Chat Methods ---

const createChat = `-- name: CreateChat :one
INSERT INTO chats (
    id, user_id, title
) VALUES (
    $1, $2, $3
)
RETURNING id, user_id, title, shared, share_id, created_at, updated_at;
`

func (s *PostgresStore) CreateChat(ctx context.Context, arg store.CreateChatParams) (*db_models.Chat, error) {
	id := arg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := s.db.QueryRow(ctx, createChat, id, arg.UserID, arg.Title)

	var chat db_models.Chat
	err := row.Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Title,
		&chat.Shared,
		&chat.ShareID,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error scanning chat: %w", err)
	}

	return &chat, nil
}

const getChatByID = `-- name: GetChatByID :one
SELECT id, user_id, title, shared, share_id, created_at, updated_at
FROM chats
WHERE id = $1 AND user_id = $2;
`

func (s *PostgresStore) GetChatByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*db_models.Chat, error) {
	row := s.db.QueryRow(ctx, getChatByID, id, userID)

	var chat db_models.Chat
	err := row.Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Title,
		&chat.Shared,
		&chat.ShareID,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning chat: %w", err)
	}

	return &chat, nil
}

const listChatsByUser = `-- name: ListChatsByUser :many
SELECT id, user_id, title, shared, share_id, created_at, updated_at
FROM chats
WHERE user_id = $1
ORDER BY updated_at DESC;
`

func (s *PostgresStore) ListChatsByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Chat, error) {
	rows, err := s.db.Query(ctx, listChatsByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying chats: %w", err)
	}
	defer rows.Close()

	var chats []db_models.Chat
	for rows.Next() {
		var chat db_models.Chat
		if err := rows.Scan(
			&chat.ID,
			&chat.UserID,
			&chat.Title,
			&chat.Shared,
			&chat.ShareID,
			&chat.CreatedAt,
			&chat.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning chat row: %w", err)
		}
		chats = append(chats, chat)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat rows: %w", err)
	}

	return chats, nil
}

// UpdateChat builds the query dynamically based on which fields are provided.
// The updated_at timestamp is always bumped.
func (s *PostgresStore) UpdateChat(ctx context.Context, arg store.UpdateChatParams) (*db_models.Chat, error) {
	setClauses := []string{}
	args := []interface{}{}
	argID := 1

	if arg.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argID))
		args = append(args, *arg.Title)
		argID++
	}
	if arg.Shared != nil {
		setClauses = append(setClauses, fmt.Sprintf("shared = $%d", argID))
		args = append(args, *arg.Shared)
		argID++
	}
	if arg.ShareID != nil {
		setClauses = append(setClauses, fmt.Sprintf("share_id = $%d", argID))
		args = append(args, *arg.ShareID)
		argID++
	}

	// Always update the updated_at timestamp
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argID))
	args = append(args, time.Now())
	argID++

	// Add WHERE clause parameters
	args = append(args, arg.ID)
	args = append(args, arg.UserID)

	query := fmt.Sprintf(`-- name: UpdateChat :one
		UPDATE chats
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING id, user_id, title, shared, share_id, created_at, updated_at;`,
		strings.Join(setClauses, ", "),
		argID,   // ID placeholder index
		argID+1, // UserID placeholder index
	)

	row := s.db.QueryRow(ctx, query, args...)
	var chat db_models.Chat
	err := row.Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Title,
		&chat.Shared,
		&chat.ShareID,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Chat missing or owned by someone else
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning updated chat: %w", err)
	}

	return &chat, nil
}

const touchChat = `-- name: TouchChat :exec
UPDATE chats
SET updated_at = NOW()
WHERE id = $1 AND user_id = $2;
`

func (s *PostgresStore) TouchChat(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, touchChat, id, userID)
	if err != nil {
		return fmt.Errorf("error executing touch chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const deleteChatMessages = `-- name: DeleteChatMessages :exec
DELETE FROM messages
WHERE chat_id = $1;
`

const deleteChat = `-- name: DeleteChat :exec
DELETE FROM chats
WHERE id = $1 AND user_id = $2;
`

// DeleteChat removes a chat and its messages. The message delete runs inside
// the same transaction so a chat row can never outlive its transcript.
func (s *PostgresStore) DeleteChat(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Verify ownership before touching messages
	var owner uuid.UUID
	err = tx.QueryRow(ctx, `SELECT user_id FROM chats WHERE id = $1 AND user_id = $2`, id, userID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return fmt.Errorf("error verifying chat ownership: %w", err)
	}

	if _, err := tx.Exec(ctx, deleteChatMessages, id); err != nil {
		return fmt.Errorf("error deleting chat messages: %w", err)
	}

	tag, err := tx.Exec(ctx, deleteChat, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing delete transaction: %w", err)
	}

	log.Printf("[PostgresStore] DeleteChat: Deleted chat %s for user %s", id, userID)
	return nil
}

const getSharedChat = `-- name: GetSharedChat :one
SELECT id, user_id, title, shared, share_id, created_at, updated_at
FROM chats
WHERE share_id = $1 AND shared = TRUE;
`

func (s *PostgresStore) GetSharedChat(ctx context.Context, shareID string) (*db_models.Chat, error) {
	row := s.db.QueryRow(ctx, getSharedChat, shareID)

	var chat db_models.Chat
	err := row.Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Title,
		&chat.Shared,
		&chat.ShareID,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning shared chat: %w", err)
	}

	return &chat, nil
}

// --- Message Methods ---

const createMessage = `-- name: CreateMessage :one
INSERT INTO messages (
    id, chat_id, role, content
) VALUES (
    $1, $2, $3, $4
)
RETURNING id, chat_id, role, content, created_at;
`

func (s *PostgresStore) CreateMessage(ctx context.Context, arg store.CreateMessageParams) (*db_models.Message, error) {
	id := arg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := s.db.QueryRow(ctx, createMessage, id, arg.ChatID, arg.Role, arg.Content)

	var msg db_models.Message
	err := row.Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.Role,
		&msg.Content,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error scanning message: %w", err)
	}

	return &msg, nil
}

const listMessagesByChat = `-- name: ListMessagesByChat :many
SELECT id, chat_id, role, content, created_at
FROM messages
WHERE chat_id = $1
ORDER BY created_at ASC;
`

func (s *PostgresStore) ListMessagesByChat(ctx context.Context, chatID uuid.UUID) ([]db_models.Message, error) {
	rows, err := s.db.Query(ctx, listMessagesByChat, chatID)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var messages []db_models.Message
	for rows.Next() {
		var msg db_models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.Role,
			&msg.Content,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning message row: %w", err)
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}
