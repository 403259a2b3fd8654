package services_test

import (
	"context"
	"errors"
	"testing"

	"snowbasin-backend/internal/models"
	"snowbasin-backend/internal/services"
	"snowbasin-backend/internal/store"
	"snowbasin-backend/internal/store/storetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginTurnNewChat(t *testing.T) {
	st := storetest.New()
	svc := services.NewChatService(st)
	userID := uuid.New()

	turn, err := svc.BeginTurn(context.Background(), userID, nil, "When is the next bus?")
	require.NoError(t, err)

	assert.True(t, turn.IsNewChat)
	assert.Equal(t, "New Chat", turn.Chat.Title)
	assert.Equal(t, userID, turn.Chat.UserID)

	// The user message must be durable and included in the history before
	// any model call is made.
	require.Len(t, turn.History, 1)
	assert.Equal(t, models.RoleUser, turn.History[0].Role)
	assert.Equal(t, "When is the next bus?", turn.History[0].Content)
}

func TestBeginTurnExistingChat(t *testing.T) {
	st := storetest.New()
	svc := services.NewChatService(st)
	userID := uuid.New()

	first, err := svc.BeginTurn(context.Background(), userID, nil, "hello")
	require.NoError(t, err)
	require.NoError(t, svc.CompleteTurn(context.Background(), userID, first.Chat.ID, "hi there"))

	turn, err := svc.BeginTurn(context.Background(), userID, &first.Chat.ID, "follow up")
	require.NoError(t, err)

	assert.False(t, turn.IsNewChat)
	assert.Equal(t, first.Chat.ID, turn.Chat.ID)

	// History is ascending and includes the new user message last.
	require.Len(t, turn.History, 3)
	assert.Equal(t, models.RoleUser, turn.History[0].Role)
	assert.Equal(t, models.RoleAssistant, turn.History[1].Role)
	assert.Equal(t, "follow up", turn.History[2].Content)
}

func TestBeginTurnUnownedChat(t *testing.T) {
	st := storetest.New()
	svc := services.NewChatService(st)

	owner := uuid.New()
	turn, err := svc.BeginTurn(context.Background(), owner, nil, "mine")
	require.NoError(t, err)

	intruder := uuid.New()
	_, err = svc.BeginTurn(context.Background(), intruder, &turn.Chat.ID, "yours now")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestBeginTurnMessageFailureAbortsTurn(t *testing.T) {
	st := storetest.New()
	st.CreateMessageErr = errors.New("db down")
	svc := services.NewChatService(st)

	_, err := svc.BeginTurn(context.Background(), uuid.New(), nil, "hello")
	require.Error(t, err)
}

func TestCompleteTurnBumpsTimestamp(t *testing.T) {
	st := storetest.New()
	svc := services.NewChatService(st)
	userID := uuid.New()

	older, err := svc.BeginTurn(context.Background(), userID, nil, "first chat")
	require.NoError(t, err)
	newer, err := svc.BeginTurn(context.Background(), userID, nil, "second chat")
	require.NoError(t, err)

	chats, err := svc.ListChats(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, newer.Chat.ID, chats[0].ID)

	// Completing a turn on the older chat moves it to the top of the list.
	require.NoError(t, svc.CompleteTurn(context.Background(), userID, older.Chat.ID, "answer"))

	chats, err = svc.ListChats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, older.Chat.ID, chats[0].ID)

	full, err := svc.GetChatWithMessages(context.Background(), userID, older.Chat.ID)
	require.NoError(t, err)
	require.Len(t, full.Messages, 2)
	assert.Equal(t, models.RoleAssistant, full.Messages[1].Role)
	assert.Equal(t, "answer", full.Messages[1].Content)
}

func TestUpdateChatMintsShareIDOnce(t *testing.T) {
	st := storetest.New()
	svc := services.NewChatService(st)
	userID := uuid.New()

	turn, err := svc.BeginTurn(context.Background(), userID, nil, "share me")
	require.NoError(t, err)

	shared := true
	first, err := svc.UpdateChat(context.Background(), userID, turn.Chat.ID, models.UpdateChatRequest{Shared: &shared})
	require.NoError(t, err)
	require.NotNil(t, first.ShareID)
	assert.Len(t, *first.ShareID, 8)
	assert.True(t, first.Shared)

	// Unshare and reshare: the token survives so old links keep working.
	unshared := false
	mid, err := svc.UpdateChat(context.Background(), userID, turn.Chat.ID, models.UpdateChatRequest{Shared: &unshared})
	require.NoError(t, err)
	assert.False(t, mid.Shared)

	second, err := svc.UpdateChat(context.Background(), userID, turn.Chat.ID, models.UpdateChatRequest{Shared: &shared})
	require.NoError(t, err)
	require.NotNil(t, second.ShareID)
	assert.Equal(t, *first.ShareID, *second.ShareID)
}

func TestUpdateChatRename(t *testing.T) {
	st := storetest.New()
	svc := services.NewChatService(st)
	userID := uuid.New()

	turn, err := svc.BeginTurn(context.Background(), userID, nil, "hello")
	require.NoError(t, err)

	title := "Powder day logistics"
	updated, err := svc.UpdateChat(context.Background(), userID, turn.Chat.ID, models.UpdateChatRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Nil(t, updated.ShareID)
}

func TestGetSharedChat(t *testing.T) {
	st := storetest.New()
	svc := services.NewChatService(st)
	userID := uuid.New()

	turn, err := svc.BeginTurn(context.Background(), userID, nil, "public question")
	require.NoError(t, err)
	require.NoError(t, svc.CompleteTurn(context.Background(), userID, turn.Chat.ID, "public answer"))
	require.NoError(t, svc.SetTitle(context.Background(), userID, turn.Chat.ID, "Public Chat"))

	shared := true
	updated, err := svc.UpdateChat(context.Background(), userID, turn.Chat.ID, models.UpdateChatRequest{Shared: &shared})
	require.NoError(t, err)
	require.NotNil(t, updated.ShareID)

	public, err := svc.GetSharedChat(context.Background(), *updated.ShareID)
	require.NoError(t, err)
	assert.Equal(t, "Public Chat", public.Title)
	require.Len(t, public.Messages, 2)
	assert.Equal(t, models.RoleUser, public.Messages[0].Role)
	assert.Equal(t, "public answer", public.Messages[1].Content)

	// Unsharing makes the link dead even though the token is retained.
	unshared := false
	_, err = svc.UpdateChat(context.Background(), userID, turn.Chat.ID, models.UpdateChatRequest{Shared: &unshared})
	require.NoError(t, err)

	_, err = svc.GetSharedChat(context.Background(), *updated.ShareID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteChat(t *testing.T) {
	st := storetest.New()
	svc := services.NewChatService(st)
	userID := uuid.New()

	turn, err := svc.BeginTurn(context.Background(), userID, nil, "delete me")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteChat(context.Background(), userID, turn.Chat.ID))

	_, err = svc.GetChatWithMessages(context.Background(), userID, turn.Chat.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	err = svc.DeleteChat(context.Background(), userID, turn.Chat.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
