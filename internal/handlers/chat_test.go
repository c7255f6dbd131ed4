package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/chat"
	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

const testChatID = "7d9f3b1a-2c64-4f8e-9a01-5b7c8d2e4f60"

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastToChat(chatID string, event models.ServerEvent) {}

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", int64(1))
		c.Next()
	})
	r.GET("/chats", handler.ListChats)
	r.POST("/chats/private", handler.StartPrivateChat)
	r.GET("/chats/:chat_id/messages", handler.GetChatMessages)
	r.POST("/chats/:chat_id/messages", handler.PostChatMessage)
	return r
}

func TestListChatsSuccess(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	handler := NewChatHandler(chats, nil, nil, nil)
	router := setupChatRouter(handler)

	chats.On("ListChats", mock.Anything, int64(1)).Return([]models.ChatSummary{
		{Chat: models.Chat{ID: testChatID}},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	chats.AssertExpectations(t)
}

func TestListChatsRepoError(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	handler := NewChatHandler(chats, nil, nil, nil)
	router := setupChatRouter(handler)

	chats.On("ListChats", mock.Anything, int64(1)).Return(([]models.ChatSummary)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	chats.AssertExpectations(t)
}

func TestStartPrivateChatSuccess(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	friends := new(mocks.FriendRepositoryMock)
	handler := NewChatHandler(chats, nil, friends, nil)
	router := setupChatRouter(handler)

	friends.On("AreFriends", mock.Anything, int64(1), int64(2)).Return(true, nil).Once()
	chats.On("CreateOrGetPrivateChat", mock.Anything, int64(1), int64(2)).Return(models.Chat{ID: testChatID}, nil).Once()
	chats.On("Participants", mock.Anything, testChatID).Return([]models.UserSummary{{ID: 1}, {ID: 2}}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/private", bytes.NewBufferString(`{"friendId":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	friends.AssertExpectations(t)
	chats.AssertExpectations(t)
}

func TestStartPrivateChatNotFriends(t *testing.T) {
	friends := new(mocks.FriendRepositoryMock)
	handler := NewChatHandler(new(mocks.ChatRepositoryMock), nil, friends, nil)
	router := setupChatRouter(handler)

	friends.On("AreFriends", mock.Anything, int64(1), int64(2)).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/private", bytes.NewBufferString(`{"friendId":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	friends.AssertExpectations(t)
}

func TestStartPrivateChatWithSelf(t *testing.T) {
	handler := NewChatHandler(new(mocks.ChatRepositoryMock), nil, new(mocks.FriendRepositoryMock), nil)
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/chats/private", bytes.NewBufferString(`{"friendId":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetChatMessagesNotMember(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	handler := NewChatHandler(chats, new(mocks.MessageRepositoryMock), nil, nil)
	router := setupChatRouter(handler)

	chats.On("IsParticipant", mock.Anything, testChatID, int64(1)).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/"+testChatID+"/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	chats.AssertExpectations(t)
}

func TestGetChatMessagesDefaultsPageAndLimit(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	handler := NewChatHandler(chats, messages, nil, nil)
	router := setupChatRouter(handler)

	chats.On("IsParticipant", mock.Anything, testChatID, int64(1)).Return(true, nil).Once()
	messages.On("Page", mock.Anything, testChatID, 1, 20).Return(models.MessagePage{
		Data:          []models.Message{{ID: 9, ChatID: testChatID, Content: "hi"}},
		TotalMessages: 1,
		Page:          1,
		Limit:         20,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/"+testChatID+"/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.MessagePage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.TotalMessages)
	messages.AssertExpectations(t)
}

func TestGetChatMessagesCountProbe(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	handler := NewChatHandler(chats, messages, nil, nil)
	router := setupChatRouter(handler)

	chats.On("IsParticipant", mock.Anything, testChatID, int64(1)).Return(true, nil).Once()
	messages.On("Page", mock.Anything, testChatID, 0, 20).Return(models.MessagePage{
		Data:          []models.Message{},
		TotalMessages: 42,
		Page:          0,
		Limit:         20,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/"+testChatID+"/messages?page=0", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.MessagePage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 42, resp.TotalMessages)
	assert.Empty(t, resp.Data)
}

func TestGetChatMessagesHugePageRejected(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	handler := NewChatHandler(chats, messages, nil, nil)
	router := setupChatRouter(handler)

	chats.On("IsParticipant", mock.Anything, testChatID, int64(1)).Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/"+testChatID+"/messages?page=92233720368547758", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messages.AssertNotCalled(t, "Page", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetChatMessagesInvalidLimit(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	handler := NewChatHandler(chats, messages, nil, nil)
	router := setupChatRouter(handler)

	chats.On("IsParticipant", mock.Anything, testChatID, int64(1)).Return(true, nil).Once()
	messages.On("Page", mock.Anything, testChatID, 1, 500).Return(models.MessagePage{}, repositories.ErrInvalidLimit).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/"+testChatID+"/messages?limit=500", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostChatMessageSuccess(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	sender := chat.NewService(chats, users, messages, nopBroadcaster{})
	handler := NewChatHandler(chats, messages, nil, sender)
	router := setupChatRouter(handler)

	chats.On("IsParticipant", mock.Anything, testChatID, int64(1)).Return(true, nil).Once()
	chats.On("GetChat", mock.Anything, testChatID).Return(models.Chat{ID: testChatID}, nil).Once()
	users.On("GetByID", mock.Anything, int64(1)).Return(models.User{ID: 1, Username: "alice"}, nil).Once()
	messages.On("Append", mock.Anything, testChatID, int64(1), "hello").Return(models.Message{ID: 3, ChatID: testChatID, SenderID: 1, Content: "hello"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/"+testChatID+"/messages", bytes.NewBufferString(`{"content":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	messages.AssertExpectations(t)
}

func TestPostChatMessageChatGone(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	sender := chat.NewService(chats, new(mocks.UserRepositoryMock), new(mocks.MessageRepositoryMock), nopBroadcaster{})
	handler := NewChatHandler(chats, new(mocks.MessageRepositoryMock), nil, sender)
	router := setupChatRouter(handler)

	chats.On("IsParticipant", mock.Anything, testChatID, int64(1)).Return(true, nil).Once()
	chats.On("GetChat", mock.Anything, testChatID).Return(models.Chat{}, repositories.ErrChatNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/"+testChatID+"/messages", bytes.NewBufferString(`{"content":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
