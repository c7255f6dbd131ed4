package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// FriendHandler manages user search, friend requests and the friend list.
type FriendHandler struct {
	friends repositories.FriendRepository
	users   repositories.UserRepository
	chats   repositories.ChatRepository
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(friends repositories.FriendRepository, users repositories.UserRepository, chats repositories.ChatRepository) *FriendHandler {
	return &FriendHandler{friends: friends, users: users, chats: chats}
}

// SearchUsers finds accounts matching the query, excluding the caller.
func (h *FriendHandler) SearchUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}

	userID := c.GetInt64("userID")
	users, err := h.users.Search(c.Request.Context(), query, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// SendRequest creates a pending friend request to another user.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req struct {
		ReceiverID int64 `json:"receiverId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt64("userID")
	if req.ReceiverID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot befriend yourself"})
		return
	}

	if _, err := h.users.GetByID(c.Request.Context(), req.ReceiverID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	request, err := h.friends.CreateRequest(c.Request.Context(), uuid.NewString(), userID, req.ReceiverID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrRequestPending):
			c.JSON(http.StatusConflict, gin.H{"error": "request already pending"})
		case errors.Is(err, repositories.ErrAlreadyFriends):
			c.JSON(http.StatusConflict, gin.H{"error": "already friends"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create request"})
		}
		return
	}

	c.JSON(http.StatusCreated, request)
}

// Respond accepts or rejects an incoming friend request. Accepting
// records the friendship and opens the private chat between the pair.
func (h *FriendHandler) Respond(c *gin.Context) {
	requestID := c.Param("id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != models.FriendRequestAccepted && req.Status != models.FriendRequestRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be accepted or rejected"})
		return
	}

	userID := c.GetInt64("userID")
	request, err := h.friends.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	if request.ReceiverID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the request receiver"})
		return
	}

	if err := h.friends.UpdateStatus(c.Request.Context(), requestID, req.Status); err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			c.JSON(http.StatusConflict, gin.H{"error": "request already handled"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update request"})
		return
	}

	if req.Status == models.FriendRequestRejected {
		c.JSON(http.StatusOK, gin.H{"status": req.Status})
		return
	}

	if err := h.friends.AddFriendship(c.Request.Context(), request.SenderID, request.ReceiverID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record friendship"})
		return
	}
	chat, err := h.chats.CreateOrGetPrivateChat(c.Request.Context(), request.SenderID, request.ReceiverID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open chat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": req.Status, "chatId": chat.ID})
}

// Cancel deletes the caller's own pending request.
func (h *FriendHandler) Cancel(c *gin.Context) {
	requestID := c.Param("id")
	userID := c.GetInt64("userID")

	if err := h.friends.CancelRequest(c.Request.Context(), requestID, userID); err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "request cancelled"})
}

// ListRequests returns the caller's incoming pending requests.
func (h *FriendHandler) ListRequests(c *gin.Context) {
	userID := c.GetInt64("userID")

	requests, err := h.friends.PendingForReceiver(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ListFriends returns the caller's friends with presence and chat ids.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID := c.GetInt64("userID")

	friends, err := h.friends.ListFriends(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load friends"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends})
}
