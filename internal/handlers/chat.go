package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-gateway/internal/access"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repositories"
	"chat-gateway/internal/telemetry"
)

// ChatHandler manages single-chat endpoints.
type ChatHandler struct {
	singleChats repositories.SingleChatRepository
	messages    repositories.MessageRepository
	authority   *access.Authority
	emitter     *telemetry.EventEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(singleChats repositories.SingleChatRepository, messages repositories.MessageRepository, authority *access.Authority, emitter *telemetry.EventEmitter) *ChatHandler {
	return &ChatHandler{
		singleChats: singleChats,
		messages:    messages,
		authority:   authority,
		emitter:     emitter,
	}
}

// StartSingleChat creates or returns the private chat between the caller and
// another user.
func (h *ChatHandler) StartSingleChat(c *gin.Context) {
	var req struct {
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userID")
	if userID == req.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
		return
	}

	chat, err := h.singleChats.CreateOrGetSingleChat(c.Request.Context(), userID, req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	h.emitter.EmitMessageEvent(c.Request.Context(), "chat_started", "single:"+chat.ID, "single", chat)
	c.JSON(http.StatusOK, chat)
}

// ListSingleChats returns the caller's private chats.
func (h *ChatHandler) ListSingleChats(c *gin.Context) {
	userID := c.GetString("userID")

	chats, err := h.singleChats.ListSingleChatsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// GetSingleChatMessages returns message history for a chat. Participants
// only; soft-deleted messages are excluded.
func (h *ChatHandler) GetSingleChatMessages(c *gin.Context) {
	chatID := c.Param("chat_id")
	userID := c.GetString("userID")

	target := models.ChatTarget{SingleChatID: chatID}
	if err := h.authority.Authorize(c.Request.Context(), userID, target); err != nil {
		writeAuthError(c, err)
		return
	}

	msgs, err := h.messages.ListBySingleChat(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, access.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
	case errors.Is(err, access.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
	}
}
