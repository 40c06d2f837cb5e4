package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/riverdesk/riverdesk-chat/internal/chat"
	"github.com/riverdesk/riverdesk-chat/internal/middleware"
	"go.uber.org/zap"
)

type MessageHandler struct {
	messages *chat.MessageService
	logger   *zap.Logger
}

func NewMessageHandler(messages *chat.MessageService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

type sendMessageRequest struct {
	Content string  `json:"content"`
	Type    string  `json:"type"`
	FileURL *string `json:"file_url,omitempty"`
	ReplyTo *int64  `json:"reply_to,omitempty"`
}

type editMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Send handles POST /v1/channels/:id/messages
func (h *MessageHandler) Send(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.messages.Send(c.Request.Context(), chat.SendInput{
		ChannelID: channelID,
		SenderID:  middleware.GetUserID(c),
		Content:   req.Content,
		Type:      req.Type,
		FileURL:   req.FileURL,
		ReplyTo:   req.ReplyTo,
	})
	if err != nil {
		respondError(c, h.logger, err, "send message")
		return
	}

	// The send succeeded even when the recency bump did not; a response
	// header flags the partial success without changing the body shape.
	if receipt.RecencyWarning != nil {
		c.Header("X-Riverdesk-Warning", "channel recency not updated")
	}
	c.JSON(http.StatusCreated, receipt.Message)
}

// List handles GET /v1/channels/:id/messages?limit=50
func (h *MessageHandler) List(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	messages, err := h.messages.List(c.Request.Context(), channelID, limit)
	if err != nil {
		respondError(c, h.logger, err, "list messages")
		return
	}

	c.JSON(http.StatusOK, messages)
}

// Search handles GET /v1/channels/:id/messages/search?q=term&limit=20
func (h *MessageHandler) Search(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	messages, err := h.messages.Search(c.Request.Context(), channelID, c.Query("q"), limit)
	if err != nil {
		respondError(c, h.logger, err, "search messages")
		return
	}

	c.JSON(http.StatusOK, messages)
}

// Edit handles PATCH /v1/messages/:messageID
func (h *MessageHandler) Edit(c *gin.Context) {
	messageID, err := strconv.ParseInt(c.Param("messageID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.Edit(c.Request.Context(), messageID, req.Content)
	if err != nil {
		respondError(c, h.logger, err, "edit message")
		return
	}

	c.JSON(http.StatusOK, msg)
}

// Delete handles DELETE /v1/messages/:messageID
func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, err := strconv.ParseInt(c.Param("messageID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	if err := h.messages.Delete(c.Request.Context(), messageID); err != nil {
		respondError(c, h.logger, err, "delete message")
		return
	}

	c.Status(http.StatusNoContent)
}

func queryLimit(c *gin.Context) (int, bool) {
	l := c.Query("limit")
	if l == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(l)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
		return 0, false
	}
	return limit, true
}
