package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/riverdesk/riverdesk-chat/internal/chat"
	"github.com/riverdesk/riverdesk-chat/internal/middleware"
	"go.uber.org/zap"
)

// ChannelHandler exposes the channel registry over HTTP. It holds the
// service (never a repository directly) so the lifecycle rules apply to
// every transport the same way.
type ChannelHandler struct {
	channels *chat.ChannelService
	logger   *zap.Logger
}

func NewChannelHandler(channels *chat.ChannelService, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{channels: channels, logger: logger}
}

// Create handles POST /v1/channels
func (h *ChannelHandler) Create(c *gin.Context) {
	var req chat.CreateChannelInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch, err := h.channels.Create(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, h.logger, err, "create channel")
		return
	}

	c.JSON(http.StatusCreated, ch)
}

// List handles GET /v1/channels
func (h *ChannelHandler) List(c *gin.Context) {
	channels, err := h.channels.List(c.Request.Context(), middleware.GetTenantID(c))
	if err != nil {
		respondError(c, h.logger, err, "list channels")
		return
	}

	c.JSON(http.StatusOK, channels)
}

// GetByID handles GET /v1/channels/:id
func (h *ChannelHandler) GetByID(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	ch, err := h.channels.Get(c.Request.Context(), middleware.GetTenantID(c), channelID)
	if err != nil {
		respondError(c, h.logger, err, "get channel")
		return
	}

	c.JSON(http.StatusOK, ch)
}

// Update handles PATCH /v1/channels/:id
func (h *ChannelHandler) Update(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	var req chat.UpdateChannelInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch, err := h.channels.Update(c.Request.Context(), middleware.GetTenantID(c), channelID, req)
	if err != nil {
		respondError(c, h.logger, err, "update channel")
		return
	}

	c.JSON(http.StatusOK, ch)
}

// Delete handles DELETE /v1/channels/:id
func (h *ChannelHandler) Delete(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	if err := h.channels.Delete(c.Request.Context(), middleware.GetTenantID(c), channelID); err != nil {
		respondError(c, h.logger, err, "delete channel")
		return
	}

	c.Status(http.StatusNoContent)
}

// Stats handles GET /v1/channels/:id/stats
func (h *ChannelHandler) Stats(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	stats, err := h.channels.Stats(c.Request.Context(), middleware.GetTenantID(c), channelID)
	if err != nil {
		respondError(c, h.logger, err, "channel stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}
