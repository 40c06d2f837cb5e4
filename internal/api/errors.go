package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/riverdesk/riverdesk-chat/internal/chat"
	"go.uber.org/zap"
)

// respondError translates domain errors into HTTP status codes. Validation
// and reference errors carry their own message; infrastructure failures are
// logged and returned as an opaque 500 so store details never leak.
func respondError(c *gin.Context, logger *zap.Logger, err error, action string) {
	switch {
	case errors.Is(err, chat.ErrChannelNotFound),
		errors.Is(err, chat.ErrMessageNotFound),
		errors.Is(err, chat.ErrMemberNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, chat.ErrAlreadyMember),
		errors.Is(err, chat.ErrLastAdmin):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, chat.ErrInvalidReply):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	case errors.Is(err, chat.ErrEmptyChannelName),
		errors.Is(err, chat.ErrInvalidChannelType),
		errors.Is(err, chat.ErrInvalidRole),
		errors.Is(err, chat.ErrEmptyContent),
		errors.Is(err, chat.ErrMissingFileURL),
		errors.Is(err, chat.ErrInvalidMessageType),
		errors.Is(err, chat.ErrEmptySearch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		logger.Error("request failed", zap.String("action", action), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": action + " failed"})
	}
}
