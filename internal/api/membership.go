package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/riverdesk/riverdesk-chat/internal/chat"
	"go.uber.org/zap"
)

type MembershipHandler struct {
	members *chat.MembershipService
	logger  *zap.Logger
}

func NewMembershipHandler(members *chat.MembershipService, logger *zap.Logger) *MembershipHandler {
	return &MembershipHandler{members: members, logger: logger}
}

type addMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Role   string    `json:"role"`
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// List handles GET /v1/channels/:id/members
func (h *MembershipHandler) List(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	members, err := h.members.ListMembers(c.Request.Context(), channelID)
	if err != nil {
		respondError(c, h.logger, err, "list members")
		return
	}

	c.JSON(http.StatusOK, members)
}

// Add handles POST /v1/channels/:id/members
func (h *MembershipHandler) Add(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.members.AddMember(c.Request.Context(), channelID, req.UserID, req.Role)
	if err != nil {
		respondError(c, h.logger, err, "add member")
		return
	}

	c.JSON(http.StatusCreated, m)
}

// Remove handles DELETE /v1/channels/:id/members/:userID
func (h *MembershipHandler) Remove(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.members.RemoveMember(c.Request.Context(), channelID, userID); err != nil {
		respondError(c, h.logger, err, "remove member")
		return
	}

	c.Status(http.StatusNoContent)
}

// SetRole handles PUT /v1/channels/:id/members/:userID/role
func (h *MembershipHandler) SetRole(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.members.SetRole(c.Request.Context(), channelID, userID, req.Role)
	if err != nil {
		respondError(c, h.logger, err, "set role")
		return
	}

	c.JSON(http.StatusOK, m)
}
