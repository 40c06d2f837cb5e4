package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/riverdesk/riverdesk-chat/internal/auth"
	"github.com/riverdesk/riverdesk-chat/internal/middleware"
	"github.com/riverdesk/riverdesk-chat/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// AuthHandler owns the only public endpoints: signup and login. The rest of
// the portal identifies callers by the token these produce.
type AuthHandler struct {
	identities repository.IdentityRepository
	profiles   repository.ProfileResolver
	jwtSecret  string
	logger     *zap.Logger
}

func NewAuthHandler(
	identities repository.IdentityRepository,
	profiles repository.ProfileResolver,
	jwtSecret string,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		identities: identities,
		profiles:   profiles,
		jwtSecret:  jwtSecret,
		logger:     logger,
	}
}

type signupRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"required"`
	TenantName  string `json:"tenant_name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Signup handles POST /v1/auth/signup: creates the tenant, the first user
// in it, and returns a token.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.identities.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("signup lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("password hash failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	tenantID, err := h.identities.CreateTenant(c.Request.Context(), req.TenantName)
	if err != nil {
		h.logger.Error("tenant creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	profile, err := h.identities.CreateUser(c.Request.Context(), tenantID, req.Email, req.DisplayName, string(hash))
	if err != nil {
		h.logger.Error("user creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	token, err := auth.GenerateToken(profile.UserID, profile.TenantID, profile.Email, h.jwtSecret, tokenTTL)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	c.JSON(http.StatusCreated, authResponse{Token: token})
}

// Login handles POST /v1/auth/login. Unknown email and wrong password get
// the same response so the endpoint cannot be used to probe accounts.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.identities.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("login lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(profile.UserID, profile.TenantID, profile.Email, h.jwtSecret, tokenTTL)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token})
}

// Me handles GET /v1/me: the caller's own display identity.
func (h *AuthHandler) Me(c *gin.Context) {
	profile, err := h.profiles.Resolve(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.logger.Error("profile resolution failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile lookup failed"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	c.JSON(http.StatusOK, profile)
}
