package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"calendar-booking-server/internal/config"
	"calendar-booking-server/internal/utils"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	Cfg    *config.Config
	Logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Logger: logger}
}

// LoginRequest represents the request body for admin login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Login exchanges the owner's credentials for an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	admin := h.Cfg.Admin
	if admin.Email == "" || admin.PasswordHash == "" {
		utils.Unauthorized(c, "Admin login is not configured")
		return
	}
	if !strings.EqualFold(req.Email, admin.Email) ||
		bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		h.Logger.Warn("failed admin login", zap.String("ip", c.ClientIP()))
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	ttl := time.Duration(h.Cfg.JWTExpirationMinutes) * time.Minute
	token, expiresAt, err := utils.GenerateAccessToken(admin.Email, utils.RoleAdmin, h.Cfg.JWTSecret, ttl)
	if err != nil {
		h.Logger.Error("sign access token", zap.Error(err))
		utils.InternalServerError(c, "Failed to generate access token")
		return
	}
	utils.Success(c, "Login successful", LoginResponse{AccessToken: token, ExpiresAt: expiresAt})
}
