package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/foxxcyber/aisle-list/internal/middleware"
)

// LoginRequest is the request body for login
type LoginRequest struct {
	Password string `json:"password"`
}

// AuthResponse carries an issued token
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login exchanges the access password for a bearer token
func (h *Handler) Login(c *fiber.Ctx) error {
	if h.cfg.AccessPasswordHash == "" {
		return Error(c, fiber.StatusNotFound, "password login is not enabled")
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Password == "" {
		return Error(c, fiber.StatusBadRequest, "password is required")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.AccessPasswordHash), []byte(req.Password)); err != nil {
		h.Logger.Warn("auth.login_failed", zap.String("ip", c.IP()))
		return Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := middleware.IssueToken(h.cfg.JWTSecret, h.cfg.JWTExpiry)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to generate token")
	}

	return Success(c, AuthResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.cfg.JWTExpiry),
	})
}
