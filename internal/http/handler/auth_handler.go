package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/linkyoself/linkyoself/internal/app/service"
	"github.com/linkyoself/linkyoself/internal/http/middleware"
	"github.com/linkyoself/linkyoself/internal/http/response"
	"go.uber.org/zap"
)

// AuthHandler serves registration, login and token endpoints.
type AuthHandler struct {
	logger *zap.Logger
	auth   service.AuthService
}

func NewAuthHandler(logger *zap.Logger, auth service.AuthService) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{logger: logger, auth: auth}
}

// Register wires auth routes. requireAuth guards the session-bound endpoints
// and limit, when non-nil, throttles the credential endpoints.
func (h *AuthHandler) Register(router fiber.Router, requireAuth, limit fiber.Handler) {
	auth := router.Group("/api/auth")

	public := []fiber.Handler{}
	if limit != nil {
		public = append(public, limit)
	}

	auth.Post("/register", append(public, h.RegisterUser)...)
	auth.Post("/token", append(public, h.Login)...)
	auth.Post("/refresh", append(public, h.Refresh)...)
	auth.Post("/logout", requireAuth, h.Logout)
	auth.Post("/change-password", requireAuth, h.ChangePassword)
}

type registerRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=4,max=50,username"`
	Email    string `json:"email" form:"email" validate:"required,email,max=50"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=50"`
}

// RegisterUser handles POST /api/auth/register
func (h *AuthHandler) RegisterUser(c *fiber.Ctx) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return response.Created(c, "User registered successfully", user)
}

// loginRequest accepts both OAuth2 password form posts and JSON.
type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=255"`
	Password string `json:"password" form:"password" validate:"required,max=255"`
}

// Login handles POST /api/auth/token
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	pair, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return response.OK(c, "Login successful", pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token" validate:"required"`
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	access, err := h.auth.RefreshAccess(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}

	return response.OK(c, "Token refreshed", access)
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// Logout handles POST /api/auth/logout. Every refresh token of the user is
// revoked; a posted refresh token is revoked first.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}

	var req logoutRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}

	if err := h.auth.Logout(c.UserContext(), user.ID, req.RefreshToken); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=50,nefield=CurrentPassword"`
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}

	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.auth.ChangePassword(c.UserContext(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
