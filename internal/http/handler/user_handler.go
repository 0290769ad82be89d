package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/linkyoself/linkyoself/internal/app/model"
	"github.com/linkyoself/linkyoself/internal/app/service"
	"github.com/linkyoself/linkyoself/internal/http/middleware"
	"github.com/linkyoself/linkyoself/internal/http/response"
)

// UserHandler serves account lookups and availability checks.
type UserHandler struct {
	users service.UserService
}

func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Register(router fiber.Router, requireAuth fiber.Handler) {
	users := router.Group("/api/users")
	{
		users.Get("/check-username", h.CheckUsername)
		users.Get("/check-email", h.CheckEmail)
		users.Get("/me", requireAuth, h.Me)
		users.Get("/", requireAuth, middleware.RequireRole(model.RoleAdmin), h.ListUsers)
		users.Get("/:id", requireAuth, h.GetUser)
	}
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}
	return response.OK(c, "Current user retrieved", user)
}

// ListUsers handles GET /api/users?limit=&offset=
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)

	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	users, err := h.users.ListUsers(c.UserContext(), user, limit, offset)
	if err != nil {
		return err
	}
	if users == nil {
		users = []model.User{}
	}
	return response.OK(c, "Users retrieved successfully", fiber.Map{
		"users":  users,
		"limit":  limit,
		"offset": offset,
		"count":  len(users),
	})
}

// GetUser handles GET /api/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	user, err := h.users.GetUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "User retrieved successfully", user)
}

// CheckUsername handles GET /api/users/check-username?username=
func (h *UserHandler) CheckUsername(c *fiber.Ctx) error {
	username := c.Query("username")
	available, err := h.users.UsernameAvailable(c.UserContext(), username)
	if err != nil {
		return err
	}
	return response.OK(c, "", fiber.Map{"username": service.NormalizeUsername(username), "available": available})
}

// CheckEmail handles GET /api/users/check-email?email=
func (h *UserHandler) CheckEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	available, err := h.users.EmailAvailable(c.UserContext(), email)
	if err != nil {
		return err
	}
	return response.OK(c, "", fiber.Map{"email": service.NormalizeEmail(email), "available": available})
}
