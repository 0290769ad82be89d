package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/linkyoself/linkyoself/internal/app/model"
	"github.com/linkyoself/linkyoself/internal/app/service"
)

const currentUserKey = "current_user"

// UserResolver resolves a bearer access token to its user.
type UserResolver interface {
	CurrentUser(ctx context.Context, raw string) (*model.User, error)
}

// Authenticate requires a valid "Authorization: Bearer" access token and
// stores the resolved user on the request.
func Authenticate(resolver UserResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return service.ErrUnauthorized
		}

		user, err := resolver.CurrentUser(c.UserContext(), raw)
		if err != nil {
			return err
		}

		c.Locals(currentUserKey, user)
		return c.Next()
	}
}

// RequireRole rejects authenticated users without role. It must run after Authenticate.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return service.ErrUnauthorized
		}
		if user.Role != role {
			return service.ErrPermissionDenied
		}
		return c.Next()
	}
}

// CurrentUser returns the user stored by Authenticate.
func CurrentUser(c *fiber.Ctx) (*model.User, bool) {
	user, ok := c.Locals(currentUserKey).(*model.User)
	return user, ok && user != nil
}

func bearerToken(header string) (string, bool) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
