package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/linkyoself/linkyoself/internal/app/service"
	"github.com/linkyoself/linkyoself/internal/http/response"
	"go.uber.org/zap"
)

const internalErrorMessage = "internal server error"

// StatusOf maps an error returned by a handler to its HTTP status.
func StatusOf(err error) int {
	var (
		fiberErr *fiber.Error
		valErr   *service.ValidationError
	)
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &valErr):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrPermissionDenied):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is the app-wide fiber.ErrorHandler. It writes the error
// envelope and hides the detail of unexpected failures.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		status := StatusOf(err)

		var valErr *service.ValidationError
		if errors.As(err, &valErr) {
			return response.Error(c, status, "validation failed", valErr.Fields)
		}

		message := publicMessage(err, status)
		switch status {
		case fiber.StatusUnauthorized:
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		case fiber.StatusInternalServerError:
			logger.Error("unhandled error",
				zap.Error(err),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("request_id", GetRequestID(c)),
			)
		}

		return response.Error(c, status, message, nil)
	}
}

func publicMessage(err error, status int) string {
	var fiberErr *fiber.Error
	for _, sentinel := range []error{
		service.ErrInvalidCredentials,
		service.ErrUnauthorized,
		service.ErrPermissionDenied,
		service.ErrNotFound,
		service.ErrAlreadyExists,
	} {
		if errors.Is(err, sentinel) {
			if sentinel == service.ErrNotFound || sentinel == service.ErrAlreadyExists {
				return err.Error()
			}
			return sentinel.Error()
		}
	}
	if errors.As(err, &fiberErr) && status < fiber.StatusInternalServerError {
		return fiberErr.Message
	}
	return internalErrorMessage
}
