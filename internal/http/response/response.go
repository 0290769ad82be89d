package response

import (
	"github.com/gofiber/fiber/v2"
	"github.com/linkyoself/linkyoself/internal/app/service"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the JSON body of every API response.
type Envelope struct {
	Status  string               `json:"status"`
	Message string               `json:"message,omitempty"`
	Data    interface{}          `json:"data,omitempty"`
	Errors  []service.FieldError `json:"errors,omitempty"`
}

// OK writes a 200 success envelope.
func OK(c *fiber.Ctx, message string, data interface{}) error {
	return Success(c, fiber.StatusOK, message, data)
}

// Created writes a 201 success envelope.
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return Success(c, fiber.StatusCreated, message, data)
}

func Success(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Envelope{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// Error writes an error envelope.
func Error(c *fiber.Ctx, status int, message string, fields []service.FieldError) error {
	return c.Status(status).JSON(Envelope{
		Status:  StatusError,
		Message: message,
		Errors:  fields,
	})
}
