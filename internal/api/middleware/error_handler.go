package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// requestID returns the id set by the requestid middleware, or "".
func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

// ErrorHandler is the single request boundary. Client errors caused by a
// wrapped error carry its text in Details; server errors never do.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := resolve(err)
		body.RequestID = requestID(c)

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				slog.String("code", body.Code),
				slog.Any("error", err),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.String("request_id", body.RequestID),
			)
		}

		return c.Status(status).JSON(body)
	}
}

func resolve(err error) (int, ErrorBody) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		body := ErrorBody{Error: appErr.Message, Code: appErr.Code}
		if appErr.StatusCode < fiber.StatusInternalServerError && appErr.Err != nil {
			body.Details = appErr.Err.Error()
		}
		return appErr.StatusCode, body
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, ErrorBody{Error: fiberErr.Message, Code: "HTTP_ERROR"}
	}

	// Unanticipated faults keep their description.
	return fiber.StatusInternalServerError, ErrorBody{Error: err.Error(), Code: domain.ErrInternal.Code}
}
