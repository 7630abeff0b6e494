package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/emotune/internal/auth"
	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
)

// Locals set by the session middlewares.
const (
	LocalUserID   = "user_id"
	LocalUsername = "username"
)

// TokenQueryParam carries the session token where headers cannot be set,
// such as a browser WebSocket handshake.
const TokenQueryParam = "access_token"

type TokenValidator interface {
	ValidateToken(token string) (*auth.SessionClaims, error)
}

// SessionAuth rejects requests without a valid bearer session token.
func SessionAuth(tokens TokenValidator, logger *slog.Logger) fiber.Handler {
	return session(tokens, logger, true)
}

// OptionalSessionAuth attaches the session user when a valid token is
// presented and lets anonymous requests through. An invalid token is still
// rejected so a client never silently loses its identity.
func OptionalSessionAuth(tokens TokenValidator, logger *slog.Logger) fiber.Handler {
	return session(tokens, logger, false)
}

func session(tokens TokenValidator, logger *slog.Logger, required bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := sessionToken(c)
		if token == "" {
			if required {
				return domain.ErrUnauthorized
			}
			return c.Next()
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			logger.Debug("session token rejected",
				slog.String("path", c.Path()),
				slog.Any("error", err),
			)
			return domain.ErrUnauthorized
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUsername, claims.Username)
		return c.Next()
	}
}

// UserID returns the session user attached to c, if any.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(LocalUserID).(uuid.UUID)
	return id, ok
}

// sessionToken reads "Authorization: Bearer <token>", falling back to the
// access_token query parameter.
func sessionToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return c.Query(TokenQueryParam)
}
