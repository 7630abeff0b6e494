package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/emotune/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
)

// Detector runs the detection pipeline on one encoded frame.
type Detector interface {
	Detect(ctx context.Context, encoded string) (*domain.DetectionResult, error)
}

type Config struct {
	// MaxFrameBytes bounds a single inbound message
	MaxFrameBytes int64
	FrameTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxFrameBytes: 10 << 20,
		FrameTimeout:  15 * time.Second,
	}
}

func Handler(hub *Hub, detector Detector, cfg Config, logger *slog.Logger) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		var userID string
		if id, ok := c.Locals(middleware.LocalUserID).(uuid.UUID); ok {
			userID = id.String()
		}

		client := newClient(hub, c, userID)
		if err := hub.addClient(client); err != nil {
			logger.Warn("rejecting detection stream", "error", err)
			_ = c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
			_ = c.Close()
			return
		}

		if cfg.MaxFrameBytes > 0 {
			c.SetReadLimit(cfg.MaxFrameBytes)
		}

		logger.Info("detection stream opened", "user_id", userID, "streams", hub.ConnectedClients())

		// The conn is recycled once this callback returns, so WritePump
		// must be finished with it first.
		go client.WritePump()
		client.ReadPump(context.Background(), detector, cfg.FrameTimeout, logger)
		<-client.Done()

		logger.Info("detection stream closed", "user_id", userID)
	})
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
