package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/emotune/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
)

// Conn is the part of a websocket connection a client needs.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client owns one stream connection. WritePump is the only goroutine that
// writes to or closes conn, and done is closed once it has stopped touching it.
type Client struct {
	hub    *Hub
	conn   Conn
	userID string
	send   chan []byte
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

func newClient(hub *Hub, conn Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 8),
		done:   make(chan struct{}),
	}
}

// Done is closed after WritePump has returned and closed the connection.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// enqueue reports false when the client is gone or cannot keep up.
func (c *Client) enqueue(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump analyzes frames one at a time until the connection drops. A bad
// frame yields an error event and the stream continues. On return the send
// queue is closed so WritePump flushes what is left and closes the connection.
func (c *Client) ReadPump(ctx context.Context, detector Detector, frameTimeout time.Duration, logger *slog.Logger) {
	defer func() {
		c.hub.removeClient(c)
		c.closeSend()
	}()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("stream read failed", "user_id", c.userID, "error", err)
			}
			return
		}

		event := c.process(ctx, detector, frameTimeout, messageType, data)
		message, err := json.Marshal(event)
		if err != nil {
			logger.Error("failed to marshal stream event", "error", err)
			return
		}
		if !c.enqueue(message) {
			logger.Warn("stream client too slow, closing", "user_id", c.userID)
			return
		}
	}
}

func (c *Client) process(ctx context.Context, detector Detector, frameTimeout time.Duration, messageType int, data []byte) Event {
	if messageType != websocket.TextMessage {
		return errorEvent(0, domain.ErrBadRequest)
	}

	var frame FrameMessage
	if err := json.Unmarshal(data, &frame); err != nil {
		return errorEvent(0, domain.ErrBadRequest)
	}
	if frame.Image == "" {
		return errorEvent(frame.Seq, domain.ErrMissingKey("image"))
	}

	frameCtx, cancel := context.WithTimeout(ctx, frameTimeout)
	defer cancel()

	result, err := detector.Detect(frameCtx, frame.Image)
	if err != nil {
		return errorEvent(frame.Seq, err)
	}

	return Event{
		Type:      EventDetection,
		Seq:       frame.Seq,
		Data:      handler.DetectPayload(result),
		Timestamp: time.Now().UTC(),
	}
}

// WritePump sends queued events until the queue is closed, then closes the
// connection. After a write error the rest of the queue is discarded so
// enqueue never blocks on a dead peer.
func (c *Client) WritePump() {
	defer close(c.done)
	defer func() {
		_ = c.conn.Close()
	}()

	failed := false
	for message := range c.send {
		if failed {
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			failed = true
			_ = c.conn.Close()
		}
	}
}

func errorEvent(seq uint64, err error) Event {
	data := ErrorData{
		Error: domain.ErrInternal.Message,
		Code:  domain.ErrInternal.Code,
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.StatusCode < 500 {
		data = ErrorData{Error: appErr.Message, Code: appErr.Code}
	}

	return Event{
		Type:      EventError,
		Seq:       seq,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
