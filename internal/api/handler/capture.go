package handler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/emotune/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/emotune/internal/audit"
	"github.com/saturnino-fabrica-de-software/emotune/internal/capture"
	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
	"github.com/saturnino-fabrica-de-software/emotune/internal/frame"
)

const fallbackImageMIME = "image/jpeg"

// CaptureStore interface for the encrypted capture store
type CaptureStore interface {
	Write(ctx context.Context, raw []byte, emotionIndex int, region domain.FaceRegion) (string, error)
	Read(ctx context.Context, name string) ([]byte, error)
	ReadMetadata(ctx context.Context, name string) (*domain.CaptureMetadata, error)
	List(ctx context.Context) ([]string, error)
}

// CaptureHandler handles the capture storage endpoints
type CaptureHandler struct {
	store   CaptureStore
	auditor audit.Logger
	logger  *slog.Logger
}

func NewCaptureHandler(store CaptureStore, auditor audit.Logger, logger *slog.Logger) *CaptureHandler {
	if auditor == nil {
		auditor = &audit.NoOpLogger{}
	}
	return &CaptureHandler{
		store:   store,
		auditor: auditor,
		logger:  logger,
	}
}

// StoreRequest request body for store endpoint
type StoreRequest struct {
	Image           *string            `json:"image"`
	EmotionID       *int               `json:"emotion_id"`
	FaceCoordinates *domain.FaceRegion `json:"face_coordinates"`
}

// StoreResponse response for store endpoint
type StoreResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// ListResponse response for list endpoint
type ListResponse struct {
	Images []string `json:"images"`
}

// Store POST /store_image
func (h *CaptureHandler) Store(c *fiber.Ctx) error {
	var req StoreRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	switch {
	case req.Image == nil:
		return domain.ErrMissingKey("image")
	case req.EmotionID == nil:
		return domain.ErrMissingKey("emotion_id")
	case req.FaceCoordinates == nil:
		return domain.ErrMissingKey("face_coordinates")
	}

	region := *req.FaceCoordinates
	if region.X < 0 || region.Y < 0 || region.W <= 0 || region.H <= 0 {
		return domain.ErrValidationFailed.WithError(errors.New("face_coordinates must have non-negative origin and positive size"))
	}

	raw, err := frame.DecodePayload(*req.Image)
	if err != nil {
		return err
	}

	id, err := h.store.Write(c.UserContext(), raw, *req.EmotionID, region)
	h.record(c, audit.EventCaptureStored, id, err, map[string]string{
		"emotion_id": strconv.Itoa(*req.EmotionID),
		"bytes":      strconv.Itoa(len(raw)),
	})
	if err != nil {
		return err
	}

	return c.JSON(StoreResponse{
		Message:  "Image stored successfully",
		Filename: id + capture.CiphertextExt,
	})
}

// Get GET /get_image?filename=
func (h *CaptureHandler) Get(c *fiber.Ctx) error {
	filename := strings.TrimSpace(c.Query("filename"))
	if filename == "" {
		return domain.ErrFilenameRequired
	}

	raw, err := h.store.Read(c.UserContext(), filename)
	h.record(c, audit.EventCaptureRead, filename, err, nil)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, imageMIME(raw))
	return c.Send(raw)
}

// Metadata GET /get_metadata?filename=
func (h *CaptureHandler) Metadata(c *fiber.Ctx) error {
	filename := strings.TrimSpace(c.Query("filename"))
	if filename == "" {
		return domain.ErrFilenameRequired
	}

	meta, err := h.store.ReadMetadata(c.UserContext(), filename)
	h.record(c, audit.EventMetadataRead, filename, err, nil)
	if err != nil {
		return err
	}

	return c.JSON(meta)
}

// List GET /list_images
func (h *CaptureHandler) List(c *fiber.Ctx) error {
	ids, err := h.store.List(c.UserContext())
	h.record(c, audit.EventCapturesListed, "", err, map[string]string{
		"count": strconv.Itoa(len(ids)),
	})
	if err != nil {
		return err
	}

	images := make([]string, 0, len(ids))
	for _, id := range ids {
		images = append(images, id+capture.CiphertextExt)
	}

	return c.JSON(ListResponse{Images: images})
}

// record writes an audit event; audit failures are logged and never fail the request
func (h *CaptureHandler) record(c *fiber.Ctx, eventType audit.EventType, captureID string, err error, metadata map[string]string) {
	event := audit.Event{
		EventType: eventType,
		CaptureID: captureID,
		Success:   err == nil,
		Metadata:  metadata,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	if err != nil {
		event.Error = err.Error()
	}
	if userID, ok := middleware.UserID(c); ok {
		event.UserID = userID.String()
	}

	if logErr := h.auditor.Log(c.UserContext(), event); logErr != nil {
		h.logger.Warn("failed to record audit event",
			"event_type", string(eventType),
			"error", logErr,
		)
	}
}

// imageMIME sniffs stored bytes; anything that is not recognizably an image
// is served as JPEG, the format browsers capture from a webcam.
func imageMIME(raw []byte) string {
	mtype := mimetype.Detect(raw).String()
	if strings.HasPrefix(mtype, "image/") {
		return mtype
	}
	return fallbackImageMIME
}
