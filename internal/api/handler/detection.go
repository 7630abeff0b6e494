package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
)

const noFacesWarning = "No faces detected."

// DetectionService interface for the detection pipeline
type DetectionService interface {
	Detect(ctx context.Context, encoded string) (*domain.DetectionResult, error)
}

// DetectionHandler handles /detect_emotion
type DetectionHandler struct {
	service DetectionService
	logger  *slog.Logger
}

func NewDetectionHandler(service DetectionService, logger *slog.Logger) *DetectionHandler {
	return &DetectionHandler{
		service: service,
		logger:  logger,
	}
}

// DetectRequest request body for detect endpoint
type DetectRequest struct {
	Image *string `json:"image"`
}

// DetectResponse holds four index-aligned arrays, one entry per face
type DetectResponse struct {
	Emotions        []string            `json:"emotions"`
	EmotionIndices  []int               `json:"emotion_indices"`
	FaceCoordinates []domain.FaceRegion `json:"face_coordinates"`
	Recommendations []string            `json:"recommendations"`
}

// NoFacesResponse response when the frame has no faces
type NoFacesResponse struct {
	Emotions []string `json:"emotions"`
	Warning  string   `json:"warning"`
}

// Detect POST /detect_emotion
func (h *DetectionHandler) Detect(c *fiber.Ctx) error {
	var req DetectRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if req.Image == nil {
		return domain.ErrMissingKey("image")
	}

	result, err := h.service.Detect(c.UserContext(), *req.Image)
	if err != nil {
		return err
	}

	return c.JSON(DetectPayload(result))
}

// DetectPayload renders a detection result in the wire shape shared by the
// HTTP and streaming endpoints.
func DetectPayload(result *domain.DetectionResult) any {
	if result.NoFaces() {
		return NoFacesResponse{
			Emotions: []string{},
			Warning:  noFacesWarning,
		}
	}

	resp := DetectResponse{
		Emotions:        make([]string, 0, len(result.Detections)),
		EmotionIndices:  make([]int, 0, len(result.Detections)),
		FaceCoordinates: make([]domain.FaceRegion, 0, len(result.Detections)),
		Recommendations: make([]string, 0, len(result.Detections)),
	}
	for _, d := range result.Detections {
		resp.Emotions = append(resp.Emotions, d.Emotion.String())
		resp.EmotionIndices = append(resp.EmotionIndices, d.Emotion.Index())
		resp.FaceCoordinates = append(resp.FaceCoordinates, d.Region)
		resp.Recommendations = append(resp.Recommendations, d.Recommendation)
	}
	return resp
}
