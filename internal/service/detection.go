package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
	"github.com/saturnino-fabrica-de-software/emotune/internal/frame"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider"
)

type EmotionClassifierInterface interface {
	Classify(ctx context.Context, input frame.Tensor) (domain.Emotion, error)
}

type RecommenderInterface interface {
	Recommend(index int) (string, error)
}

// DetectionService runs decode, detect, normalize, classify and recommend
// for one frame. It holds no per-request state.
type DetectionService struct {
	detector    provider.Detector
	classifier  EmotionClassifierInterface
	recommender RecommenderInterface
	logger      *slog.Logger
	decodeOpts  []frame.DecodeOption
}

// DetectionOption configures a DetectionService.
type DetectionOption func(*DetectionService)

// WithMaxFramePixels caps the canvas a submitted frame may declare.
func WithMaxFramePixels(n int) DetectionOption {
	return func(s *DetectionService) {
		s.decodeOpts = append(s.decodeOpts, frame.WithMaxPixels(n))
	}
}

func NewDetectionService(
	detector provider.Detector,
	classifier EmotionClassifierInterface,
	recommender RecommenderInterface,
	logger *slog.Logger,
	opts ...DetectionOption,
) *DetectionService {
	s := &DetectionService{
		detector:    detector,
		classifier:  classifier,
		recommender: recommender,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Detect analyzes an encoded frame. A frame without faces yields an empty
// result, not an error. Any per-face failure aborts the whole request.
func (s *DetectionService) Detect(ctx context.Context, encoded string) (*domain.DetectionResult, error) {
	start := time.Now()

	f, err := frame.Decode(encoded, s.decodeOpts...)
	if err != nil {
		return nil, err
	}

	return s.analyze(ctx, f, start)
}

func (s *DetectionService) analyze(ctx context.Context, f *frame.Frame, start time.Time) (*domain.DetectionResult, error) {
	gray := f.Gray()

	regions, err := s.detector.Detect(ctx, gray)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, domain.ErrDetectionFailure.WithError(err)
	}

	result := &domain.DetectionResult{
		Detections: make([]domain.EmotionDetection, 0, len(regions)),
	}

	for i, region := range regions {
		tensor, err := frame.Normalize(gray, region)
		if err != nil {
			s.logger.Error("detector returned region outside frame",
				"region", region,
				"bounds", gray.Bounds(),
			)
			return nil, err
		}

		emotion, err := s.classifier.Classify(ctx, tensor)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}

		url, err := s.recommender.Recommend(emotion.Index())
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}

		result.Detections = append(result.Detections, domain.EmotionDetection{
			Emotion:        emotion,
			Region:         region,
			Recommendation: url,
		})
	}

	s.logger.Debug("frame analyzed",
		"faces", len(result.Detections),
		"width", gray.Bounds().Dx(),
		"height", gray.Bounds().Dy(),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
