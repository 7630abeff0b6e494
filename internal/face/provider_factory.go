package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/emotune/internal/config"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider/opencv"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider/pigo"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider/rekognition"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider/tfserving"
)

// NewDetector creates the face detector selected by configuration
//
// Environment variables:
//   - DETECTOR: "pigo", "opencv", "rekognition" or "mock" (default: "pigo")
//   - CASCADE_PATH: cascade file for pigo (facefinder) or opencv (haarcascade XML)
//   - DETECTOR_SCALE_FACTOR, DETECTOR_MIN_NEIGHBORS, DETECTOR_MIN_SIZE: scan parameters
//   - AWS_REGION: AWS region for Rekognition (credentials via AWS SDK chain)
func NewDetector(ctx context.Context, cfg *config.Config) (provider.Detector, error) {
	switch cfg.Detector {
	case config.DetectorPigo, "":
		pigoCfg := pigo.DefaultConfig()
		pigoCfg.ScaleFactor = cfg.ScaleFactor
		pigoCfg.MinSize = cfg.MinFaceSize
		pigoCfg.QualityThreshold = cfg.PigoQualityThreshold
		pigoCfg.IoUThreshold = cfg.PigoIoUThreshold

		d, err := pigo.NewFromFile(cfg.CascadePath, pigoCfg)
		if err != nil {
			return nil, fmt.Errorf("create pigo detector: %w", err)
		}
		return d, nil

	case config.DetectorOpenCV:
		d, err := opencv.New(opencv.Config{
			CascadePath:  cfg.CascadePath,
			ScaleFactor:  cfg.ScaleFactor,
			MinNeighbors: cfg.MinNeighbors,
			MinSize:      cfg.MinFaceSize,
		})
		if err != nil {
			return nil, fmt.Errorf("create opencv detector: %w", err)
		}
		return d, nil

	case config.DetectorRekognition:
		rekogCfg := rekognition.DefaultConfig()
		rekogCfg.Region = cfg.AWSRegion

		d, err := rekognition.NewDetector(ctx, rekogCfg)
		if err != nil {
			return nil, fmt.Errorf("create rekognition detector: %w", err)
		}
		return d, nil

	case config.DetectorMock:
		return mock.NewDetector(), nil

	default:
		return nil, fmt.Errorf("unknown detector: %s (supported: %s, %s, %s, %s)",
			cfg.Detector, config.DetectorPigo, config.DetectorOpenCV, config.DetectorRekognition, config.DetectorMock)
	}
}

// NewClassifier creates the emotion model client selected by configuration
//
// Environment variables:
//   - CLASSIFIER: "tfserving", "deepface" or "mock" (default: "tfserving")
//   - CLASSIFIER_URL: TF Serving predict endpoint
//   - DEEPFACE_URL: DeepFace API URL
//   - CLASSIFIER_TIMEOUT: per-call HTTP timeout
func NewClassifier(cfg *config.Config) (provider.Classifier, error) {
	switch cfg.Classifier {
	case config.ClassifierTFServing, "":
		return tfserving.NewClassifier(tfserving.Config{
			PredictURL: cfg.ClassifierURL,
			Timeout:    cfg.ClassifierTimeout,
		}), nil

	case config.ClassifierDeepFace:
		dfCfg := deepface.DefaultConfig()
		if cfg.DeepFaceURL != "" {
			dfCfg.BaseURL = cfg.DeepFaceURL
		}
		if cfg.ClassifierTimeout > 0 {
			dfCfg.Timeout = cfg.ClassifierTimeout
		}
		return deepface.NewClassifier(dfCfg), nil

	case config.ClassifierMock:
		return mock.NewClassifier(), nil

	default:
		return nil, fmt.Errorf("unknown classifier: %s (supported: %s, %s, %s)",
			cfg.Classifier, config.ClassifierTFServing, config.ClassifierDeepFace, config.ClassifierMock)
	}
}
