package rekognition

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/smithy-go"
)

const (
	errCodeAccessDenied          = "AccessDeniedException"
	errCodeInvalidImageFormat    = "InvalidImageFormatException"
	errCodeImageTooLarge         = "ImageTooLargeException"
	errCodeInvalidParameter      = "InvalidParameterException"
	errCodeThrottling            = "ThrottlingException"
	errCodeProvisionedThroughput = "ProvisionedThroughputExceededException"
)

var (
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")
	// ErrInvalidImage covers frames Rekognition refuses, including oversized ones
	ErrInvalidImage = errors.New("image rejected by rekognition")
	ErrThrottled    = errors.New("rekognition request throttled")
)

type Config struct {
	Region string
	// MinConfidence drops face details scored below this percentage
	MinConfidence float32
}

func DefaultConfig() Config {
	return Config{
		Region:        "us-east-1",
		MinConfidence: 50,
	}
}

// DetectFacesAPI is the subset of the Rekognition client used by the detector
type DetectFacesAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// NewClient builds a client for cfg.Region using the default AWS credential chain.
func NewClient(ctx context.Context, cfg Config) (*rekognition.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return rekognition.NewFromConfig(awsCfg), nil
}

func mapAPIError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("detect faces: %w", err)
	}

	switch apiErr.ErrorCode() {
	case errCodeAccessDenied:
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.ErrorMessage())
	case errCodeInvalidImageFormat, errCodeImageTooLarge, errCodeInvalidParameter:
		return fmt.Errorf("%w: %s", ErrInvalidImage, apiErr.ErrorMessage())
	case errCodeThrottling, errCodeProvisionedThroughput:
		return fmt.Errorf("%w: %s", ErrThrottled, apiErr.ErrorMessage())
	}
	return fmt.Errorf("detect faces: %w", err)
}
