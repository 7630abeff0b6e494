package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so copies made by WithError still compare equal to their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// ErrMissingKey reports a required request field that was absent.
func ErrMissingKey(key string) *AppError {
	return &AppError{
		Code:       ErrMissingField.Code,
		Message:    "Missing key in request payload: " + key,
		StatusCode: ErrMissingField.StatusCode,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing session token",
		StatusCode: 401,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrTooManyLoginAttempts = &AppError{
		Code:       "TOO_MANY_LOGIN_ATTEMPTS",
		Message:    "Too many login attempts, please try again later",
		StatusCode: 429,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 400,
	}

	ErrMissingField = &AppError{
		Code:       "MISSING_FIELD",
		Message:    "Missing key in request payload",
		StatusCode: 400,
	}

	// Frame errors
	ErrMalformedEncoding = &AppError{
		Code:       "MALFORMED_ENCODING",
		Message:    "Invalid image data.",
		StatusCode: 400,
	}

	ErrUnsupportedImageFormat = &AppError{
		Code:       "UNSUPPORTED_IMAGE_FORMAT",
		Message:    "Unsupported image format",
		StatusCode: 415,
	}

	ErrInvalidRegion = &AppError{
		Code:       "INVALID_REGION",
		Message:    "Face region lies outside the frame",
		StatusCode: 500,
	}

	// Inference errors
	ErrDetectionFailure = &AppError{
		Code:       "DETECTION_FAILURE",
		Message:    "Face detection failed",
		StatusCode: 502,
	}

	ErrClassificationFailure = &AppError{
		Code:       "CLASSIFICATION_FAILURE",
		Message:    "Emotion classification failed",
		StatusCode: 502,
	}

	ErrUnknownEmotionIndex = &AppError{
		Code:       "UNKNOWN_EMOTION_INDEX",
		Message:    "Invalid emotion ID",
		StatusCode: 400,
	}

	// Capture store errors
	ErrPersistenceFailure = &AppError{
		Code:       "PERSISTENCE_FAILURE",
		Message:    "Failed to persist capture",
		StatusCode: 500,
	}

	ErrArtifactNotFound = &AppError{
		Code:       "ARTIFACT_NOT_FOUND",
		Message:    "Image not found",
		StatusCode: 404,
	}

	ErrMetadataNotFound = &AppError{
		Code:       "ARTIFACT_NOT_FOUND",
		Message:    "Metadata file not found",
		StatusCode: 404,
	}

	ErrDecryptionFailure = &AppError{
		Code:       "DECRYPTION_FAILURE",
		Message:    "Failed to decrypt capture",
		StatusCode: 500,
	}

	ErrFilenameRequired = &AppError{
		Code:       "MISSING_FIELD",
		Message:    "Filename is required",
		StatusCode: 400,
	}

	ErrInvalidArtifactID = &AppError{
		Code:       "INVALID_ARTIFACT_ID",
		Message:    "Invalid filename",
		StatusCode: 400,
	}

	// Account errors
	ErrCredentialsRequired = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Username and password are required",
		StatusCode: 400,
	}

	ErrUsernameTaken = &AppError{
		Code:       "USERNAME_TAKEN",
		Message:    "Username already exists",
		StatusCode: 400,
	}

	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Invalid username or password",
		StatusCode: 401,
	}

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "User not found",
		StatusCode: 404,
	}
)
