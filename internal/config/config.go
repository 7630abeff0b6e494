package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	DetectorPigo        = "pigo"
	DetectorOpenCV      = "opencv"
	DetectorRekognition = "rekognition"
	DetectorMock        = "mock"

	ClassifierTFServing = "tfserving"
	ClassifierDeepFace  = "deepface"
	ClassifierMock      = "mock"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	BodyLimit   int    `envconfig:"MAX_BODY_BYTES" default:"10485760"`
	// Largest canvas a submitted frame may declare, in pixels
	MaxFramePixels int `envconfig:"MAX_FRAME_PIXELS" default:"16777216"`

	// Database, optional. Accounts are disabled when empty.
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	DatabaseName string `envconfig:"DATABASE_NAME" default:"emotune"`
	// Apply pending schema migrations at startup
	AutoMigrate bool `envconfig:"AUTO_MIGRATE" default:"false"`

	// Sessions
	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	// Login attempts per username per window, 0 disables throttling
	LoginMaxAttempts int           `envconfig:"LOGIN_MAX_ATTEMPTS" default:"5"`
	LoginWindow      time.Duration `envconfig:"LOGIN_WINDOW" default:"15m"`

	// Detector
	Detector             string  `envconfig:"DETECTOR" default:"pigo"`
	CascadePath          string  `envconfig:"CASCADE_PATH" default:"cascade/facefinder"`
	ScaleFactor          float64 `envconfig:"DETECTOR_SCALE_FACTOR" default:"1.3"`
	MinNeighbors         int     `envconfig:"DETECTOR_MIN_NEIGHBORS" default:"5"`
	MinFaceSize          int     `envconfig:"DETECTOR_MIN_SIZE" default:"30"`
	PigoQualityThreshold float32 `envconfig:"PIGO_QUALITY_THRESHOLD" default:"5"`
	PigoIoUThreshold     float64 `envconfig:"PIGO_IOU_THRESHOLD" default:"0.2"`
	AWSRegion            string  `envconfig:"AWS_REGION" default:"us-east-1"`

	// Classifier
	Classifier        string        `envconfig:"CLASSIFIER" default:"tfserving"`
	ClassifierURL     string        `envconfig:"CLASSIFIER_URL" default:"http://localhost:8501/v1/models/emotion:predict"`
	DeepFaceURL       string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	ClassifierTimeout time.Duration `envconfig:"CLASSIFIER_TIMEOUT" default:"10s"`

	// Capture store
	CaptureDir         string `envconfig:"CAPTURE_DIR" default:"captured_images"`
	CaptureKeyPath     string `envconfig:"CAPTURE_KEY_PATH" default:"secret.key"`
	CaptureRequireAuth bool   `envconfig:"CAPTURE_REQUIRE_AUTH" default:"false"`

	// Recommendations, one URL per emotion index. Empty keeps the built-in table.
	Playlists []string `envconfig:"PLAYLISTS"`

	// Rate limiting on /detect_emotion
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"60"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// Concurrent /ws/detect streams, 0 for unlimited
	StreamMaxClients int `envconfig:"STREAM_MAX_CLIENTS" default:"32"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Detector {
	case DetectorPigo, DetectorOpenCV, DetectorRekognition, DetectorMock:
	default:
		return fmt.Errorf("unknown detector %q", c.Detector)
	}

	switch c.Classifier {
	case ClassifierTFServing, ClassifierDeepFace, ClassifierMock:
	default:
		return fmt.Errorf("unknown classifier %q", c.Classifier)
	}

	if c.AccountsEnabled() && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when DATABASE_URL is set")
	}
	if c.CaptureRequireAuth && !c.AccountsEnabled() {
		return errors.New("CAPTURE_REQUIRE_AUTH needs DATABASE_URL for accounts")
	}
	if c.ScaleFactor <= 1 {
		return fmt.Errorf("DETECTOR_SCALE_FACTOR must be greater than 1, got %v", c.ScaleFactor)
	}
	if c.ClassifierTimeout <= 0 {
		return errors.New("CLASSIFIER_TIMEOUT must be positive")
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	if c.LoginMaxAttempts > 0 && c.LoginWindow <= 0 {
		return errors.New("LOGIN_WINDOW must be positive when LOGIN_MAX_ATTEMPTS is set")
	}
	if c.MaxFramePixels <= 0 {
		return errors.New("MAX_FRAME_PIXELS must be positive")
	}
	if c.StreamMaxClients < 0 {
		return errors.New("STREAM_MAX_CLIENTS must not be negative")
	}
	return nil
}

func (c *Config) AccountsEnabled() bool {
	return c.DatabaseURL != ""
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MigrateConfig is the subset cmd/migrate needs. It does not require the
// session or detector settings the server validates.
type MigrateConfig struct {
	Environment  string `envconfig:"ENV" default:"development"`
	DatabaseURL  string `envconfig:"DATABASE_URL" required:"true"`
	DatabaseName string `envconfig:"DATABASE_NAME" default:"emotune"`
}

func LoadMigrate() (*MigrateConfig, error) {
	var cfg MigrateConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}
