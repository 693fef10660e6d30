package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"false"`

	// Descriptors
	DescriptorDimension int `envconfig:"DESCRIPTOR_DIMENSION" default:"128"`

	// Detector
	DetectorType     string `envconfig:"DETECTOR_TYPE" default:"deepface"`
	DeepFaceURL      string `envconfig:"DEEPFACE_URL" default:"http://localhost:5000"`
	DeepFaceModel    string `envconfig:"DEEPFACE_MODEL" default:"Facenet"`
	DeepFaceDetector string `envconfig:"DEEPFACE_DETECTOR" default:"retinaface"`

	// Photos
	PhotoRoot string `envconfig:"PHOTO_ROOT" default:"./photos"`

	// Matching and review
	IdentifyThreshold float64 `envconfig:"IDENTIFY_THRESHOLD" default:"0.7"`
	IdentifyTopN      int     `envconfig:"IDENTIFY_TOP_N" default:"5"`
	ReviewLimit       int     `envconfig:"REVIEW_LIMIT" default:"50"`
	TrainingMaxFaces  int     `envconfig:"TRAINING_MAX_FACES" default:"4"`

	// Rate limiting
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"120"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DescriptorDimension <= 0 {
		return fmt.Errorf("DESCRIPTOR_DIMENSION must be positive, got %d", c.DescriptorDimension)
	}
	if c.IdentifyThreshold < 0 || c.IdentifyThreshold > 1 {
		return fmt.Errorf("IDENTIFY_THRESHOLD must be within [0,1], got %v", c.IdentifyThreshold)
	}
	if c.IdentifyTopN < 1 || c.IdentifyTopN > 50 {
		return fmt.Errorf("IDENTIFY_TOP_N must be within [1,50], got %d", c.IdentifyTopN)
	}
	if c.TrainingMaxFaces < 1 {
		return fmt.Errorf("TRAINING_MAX_FACES must be positive, got %d", c.TrainingMaxFaces)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
