package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	ServiceName       string
	LogLevel          string
	HTTPListenAddr    string
	MetricsListenAddr string

	DatabaseURL     string
	TemporalAddress string

	// External recognition services.
	DetectorURL       string
	OCRURL            string
	EZOCRURL          string
	DetectorOutputDir string

	// API key provisioning.
	APIKeySecretLength int
	DefaultCallLimit   int
	MaxAPIKeys         int

	// Artifact store. When ArtifactS3Bucket is set, recognition results
	// are written to S3 instead of the detector output directory.
	ArtifactS3Endpoint  string
	ArtifactS3Region    string
	ArtifactS3Bucket    string
	ArtifactS3AccessKey string
	ArtifactS3SecretKey string
}

func Load() (*Config, error) {
	cfg := &Config{
		ServiceName:       getEnv("SERVICE_NAME", "plates-controller"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		HTTPListenAddr:    getEnv("HTTP_LISTEN_ADDR", ":8090"),
		MetricsListenAddr: getEnv("METRICS_LISTEN_ADDR", ":9102"),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		TemporalAddress: getEnv("TEMPORAL_ADDRESS", "localhost:7233"),

		DetectorURL:       getEnv("DETECTOR_URL", "http://yolo:8001/detectar-placa"),
		OCRURL:            getEnv("OCR_URL", "http://ocr:8002/ler-placa"),
		EZOCRURL:          getEnv("EZOCR_URL", "http://ezocr:8005/ler-placa"),
		DetectorOutputDir: getEnv("DETECTOR_OUTPUT_DIR", "/brplates/runs"),

		ArtifactS3Endpoint:  getEnv("ARTIFACT_S3_ENDPOINT", ""),
		ArtifactS3Region:    getEnv("ARTIFACT_S3_REGION", "us-east-1"),
		ArtifactS3Bucket:    getEnv("ARTIFACT_S3_BUCKET", ""),
		ArtifactS3AccessKey: getEnv("ARTIFACT_S3_ACCESS_KEY", ""),
		ArtifactS3SecretKey: getEnv("ARTIFACT_S3_SECRET_KEY", ""),
	}

	var err error
	if cfg.APIKeySecretLength, err = getEnvInt("API_KEY_SECRET_LENGTH", 32); err != nil {
		return nil, err
	}
	if cfg.DefaultCallLimit, err = getEnvInt("DEFAULT_CALL_LIMIT", 1000); err != nil {
		return nil, err
	}
	if cfg.MaxAPIKeys, err = getEnvInt("MAX_API_KEYS", 20); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the config carries everything the given role needs.
// Role is "api" or "worker".
func (c *Config) Validate(role string) error {
	switch role {
	case "api":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the api role")
		}
	case "worker":
		if c.DetectorURL == "" {
			return fmt.Errorf("DETECTOR_URL is required for the worker role")
		}
		if c.OCRURL == "" || c.EZOCRURL == "" {
			return fmt.Errorf("OCR_URL and EZOCR_URL are required for the worker role")
		}
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	if c.TemporalAddress == "" {
		return fmt.Errorf("TEMPORAL_ADDRESS must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
