package pipeline

import (
	"github.com/rs/zerolog"

	"github.com/brplates/controller/internal/artifact"
	"github.com/brplates/controller/internal/config"
	"github.com/brplates/controller/internal/detector"
	"github.com/brplates/controller/internal/ocr"
)

// NewFromConfig builds the recognition pipeline from configuration:
// detector client, OCR fallback chain (ezOCR preferred over the legacy
// OCR backend), and the artifact store (S3 when a bucket is configured,
// otherwise the detector output directory).
func NewFromConfig(cfg *config.Config, logger zerolog.Logger) *Service {
	det := detector.NewClient(cfg.DetectorURL, cfg.DetectorOutputDir)

	chain := ocr.NewChain(
		ocr.NewBackend("ezocr", cfg.EZOCRURL),
		ocr.NewBackend("ocr", cfg.OCRURL),
		logger,
	)

	var artifacts artifact.Store
	if cfg.ArtifactS3Bucket != "" {
		artifacts = artifact.NewS3Store(artifact.S3Config{
			Endpoint:  cfg.ArtifactS3Endpoint,
			Region:    cfg.ArtifactS3Region,
			Bucket:    cfg.ArtifactS3Bucket,
			AccessKey: cfg.ArtifactS3AccessKey,
			SecretKey: cfg.ArtifactS3SecretKey,
		})
	} else {
		artifacts = artifact.NewFSStore(cfg.DetectorOutputDir)
	}

	return NewService(det, chain, artifacts, logger)
}
