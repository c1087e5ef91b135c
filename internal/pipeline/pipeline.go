package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/brplates/controller/internal/artifact"
	"github.com/brplates/controller/internal/detector"
	"github.com/brplates/controller/internal/model"
	"github.com/brplates/controller/internal/ocr"
)

// ErrDetectionFailed marks pipeline failures caused by the detector
// stage. The wrapped detector error carries the cause.
var ErrDetectionFailed = errors.New("plate detection failed")

// Service runs the end-to-end recognition attempt: detector hand-off,
// OCR fallback chain, advisory result write. It is invoked inline for
// synchronous requests and from the worker activity for jobs.
type Service struct {
	detector  *detector.Client
	chain     *ocr.Chain
	artifacts artifact.Store
	logger    zerolog.Logger
}

func NewService(det *detector.Client, chain *ocr.Chain, artifacts artifact.Store, logger zerolog.Logger) *Service {
	return &Service{
		detector:  det,
		chain:     chain,
		artifacts: artifacts,
		logger:    logger,
	}
}

// Process runs one recognition attempt. A detector failure aborts the
// pipeline; an exhausted OCR chain does not — the empty result is a
// successful outcome and the boundary layer decides how to surface it.
// The artifact write is best-effort and never changes the return value.
func (s *Service) Process(ctx context.Context, image []byte, filename, contentType string) (model.RecognitionResult, error) {
	outcome, err := s.detector.Detect(ctx, image, filename, contentType)
	if err != nil {
		return model.RecognitionResult{}, fmt.Errorf("%w: %w", ErrDetectionFailed, err)
	}

	result := s.chain.Recognize(ctx, outcome.CropImage, outcome.DetectedClass)

	if outcome.SourceID != "" && result.Plate != nil && *result.Plate != "" {
		if err := s.artifacts.Put(ctx, outcome.SourceID, result); err != nil {
			s.logger.Warn().Err(err).Str("source_id", outcome.SourceID).Msg("failed to store recognition result")
		}
	}

	return result, nil
}
