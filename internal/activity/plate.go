package activity

import (
	"context"

	"github.com/brplates/controller/internal/model"
	"github.com/brplates/controller/internal/pipeline"
)

// Plate contains activities for asynchronous plate recognition.
type Plate struct {
	pipeline *pipeline.Service
}

func NewPlate(p *pipeline.Service) *Plate {
	return &Plate{pipeline: p}
}

// ProcessPlateParams is the payload handed to the worker for one
// recognition job.
type ProcessPlateParams struct {
	Image       []byte `json:"image"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// ProcessPlateImage runs the full recognition pipeline for one image.
// A detector failure fails the activity; an empty recognition result is
// a successful completion.
func (a *Plate) ProcessPlateImage(ctx context.Context, params ProcessPlateParams) (model.RecognitionResult, error) {
	return a.pipeline.Process(ctx, params.Image, params.Filename, params.ContentType)
}
