package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/brplates/controller/internal/api/request"
	"github.com/brplates/controller/internal/api/response"
	"github.com/brplates/controller/internal/model"
	"github.com/brplates/controller/internal/pipeline"
)

// maxImageBytes bounds uploaded image size.
const maxImageBytes = 20 << 20

// Processor runs one synchronous recognition attempt.
type Processor interface {
	Process(ctx context.Context, image []byte, filename, contentType string) (model.RecognitionResult, error)
}

// Tracker runs recognition jobs asynchronously.
type Tracker interface {
	Enqueue(ctx context.Context, image []byte, filename, contentType string) (string, error)
	Status(ctx context.Context, taskID string) (model.JobView, error)
}

// Plate handles plate recognition endpoints.
type Plate struct {
	processor Processor
	tracker   Tracker
}

func NewPlate(processor Processor, tracker Tracker) *Plate {
	return &Plate{processor: processor, tracker: tracker}
}

// processResponse is the synchronous success payload.
type processResponse struct {
	Plate        string   `json:"plate"`
	Alternatives []string `json:"alternatives"`
}

// Process runs the recognition pipeline inline and answers with the
// plate reading. An empty result maps to 404: the pipeline succeeded but
// read no plate. Detection failures map to 500 with the cause.
func (h *Plate) Process(w http.ResponseWriter, r *http.Request) {
	image, filename, contentType, ok := readImageUpload(w, r)
	if !ok {
		return
	}

	result, err := h.processor.Process(r.Context(), image, filename, contentType)
	if err != nil {
		logger := zerolog.Ctx(r.Context())
		logger.Error().Err(err).Msg("recognition pipeline failed")
		if errors.Is(err, pipeline.ErrDetectionFailed) {
			response.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, "recognition failed")
		return
	}

	if result.Empty() {
		response.WriteError(w, http.StatusNotFound, "no plate detected or read in the provided image")
		return
	}

	plate, alternatives := result.Projection()
	response.WriteJSON(w, http.StatusOK, processResponse{Plate: plate, Alternatives: alternatives})
}

// Enqueue hands the image to the worker pool and returns the task ID
// immediately.
func (h *Plate) Enqueue(w http.ResponseWriter, r *http.Request) {
	image, filename, contentType, ok := readImageUpload(w, r)
	if !ok {
		return
	}

	taskID, err := h.tracker.Enqueue(r.Context(), image, filename, contentType)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to enqueue recognition job")
		response.WriteError(w, http.StatusInternalServerError, "failed to enqueue job")
		return
	}

	response.WriteJSON(w, http.StatusAccepted, model.JobView{TaskID: taskID, Status: model.JobPending})
}

// Status reports the state of an asynchronous job.
func (h *Plate) Status(w http.ResponseWriter, r *http.Request) {
	taskID, err := request.RequireID(chi.URLParam(r, "taskID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.tracker.Status(r.Context(), taskID)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("task_id", taskID).Msg("failed to fetch job status")
		response.WriteError(w, http.StatusInternalServerError, "failed to fetch job status")
		return
	}

	response.WriteJSON(w, http.StatusOK, view)
}

// readImageUpload extracts the "file" part of a multipart upload and
// requires an image content type. It writes the error response itself
// and reports success through the boolean.
func readImageUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "missing image file upload")
		return nil, "", "", false
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.WriteError(w, http.StatusBadRequest, "uploaded file is not a valid image")
		return nil, "", "", false
	}

	image, err := io.ReadAll(file)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "unreadable image upload")
		return nil, "", "", false
	}

	return image, header.Filename, contentType, true
}
