package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/brplates/controller/internal/model"
)

// Backend is one external OCR service.
type Backend struct {
	name       string
	url        string
	httpClient *http.Client
}

func NewBackend(name, url string) *Backend {
	return &Backend{
		name:       name,
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *Backend) Name() string { return b.name }

// Read sends the cropped plate image to the backend, optionally with a
// category hint, and normalizes the reply. A non-2xx status or transport
// failure is an error; the fallback chain decides what to do with it.
func (b *Backend) Read(ctx context.Context, crop []byte, category string) (model.RecognitionResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="input.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(header)
	if err != nil {
		return model.RecognitionResult{}, fmt.Errorf("ocr %s: encode crop: %w", b.name, err)
	}
	if _, err := part.Write(crop); err != nil {
		return model.RecognitionResult{}, fmt.Errorf("ocr %s: encode crop: %w", b.name, err)
	}
	if category != "" {
		if err := w.WriteField("categoria", category); err != nil {
			return model.RecognitionResult{}, fmt.Errorf("ocr %s: encode category: %w", b.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return model.RecognitionResult{}, fmt.Errorf("ocr %s: encode form: %w", b.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, &buf)
	if err != nil {
		return model.RecognitionResult{}, fmt.Errorf("ocr %s: create request: %w", b.name, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return model.RecognitionResult{}, fmt.Errorf("ocr %s: %w", b.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return model.RecognitionResult{}, fmt.Errorf("ocr %s: status %d: %s", b.name, resp.StatusCode, string(detail))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.RecognitionResult{}, fmt.Errorf("ocr %s: read body: %w", b.name, err)
	}

	return Normalize(payload), nil
}
