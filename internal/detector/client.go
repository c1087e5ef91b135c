package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrorKind classifies detector failures.
type ErrorKind int

const (
	// InvalidResponse means the detector answered but the reply carried
	// no usable crop reference.
	InvalidResponse ErrorKind = iota
	// ArtifactMissing means a crop path was derived but the artifact
	// could not be read.
	ArtifactMissing
	// Unreachable covers transport failures and unexpected statuses.
	Unreachable
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidResponse:
		return "invalid response"
	case ArtifactMissing:
		return "artifact missing"
	case Unreachable:
		return "unreachable"
	}
	return "unknown"
}

// Error is a typed detector failure carrying upstream detail for
// diagnostics.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("detector %s", e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Outcome is the result of a successful detection round trip.
type Outcome struct {
	CropImage     []byte
	DetectedClass string
	SourceID      string
}

// Client calls the external plate detector service.
type Client struct {
	httpClient *http.Client
	url        string
	outputDir  string
}

// NewClient creates a detector client. outputDir is the directory the
// detector writes crops into, shared with this process, used to derive
// the crop path when the reply carries only a file ID.
func NewClient(url, outputDir string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        url,
		outputDir:  outputDir,
	}
}

// detectorResponse is version-tolerant: newer detectors reply with the
// crop path in "arquivo", older ones with only "file_id" from which the
// path is derived.
type detectorResponse struct {
	Arquivo string `json:"arquivo"`
	FileID  string `json:"file_id"`
	Classe  string `json:"classe"`
}

// Detect uploads the image and returns the cropped plate region together
// with the detector's classification hint. A 404 reply means "no
// detection box" and is still processed for a crop reference. Single
// attempt, no retries.
func (c *Client) Detect(ctx context.Context, image []byte, filename, contentType string) (*Outcome, error) {
	body, formContentType, err := encodeImageForm(image, filename, contentType)
	if err != nil {
		return nil, &Error{Kind: Unreachable, Detail: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, &Error{Kind: Unreachable, Detail: "create request", Err: err}
	}
	req.Header.Set("Content-Type", formContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: Unreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &Error{Kind: Unreachable, Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, string(detail))}
	}

	var dr detectorResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, &Error{Kind: InvalidResponse, Detail: "undecodable body", Err: err}
	}

	cropPath := dr.Arquivo
	if cropPath == "" && dr.FileID != "" {
		cropPath = filepath.Join(c.outputDir, dr.FileID, dr.FileID+".jpg")
	}
	if cropPath == "" {
		return nil, &Error{Kind: InvalidResponse, Detail: "response carried no crop reference"}
	}

	crop, err := os.ReadFile(cropPath)
	if err != nil {
		return nil, &Error{Kind: ArtifactMissing, Detail: cropPath, Err: err}
	}

	return &Outcome{
		CropImage:     crop,
		DetectedClass: dr.Classe,
		SourceID:      dr.FileID,
	}, nil
}

// encodeImageForm builds a multipart body with a single "file" part.
func encodeImageForm(image []byte, filename, contentType string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
