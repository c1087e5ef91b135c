package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brplates/controller/internal/model"
)

// Store persists serialized recognition results. Writes are advisory:
// the pipeline logs a failed Put and carries on.
type Store interface {
	Put(ctx context.Context, id string, result model.RecognitionResult) error
}

// FSStore writes results next to the detector's crops, as
// <dir>/<id>/<id>.txt.
type FSStore struct {
	dir string
}

func NewFSStore(dir string) *FSStore {
	return &FSStore{dir: dir}
}

func (s *FSStore) Put(_ context.Context, id string, result model.RecognitionResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", id, err)
	}

	dir := filepath.Join(s.dir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create result dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, id+".txt")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write result %s: %w", path, err)
	}
	return nil
}
