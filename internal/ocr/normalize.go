package ocr

import (
	"encoding/json"

	"github.com/brplates/controller/internal/model"
)

// rawPayload is the tagged-variant view of a backend reply. The legacy
// backend wraps its result in a JSON-encoded string under "resultado";
// the newer backend exposes a "results" list directly.
type rawPayload struct {
	Resultado *string         `json:"resultado"`
	Results   json.RawMessage `json:"results"`
}

// Normalize reduces a backend's reply to the canonical RecognitionResult.
// Unrecognized shapes and malformed nested JSON normalize to the empty
// result rather than an error.
func Normalize(payload []byte) model.RecognitionResult {
	var raw rawPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return model.RecognitionResult{}
	}

	switch {
	case raw.Resultado != nil:
		var inner struct {
			Results []model.ResultEntry `json:"results"`
		}
		if err := json.Unmarshal([]byte(*raw.Resultado), &inner); err != nil {
			return model.RecognitionResult{}
		}
		return canonical(inner.Results)
	case raw.Results != nil:
		var results []model.ResultEntry
		if err := json.Unmarshal(raw.Results, &results); err != nil {
			return model.RecognitionResult{}
		}
		return canonical(results)
	}
	return model.RecognitionResult{}
}

// canonical pins the best-guess plate to the first entry's reading.
func canonical(results []model.ResultEntry) model.RecognitionResult {
	r := model.RecognitionResult{Results: results}
	if len(results) > 0 {
		plate := results[0].Plate
		r.Plate = &plate
	}
	return r
}
