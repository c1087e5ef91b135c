package model

import "encoding/json"

// CandidateEntry is one alternative reading attached to a result entry.
type CandidateEntry struct {
	Plate string `json:"plate"`
}

// ResultEntry is a single entry of an OCR backend's results list.
// Plate and Candidates are the decoded fields this system acts on; Raw
// preserves the backend's original entry so fields we do not interpret
// (confidence scores, bounding boxes) survive serialization untouched.
type ResultEntry struct {
	Plate      string
	Candidates []CandidateEntry
	Raw        json.RawMessage
}

func (e ResultEntry) MarshalJSON() ([]byte, error) {
	if len(e.Raw) > 0 {
		return e.Raw, nil
	}
	return json.Marshal(struct {
		Plate      string           `json:"plate"`
		Candidates []CandidateEntry `json:"candidates,omitempty"`
	}{e.Plate, e.Candidates})
}

func (e *ResultEntry) UnmarshalJSON(b []byte) error {
	var decoded struct {
		Plate      string           `json:"plate"`
		Candidates []CandidateEntry `json:"candidates"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}
	e.Plate = decoded.Plate
	e.Candidates = decoded.Candidates
	e.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// RecognitionResult is the canonical normalized form every OCR backend
// reply is reduced to. Plate is the best-guess reading and always equals
// the first entry's plate when Results is non-empty; both are absent when
// no backend produced a reading, which is a legitimate outcome rather
// than an error.
type RecognitionResult struct {
	Plate   *string       `json:"plate"`
	Results []ResultEntry `json:"results"`
}

// Empty reports whether the result carries no reading at all.
func (r RecognitionResult) Empty() bool {
	return (r.Plate == nil || *r.Plate == "") && len(r.Results) == 0
}

// Projection returns the primary plate and the alternative readings for
// client display. Candidates equal to the primary plate are filtered out,
// even if a backend repeats it among the alternatives.
func (r RecognitionResult) Projection() (string, []string) {
	if len(r.Results) == 0 {
		return "", nil
	}
	top := r.Results[0]
	alternatives := []string{}
	for _, c := range top.Candidates {
		if c.Plate != "" && c.Plate != top.Plate {
			alternatives = append(alternatives, c.Plate)
		}
	}
	return top.Plate, alternatives
}
