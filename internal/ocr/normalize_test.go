package ocr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_WrappedLegacyShape(t *testing.T) {
	payload := []byte(`{"resultado": "{\"results\": [{\"plate\": \"ABC1234\", \"confidence\": 0.93}]}"}`)

	result := Normalize(payload)

	require.NotNil(t, result.Plate)
	assert.Equal(t, "ABC1234", *result.Plate)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "ABC1234", result.Results[0].Plate)
}

func TestNormalize_DirectResultsShape(t *testing.T) {
	payload := []byte(`{"results": [{"plate": "XYZ9876"}, {"plate": "XYZ9B76"}]}`)

	result := Normalize(payload)

	require.NotNil(t, result.Plate)
	assert.Equal(t, "XYZ9876", *result.Plate)
	assert.Len(t, result.Results, 2)
}

func TestNormalize_DirectShapeWithCandidates(t *testing.T) {
	payload := []byte(`{"results": [{"plate": "ABC1234", "candidates": [{"plate": "ABC1Z34"}, {"plate": "ABC1234"}]}]}`)

	result := Normalize(payload)

	require.Len(t, result.Results, 1)
	require.Len(t, result.Results[0].Candidates, 2)
	assert.Equal(t, "ABC1Z34", result.Results[0].Candidates[0].Plate)
}

func TestNormalize_EmptyResultsList(t *testing.T) {
	result := Normalize([]byte(`{"results": []}`))

	assert.Nil(t, result.Plate)
	assert.Empty(t, result.Results)
	assert.True(t, result.Empty())
}

func TestNormalize_UnrecognizedShape(t *testing.T) {
	for _, payload := range []string{
		`{"something": "else"}`,
		`{}`,
		`[]`,
		`"just a string"`,
		`not json at all`,
	} {
		result := Normalize([]byte(payload))
		assert.True(t, result.Empty(), "payload %q should normalize empty", payload)
	}
}

func TestNormalize_MalformedNestedJSON(t *testing.T) {
	payload := []byte(`{"resultado": "{not valid json"}`)

	result := Normalize(payload)

	assert.True(t, result.Empty())
}

// TestNormalize_Idempotent checks that normalizing the serialized form
// of an already-canonical result yields the same value.
func TestNormalize_Idempotent(t *testing.T) {
	payload := []byte(`{"results":[{"plate":"ABC1234","candidates":[{"plate":"ABC1Z34"}],"confidence":0.8}]}`)

	once := Normalize(payload)
	serialized, err := json.Marshal(once)
	require.NoError(t, err)
	twice := Normalize(serialized)

	assert.Equal(t, once, twice)
}

// Extra backend fields must survive normalization and serialization.
func TestNormalize_PreservesOpaqueFields(t *testing.T) {
	payload := []byte(`{"results": [{"plate": "ABC1234", "confidence": 0.93, "box": [1, 2, 3, 4]}]}`)

	result := Normalize(payload)

	serialized, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(serialized), `"confidence"`)
	assert.Contains(t, string(serialized), `"box"`)
}
