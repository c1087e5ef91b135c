package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brplates/controller/internal/core"
	"github.com/brplates/controller/internal/model"
)

type stubAuthorizer struct {
	key       *model.APIKey
	err       error
	gotSecret string
}

func (s *stubAuthorizer) Authorize(_ context.Context, presentedSecret string) (*model.APIKey, error) {
	s.gotSecret = presentedSecret
	return s.key, s.err
}

func runAuth(t *testing.T, guard *stubAuthorizer, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		key, ok := APIKeyFromContext(r.Context())
		assert.True(t, ok)
		assert.NotNil(t, key)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plates/process", nil)
	if header != "" {
		req.Header.Set("X-API-Key", header)
	}
	rec := httptest.NewRecorder()
	Auth(guard)(next).ServeHTTP(rec, req)
	return rec, reached
}

func TestAuth_ValidKey(t *testing.T) {
	guard := &stubAuthorizer{key: &model.APIKey{ID: "key-1", CallsMade: 1, CallLimit: 1000}}

	rec, reached := runAuth(t, guard, "brp_secret")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	assert.Equal(t, "brp_secret", guard.gotSecret)
}

func TestAuth_MissingHeader(t *testing.T) {
	guard := &stubAuthorizer{err: core.ErrUnauthorized}

	rec, reached := runAuth(t, guard, "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
	assert.Equal(t, "", guard.gotSecret)
}

func TestAuth_RejectedKey(t *testing.T) {
	guard := &stubAuthorizer{err: core.ErrUnauthorized}

	rec, reached := runAuth(t, guard, "brp_wrong")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid API key", body["error"])
}

func TestAuth_StoreFailure(t *testing.T) {
	guard := &stubAuthorizer{err: errors.New("connection refused")}

	rec, reached := runAuth(t, guard, "brp_secret")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, reached)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body["error"], "connection refused")
}
