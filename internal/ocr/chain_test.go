package ocr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ocrStub is a fake OCR backend recording the category hints it was
// called with.
type ocrStub struct {
	server *httptest.Server
	calls  atomic.Int32
	hints  chan string
}

func newOCRStub(t *testing.T, handler func(w http.ResponseWriter, hint string)) *ocrStub {
	t.Helper()
	stub := &ocrStub{hints: make(chan string, 16)}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.calls.Add(1)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		hint := r.FormValue("categoria")
		stub.hints <- hint

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		file.Close()

		handler(w, hint)
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func respondResults(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func TestChain_PrimaryWithHintWins(t *testing.T) {
	primary := newOCRStub(t, func(w http.ResponseWriter, hint string) {
		respondResults(w, `{"results": [{"plate": "ABC1234"}]}`)
	})
	secondary := newOCRStub(t, func(w http.ResponseWriter, hint string) {
		respondResults(w, `{"results": [{"plate": "WRONG00"}]}`)
	})

	chain := NewChain(NewBackend("primary", primary.server.URL), NewBackend("secondary", secondary.server.URL), zerolog.Nop())
	result := chain.Recognize(context.Background(), []byte("crop"), "car")

	require.NotNil(t, result.Plate)
	assert.Equal(t, "ABC1234", *result.Plate)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(0), secondary.calls.Load(), "chain must short-circuit before the secondary backend")
	assert.Equal(t, "car", <-primary.hints)
}

func TestChain_FallsBackToSecondary(t *testing.T) {
	primary := newOCRStub(t, func(w http.ResponseWriter, hint string) {
		respondResults(w, `{"results": []}`)
	})
	secondary := newOCRStub(t, func(w http.ResponseWriter, hint string) {
		respondResults(w, `{"results": [{"plate": "XYZ9876"}]}`)
	})

	chain := NewChain(NewBackend("primary", primary.server.URL), NewBackend("secondary", secondary.server.URL), zerolog.Nop())
	result := chain.Recognize(context.Background(), []byte("crop"), "car")

	require.NotNil(t, result.Plate)
	assert.Equal(t, "XYZ9876", *result.Plate)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(1), secondary.calls.Load())
}

func TestChain_HintDroppedOnLaterTiers(t *testing.T) {
	// Both backends answer empty while the hint is present, then the
	// primary hits on its hint-less attempt.
	primary := newOCRStub(t, func(w http.ResponseWriter, hint string) {
		if hint == "" {
			respondResults(w, `{"results": [{"plate": "DEF5678"}]}`)
			return
		}
		respondResults(w, `{"results": []}`)
	})
	secondary := newOCRStub(t, func(w http.ResponseWriter, hint string) {
		respondResults(w, `{"results": []}`)
	})

	chain := NewChain(NewBackend("primary", primary.server.URL), NewBackend("secondary", secondary.server.URL), zerolog.Nop())
	result := chain.Recognize(context.Background(), []byte("crop"), "truck")

	require.NotNil(t, result.Plate)
	assert.Equal(t, "DEF5678", *result.Plate)
	assert.Equal(t, "truck", <-primary.hints)
	assert.Equal(t, "truck", <-secondary.hints)
	assert.Equal(t, "", <-primary.hints)
}

func TestChain_AttemptFailuresAreAbsorbed(t *testing.T) {
	primary := newOCRStub(t, func(w http.ResponseWriter, hint string) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	secondary := newOCRStub(t, func(w http.ResponseWriter, hint string) {
		if hint == "" {
			respondResults(w, `{"resultado": "{\"results\": [{\"plate\": \"GHI1357\"}]}"}`)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})

	chain := NewChain(NewBackend("primary", primary.server.URL), NewBackend("secondary", secondary.server.URL), zerolog.Nop())
	result := chain.Recognize(context.Background(), []byte("crop"), "car")

	require.NotNil(t, result.Plate)
	assert.Equal(t, "GHI1357", *result.Plate)
}

func TestChain_AllAttemptsFailYieldsEmptyResult(t *testing.T) {
	primary := newOCRStub(t, func(w http.ResponseWriter, hint string) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	secondary := newOCRStub(t, func(w http.ResponseWriter, hint string) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	chain := NewChain(NewBackend("primary", primary.server.URL), NewBackend("secondary", secondary.server.URL), zerolog.Nop())
	result := chain.Recognize(context.Background(), []byte("crop"), "car")

	assert.True(t, result.Empty())
	assert.Equal(t, int32(2), primary.calls.Load())
	assert.Equal(t, int32(2), secondary.calls.Load())
}

func TestChain_UnreachableBackendsYieldEmptyResult(t *testing.T) {
	chain := NewChain(NewBackend("primary", "http://127.0.0.1:1/nope"), NewBackend("secondary", "http://127.0.0.1:1/nope"), zerolog.Nop())
	result := chain.Recognize(context.Background(), []byte("crop"), "")

	assert.True(t, result.Empty())
}
