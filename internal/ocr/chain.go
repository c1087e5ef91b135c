package ocr

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/brplates/controller/internal/model"
)

var ocrAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ocr_attempts_total",
		Help: "Total number of OCR attempts by backend and outcome",
	},
	[]string{"backend", "outcome"},
)

// Chain tries a fixed, ordered list of (backend, category-hint) pairs
// until one yields a usable reading. The hint-aware call to each backend
// runs before any hint-less call, and the primary backend runs before the
// secondary at each tier.
type Chain struct {
	primary   *Backend
	secondary *Backend
	logger    zerolog.Logger
}

func NewChain(primary, secondary *Backend, logger zerolog.Logger) *Chain {
	return &Chain{primary: primary, secondary: secondary, logger: logger}
}

// Recognize runs the fallback chain against the cropped plate image.
// Individual attempt failures are absorbed; an exhausted chain returns
// the empty result, which is a legitimate "no plate read" outcome rather
// than an error.
func (c *Chain) Recognize(ctx context.Context, crop []byte, classHint string) model.RecognitionResult {
	attempts := []struct {
		backend *Backend
		hint    string
	}{
		{c.primary, classHint},
		{c.secondary, classHint},
		{c.primary, ""},
		{c.secondary, ""},
	}

	for _, attempt := range attempts {
		result, err := attempt.backend.Read(ctx, crop, attempt.hint)
		if err != nil {
			ocrAttemptsTotal.WithLabelValues(attempt.backend.Name(), "error").Inc()
			c.logger.Debug().Err(err).
				Str("backend", attempt.backend.Name()).
				Str("hint", attempt.hint).
				Msg("ocr attempt failed")
			continue
		}
		if !result.Empty() {
			ocrAttemptsTotal.WithLabelValues(attempt.backend.Name(), "hit").Inc()
			return result
		}
		ocrAttemptsTotal.WithLabelValues(attempt.backend.Name(), "empty").Inc()
	}

	return model.RecognitionResult{}
}
