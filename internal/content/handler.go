// Package content answers extraction requests against one captured page.
package content

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/maialino123/ecomate-extract/internal/engine"
	"github.com/maialino123/ecomate-extract/internal/extract"
	"github.com/maialino123/ecomate-extract/internal/pagectx"
	"github.com/maialino123/ecomate-extract/internal/reqctx"
	urlutil "github.com/maialino123/ecomate-extract/internal/utils/url"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// ContextMismatchMessage is returned for pages that are not product detail pages.
const ContextMismatchMessage = "This does not appear to be a 1688 product detail page. " +
	"Please navigate to a product page (e.g., https://detail.1688.com/offer/...)"

// Handler runs the extraction chain for incoming requests.
type Handler struct {
	chain extract.Chain
}

// NewHandler returns a Handler using chain, or the default chain when empty.
func NewHandler(chain extract.Chain) *Handler {
	if len(chain) == 0 {
		chain = extract.DefaultChain()
	}
	return &Handler{chain: chain}
}

// Handle answers req for the page behind pc. Every failure, including a panic
// inside a strategy, becomes a failure response.
func (h *Handler) Handle(ctx context.Context, pc *pagectx.Context, req models.ExtractRequest) (resp models.ExtractResponse) {
	logger := log.With().Str("request_id", reqctx.RequestID(ctx)).Logger()

	if req.Type != models.MessageExtractProduct {
		return models.ExtractResponse{Error: fmt.Sprintf("Unknown message type: %s", req.Type)}
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Extraction panicked")
			resp = models.ExtractResponse{Error: fmt.Sprintf("Unexpected error during extraction: %v", r)}
		}
	}()

	rec, err := h.extract(pc)
	if err != nil {
		logger.Warn().Err(err).Msg("Extraction failed")
		return models.ExtractResponse{Error: engine.UserMessage(err)}
	}

	logger.Debug().Int("fields", len(rec)).Msg("Extraction succeeded")
	return models.ExtractResponse{
		Success: true,
		Data:    &models.ExtractData{RawData: rec, URL: pc.URL()},
	}
}

func (h *Handler) extract(pc *pagectx.Context) (models.RawRecord, error) {
	if pc == nil {
		return nil, engine.NewEngineError(engine.ErrCodeContextMismatch, ContextMismatchMessage, nil)
	}
	if !urlutil.IsDetailPage(pc.URL()) {
		return nil, engine.NewEngineError(engine.ErrCodeContextMismatch, ContextMismatchMessage, nil).
			WithDetail("url", pc.URL())
	}
	return h.chain.Extract(pc)
}
