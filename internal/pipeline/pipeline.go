// Package pipeline is the requesting side of an extraction: it captures a
// page, asks the content handler for the raw record, then normalizes and
// validates it.
package pipeline

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/maialino123/ecomate-extract/internal/content"
	"github.com/maialino123/ecomate-extract/internal/engine"
	"github.com/maialino123/ecomate-extract/internal/normalize"
	"github.com/maialino123/ecomate-extract/internal/pagectx"
	"github.com/maialino123/ecomate-extract/internal/reqctx"
	urlutil "github.com/maialino123/ecomate-extract/internal/utils/url"
	"github.com/maialino123/ecomate-extract/internal/validate"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// InvalidPageMessage is returned before any capture for non-marketplace URLs.
const InvalidPageMessage = "Please navigate to a 1688.com product page first"

// ResponseError is a failure reported by the content handler. Its text is
// shown unchanged.
type ResponseError struct {
	Message string
}

func (e *ResponseError) Error() string {
	return e.Message
}

// Result is everything produced by one run. Response is set once the content
// handler answered; Product only on success.
type Result struct {
	Snapshot *models.PageSnapshot
	Response *models.ExtractResponse
	Product  *models.Product1688
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithHandler replaces the content handler.
func WithHandler(h *content.Handler) Option {
	return func(p *Pipeline) { p.handler = h }
}

// WithNormalizer replaces the normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(p *Pipeline) { p.normalizer = n }
}

// WithContextOptions passes options to every page context built by the run.
func WithContextOptions(opts ...pagectx.Option) Option {
	return func(p *Pipeline) { p.pageOpts = append(p.pageOpts, opts...) }
}

// Pipeline wires capture, extraction, normalization and validation.
type Pipeline struct {
	fetcher    engine.Fetcher
	handler    *content.Handler
	normalizer *normalize.Normalizer
	pageOpts   []pagectx.Option
}

// New returns a Pipeline capturing pages with fetcher.
func New(fetcher engine.Fetcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:    fetcher,
		handler:    content.NewHandler(nil),
		normalizer: normalize.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run captures opts.URL and extracts the product on it.
func (p *Pipeline) Run(ctx context.Context, opts models.FetchOptions) (*Result, error) {
	if !urlutil.IsMarketplaceURL(opts.URL) {
		return nil, engine.NewEngineError(engine.ErrCodeContextMismatch, InvalidPageMessage, nil).
			WithDetail("url", opts.URL)
	}
	if p.fetcher == nil {
		return nil, errors.New("no fetcher configured")
	}

	ctx = reqctx.WithRequestContext(ctx, opts.URL)
	logger := log.With().Str("request_id", reqctx.RequestID(ctx)).Str("url", opts.URL).Logger()
	logger.Info().Str("engine", p.fetcher.Name()).Msg("Capturing page")

	snap, err := p.fetcher.Fetch(ctx, opts)
	if err != nil {
		return nil, reqctx.NewRequestError(ctx, err)
	}

	return p.RunSnapshot(ctx, snap)
}

// RunSnapshot extracts the product from an already captured page.
func (p *Pipeline) RunSnapshot(ctx context.Context, snap *models.PageSnapshot) (*Result, error) {
	res := &Result{Snapshot: snap}

	pc, err := pagectx.FromSnapshot(snap, p.pageOpts...)
	if err != nil {
		return res, engine.NewEngineError(engine.ErrCodeParseError, "failed to read page", err)
	}

	resp := p.handler.Handle(ctx, pc, models.ExtractRequest{Type: models.MessageExtractProduct})
	res.Response = &resp

	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "Extraction failed"
		}
		return res, &ResponseError{Message: msg}
	}
	if resp.Data == nil {
		return res, &ResponseError{Message: "No data received from content script"}
	}

	product, err := p.normalizer.Normalize(resp.Data.RawData, resp.Data.URL)
	if err != nil {
		return res, err
	}
	if err := validate.Product(product); err != nil {
		return res, err
	}
	res.Product = product

	log.Info().
		Str("request_id", reqctx.RequestID(ctx)).
		Str("product_id", product.ProductID).
		Int("skus", len(product.SKUs)).
		Dur("elapsed", reqctx.Elapsed(ctx)).
		Msg("Product extracted")

	return res, nil
}
