package hybrid

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/maialino123/ecomate-extract/internal/engine"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// Name identifies this fetcher.
const Name = "auto"

// Fetcher tries static first and uses the browser only when needed.
type Fetcher struct {
	static  engine.Fetcher
	browser engine.Fetcher
}

// New returns a Fetcher. browser may be nil, in which case the static capture
// is always returned.
func New(static, browser engine.Fetcher) *Fetcher {
	return &Fetcher{static: static, browser: browser}
}

// Name implements engine.Fetcher.
func (f *Fetcher) Name() string {
	return Name
}

// Fetch implements engine.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, opts models.FetchOptions) (*models.PageSnapshot, error) {
	snap, staticErr := f.static.Fetch(ctx, opts)
	if staticErr == nil {
		verdict := Detect(snap)
		log.Debug().Str("url", opts.URL).Stringer("verdict", verdict).Msg("Static capture inspected")
		if verdict == VerdictProduct || f.browser == nil {
			return snap, nil
		}
	} else if f.browser == nil || !fallbackWorthy(staticErr) {
		return nil, staticErr
	}

	log.Info().Str("url", opts.URL).Msg("Falling back to browser capture")
	live, err := f.browser.Fetch(ctx, opts)
	if err != nil {
		if snap != nil {
			log.Warn().Err(err).Str("url", opts.URL).Msg("Browser capture failed, using static page")
			return snap, nil
		}
		return nil, err
	}
	return live, nil
}

// fallbackWorthy reports whether a static failure might not happen in a browser.
func fallbackWorthy(err error) bool {
	switch engine.CodeOf(err) {
	case engine.ErrCodeParseError, engine.ErrCodeRobotsDisallowed, engine.ErrCodeNotFound:
		return false
	}
	return !errors.Is(err, context.Canceled)
}
