package engine

import (
	"context"

	"github.com/maialino123/ecomate-extract/pkg/models"
)

// Fetcher is the interface that all page capture engines must implement
type Fetcher interface {
	// Fetch captures the page at opts.URL
	Fetch(ctx context.Context, opts models.FetchOptions) (*models.PageSnapshot, error)

	// Name returns the name of the fetcher implementation
	Name() string
}

// ProductGlobals are the window properties a live capture evaluates.
var ProductGlobals = []string{"__INITIAL_STATE__", "detailData", "offerData"}
