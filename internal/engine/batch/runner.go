package batch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/maialino123/ecomate-extract/pkg/models"
)

// Result is the outcome for one request.
type Result[T any] struct {
	Request  models.FetchOptions
	Value    T
	Err      error
	Duration time.Duration
}

// Func processes one request.
type Func[T any] func(ctx context.Context, opts models.FetchOptions) (T, error)

// Run calls fn for every request with at most limit in flight. One failure
// does not stop the others; results are returned in input order. Requests not
// started before ctx is done carry ctx's error.
func Run[T any](ctx context.Context, requests []models.FetchOptions, limit int, fn Func[T]) []Result[T] {
	if limit <= 0 {
		limit = DefaultConcurrency()
	}
	results := make([]Result[T], len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, group := range GroupByHost(requests) {
		log.Debug().Str("host", group.Host).Int("requests", len(group.Indexes)).Msg("Scheduling host group")
		for _, i := range group.Indexes {
			results[i].Request = requests[i]
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				continue
			}
			g.Go(func() error {
				start := time.Now()
				v, err := fn(gctx, requests[i])
				results[i].Value = v
				results[i].Err = err
				results[i].Duration = time.Since(start)
				return nil
			})
		}
	}
	_ = g.Wait()
	return results
}

// Failed counts results with an error.
func Failed[T any](results []Result[T]) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
