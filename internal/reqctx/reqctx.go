// Package reqctx carries a per-extraction request id through contexts.
package reqctx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type key int

const requestKey key = 0

// RequestContext identifies one extraction run.
type RequestContext struct {
	RequestID string
	URL       string
	StartTime time.Time
}

// WithRequestContext attaches a fresh request id for pageURL.
func WithRequestContext(ctx context.Context, pageURL string) context.Context {
	return context.WithValue(ctx, requestKey, &RequestContext{
		RequestID: uuid.NewString(),
		URL:       pageURL,
		StartTime: time.Now(),
	})
}

// GetRequestContext returns the attached request, or a placeholder.
func GetRequestContext(ctx context.Context) *RequestContext {
	if ctx != nil {
		if rc, ok := ctx.Value(requestKey).(*RequestContext); ok {
			return rc
		}
	}
	return &RequestContext{
		RequestID: "unknown",
		StartTime: time.Now(),
	}
}

// RequestID is shorthand for GetRequestContext(ctx).RequestID.
func RequestID(ctx context.Context) string {
	return GetRequestContext(ctx).RequestID
}

// Elapsed reports how long the request has been running.
func Elapsed(ctx context.Context) time.Duration {
	return time.Since(GetRequestContext(ctx).StartTime)
}

// RequestError wraps an error with the request it belongs to.
type RequestError struct {
	RequestID string
	URL       string
	Err       error
}

// Error implements the error interface
func (e *RequestError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.RequestID, e.URL, e.Err)
}

// Unwrap returns the underlying error
func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError tags err with the request stored in ctx.
func NewRequestError(ctx context.Context, err error) error {
	rc := GetRequestContext(ctx)
	return &RequestError{
		RequestID: rc.RequestID,
		URL:       rc.URL,
		Err:       err,
	}
}
