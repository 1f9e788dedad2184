package static

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"

	"github.com/maialino123/ecomate-extract/internal/engine"
)

// MaxBodyBytes caps a captured page.
const MaxBodyBytes = 16 << 20

// ReadBody reads resp.Body, decoding gzip and brotli. Requests that set
// Accept-Encoding themselves get the raw encoded stream from net/http.
// A page larger than MaxBodyBytes is a PARSE_ERROR, never a truncated page.
func ReadBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	case "br":
		r = brotli.NewReader(resp.Body)
	case "", "identity":
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
	body, err := io.ReadAll(io.LimitReader(r, MaxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxBodyBytes {
		return nil, engine.NewEngineError(engine.ErrCodeParseError, "page exceeds the size limit", errors.Join(engine.ErrParseError, fmt.Errorf("body larger than %d bytes", MaxBodyBytes)))
	}
	return body, nil
}
