package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maialino123/ecomate-extract/internal/engine"
	"github.com/maialino123/ecomate-extract/internal/pipeline"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

const (
	offerURL  = "https://detail.1688.com/offer/725123406270.html"
	offerHTML = `<html><body><script>
		window.__INITIAL_STATE__ = {offerId: "725123406270", subject: "Test Widget", priceRange: [{startQuantity: 1, price: 5.2}], image: ["//cdn/img1"]};
	</script></body></html>`
)

type stubFetcher struct {
	html string
	err  error
}

func (f stubFetcher) Fetch(_ context.Context, opts models.FetchOptions) (*models.PageSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.PageSnapshot{URL: opts.URL, StatusCode: 200, HTML: f.html}, nil
}

func (stubFetcher) Name() string { return "stub" }

func newServer(f engine.Fetcher) *Server {
	return NewServer(func(models.FetchMode) (*pipeline.Pipeline, error) {
		return pipeline.New(f), nil
	}, "test")
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func TestExtractProduct(t *testing.T) {
	s := newServer(stubFetcher{html: offerHTML})

	res, err := s.handleExtractProduct(context.Background(), call(map[string]any{"url": offerURL}))
	if err != nil {
		t.Fatalf("handleExtractProduct() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}

	var p models.Product1688
	if err := json.Unmarshal([]byte(resultText(t, res)), &p); err != nil {
		t.Fatalf("result is not a product: %v", err)
	}
	if p.ProductID != "725123406270" || p.Title != "Test Widget" || p.Currency != models.Currency {
		t.Errorf("product = %+v", p)
	}
}

func TestExtractProduct_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fetcher stubFetcher
		args    map[string]any
		want    string
	}{
		{"missing url", stubFetcher{}, map[string]any{}, "url is required"},
		{"not 1688", stubFetcher{}, map[string]any{"url": "https://example.com/offer/1.html"}, pipeline.InvalidPageMessage},
		{
			"capture failure",
			stubFetcher{err: engine.NewEngineError(engine.ErrCodeNetworkError, "connection refused", errors.New("dial"))},
			map[string]any{"url": offerURL},
			"connection refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newServer(tt.fetcher).handleExtractProduct(context.Background(), call(tt.args))
			if err != nil {
				t.Fatalf("handleExtractProduct() error = %v", err)
			}
			if !res.IsError {
				t.Fatal("expected a tool error")
			}
			if got := resultText(t, res); !strings.Contains(got, tt.want) {
				t.Errorf("error text = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestExtractProductHTML(t *testing.T) {
	s := newServer(stubFetcher{err: errors.New("must not fetch")})

	res, err := s.handleExtractProductHTML(context.Background(), call(map[string]any{"url": offerURL, "html": offerHTML}))
	if err != nil {
		t.Fatalf("handleExtractProductHTML() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), `"productId": "725123406270"`) {
		t.Errorf("result = %s", resultText(t, res))
	}

	res, _ = s.handleExtractProductHTML(context.Background(), call(map[string]any{"url": "https://example.com/", "html": offerHTML}))
	if !res.IsError {
		t.Error("non-marketplace URL accepted")
	}
}

func TestHandler_AuthAndHealth(t *testing.T) {
	srv := httptest.NewServer(newServer(stubFetcher{}).Handler("secret"))
	defer srv.Close()

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"health needs no token", http.MethodGet, "/healthz", "", http.StatusOK},
		{"missing token", http.MethodPost, "/mcp", "", http.StatusUnauthorized},
		{"wrong token", http.MethodPost, "/mcp", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader("{}"))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
