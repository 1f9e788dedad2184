package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maialino123/ecomate-extract/internal/content"
	"github.com/maialino123/ecomate-extract/internal/engine"
	"github.com/maialino123/ecomate-extract/internal/normalize"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

const offerURL = "https://detail.1688.com/offer/725123406270.html"

type fakeFetcher struct {
	snap  *models.PageSnapshot
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, opts models.FetchOptions) (*models.PageSnapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	snap := *f.snap
	snap.URL = opts.URL
	return &snap, nil
}

func (f *fakeFetcher) Name() string { return "fake" }

func fixedClock() Option {
	return WithNormalizer(&normalize.Normalizer{Now: func() time.Time {
		return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	}})
}

func TestRun_InitialState(t *testing.T) {
	f := &fakeFetcher{snap: &models.PageSnapshot{HTML: `<html><body><script>
		window.__INITIAL_STATE__ = {offerId: "725123406270", subject: "Test Widget", priceRange: [{startQuantity: 1, price: 5.2}], image: ["//cdn/img1"]};
	</script></body></html>`}}

	res, err := New(f, fixedClock()).Run(context.Background(), models.FetchOptions{URL: offerURL})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	p := res.Product
	if p.ProductID != "725123406270" || p.Title != "Test Widget" {
		t.Errorf("product = %q, %q", p.ProductID, p.Title)
	}
	if len(p.PriceTiers) != 1 || p.PriceTiers[0].MinQty != 1 || p.PriceTiers[0].Price != 5.2 {
		t.Errorf("PriceTiers = %+v", p.PriceTiers)
	}
	if len(p.Images.Main) != 1 || p.Images.Main[0] != "https://cdn/img1.jpg" {
		t.Errorf("Images.Main = %v", p.Images.Main)
	}
	if p.SourceURL != offerURL || p.ExtractedAt != "2026-01-02T03:04:05.000Z" {
		t.Errorf("SourceURL, ExtractedAt = %q, %q", p.SourceURL, p.ExtractedAt)
	}
	if res.Response == nil || !res.Response.Success {
		t.Errorf("Response = %+v", res.Response)
	}
}

func TestRun_DOMFallback(t *testing.T) {
	f := &fakeFetcher{snap: &models.PageSnapshot{HTML: `<html><body>
		<h1>Quality Widget For Sale Now</h1>
		<img src="https://cbu01.alicdn.com/x_50x50.jpg">
		<img src="https://cbu01.alicdn.com/x_50x50.jpg">
		<img src="https://cbu01.alicdn.com/x_50x50.jpg">
		<span class="price">¥12.50</span>
		<span class="price">¥9.99</span>
	</body></html>`}}

	res, err := New(f, fixedClock()).Run(context.Background(), models.FetchOptions{URL: offerURL})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	p := res.Product
	if p.Title != "Quality Widget For Sale Now" {
		t.Errorf("Title = %q", p.Title)
	}
	if len(p.Images.Main) != 1 || p.Images.Main[0] != "https://cbu01.alicdn.com/x.jpg" {
		t.Errorf("Images.Main = %v", p.Images.Main)
	}
	if len(p.PriceTiers) != 1 || p.PriceTiers[0].MinQty != 1 || p.PriceTiers[0].Price != 9.99 {
		t.Errorf("PriceTiers = %+v", p.PriceTiers)
	}
}

func TestRun_RejectsNonMarketplaceURL(t *testing.T) {
	f := &fakeFetcher{}
	_, err := New(f).Run(context.Background(), models.FetchOptions{URL: "https://example.com/offer/1.html"})

	if engine.UserMessage(err) != InvalidPageMessage {
		t.Errorf("error = %v", err)
	}
	if f.calls != 0 {
		t.Error("page was fetched for a rejected URL")
	}
}

func TestRun_ContextMismatch(t *testing.T) {
	f := &fakeFetcher{snap: &models.PageSnapshot{HTML: "<html></html>"}}
	res, err := New(f).Run(context.Background(), models.FetchOptions{URL: "https://www.1688.com/"})

	if err == nil || err.Error() != content.ContextMismatchMessage {
		t.Fatalf("error = %v", err)
	}
	if res.Response == nil || res.Response.Success {
		t.Errorf("Response = %+v", res.Response)
	}
}

func TestRun_FetchError(t *testing.T) {
	f := &fakeFetcher{err: engine.NewEngineError(engine.ErrCodeTimeout, "page load timed out", engine.ErrTimeout)}
	_, err := New(f).Run(context.Background(), models.FetchOptions{URL: offerURL})

	if !errors.Is(err, engine.ErrTimeout) {
		t.Errorf("error = %v, want a timeout", err)
	}
	if engine.CodeOf(err) != engine.ErrCodeTimeout {
		t.Errorf("code = %q", engine.CodeOf(err))
	}
}

func TestRunSnapshot_SchemaViolation(t *testing.T) {
	// The tier upper bound is below its lower bound.
	snap := &models.PageSnapshot{
		URL: offerURL,
		Globals: map[string]any{
			"__INITIAL_STATE__": map[string]any{
				"offerId":    "1",
				"subject":    "Widget",
				"priceRange": []any{map[string]any{"startQuantity": float64(10), "endQuantity": float64(5), "price": float64(2)}},
				"image":      []any{"https://cbu01.alicdn.com/a.jpg"},
			},
		},
	}

	res, err := New(nil).RunSnapshot(context.Background(), snap)
	if engine.CodeOf(err) != engine.ErrCodeSchemaViolation {
		t.Fatalf("error = %v, want schema violation", err)
	}
	if res.Product != nil {
		t.Error("invalid products must not be returned")
	}
}

func TestRunSnapshot_FieldMissing(t *testing.T) {
	snap := &models.PageSnapshot{
		URL: offerURL,
		Globals: map[string]any{
			"detailData": map[string]any{"offerId": "1", "price": float64(3)},
		},
	}

	_, err := New(nil).RunSnapshot(context.Background(), snap)
	if engine.UserMessage(err) != "Product title not found" {
		t.Errorf("error = %v", err)
	}
}
