package content

import (
	"context"
	"strings"
	"testing"

	"github.com/maialino123/ecomate-extract/internal/extract"
	"github.com/maialino123/ecomate-extract/internal/pagectx"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

const productPage = `<html><body>
<script>window.__INITIAL_STATE__ = {offerId: "725123406270", subject: "Test Widget", priceRange: [{startQuantity: 1, price: 5.2}], image: ["//cdn/img1"]};</script>
</body></html>`

var extractReq = models.ExtractRequest{Type: models.MessageExtractProduct}

func page(t *testing.T, url, html string) *pagectx.Context {
	t.Helper()
	pc, err := pagectx.New(url, html)
	if err != nil {
		t.Fatalf("pagectx.New() error = %v", err)
	}
	return pc
}

func TestHandle_Success(t *testing.T) {
	const url = "https://detail.1688.com/offer/725123406270.html"
	resp := NewHandler(nil).Handle(context.Background(), page(t, url, productPage), extractReq)

	if !resp.Success || resp.Error != "" {
		t.Fatalf("Handle() = %+v, want success", resp)
	}
	if resp.Data.URL != url {
		t.Errorf("Data.URL = %q", resp.Data.URL)
	}
	if resp.Data.RawData["subject"] != "Test Widget" {
		t.Errorf("rawData.subject = %v", resp.Data.RawData["subject"])
	}
}

func TestHandle_ContextMismatch(t *testing.T) {
	called := false
	chain := extract.Chain{{
		Name: "spy",
		Extract: func(*pagectx.Context) (models.RawRecord, bool) {
			called = true
			return nil, false
		},
	}}

	resp := NewHandler(chain).Handle(context.Background(), page(t, "https://www.1688.com/", productPage), extractReq)

	if resp.Success {
		t.Fatal("Handle() succeeded on a non-product page")
	}
	if resp.Error != ContextMismatchMessage {
		t.Errorf("Error = %q", resp.Error)
	}
	if called {
		t.Error("strategies ran before the page check")
	}
}

func TestHandle_UnknownType(t *testing.T) {
	resp := NewHandler(nil).Handle(context.Background(), nil, models.ExtractRequest{Type: "PING"})
	if resp.Success || resp.Error != "Unknown message type: PING" {
		t.Errorf("Handle() = %+v", resp)
	}
}

func TestHandle_Exhausted(t *testing.T) {
	resp := NewHandler(nil).Handle(context.Background(),
		page(t, "https://detail.1688.com/offer/1.html", "<html><body><p>nothing</p></body></html>"), extractReq)

	if resp.Success {
		t.Fatal("Handle() succeeded on an empty page")
	}
	if !strings.HasPrefix(resp.Error, "Could not extract product data from this page.") {
		t.Errorf("Error = %q", resp.Error)
	}
	if resp.Data != nil {
		t.Error("failure responses carry no data")
	}
}

func TestHandle_RecoversPanic(t *testing.T) {
	chain := extract.Chain{{
		Name: "broken",
		Extract: func(*pagectx.Context) (models.RawRecord, bool) {
			panic("nil map")
		},
	}}

	resp := NewHandler(chain).Handle(context.Background(),
		page(t, "https://detail.1688.com/offer/1.html", productPage), extractReq)

	if resp.Success {
		t.Fatal("Handle() succeeded after a panic")
	}
	if !strings.Contains(resp.Error, "nil map") {
		t.Errorf("Error = %q", resp.Error)
	}
}
