// Package extract pulls a raw product record off a captured page by running an
// ordered chain of strategies, falling back to DOM scraping.
package extract

import (
	"fmt"
	"maps"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/maialino123/ecomate-extract/internal/engine"
	"github.com/maialino123/ecomate-extract/internal/pagectx"
	"github.com/maialino123/ecomate-extract/internal/sku"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// Strategy is one self-contained extraction attempt. It reports false when the
// page does not carry data in the shape it looks for.
type Strategy struct {
	Name    string
	Extract func(pc *pagectx.Context) (models.RawRecord, bool)
}

// Chain runs strategies in order and stops at the first success.
type Chain []Strategy

// DefaultChain returns the strategies in priority order.
func DefaultChain() Chain {
	return Chain{
		FromGlobal("__INITIAL_STATE__"),
		FromGlobal("detailData"),
		FromGlobal("offerData"),
		FromJSONScripts(),
		FromInlineScripts(),
		FromDOM(),
	}
}

// Extract returns the first record produced by the chain, or an
// EXTRACTION_EXHAUSTED error describing the page.
func (c Chain) Extract(pc *pagectx.Context) (models.RawRecord, error) {
	for _, s := range c {
		rec, ok := s.Extract(pc)
		if !ok {
			log.Debug().Str("strategy", s.Name).Msg("Strategy found no product data")
			continue
		}

		attachSKU(pc, rec)

		log.Info().
			Str("strategy", s.Name).
			Str("url", pc.URL()).
			Msg("Extracted product data")
		return rec, nil
	}

	info := Diagnose(pc)
	log.Error().
		Str("url", info.URL).
		Int("scripts", info.Scripts).
		Int("scripts_with_offer_id", info.ScriptsWithOfferID).
		Int("price_elements", info.PriceElements).
		Int("images", info.Images).
		Msg("All extraction strategies failed")

	return nil, engine.NewEngineError(engine.ErrCodeExhausted, info.Message(), nil).
		WithDetail("url", info.URL)
}

// attachSKU adds parsed variant data unless the record already carries it.
func attachSKU(pc *pagectx.Context, rec models.RawRecord) {
	if _, ok := rec[sku.RecordKeyMap]; ok {
		return
	}
	script, ok := sku.FindScript(pc.InlineScripts())
	if !ok {
		return
	}
	if res := sku.Parse(script); res != nil {
		res.Attach(rec)
	}
}

// HasProductData is the shape test: an identifier plus a title, price or image.
func HasProductData(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}

	hasID := anyPresent(m, "offerId", "productId", "id")
	hasTitle := anyPresent(m, "subject", "title", "offerTitle", "productName")
	hasPrice := anyPresent(m, "priceRange", "price", "salePrice", "consignPrice", "skuPrices")
	hasImages := anyPresent(m, "image", "images", "offerImgList", "mainImage")

	return hasID && (hasTitle || hasPrice || hasImages)
}

// record copies a product-shaped value so attaching SKU data never mutates the
// page's own objects.
func record(v any) (models.RawRecord, bool) {
	if !HasProductData(v) {
		return nil, false
	}
	return models.RawRecord(maps.Clone(v.(map[string]any))), true
}

// DebugInfo summarizes a page on which every strategy failed.
type DebugInfo struct {
	URL                string
	Scripts            int
	ScriptsWithOfferID int
	PriceElements      int
	Images             int
}

// Diagnose counts the page features that usually carry product data.
func Diagnose(pc *pagectx.Context) DebugInfo {
	info := DebugInfo{
		URL:           pc.URL(),
		PriceElements: pc.Count(`[class*="price"], [class*="Price"]`),
		Images:        pc.Count(`img[src*="cbu"], img[data-src*="cbu"]`),
	}
	scripts := pc.Find("script")
	info.Scripts = scripts.Length()
	for i := range scripts.Nodes {
		if strings.Contains(scripts.Eq(i).Text(), "offerId") {
			info.ScriptsWithOfferID++
		}
	}
	return info
}

// Message renders the text shown to the requester.
func (d DebugInfo) Message() string {
	return "Could not extract product data from this page.\n\n" +
		"Debug Information:\n" +
		fmt.Sprintf("- URL: %s\n", d.URL) +
		fmt.Sprintf("- Scripts found: %d\n", d.Scripts) +
		fmt.Sprintf("- Scripts with \"offerId\": %d\n", d.ScriptsWithOfferID) +
		fmt.Sprintf("- Price elements: %d\n", d.PriceElements) +
		fmt.Sprintf("- Images found: %d\n\n", d.Images) +
		"Please ensure you are on a valid 1688 product detail page.\n" +
		"If the problem persists, please report this issue."
}
