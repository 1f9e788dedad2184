// Package normalize turns a loosely shaped raw record into a Product1688.
// All type coercion happens here; extraction strategies never interpret values.
package normalize

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maialino123/ecomate-extract/internal/engine"
	"github.com/maialino123/ecomate-extract/internal/rawval"
	urlutil "github.com/maialino123/ecomate-extract/internal/utils/url"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// TimeFormat is the extractedAt layout: RFC 3339 with milliseconds.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Normalizer maps raw records to products.
type Normalizer struct {
	// Now stamps extractedAt. Defaults to time.Now.
	Now func() time.Time
}

// New returns a Normalizer using the wall clock.
func New() *Normalizer {
	return &Normalizer{Now: time.Now}
}

func missing(field, message string) error {
	return engine.NewEngineError(engine.ErrCodeFieldMissing, message, nil).WithDetail("field", field)
}

// Normalize builds a product from raw, using sourceURL as a fallback for the
// product id. It fails on the first missing required field and never returns
// a partially filled product.
func (n *Normalizer) Normalize(raw models.RawRecord, sourceURL string) (*models.Product1688, error) {
	productID, ok := lookupProductID(raw, sourceURL)
	if !ok {
		return nil, missing("productId", "Could not extract product ID")
	}

	title, ok := rawval.LookupString(raw, "subject", "title", "offerTitle", "productName")
	if !ok {
		return nil, missing("title", "Product title not found")
	}

	tiers := priceTiers(raw)
	if len(tiers) == 0 {
		return nil, missing("priceTiers", "No price information found")
	}

	skus := skuVariations(raw)

	gallery := mainImages(raw)
	if len(gallery) == 0 {
		return nil, missing("images.main", "No product images found")
	}

	now := time.Now
	if n != nil && n.Now != nil {
		now = n.Now
	}

	p := &models.Product1688{
		SourceURL:   sourceURL,
		ProductID:   productID,
		Title:       title,
		PriceTiers:  tiers,
		Currency:    models.Currency,
		SKUs:        skus,
		Images:      models.ProductImages{Main: gallery, Detail: detailImages(raw)},
		ExtractedAt: now().UTC().Format(TimeFormat),
		ExtractedBy: models.ExtractedBy,
	}

	p.Description, _ = rawval.LookupString(raw, "description", "desc")
	p.ShippingTemplateID, _ = rawval.LookupString(raw, "freightTemplateId", "shippingTemplateId")
	p.SupplierID, _ = rawval.LookupString(raw, "sellerId", "supplierId", "memberId")
	p.SupplierName, _ = rawval.LookupString(raw, "sellerName", "supplierName", "companyName")
	p.CategoryID, _ = rawval.LookupString(raw, "categoryId", "catId")
	p.CategoryName, _ = rawval.LookupString(raw, "categoryName", "catName")

	for _, key := range []string{"weight", "netWeight", "grossWeight"} {
		if w, ok := rawval.Float(raw[key]); ok && w > 0 {
			p.Weight = &w
			break
		}
	}

	log.Debug().
		Str("product_id", p.ProductID).
		Int("tiers", len(p.PriceTiers)).
		Int("skus", len(p.SKUs)).
		Int("images", len(p.Images.Main)).
		Msg("Normalized product")

	return p, nil
}

func lookupProductID(raw models.RawRecord, sourceURL string) (string, bool) {
	if id, ok := rawval.LookupString(raw, "offerId", "productId", "id"); ok {
		return id, true
	}
	return urlutil.ProductIDFromURL(sourceURL)
}

// priceTiers tries priceRange, then skuPrices, then the flat price fields.
// Entries without a positive price are skipped.
func priceTiers(raw models.RawRecord) []models.PriceTier {
	var tiers []models.PriceTier

	ranges, _ := rawval.Slice(raw["priceRange"])
	for _, r := range ranges {
		m, ok := rawval.Map(r)
		if !ok {
			continue
		}
		price, ok := lookupFloat(m, "price", "value")
		if !ok || price <= 0 {
			continue
		}
		tier := models.PriceTier{MinQty: 1, Price: price}
		if q, ok := lookupInt(m, "startQuantity", "begin", "minQty"); ok && q > 0 {
			tier.MinQty = q
		}
		if q, ok := lookupInt(m, "endQuantity", "end", "maxQty"); ok {
			tier.MaxQty = &q
		}
		tiers = append(tiers, tier)
	}
	if len(tiers) > 0 {
		return tiers
	}

	skuPrices, _ := rawval.Slice(raw["skuPrices"])
	for _, s := range skuPrices {
		m, ok := rawval.Map(s)
		if !ok {
			continue
		}
		if price, ok := rawval.Float(m["price"]); ok && price > 0 {
			tiers = append(tiers, models.PriceTier{MinQty: 1, Price: price})
		}
	}
	if len(tiers) > 0 {
		return tiers
	}

	for _, keys := range [][]string{{"price", "salePrice"}, {"consignPrice", "referencePrice"}} {
		if price, ok := lookupFloat(raw, keys...); ok && price > 0 {
			return []models.PriceTier{{MinQty: 1, Price: price}}
		}
	}

	return nil
}

func lookupFloat(m map[string]any, keys ...string) (float64, bool) {
	v, ok := rawval.Lookup(m, keys...)
	if !ok {
		return 0, false
	}
	return rawval.Float(v)
}

func lookupInt(m map[string]any, keys ...string) (int, bool) {
	v, ok := rawval.Lookup(m, keys...)
	if !ok {
		return 0, false
	}
	return rawval.Int(v)
}
