package extract

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/maialino123/ecomate-extract/internal/pagectx"
	"github.com/maialino123/ecomate-extract/internal/sku"
	urlutil "github.com/maialino123/ecomate-extract/internal/utils/url"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// MethodDOM marks records built by ScrapeDOM.
const MethodDOM = "dom-scraping"

var (
	titleSelectors = []string{
		".offer-title",
		`[class*="detail-title"]`,
		`[class*="product-title"]`,
		`[class*="subject"]`,
		"h1.title",
		`h1[class*="title"]`,
	}

	gallerySelectors = []string{
		".offer-image img",
		`[class*="gallery"] img`,
		`[class*="preview"] img`,
		`[class*="image-list"] img`,
		`[class*="thumb"] img`,
	}

	tierContainerSelectors = []string{
		`[class*="price-range"]`,
		`[class*="price-tier"]`,
		`[class*="ladder"]`,
		`table[class*="price"]`,
	}

	supplierSelectors = []string{
		`[class*="company-name"]`,
		`[class*="seller-name"]`,
		`[class*="shop-name"]`,
		`[class*="store-name"]`,
		".company-info h1",
		".company-info h2",
	}

	priceNumber  = regexp.MustCompile(`\d+\.?\d*`)
	tierPattern  = regexp.MustCompile(`(?i)(\d+)[-≥+]?\s*(?:件|pcs|pieces)?\s*[¥￥]?\s*(\d+\.?\d*)`)
	supplierLink = regexp.MustCompile(`(?:company|shop|winport).*?(\d+)`)
)

const (
	minPlausiblePrice = 0.01
	maxPlausiblePrice = 1000000
)

type tier struct {
	minQty int
	price  float64
}

// ScrapeDOM builds a raw record from visible page elements. Product ID, title,
// images and a price are required; supplier and SKU data are optional.
func ScrapeDOM(pc *pagectx.Context) (models.RawRecord, error) {
	productID, ok := urlutil.ProductIDFromURL(pc.URL())
	if !ok {
		return nil, errors.New("Could not extract product ID from URL")
	}

	title, err := domTitle(pc)
	if err != nil {
		return nil, err
	}

	images := domImages(pc)
	if len(images) == 0 {
		return nil, errors.New("Could not find product images")
	}

	base, tiers, err := domPrices(pc)
	if err != nil {
		return nil, err
	}

	imageList := make([]any, len(images))
	for i, img := range images {
		imageList[i] = img
	}
	priceRange := make([]any, len(tiers))
	for i, t := range tiers {
		priceRange[i] = map[string]any{"minQty": float64(t.minQty), "price": t.price}
	}

	rec := models.RawRecord{
		"offerId":           productID,
		"productId":         productID,
		"subject":           title,
		"title":             title,
		"image":             imageList,
		"images":            imageList,
		"priceRange":        priceRange,
		"price":             base,
		"_extractionMethod": MethodDOM,
	}

	name, id := domSupplier(pc)
	if name != "" {
		rec["sellerName"] = name
		rec["companyName"] = name
	}
	if id != "" {
		rec["sellerId"] = id
	}

	if script, ok := sku.FindScript(pc.InlineScripts()); ok {
		if res := sku.Parse(script); res != nil {
			res.Attach(rec)
		}
	}

	log.Debug().
		Str("product_id", productID).
		Int("images", len(images)).
		Int("tiers", len(tiers)).
		Float64("base_price", base).
		Msg("DOM extraction complete")

	return rec, nil
}

func domTitle(pc *pagectx.Context) (string, error) {
	for _, sel := range titleSelectors {
		if text := strings.TrimSpace(pc.Find(sel).First().Text()); text != "" {
			return text, nil
		}
	}

	var h1Title string
	pc.Find("h1").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if n := utf8.RuneCountInString(text); n > 10 && n < 200 {
			h1Title = text
			return false
		}
		return true
	})
	if h1Title != "" {
		return h1Title, nil
	}

	if content, ok := pc.Find(`meta[property="og:title"]`).First().Attr("content"); ok && content != "" {
		return strings.TrimSpace(content), nil
	}

	docTitle := strings.Split(pc.Title(), "-")[0]
	docTitle = strings.TrimSpace(strings.Split(docTitle, "_")[0])
	if utf8.RuneCountInString(docTitle) > 5 {
		return docTitle, nil
	}

	return "", errors.New("Could not extract product title from DOM")
}

func domImages(pc *pagectx.Context) []string {
	var images []string
	seen := make(map[string]bool)
	add := func(raw string) {
		u := urlutil.NormalizeImageURL(raw)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		images = append(images, u)
	}

	pc.Find(`img[src*="cbu"], img[src*="1688"]`).Each(func(_ int, s *goquery.Selection) {
		if src := imageSource(s); strings.Contains(src, "cbu") {
			add(src)
		}
	})

	for _, sel := range gallerySelectors {
		pc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if src := imageSource(s); src != "" {
				add(src)
			}
		})
	}

	pc.Find("img[data-src]").Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("data-src", "")
		if strings.Contains(src, "cbu") || strings.Contains(src, "1688") {
			add(src)
		}
	})

	return images
}

func imageSource(s *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}

// domPrices returns the lowest plausible price and the quantity tiers. Without
// tier rows a single tier at quantity 1 is synthesized from the base price.
func domPrices(pc *pagectx.Context) (float64, []tier, error) {
	base := 0.0
	pc.Find(`[class*="price"], [class*="Price"]`).Each(func(_ int, s *goquery.Selection) {
		for _, m := range priceNumber.FindAllString(s.Text(), -1) {
			n, err := strconv.ParseFloat(m, 64)
			if err != nil || n <= minPlausiblePrice || n >= maxPlausiblePrice {
				continue
			}
			if base == 0 || n < base {
				base = n
			}
		}
	})
	if base == 0 {
		return 0, nil, errors.New("Could not extract price from DOM")
	}

	var tiers []tier
	for _, sel := range tierContainerSelectors {
		pc.Find(sel).Find(`tr, [class*="row"]`).Each(func(_ int, row *goquery.Selection) {
			m := tierPattern.FindStringSubmatch(row.Text())
			if m == nil {
				return
			}
			qty, err1 := strconv.Atoi(m[1])
			price, err2 := strconv.ParseFloat(m[2], 64)
			if err1 == nil && err2 == nil && qty > 0 && price > 0 {
				tiers = append(tiers, tier{minQty: qty, price: price})
			}
		})
	}

	if len(tiers) == 0 {
		return base, []tier{{minQty: 1, price: base}}, nil
	}
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].minQty < tiers[j].minQty })
	return base, tiers, nil
}

func domSupplier(pc *pagectx.Context) (name, id string) {
	for _, sel := range supplierSelectors {
		if text := strings.TrimSpace(pc.Find(sel).First().Text()); text != "" {
			name = text
			break
		}
	}

	pc.Find(`a[href*="company"], a[href*="shop"], a[href*="winport"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := supplierLink.FindStringSubmatch(s.AttrOr("href", "")); m != nil {
			id = m[1]
			return false
		}
		return true
	})

	return name, id
}
