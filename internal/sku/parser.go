// Package sku carves variant data out of inline marketplace scripts.
package sku

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/maialino123/ecomate-extract/internal/rawval"
)

// Keys under which parsed SKU data travels in a raw record.
const (
	RecordKeyMap    = "_skuMap"
	RecordKeyImages = "_skuImages"
)

// Item is one entry of the page's skuMap.
type Item struct {
	SkuID         string
	SpecAttrs     string
	Price         *float64
	DiscountPrice *float64
	CanBookCount  *int
	SpecID        string
	SaleCount     *int
	PromotionSku  bool
}

// Result is the SKU data found in one script.
type Result struct {
	Items  []Item
	Images map[string]string
	// Raw holds the skuMap entries as they appeared on the page.
	Raw []any
}

var (
	skuMapPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"skuMap":\s*(\[[\s\S]*?\])\s*[,}]`),
		regexp.MustCompile(`"skuMap"\s*:\s*(\[[\s\S]*?\])\s*[,}]`),
		regexp.MustCompile(`skuMap\s*:\s*(\[[\s\S]*?\])\s*[,}]`),
	}
	skuPropsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"skuProps":\s*(\[[\s\S]*?\])\s*[,}]`),
		regexp.MustCompile(`"skuProps"\s*:\s*(\[[\s\S]*?\])\s*[,}]`),
		regexp.MustCompile(`skuProps\s*:\s*(\[[\s\S]*?\])\s*[,}]`),
	}
	skuMapKey   = regexp.MustCompile(`"?skuMap"?\s*:`)
	skuPropsKey = regexp.MustCompile(`"?skuProps"?\s*:`)
)

// HasSKUData reports whether script carries both SKU markers.
func HasSKUData(script string) bool {
	return strings.Contains(script, "skuMap") && strings.Contains(script, "skuProps")
}

// FindScript returns the first script carrying both SKU markers.
func FindScript(scripts []string) (string, bool) {
	for _, s := range scripts {
		if HasSKUData(s) {
			return s, true
		}
	}
	return "", false
}

// Parse extracts the skuMap and the variant name to image table from script.
// It returns nil when no non-empty skuMap is found.
func Parse(script string) *Result {
	entries := entriesOf(extract(script, skuMapPatterns, skuMapKey))
	if len(entries) == 0 {
		log.Debug().Msg("No SKU map found in script")
		return nil
	}

	res := &Result{
		Items:  ItemsFrom(entries),
		Images: imagesFrom(extract(script, skuPropsPatterns, skuPropsKey)),
		Raw:    entries,
	}

	log.Debug().
		Int("skus", len(res.Items)).
		Int("images", len(res.Images)).
		Msg("Parsed SKU data")

	return res
}

// Attach stores the result on a raw record under the reserved keys.
func (r *Result) Attach(rec map[string]any) {
	images := make(map[string]any, len(r.Images))
	for k, v := range r.Images {
		images[k] = v
	}
	rec[RecordKeyMap] = r.Raw
	rec[RecordKeyImages] = images
}

// extract tries the direct patterns first, then the balanced scan after each
// occurrence of the key.
func extract(script string, patterns []*regexp.Regexp, key *regexp.Regexp) any {
	for _, re := range patterns {
		m := re.FindStringSubmatch(script)
		if m == nil {
			continue
		}
		var arr []any
		if err := json.Unmarshal([]byte(m[1]), &arr); err == nil && len(arr) > 0 {
			return arr
		}
	}

	for _, loc := range key.FindAllStringIndex(script, -1) {
		body, ok := BalancedJSON(script, loc[1])
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(body), &v); err == nil {
			return v
		}
	}

	return nil
}

// entriesOf accepts the array form and the object form keyed by spec string.
func entriesOf(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := make([]any, 0, len(keys))
		for _, k := range keys {
			entry, ok := t[k].(map[string]any)
			if !ok {
				continue
			}
			if _, has := entry["specAttrs"]; !has {
				copied := make(map[string]any, len(entry)+1)
				for ek, ev := range entry {
					copied[ek] = ev
				}
				copied["specAttrs"] = k
				entry = copied
			}
			out = append(out, entry)
		}
		return out
	}
	return nil
}

// ItemsFrom decodes skuMap entries as stored on a raw record.
func ItemsFrom(v any) []Item {
	entries, ok := rawval.Slice(v)
	if !ok {
		return nil
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		m, ok := rawval.Map(e)
		if !ok {
			continue
		}
		item := Item{}
		item.SkuID, _ = rawval.String(m["skuId"])
		item.SpecAttrs, _ = rawval.String(m["specAttrs"])
		item.SpecID, _ = rawval.String(m["specId"])
		if f, ok := rawval.Float(m["price"]); ok {
			item.Price = &f
		}
		if f, ok := rawval.Float(m["discountPrice"]); ok {
			item.DiscountPrice = &f
		}
		if n, ok := rawval.Int(m["canBookCount"]); ok {
			item.CanBookCount = &n
		}
		if n, ok := rawval.Int(m["saleCount"]); ok {
			item.SaleCount = &n
		}
		item.PromotionSku, _ = m["promotionSku"].(bool)
		items = append(items, item)
	}
	return items
}

func imagesFrom(v any) map[string]string {
	images := make(map[string]string)
	props, ok := rawval.Slice(v)
	if !ok {
		return images
	}
	for _, p := range props {
		prop, ok := rawval.Map(p)
		if !ok {
			continue
		}
		values, _ := rawval.Slice(prop["value"])
		for _, val := range values {
			vm, ok := rawval.Map(val)
			if !ok {
				continue
			}
			name, okName := vm["name"].(string)
			img, okImg := vm["imageUrl"].(string)
			if okName && okImg && name != "" && img != "" {
				images[name] = img
			}
		}
	}
	return images
}

// ImagesFrom decodes a variant image table as stored on a raw record.
func ImagesFrom(v any) map[string]string {
	m, ok := rawval.Map(v)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok && s != "" {
			out[k] = s
		}
	}
	return out
}
