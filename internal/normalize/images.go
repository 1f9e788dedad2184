package normalize

import (
	"github.com/maialino123/ecomate-extract/internal/rawval"
	urlutil "github.com/maialino123/ecomate-extract/internal/utils/url"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// mainImages takes the first of image, images, offerImgList and mainImage that
// yields at least one URL.
func mainImages(raw models.RawRecord) []string {
	for _, key := range []string{"image", "images", "offerImgList", "mainImage"} {
		if urls := imageList(raw[key]); len(urls) > 0 {
			return urls
		}
	}
	return nil
}

// detailImages merges description images; absence is not an error.
func detailImages(raw models.RawRecord) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, key := range []string{"detailImages", "descImages"} {
		for _, u := range imageList(raw[key]) {
			if !seen[u] {
				seen[u] = true
				out = append(out, u)
			}
		}
	}
	return out
}

// imageList accepts a string, an array of strings, or an array of {url|src}
// objects, and returns canonical, deduplicated URLs.
func imageList(v any) []string {
	var items []any
	switch t := v.(type) {
	case string:
		items = []any{t}
	case []any:
		items = t
	default:
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	for _, item := range items {
		u := urlutil.CanonicalImageURL(imageRef(item))
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

func imageRef(item any) string {
	if s, ok := item.(string); ok {
		return s
	}
	if m, ok := rawval.Map(item); ok {
		s, _ := rawval.LookupString(m, "url", "src")
		return s
	}
	return ""
}
