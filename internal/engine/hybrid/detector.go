// Package hybrid captures with plain HTTP first and falls back to the browser
// when the static page carries no product data.
package hybrid

import (
	"strings"

	"github.com/maialino123/ecomate-extract/pkg/models"
)

// productMarkers are substrings of the inline scripts that carry offer data.
var productMarkers = []string{
	"__INITIAL_STATE__",
	"detailData",
	"offerData",
	"skuMap",
	`"offerId"`,
}

// loginMarkers show up when 1688 answers with a login or slider challenge
// instead of the offer.
var loginMarkers = []string{
	"login.1688.com",
	"login.taobao.com",
	"nocaptcha",
	"punish?x5secdata",
}

// Verdict is the detector's reading of a static capture.
type Verdict int

const (
	// VerdictProduct means the static page already carries offer data.
	VerdictProduct Verdict = iota
	// VerdictRender means the data is probably produced by scripts at runtime.
	VerdictRender
	// VerdictBlocked means the marketplace served a challenge page.
	VerdictBlocked
)

func (v Verdict) String() string {
	switch v {
	case VerdictProduct:
		return "product"
	case VerdictRender:
		return "render"
	case VerdictBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Detect inspects a static snapshot.
func Detect(snap *models.PageSnapshot) Verdict {
	if snap == nil {
		return VerdictRender
	}
	lower := strings.ToLower(snap.URL + " " + snap.HTML)
	for _, m := range loginMarkers {
		if strings.Contains(lower, m) && !hasProductMarker(snap.HTML) {
			return VerdictBlocked
		}
	}
	if hasProductMarker(snap.HTML) {
		return VerdictProduct
	}
	return VerdictRender
}

func hasProductMarker(html string) bool {
	for _, m := range productMarkers {
		if strings.Contains(html, m) {
			return true
		}
	}
	return false
}
