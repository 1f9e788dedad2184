package urlutil

import (
	"regexp"
	"strings"
)

// CDNHost serves root-relative image paths found in page payloads.
const CDNHost = "https://cbu01.alicdn.com"

var (
	thumbSuffixPattern = regexp.MustCompile(`(?i)(\.(?:jpg|jpeg|png|webp))?(?:_(?:50x50|60x60|sum|thumbnail))+\.(jpg|png|webp)`)
	sizeSuffixPattern  = regexp.MustCompile(`(?i)(\.(?:jpg|jpeg|png|webp))(?:_\d+x\d+(?:q\d+)?(?:\.(?:jpg|jpeg|png|webp))?)+`)
	imageExtPattern    = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp|gif)($|\?)`)
)

// NormalizeImageURL turns a gallery or thumbnail src into a full-size https URL.
// The transform is idempotent.
func NormalizeImageURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(u, "//"):
		u = "https:" + u
	case !strings.HasPrefix(u, "http"):
		u = "https://" + strings.TrimLeft(u, "/")
	}

	if !imageExtPattern.MatchString(u) {
		u += ".jpg"
	}

	u = sizeSuffixPattern.ReplaceAllString(u, "$1")
	u = thumbSuffixPattern.ReplaceAllStringFunc(u, stripThumbSuffix)
	return u
}

// stripThumbSuffix keeps the original extension of X.jpg_sum.jpg and
// restores the trailing one for X_sum.jpg.
func stripThumbSuffix(m string) string {
	sub := thumbSuffixPattern.FindStringSubmatch(m)
	if sub[1] != "" {
		return sub[1]
	}
	return "." + sub[2]
}

// CanonicalImageURL is NormalizeImageURL for payload values, which may also be
// root-relative paths on the marketplace CDN.
func CanonicalImageURL(raw string) string {
	u := strings.TrimSpace(raw)
	if strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//") {
		u = CDNHost + u
	}
	return NormalizeImageURL(u)
}
