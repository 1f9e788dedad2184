package urlutil

import (
	"regexp"
	"strings"
)

var offerIDPattern = regexp.MustCompile(`offer[/](\d+)`)

// ProductIDFromURL pulls the numeric offer id out of a product URL path.
func ProductIDFromURL(rawURL string) (string, bool) {
	m := offerIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsDetailPage reports whether rawURL looks like a 1688 product detail page.
func IsDetailPage(rawURL string) bool {
	return strings.Contains(rawURL, "detail.1688.com") || strings.Contains(rawURL, "offer")
}

// IsMarketplaceURL reports whether rawURL belongs to 1688.com at all.
func IsMarketplaceURL(rawURL string) bool {
	return strings.Contains(rawURL, "1688.com")
}
