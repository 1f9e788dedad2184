package output

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	urlutil "github.com/maialino123/ecomate-extract/internal/utils/url"
)

// CleanHTML strips scripts, styles and form controls from an offer
// description, keeping only link and image attributes. Lazy images get their
// data-src promoted to src.
func CleanHTML(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, link, meta, noscript, iframe, svg, form, input, button, select, textarea, canvas").Remove()

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("data-src"); ok && src != "" {
			s.SetAttr("src", src)
		}
		if src, ok := s.Attr("src"); ok && src != "" {
			s.SetAttr("src", urlutil.CanonicalImageURL(src))
		}
	})

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Nodes[0]
		var kept []html.Attribute
		for _, attr := range node.Attr {
			switch {
			case node.Data == "a" && (attr.Key == "href" || attr.Key == "title"):
			case node.Data == "img" && (attr.Key == "src" || attr.Key == "alt"):
			default:
				continue
			}
			kept = append(kept, attr)
		}
		node.Attr = kept
	})

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(body), nil
}
