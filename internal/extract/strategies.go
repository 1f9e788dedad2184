package extract

import (
	"encoding/json"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/maialino123/ecomate-extract/internal/pagectx"
	"github.com/maialino123/ecomate-extract/internal/rawval"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

var inlinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)var\s+__INITIAL_STATE__\s*=\s*(\{.+?\});`),
	regexp.MustCompile(`(?s)var\s+detailData\s*=\s*(\{.+?\});`),
	regexp.MustCompile(`(?s)var\s+offerData\s*=\s*(\{.+?\});`),
	regexp.MustCompile(`(?s)const\s+__INITIAL_STATE__\s*=\s*(\{.+?\});`),
	regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(\{.+?\});`),
}

// FromGlobal reads a named global-scope object.
func FromGlobal(name string) Strategy {
	return Strategy{
		Name: "window." + name,
		Extract: func(pc *pagectx.Context) (models.RawRecord, bool) {
			v, ok := pc.Global(name)
			if !ok {
				return nil, false
			}
			return record(v)
		},
	}
}

// FromJSONScripts parses every script[type="application/json"] tag.
func FromJSONScripts() Strategy {
	return Strategy{
		Name: "json-script",
		Extract: func(pc *pagectx.Context) (models.RawRecord, bool) {
			for _, text := range pc.JSONScripts() {
				var v any
				if err := json.Unmarshal([]byte(text), &v); err != nil {
					continue
				}
				if rec, ok := record(v); ok {
					return rec, true
				}
			}
			return nil, false
		},
	}
}

// FromInlineScripts looks for object literals assigned to the known globals
// inside inline scripts. Only bodies that are valid JSON count.
func FromInlineScripts() Strategy {
	return Strategy{
		Name: "inline-script",
		Extract: func(pc *pagectx.Context) (models.RawRecord, bool) {
			for _, text := range pc.InlineScripts() {
				for _, re := range inlinePatterns {
					m := re.FindStringSubmatch(text)
					if m == nil {
						continue
					}
					var v any
					if err := json.Unmarshal([]byte(m[1]), &v); err != nil {
						continue
					}
					if rec, ok := record(v); ok {
						return rec, true
					}
				}
			}
			return nil, false
		},
	}
}

// FromDOM scrapes visible page elements. Its failure reason stays in the
// debug log.
func FromDOM() Strategy {
	return Strategy{
		Name: "dom-scraping",
		Extract: func(pc *pagectx.Context) (models.RawRecord, bool) {
			rec, err := ScrapeDOM(pc)
			if err != nil {
				log.Debug().Err(err).Str("url", pc.URL()).Msg("DOM scraping failed")
				return nil, false
			}
			return rec, true
		},
	}
}

func anyPresent(m map[string]any, keys ...string) bool {
	_, ok := rawval.Lookup(m, keys...)
	return ok
}
