// Package pagectx gives read-only access to one captured marketplace page:
// global-scope objects, script tags and DOM queries. Absence is always reported
// as "not found", never as an error.
package pagectx

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/rs/zerolog/log"

	"github.com/maialino123/ecomate-extract/pkg/models"
)

// GlobalSource resolves named global-scope objects.
type GlobalSource interface {
	Lookup(name string) (any, bool)
}

// StaticGlobals are globals already evaluated elsewhere, e.g. in a live browser.
type StaticGlobals map[string]any

// Lookup implements GlobalSource.
func (g StaticGlobals) Lookup(name string) (any, bool) {
	v, ok := g[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Option configures a Context.
type Option func(*Context)

// WithGlobals replaces the global resolver.
func WithGlobals(src GlobalSource) Option {
	return func(c *Context) { c.globals = src }
}

// WithScriptTimeout bounds each inline script run by the sandbox.
func WithScriptTimeout(d time.Duration) Option {
	return func(c *Context) { c.scriptTimeout = d }
}

// Context is an immutable view of one page.
type Context struct {
	url           string
	doc           *goquery.Document
	globals       GlobalSource
	scriptTimeout time.Duration

	jsonScripts   []string
	inlineScripts []string
}

// New parses html captured from pageURL.
func New(pageURL, html string, opts ...Option) (*Context, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	c := &Context{url: pageURL, doc: doc}
	for _, opt := range opts {
		opt(c)
	}

	c.doc.Find(`script[type="application/json"]`).Each(func(_ int, s *goquery.Selection) {
		c.jsonScripts = append(c.jsonScripts, s.Text())
	})
	c.doc.Find("script:not([src])").Each(func(_ int, s *goquery.Selection) {
		c.inlineScripts = append(c.inlineScripts, s.Text())
	})

	if c.globals == nil {
		c.globals = NewSandbox(pageURL, c.inlineScripts, c.scriptTimeout)
	}

	log.Debug().
		Str("url", pageURL).
		Int("json_scripts", len(c.jsonScripts)).
		Int("inline_scripts", len(c.inlineScripts)).
		Msg("Page context ready")

	return c, nil
}

// FromSnapshot builds a Context from a captured page. Globals evaluated during a
// live capture take precedence over the sandbox.
func FromSnapshot(snap *models.PageSnapshot, opts ...Option) (*Context, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	if snap.Globals != nil {
		opts = append([]Option{WithGlobals(StaticGlobals(snap.Globals))}, opts...)
	}
	return New(snap.URL, snap.HTML, opts...)
}

// URL returns the page address.
func (c *Context) URL() string {
	return c.url
}

// Title returns the document title.
func (c *Context) Title() string {
	return strings.TrimSpace(c.doc.Find("title").First().Text())
}

// Meta returns the content of a meta tag by property or name.
func (c *Context) Meta(key string) string {
	sel := c.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, key, key)).First()
	content, _ := sel.Attr("content")
	return strings.TrimSpace(content)
}

// Global looks up a named global-scope object.
func (c *Context) Global(name string) (any, bool) {
	return c.globals.Lookup(name)
}

// JSONScripts returns the text of every script[type="application/json"].
func (c *Context) JSONScripts() []string {
	return c.jsonScripts
}

// InlineScripts returns the text of every script without a src attribute.
func (c *Context) InlineScripts() []string {
	return c.inlineScripts
}

// Find runs a CSS selector; an invalid selector matches nothing.
func (c *Context) Find(selector string) *goquery.Selection {
	m, err := cascadia.Compile(selector)
	if err != nil {
		log.Debug().Str("selector", selector).Err(err).Msg("Invalid selector")
		return c.doc.FindNodes()
	}
	return c.doc.FindMatcher(m)
}

// Count returns the number of elements matching selector.
func (c *Context) Count(selector string) int {
	return c.Find(selector).Length()
}
