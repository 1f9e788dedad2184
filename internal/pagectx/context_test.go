package pagectx

import (
	"testing"
	"time"

	"github.com/maialino123/ecomate-extract/pkg/models"
)

const testPage = `<!DOCTYPE html>
<html>
<head>
	<title>Quality Widget - 1688.com</title>
	<meta property="og:title" content="OG Widget">
	<script src="https://g.alicdn.com/app.js"></script>
	<script>window.__INITIAL_STATE__ = {"offerId": "725123406270", "subject": "Test Widget"};</script>
	<script>var detailData = {offerId: 1, price: "5.20"};</script>
	<script>const offerData = {"id": "x"};</script>
	<script>document.getElementById("app").innerHTML = "boom";</script>
	<script type="application/json">{"offerId": "1", "title": "From JSON"}</script>
</head>
<body><div class="price">¥9.99</div></body>
</html>`

func TestContext_Globals(t *testing.T) {
	pc, err := New("https://detail.1688.com/offer/725123406270.html", testPage)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	state, ok := pc.Global("__INITIAL_STATE__")
	if !ok {
		t.Fatalf("expected __INITIAL_STATE__ to be found")
	}
	m, ok := state.(map[string]any)
	if !ok || m["subject"] != "Test Widget" {
		t.Errorf("unexpected __INITIAL_STATE__: %#v", state)
	}

	detail, ok := pc.Global("detailData")
	if !ok {
		t.Fatalf("expected var declaration to be visible as a global")
	}
	if dm := detail.(map[string]any); dm["offerId"] != float64(1) {
		t.Errorf("numbers should decode as float64, got %#v", dm["offerId"])
	}

	if _, ok := pc.Global("offerData"); !ok {
		t.Errorf("expected top-level const binding to be found")
	}

	if _, ok := pc.Global("doesNotExist"); ok {
		t.Errorf("missing global should not be found")
	}
}

func TestContext_Scripts(t *testing.T) {
	pc, err := New("https://detail.1688.com/offer/1.html", testPage)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if got := len(pc.JSONScripts()); got != 1 {
		t.Errorf("expected 1 JSON script, got %d", got)
	}
	// the JSON script has no src either
	if got := len(pc.InlineScripts()); got != 5 {
		t.Errorf("expected 5 inline scripts, got %d", got)
	}
	if got := pc.Count("script"); got != 6 {
		t.Errorf("expected 6 scripts, got %d", got)
	}
}

func TestContext_DOM(t *testing.T) {
	pc, err := New("https://detail.1688.com/offer/1.html", testPage)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if pc.Title() != "Quality Widget - 1688.com" {
		t.Errorf("Title() = %q", pc.Title())
	}
	if pc.Meta("og:title") != "OG Widget" {
		t.Errorf("Meta(og:title) = %q", pc.Meta("og:title"))
	}
	if pc.Find(".price").Text() != "¥9.99" {
		t.Errorf("Find(.price) = %q", pc.Find(".price").Text())
	}
	if n := pc.Count("[[[invalid"); n != 0 {
		t.Errorf("invalid selector should match nothing, got %d", n)
	}
}

func TestContext_ScriptTimeout(t *testing.T) {
	html := `<html><head>
		<script>while (true) {}</script>
		<script>var offerData = {"offerId": "2"};</script>
	</head></html>`

	pc, err := New("https://detail.1688.com/offer/2.html", html, WithScriptTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	start := time.Now()
	if _, ok := pc.Global("offerData"); !ok {
		t.Errorf("script after a runaway script should still run")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("runaway script was not interrupted (took %v)", elapsed)
	}
}

func TestContext_GlobalLookupTimeout(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"looping toJSON", `window.__INITIAL_STATE__ = {toJSON: function() { while (true) {} }};`},
		{"looping getter", `window.__INITIAL_STATE__ = {}; Object.defineProperty(window.__INITIAL_STATE__, "offerId", {enumerable: true, get: function() { while (true) {} }});`},
		{"looping global getter", `Object.defineProperty(window, "__INITIAL_STATE__", {get: function() { while (true) {} }});`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := "<html><head><script>" + tt.script + "</script></head></html>"
			pc, err := New("https://detail.1688.com/offer/3.html", html, WithScriptTimeout(50*time.Millisecond))
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			done := make(chan bool, 1)
			go func() {
				_, ok := pc.Global("__INITIAL_STATE__")
				done <- ok
			}()

			select {
			case ok := <-done:
				if ok {
					t.Error("Global() found a value whose serialization never finishes")
				}
			case <-time.After(5 * time.Second):
				t.Fatal("Global() lookup was not interrupted")
			}

			if _, ok := pc.Global("missing"); ok {
				t.Error("runtime still interrupted after a timed-out lookup")
			}
		})
	}
}

func TestFromSnapshot_LiveGlobals(t *testing.T) {
	snap := &models.PageSnapshot{
		URL:  "https://detail.1688.com/offer/3.html",
		HTML: `<html><script>window.__INITIAL_STATE__ = {"offerId": "sandbox"};</script></html>`,
		Globals: map[string]any{
			"__INITIAL_STATE__": map[string]any{"offerId": "live"},
		},
	}

	pc, err := FromSnapshot(snap)
	if err != nil {
		t.Fatalf("FromSnapshot failed: %v", err)
	}

	v, ok := pc.Global("__INITIAL_STATE__")
	if !ok {
		t.Fatalf("expected live global")
	}
	if v.(map[string]any)["offerId"] != "live" {
		t.Errorf("live globals should win over the sandbox, got %#v", v)
	}
	if _, ok := pc.Global("detailData"); ok {
		t.Errorf("globals not captured live are absent")
	}
}
