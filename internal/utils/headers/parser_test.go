package headers

import (
	"net/http"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	out, err := Parse([]string{"user-agent: Bot", "Accept: text/html", "Referer: https://s.1688.com/x?a=b:c"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	expected := map[string]string{
		"User-Agent": "Bot",
		"Accept":     "text/html",
		"Referer":    "https://s.1688.com/x?a=b:c",
	}
	if !reflect.DeepEqual(out, expected) {
		t.Fatalf("unexpected parse result: %#v", out)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"BadHeader", ": value"} {
		if _, err := Parse([]string{in}); err == nil {
			t.Errorf("Parse(%q) should fail", in)
		}
	}
}

func TestBrowserAndApply(t *testing.T) {
	h := Browser("")
	if h.Get("User-Agent") != DefaultUserAgent {
		t.Errorf("User-Agent = %q", h.Get("User-Agent"))
	}

	req, _ := http.NewRequest(http.MethodGet, "https://detail.1688.com/", nil)
	req.Header = h
	Apply(req, map[string]string{"User-Agent": "custom"})
	if req.Header.Get("User-Agent") != "custom" {
		t.Errorf("Apply() did not override User-Agent")
	}
}
