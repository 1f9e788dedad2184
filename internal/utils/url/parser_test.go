package urlutil

import "testing"

func TestValidate(t *testing.T) {
	valid := []string{
		"http://example.com",
		"https://detail.1688.com/offer/725123406270.html",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Fatalf("expected valid, got error: %v", err)
		}
	}

	invalid := []string{"ftp://example.com", "//example.com", "http:///"}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Fatalf("expected invalid for %s", u)
		}
	}
}

func TestResolveURL(t *testing.T) {
	got := ResolveURL("https://detail.1688.com/offer/1.html", "/page/contactinfo.htm")
	if got != "https://detail.1688.com/page/contactinfo.htm" {
		t.Errorf("ResolveURL = %q", got)
	}
	if got := ResolveURL("https://a.com/", "https://b.com/x"); got != "https://b.com/x" {
		t.Errorf("absolute href should be unchanged, got %q", got)
	}
}

func TestProductIDFromURL(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://detail.1688.com/offer/725123406270.html", "725123406270", true},
		{"https://detail.1688.com/offer/725123406270.html?spm=a26352", "725123406270", true},
		{"https://m.1688.com/offer/123.html", "123", true},
		{"https://detail.1688.com/offers/abc.html", "", false},
		{"https://www.1688.com/", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := ProductIDFromURL(tt.url)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ProductIDFromURL() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsDetailPage(t *testing.T) {
	if !IsDetailPage("https://detail.1688.com/page.html") {
		t.Error("detail host should be accepted")
	}
	if !IsDetailPage("https://m.1688.com/offer/1.html") {
		t.Error("offer path should be accepted")
	}
	if !IsDetailPage("https://s.1688.com/selloffer/search.htm") {
		t.Error("any URL mentioning offer is accepted")
	}
	if IsDetailPage("https://www.1688.com/") {
		t.Error("home page must be rejected")
	}
}
