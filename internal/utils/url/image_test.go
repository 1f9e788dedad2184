package urlutil

import "testing"

func TestNormalizeImageURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://cbu01.alicdn.com/x_50x50.jpg", "https://cbu01.alicdn.com/x.jpg"},
		{"//cbu01.alicdn.com/img/a_60x60.png", "https://cbu01.alicdn.com/img/a.png"},
		{"//cdn/img1", "https://cdn/img1.jpg"},
		{"cbu01.alicdn.com/img/a.jpg", "https://cbu01.alicdn.com/img/a.jpg"},
		{"https://cbu01.alicdn.com/O1CN01.jpg_220x220.jpg", "https://cbu01.alicdn.com/O1CN01.jpg"},
		{"https://cbu01.alicdn.com/O1CN01.png_400x400", "https://cbu01.alicdn.com/O1CN01.png"},
		{"https://cbu01.alicdn.com/a_sum.webp", "https://cbu01.alicdn.com/a.webp"},
		{"//cbu01.alicdn.com/img/ibank/a.jpg_50x50.jpg", "https://cbu01.alicdn.com/img/ibank/a.jpg"},
		{"https://cbu01.alicdn.com/a.png_60x60.jpg", "https://cbu01.alicdn.com/a.png"},
		{"https://cbu01.alicdn.com/a.jpg_sum.jpg", "https://cbu01.alicdn.com/a.jpg"},
		{"https://cbu01.alicdn.com/a_thumbnail.jpg?x=1", "https://cbu01.alicdn.com/a.jpg?x=1"},
		{"  https://cbu01.alicdn.com/a.gif  ", "https://cbu01.alicdn.com/a.gif"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeImageURL(tt.in); got != tt.want {
				t.Errorf("NormalizeImageURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeImageURL_Idempotent(t *testing.T) {
	inputs := []string{
		"https://cbu01.alicdn.com/x_50x50.jpg",
		"//cbu01.alicdn.com/x",
		"cbu01.alicdn.com/x_50x50",
		"http://cbu01.alicdn.com/x.jpg_100x100.jpg",
		"https://cbu01.alicdn.com/x_50x50_60x60.png",
		"https://cbu01.alicdn.com/x?size=big",
		"/img/ibank/x_sum",
		"https://cbu01.alicdn.com/x.webp_1x1q90.jpg",
		"//cbu01.alicdn.com/img/ibank/a.jpg_50x50.jpg",
		"https://cbu01.alicdn.com/a.jpg_sum.jpg",
	}

	for _, in := range inputs {
		once := NormalizeImageURL(in)
		twice := NormalizeImageURL(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestCanonicalImageURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/img/ibank/O1CN01abc.jpg", "https://cbu01.alicdn.com/img/ibank/O1CN01abc.jpg"},
		{"//cdn/img1", "https://cdn/img1.jpg"},
		{"https://cbu01.alicdn.com/a.jpg", "https://cbu01.alicdn.com/a.jpg"},
	}

	for _, tt := range tests {
		if got := CanonicalImageURL(tt.in); got != tt.want {
			t.Errorf("CanonicalImageURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
