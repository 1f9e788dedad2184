package extract

import (
	"testing"

	"github.com/maialino123/ecomate-extract/internal/pagectx"
)

func tiersOf(t *testing.T, v any) [][2]float64 {
	t.Helper()
	list, ok := v.([]any)
	if !ok {
		t.Fatalf("priceRange = %#v, want a list", v)
	}
	var out [][2]float64
	for _, item := range list {
		m := item.(map[string]any)
		out = append(out, [2]float64{m["minQty"].(float64), m["price"].(float64)})
	}
	return out
}

func TestScrapeDOM_SynthesizedTier(t *testing.T) {
	pc := newPage(t, `
		<h1>Stainless Steel Water Bottle</h1>
		<img src="https://cbu01.alicdn.com/img/a.jpg">
		<span class="price">15.00</span>
		<span class="price">9.99</span>
		<span class="price">12.00</span>
	`)

	rec, err := ScrapeDOM(pc)
	if err != nil {
		t.Fatalf("ScrapeDOM() error = %v", err)
	}

	tiers := tiersOf(t, rec["priceRange"])
	if len(tiers) != 1 || tiers[0] != [2]float64{1, 9.99} {
		t.Errorf("tiers = %v, want [[1 9.99]]", tiers)
	}
	if rec["price"] != 9.99 {
		t.Errorf("price = %v, want 9.99", rec["price"])
	}
	if rec["_extractionMethod"] != MethodDOM {
		t.Errorf("_extractionMethod = %v", rec["_extractionMethod"])
	}
	if rec["offerId"] != "725123406270" || rec["productId"] != "725123406270" {
		t.Errorf("ids = %v, %v", rec["offerId"], rec["productId"])
	}
}

func TestScrapeDOM_FallbackPage(t *testing.T) {
	pc := newPage(t, `
		<h1>Quality Widget For Sale Now</h1>
		<img src="https://cbu01.alicdn.com/x_50x50.jpg">
		<img src="https://cbu01.alicdn.com/x_50x50.jpg">
		<img src="https://cbu01.alicdn.com/x_50x50.jpg">
		<div class="price">¥12.50</div>
		<div class="price">¥9.99</div>
	`)

	rec, err := DefaultChain().Extract(pc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if rec["title"] != "Quality Widget For Sale Now" {
		t.Errorf("title = %v", rec["title"])
	}
	images := rec["images"].([]any)
	if len(images) != 1 || images[0] != "https://cbu01.alicdn.com/x.jpg" {
		t.Errorf("images = %v", images)
	}
	if tiers := tiersOf(t, rec["priceRange"]); len(tiers) != 1 || tiers[0] != [2]float64{1, 9.99} {
		t.Errorf("tiers = %v", tiers)
	}
}

func TestScrapeDOM_GalleryThumbnails(t *testing.T) {
	pc := newPage(t, `
		<h1>Stainless Steel Water Bottle</h1>
		<div class="detail-gallery">
			<img src="//cbu01.alicdn.com/img/ibank/O1CN01abc.jpg_50x50.jpg">
			<img src="//cbu01.alicdn.com/img/ibank/O1CN01abc.jpg_220x220.jpg">
		</div>
		<span class="price">9.99</span>
	`)

	rec, err := ScrapeDOM(pc)
	if err != nil {
		t.Fatalf("ScrapeDOM() error = %v", err)
	}

	images := rec["images"].([]any)
	if len(images) != 1 || images[0] != "https://cbu01.alicdn.com/img/ibank/O1CN01abc.jpg" {
		t.Errorf("images = %v, want the single full-size photo", images)
	}
}

func TestScrapeDOM_TierRowsSorted(t *testing.T) {
	pc := newPage(t, `
		<h1>Stainless Steel Water Bottle</h1>
		<img data-src="//cbu01.alicdn.com/img/lazy.jpg">
		<table class="price-table">
			<tr><td>≥100</td><td>¥10.00</td></tr>
			<tr><td>1件</td><td>¥12.50</td></tr>
		</table>
	`)

	rec, err := ScrapeDOM(pc)
	if err != nil {
		t.Fatalf("ScrapeDOM() error = %v", err)
	}

	tiers := tiersOf(t, rec["priceRange"])
	want := [][2]float64{{1, 12.5}, {100, 10}}
	if len(tiers) != len(want) {
		t.Fatalf("tiers = %v, want %v", tiers, want)
	}
	for i := range want {
		if tiers[i] != want[i] {
			t.Errorf("tier %d = %v, want %v", i, tiers[i], want[i])
		}
	}

	images := rec["images"].([]any)
	if len(images) != 1 || images[0] != "https://cbu01.alicdn.com/img/lazy.jpg" {
		t.Errorf("images = %v", images)
	}
}

func TestScrapeDOM_TitleFallbacks(t *testing.T) {
	tests := []struct {
		name string
		head string
		body string
		want string
	}{
		{
			name: "title class wins over h1",
			body: `<div class="offer-title"> Offer Title </div><h1>Some Longer Heading Text</h1>`,
			want: "Offer Title",
		},
		{
			name: "short h1 skipped",
			body: `<h1>Shop</h1><h1>Product Heading Here</h1>`,
			want: "Product Heading Here",
		},
		{
			name: "og title",
			head: `<meta property="og:title" content="Meta Title">`,
			want: "Meta Title",
		},
		{
			name: "document title segment",
			head: `<title>Ceramic Mug_Wholesale - 1688.com</title>`,
			want: "Ceramic Mug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := "<html><head>" + tt.head + "</head><body>" + tt.body +
				`<img src="https://cbu01.alicdn.com/a.jpg"><span class="price">5</span></body></html>`
			pc, err := pagectx.New(offerURL, html)
			if err != nil {
				t.Fatal(err)
			}
			rec, err := ScrapeDOM(pc)
			if err != nil {
				t.Fatalf("ScrapeDOM() error = %v", err)
			}
			if rec["title"] != tt.want {
				t.Errorf("title = %q, want %q", rec["title"], tt.want)
			}
		})
	}
}

func TestScrapeDOM_Failures(t *testing.T) {
	const images = `<img src="https://cbu01.alicdn.com/a.jpg">`
	const title = `<h1>Stainless Steel Water Bottle</h1>`
	const price = `<span class="price">5</span>`

	tests := []struct {
		name string
		url  string
		body string
		want string
	}{
		{"no product id", "https://detail.1688.com/item.html", title + images + price, "Could not extract product ID from URL"},
		{"no title", offerURL, images + price, "Could not extract product title from DOM"},
		{"no images", offerURL, title + price, "Could not find product images"},
		{"no price", offerURL, title + images, "Could not extract price from DOM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, err := pagectx.New(tt.url, "<html><body>"+tt.body+"</body></html>")
			if err != nil {
				t.Fatal(err)
			}
			_, err = ScrapeDOM(pc)
			if err == nil || err.Error() != tt.want {
				t.Errorf("ScrapeDOM() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestScrapeDOM_Supplier(t *testing.T) {
	pc := newPage(t, `
		<h1>Stainless Steel Water Bottle</h1>
		<img src="https://cbu01.alicdn.com/a.jpg">
		<span class="price">5</span>
		<div class="company-name"> Yiwu Trading Co. </div>
		<a href="https://shop12345.1688.com/">Visit shop</a>
	`)

	rec, err := ScrapeDOM(pc)
	if err != nil {
		t.Fatalf("ScrapeDOM() error = %v", err)
	}
	if rec["sellerName"] != "Yiwu Trading Co." || rec["companyName"] != "Yiwu Trading Co." {
		t.Errorf("supplier name = %v", rec["sellerName"])
	}
	if rec["sellerId"] != "12345" {
		t.Errorf("sellerId = %v, want 12345", rec["sellerId"])
	}
}
