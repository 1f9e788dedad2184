package downloader

import (
	"fmt"
	"path"
	"strings"

	"github.com/maialino123/ecomate-extract/pkg/models"
)

// Kind tells where on the offer page an image came from.
type Kind string

const (
	KindMain   Kind = "main"
	KindDetail Kind = "detail"
	KindSKU    Kind = "sku"
)

// Job is one image to fetch.
type Job struct {
	URL      string
	Filename string
	Kind     Kind
}

// Jobs lists the product's images as main_NN, detail_NN and sku_<id> files.
// An image appearing in several places is fetched once, under its first name.
func Jobs(p *models.Product1688, kinds ...Kind) []Job {
	want := func(k Kind) bool {
		if len(kinds) == 0 {
			return true
		}
		for _, x := range kinds {
			if x == k {
				return true
			}
		}
		return false
	}

	seen := make(map[string]bool)
	var jobs []Job
	add := func(u string, k Kind, stem string) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		jobs = append(jobs, Job{URL: u, Kind: k, Filename: stem + imageExt(u)})
	}

	if want(KindMain) {
		for i, u := range p.Images.Main {
			add(u, KindMain, fmt.Sprintf("main_%02d", i+1))
		}
	}
	if want(KindDetail) {
		for i, u := range p.Images.Detail {
			add(u, KindDetail, fmt.Sprintf("detail_%02d", i+1))
		}
	}
	if want(KindSKU) {
		for i, s := range p.SKUs {
			id := s.SkuID
			if id == "" {
				id = fmt.Sprintf("%02d", i+1)
			}
			add(s.Image, KindSKU, "sku_"+sanitizeFilename(id))
		}
	}
	return jobs
}

func imageExt(rawURL string) string {
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch ext := strings.ToLower(path.Ext(p)); ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
		return ext
	}
	return ".jpg"
}
