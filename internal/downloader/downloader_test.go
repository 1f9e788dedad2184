package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maialino123/ecomate-extract/internal/retry"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

func testDownloader() *Downloader {
	cfg := retry.DefaultConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond
	return New(Options{Timeout: 5 * time.Second, Retry: cfg})
}

func TestDownload_Success(t *testing.T) {
	var referer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		referer = r.Header.Get("Referer")
		w.Write([]byte("jpeg bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	res := testDownloader().Download(context.Background(), Job{URL: server.URL + "/img/a.jpg", Filename: "main_01.jpg"}, dir)
	if res.Err != nil {
		t.Fatalf("Download() error = %v", res.Err)
	}
	if res.Path != filepath.Join(dir, "main_01.jpg") || res.Size != 10 {
		t.Errorf("Result = %+v", res)
	}
	data, _ := os.ReadFile(res.Path)
	if string(data) != "jpeg bytes" {
		t.Errorf("content = %q", data)
	}
	if referer != Referer {
		t.Errorf("Referer = %q", referer)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, ".part-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestDownload_NotFound(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	dir := t.TempDir()
	res := testDownloader().Download(context.Background(), Job{URL: server.URL + "/missing.jpg"}, dir)
	if res.Err == nil {
		t.Fatal("Download() should fail on 404")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("404 retried %d times", calls)
	}
	if _, err := os.Stat(res.Path); !os.IsNotExist(err) {
		t.Error("failed download left a file")
	}
}

func TestDownloadAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "bad") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(r.URL.Path))
	}))
	defer server.Close()

	jobs := []Job{
		{URL: server.URL + "/1.jpg", Filename: "main_01.jpg"},
		{URL: server.URL + "/bad.jpg", Filename: "main_02.jpg"},
		{URL: server.URL + "/3.png", Filename: "detail_01.png"},
	}
	var done int32
	results := testDownloader().DownloadAll(context.Background(), jobs, t.TempDir(), 2, func(*Result) {
		atomic.AddInt32(&done, 1)
	})

	if len(results) != 3 || atomic.LoadInt32(&done) != 3 {
		t.Fatalf("results = %d, callbacks = %d", len(results), done)
	}
	for i, r := range results {
		if r.Job.URL != jobs[i].URL {
			t.Errorf("results[%d] out of order", i)
		}
	}
	s := Summarize(results)
	if s.Succeeded != 2 || s.Failed != 1 {
		t.Errorf("Summary = %+v", s)
	}
}

func TestJobs(t *testing.T) {
	attrs := models.NewAttributes()
	p := &models.Product1688{
		Images: models.ProductImages{
			Main:   []string{"https://cbu01.alicdn.com/a.jpg", "https://cbu01.alicdn.com/b.png?x=1"},
			Detail: []string{"https://cbu01.alicdn.com/a.jpg", "https://cbu01.alicdn.com/d"},
		},
		SKUs: []models.SKUVariation{
			{SkuID: "5001", Attributes: attrs, Image: "https://cbu01.alicdn.com/s.webp"},
			{Attributes: attrs},
		},
	}

	got := Jobs(p)
	want := []Job{
		{URL: "https://cbu01.alicdn.com/a.jpg", Filename: "main_01.jpg", Kind: KindMain},
		{URL: "https://cbu01.alicdn.com/b.png?x=1", Filename: "main_02.png", Kind: KindMain},
		{URL: "https://cbu01.alicdn.com/d", Filename: "detail_02.jpg", Kind: KindDetail},
		{URL: "https://cbu01.alicdn.com/s.webp", Filename: "sku_5001.webp", Kind: KindSKU},
	}
	if len(got) != len(want) {
		t.Fatalf("Jobs() = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Jobs()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	if only := Jobs(p, KindSKU); len(only) != 1 || only[0].Kind != KindSKU {
		t.Errorf("Jobs(sku) = %+v", only)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"../../etc/passwd", "____etc_passwd"},
		{"main_01.jpg", "main_01.jpg"},
		{"https://cbu01.alicdn.com/img/ibank/O1CN01.jpg", "O1CN01.jpg"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	a := sanitizeFilename("https://cbu01.alicdn.com/a.jpg?v=1")
	b := sanitizeFilename("https://cbu01.alicdn.com/a.jpg?v=2")
	if a == b || !strings.HasSuffix(a, ".jpg") {
		t.Errorf("query variants collide: %q %q", a, b)
	}
}
