package app

import (
	"context"
	"testing"

	"github.com/maialino123/ecomate-extract/internal/config"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()
	cfg := config.Default()
	cfg.SettingsDir = t.TempDir()
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestFetcherFor(t *testing.T) {
	a := newTestApp(t)

	tests := []struct {
		mode    models.FetchMode
		want    string
		wantErr bool
	}{
		{"", "auto", false},
		{models.ModeAuto, "auto", false},
		{models.ModeStatic, "static", false},
		{models.ModeBrowser, "browser", false},
		{"turbo", "", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			f, err := a.FetcherFor(tt.mode)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FetcherFor(%q) error = %v", tt.mode, err)
			}
			if err == nil && f.Name() != tt.want {
				t.Errorf("FetcherFor(%q).Name() = %q, want %q", tt.mode, f.Name(), tt.want)
			}
		})
	}
}

func TestNew_InvalidProxy(t *testing.T) {
	cfg := config.Default()
	cfg.Proxies = []string{"ftp://proxy:21"}
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("New() accepted an ftp proxy")
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(context.Background(), nil); err == nil {
		t.Error("New(nil) succeeded")
	}
}

func TestClose_WithoutBrowser(t *testing.T) {
	a := newTestApp(t)
	if err := a.Browser.Close(); err != nil {
		t.Errorf("closing an unused browser fetcher = %v", err)
	}
}
