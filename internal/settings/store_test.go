package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestStore_KeyringRoundTrip(t *testing.T) {
	keyring.MockInit()
	t.Setenv("CI", "")
	t.Setenv("CODESPACES", "")

	s := NewStore(t.TempDir())
	st, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st.APIURL != DefaultAPIURL {
		t.Errorf("default APIURL = %q", st.APIURL)
	}

	if err := s.Set(KeyAPIURL, "https://api.ecomate.example"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get(KeyAPIURL)
	if err != nil || got != "https://api.ecomate.example" {
		t.Errorf("Get() = %q, %v", got, err)
	}
	if s.fileBacked() {
		t.Error("mock keyring should be used")
	}
}

func TestStore_FileFallback(t *testing.T) {
	t.Setenv("CI", "true")
	dir := t.TempDir()

	s := NewStore(dir)
	if err := s.Set(KeyAPIURL, "http://10.0.0.5:3000"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, fileName))
	if err != nil {
		t.Fatalf("settings file missing: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v", info.Mode().Perm())
	}

	got, _ := NewStore(dir).Get(KeyAPIURL)
	if got != "http://10.0.0.5:3000" {
		t.Errorf("reloaded APIURL = %q", got)
	}
}

func TestStore_Rejects(t *testing.T) {
	t.Setenv("CI", "true")
	s := NewStore(t.TempDir())

	if err := s.Set(KeyAPIURL, "localhost:3000"); err == nil {
		t.Error("URL without scheme accepted")
	}
	if err := s.Set("theme", "dark"); err == nil {
		t.Error("unknown key accepted")
	}
	if _, err := s.Get("theme"); err == nil {
		t.Error("unknown key readable")
	}
}
