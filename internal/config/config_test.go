package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func newCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v) error = %v", args, err)
	}
	return cmd
}

// chdir moves into an empty directory so a stray .env does not leak in.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)
	cfg, err := Load(newCmd(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel || cfg.HTTPTimeout != DefaultHTTPTimeout || cfg.Mode != DefaultMode {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if cfg.BrowserPoolSize != DefaultBrowserPoolSize || !cfg.BrowserHeadless {
		t.Errorf("browser defaults = %d, %v", cfg.BrowserPoolSize, cfg.BrowserHeadless)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("ECOMATE_LOG_LEVEL", "WARN")
	t.Setenv("ECOMATE_PROXIES", "http://a:1, socks5://b:2,")
	t.Setenv("ECOMATE_BROWSER_POOL_SIZE", "4")
	t.Setenv("ECOMATE_CACHE_TTL", "1m")
	t.Setenv("ECOMATE_RESPECT_ROBOTS", "true")

	cfg, err := Load(newCmd(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if len(cfg.Proxies) != 2 || cfg.Proxies[1] != "socks5://b:2" {
		t.Errorf("Proxies = %v", cfg.Proxies)
	}
	if cfg.BrowserPoolSize != 4 || cfg.CacheTTL != time.Minute || !cfg.RespectRobots {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestLoad_FlagsWinOverEnv(t *testing.T) {
	chdir(t)
	t.Setenv("ECOMATE_USER_AGENT", "from-env")
	t.Setenv("ECOMATE_HTTP_TIMEOUT", "10s")

	cfg, err := Load(newCmd(t, "--user-agent", "from-flag", "--timeout", "5s", "-v", "--proxy", "http://p:1"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UserAgent != "from-flag" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if len(cfg.Proxies) != 1 {
		t.Errorf("Proxies = %v", cfg.Proxies)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := chdir(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ECOMATE_MODE=static\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	os.Unsetenv("ECOMATE_MODE")
	t.Cleanup(func() { os.Unsetenv("ECOMATE_MODE") })

	cfg, err := Load(newCmd(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != "static" {
		t.Errorf("Mode = %q, want static from .env", cfg.Mode)
	}
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	chdir(t)
	if _, err := Load(newCmd(t, "--env-file", "nope.env")); err == nil {
		t.Error("Load() accepted a missing --env-file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"bad duration", "ECOMATE_HTTP_TIMEOUT", "soon", "ECOMATE_HTTP_TIMEOUT"},
		{"bad int", "ECOMATE_BROWSER_POOL_SIZE", "many", "ECOMATE_BROWSER_POOL_SIZE"},
		{"pool too large", "ECOMATE_BROWSER_POOL_SIZE", "99", "browser pool size"},
		{"unknown mode", "ECOMATE_MODE", "turbo", "mode must be"},
		{"unknown level", "ECOMATE_LOG_LEVEL", "loud", "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load(newCmd(t))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
