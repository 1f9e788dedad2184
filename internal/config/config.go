package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// HTTP/Capture
	HTTPTimeout    time.Duration
	BrowserTimeout time.Duration
	UserAgent      string
	Proxies        []string
	MaxRetries     int
	RespectRobots  bool
	Mode           string

	// Rate Limiting
	RateLimitRPS      float64
	RateLimitBurst    int
	ImageRateLimitRPS float64

	// Browser Pool
	BrowserPoolSize int
	BrowserHeadless bool
	ChromePath      string

	// Caching
	CacheTTL          time.Duration
	CacheMaxSizeBytes int64

	// Page context
	ScriptTimeout time.Duration

	// Output and services
	OutputDir   string
	SettingsDir string
	MCPAddr     string
}

// Default returns a Config populated with the Default* constants.
func Default() *Config {
	return &Config{
		LogLevel:          DefaultLogLevel,
		JSONLog:           DefaultJSONLog,
		HTTPTimeout:       DefaultHTTPTimeout,
		BrowserTimeout:    DefaultBrowserTimeout,
		MaxRetries:        DefaultMaxRetries,
		RespectRobots:     DefaultRespectRobots,
		Mode:              DefaultMode,
		RateLimitRPS:      DefaultRateLimitRPS,
		RateLimitBurst:    DefaultRateLimitBurst,
		ImageRateLimitRPS: DefaultImageRateLimitRPS,
		BrowserPoolSize:   DefaultBrowserPoolSize,
		BrowserHeadless:   DefaultBrowserHeadless,
		CacheTTL:          DefaultCacheTTL,
		CacheMaxSizeBytes: DefaultCacheMaxSizeBytes,
		ScriptTimeout:     DefaultScriptTimeout,
		OutputDir:         DefaultOutputDir,
		MCPAddr:           DefaultMCPAddr,
	}
}

// Load builds a Config by combining defaults, an optional .env file, ECOMATE_*
// environment variables, and CLI flags, in that order of precedence.
// Caller should pass the root *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	envFile := ""
	if cmd != nil {
		if f := cmd.Flags().Lookup("env-file"); f != nil {
			envFile = f.Value.String()
		}
	}
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if cmd != nil {
		if err := applyFlags(cfg, cmd); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadEnvFile loads path, or .env when path is empty. A missing default file
// is not an error; variables already set in the environment win.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var errs []error
	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	integer := func(name string, dst *int) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	float := func(name string, dst *float64) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(name string, dst *bool) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("LOG_LEVEL", &cfg.LogLevel)
	boolean("JSON_LOG", &cfg.JSONLog)
	dur("HTTP_TIMEOUT", &cfg.HTTPTimeout)
	dur("BROWSER_TIMEOUT", &cfg.BrowserTimeout)
	str("USER_AGENT", &cfg.UserAgent)
	if v := os.Getenv(EnvPrefix + "PROXIES"); v != "" {
		cfg.Proxies = splitList(v)
	}
	integer("MAX_RETRIES", &cfg.MaxRetries)
	boolean("RESPECT_ROBOTS", &cfg.RespectRobots)
	str("MODE", &cfg.Mode)
	float("RATE_LIMIT_RPS", &cfg.RateLimitRPS)
	integer("RATE_LIMIT_BURST", &cfg.RateLimitBurst)
	float("IMAGE_RATE_LIMIT_RPS", &cfg.ImageRateLimitRPS)
	integer("BROWSER_POOL_SIZE", &cfg.BrowserPoolSize)
	boolean("BROWSER_HEADLESS", &cfg.BrowserHeadless)
	str("CHROME_PATH", &cfg.ChromePath)
	dur("CACHE_TTL", &cfg.CacheTTL)
	if v := os.Getenv(EnvPrefix + "CACHE_MAX_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCACHE_MAX_BYTES: %w", EnvPrefix, err))
		} else {
			cfg.CacheMaxSizeBytes = n
		}
	}
	dur("SCRIPT_TIMEOUT", &cfg.ScriptTimeout)
	str("OUTPUT_DIR", &cfg.OutputDir)
	str("SETTINGS_DIR", &cfg.SettingsDir)
	str("MCP_ADDR", &cfg.MCPAddr)

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Mode = strings.ToLower(cfg.Mode)
	return errors.Join(errs...)
}

func applyFlags(cfg *Config, cmd *cobra.Command) error {
	flags := cmd.Flags()

	if f := flags.Lookup("user-agent"); f != nil {
		if s := f.Value.String(); s != "" {
			cfg.UserAgent = s
		}
	}
	if f := flags.Lookup("proxy"); f != nil && f.Changed {
		proxies, err := flags.GetStringSlice("proxy")
		if err != nil {
			return err
		}
		cfg.Proxies = proxies
	}
	if f := flags.Lookup("timeout"); f != nil && f.Changed {
		d, err := time.ParseDuration(f.Value.String())
		if err != nil {
			return fmt.Errorf("--timeout: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if f := flags.Lookup("rps"); f != nil && f.Changed {
		rps, err := flags.GetFloat64("rps")
		if err != nil {
			return err
		}
		cfg.RateLimitRPS = rps
	}
	if f := flags.Lookup("robots"); f != nil && f.Changed {
		cfg.RespectRobots = f.Value.String() == "true"
	}
	if f := flags.Lookup("json"); f != nil {
		if f.Value.String() == "true" {
			cfg.JSONLog = true
		}
	}
	if f := flags.Lookup("quiet"); f != nil {
		if f.Value.String() == "true" {
			cfg.LogLevel = "error"
		}
	}
	if f := flags.Lookup("verbose"); f != nil {
		if f.Value.String() == "true" {
			cfg.LogLevel = "debug"
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
