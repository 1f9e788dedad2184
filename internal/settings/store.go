// Package settings persists user preferences in the OS keyring, falling back
// to a file where no keyring is available (CI, containers).
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"

	urlutil "github.com/maialino123/ecomate-extract/internal/utils/url"
)

const (
	// KeyringService namespaces our keyring entries.
	KeyringService = "ecomate-extract"
	keyringUser    = "settings"
	fileName       = "settings.json"

	// DefaultAPIURL is the local ecomate backend.
	DefaultAPIURL = "http://localhost:3000"
)

// KeyAPIURL is the only user-settable key.
const KeyAPIURL = "api-url"

// Settings are the persisted preferences.
type Settings struct {
	APIURL string `json:"apiUrl"`
}

// Default returns settings used before anything is saved.
func Default() Settings {
	return Settings{APIURL: DefaultAPIURL}
}

// Store loads and saves Settings.
type Store struct {
	dir string

	once    sync.Once
	useFile bool
}

// NewStore returns a store whose file fallback lives in dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir is ~/.ecomate.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ecomate"
	}
	return filepath.Join(home, ".ecomate")
}

func (s *Store) fileBacked() bool {
	s.once.Do(func() {
		if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
			s.useFile = true
			return
		}
		const probe = "_probe_"
		if err := keyring.Set(KeyringService, probe, "1"); err != nil {
			log.Debug().Err(err).Msg("Keyring unavailable, using settings file")
			s.useFile = true
			return
		}
		_ = keyring.Delete(KeyringService, probe)
	})
	return s.useFile
}

// Load returns the saved settings merged over the defaults.
func (s *Store) Load() (Settings, error) {
	out := Default()

	var data []byte
	if s.fileBacked() {
		b, err := os.ReadFile(filepath.Join(s.dir, fileName))
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("read settings file: %w", err)
		}
		data = b
	} else {
		v, err := keyring.Get(KeyringService, keyringUser)
		if errors.Is(err, keyring.ErrNotFound) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("read keyring: %w", err)
		}
		data = []byte(v)
	}

	var saved Settings
	if err := json.Unmarshal(data, &saved); err != nil {
		return out, fmt.Errorf("decode settings: %w", err)
	}
	if saved.APIURL != "" {
		out.APIURL = saved.APIURL
	}
	return out, nil
}

// Save validates and persists st.
func (s *Store) Save(st Settings) error {
	if err := urlutil.ValidateURL(st.APIURL); err != nil {
		return fmt.Errorf("apiUrl: %w", err)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	if s.fileBacked() {
		if err := os.MkdirAll(s.dir, 0o700); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
		return os.WriteFile(filepath.Join(s.dir, fileName), data, 0o600)
	}
	if err := keyring.Set(KeyringService, keyringUser, string(data)); err != nil {
		return fmt.Errorf("write keyring: %w", err)
	}
	return nil
}

// Get returns one setting by its command-line key.
func (s *Store) Get(key string) (string, error) {
	st, err := s.Load()
	if err != nil {
		return "", err
	}
	switch key {
	case KeyAPIURL:
		return st.APIURL, nil
	}
	return "", fmt.Errorf("unknown setting %q", key)
}

// Set updates one setting by its command-line key.
func (s *Store) Set(key, value string) error {
	st, err := s.Load()
	if err != nil {
		return err
	}
	switch key {
	case KeyAPIURL:
		st.APIURL = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return s.Save(st)
}
