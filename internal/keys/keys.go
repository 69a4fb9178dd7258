package keys

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/manash/retouch/internal/provider"
	"github.com/manash/retouch/pkg/models"
)

const (
	appName  = "retouch"
	fileName = "keys.json"

	// ConfigDirEnv overrides the platform config directory.
	ConfigDirEnv = "RETOUCH_CONFIG_DIR"
)

var ErrKeyNotFound = errors.New("no stored key")

// EnvVars lists the environment variables checked for each provider.
var EnvVars = map[models.ProviderType]string{
	models.ProviderGemini: "GEMINI_API_KEY",
	models.ProviderOpenAI: "OPENAI_API_KEY",
}

// Store keeps API keys in keys.json with owner-only permissions.
type Store struct {
	configDir string
}

type KeyEntry struct {
	Key string `json:"key"`
}

type Keys map[string]KeyEntry

func NewStore() (*Store, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return &Store{configDir: configDir}, nil
}

func NewStoreAt(dir string) *Store {
	return &Store{configDir: dir}
}

// ConfigDir returns the platform-specific config directory.
func ConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, nil
	}

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, appName), nil
	default:
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, appName), nil
	}
}

func (s *Store) Path() string {
	return filepath.Join(s.configDir, fileName)
}

func (s *Store) load() (Keys, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return make(Keys), nil
		}
		return nil, err
	}

	var keys Keys
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fileName, err)
	}
	if keys == nil {
		keys = make(Keys)
	}
	return keys, nil
}

func (s *Store) save(keys Keys) error {
	if err := os.MkdirAll(s.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.Path(), data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", fileName, err)
	}
	return nil
}

func (s *Store) Set(p models.ProviderType, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return provider.ErrAPIKeyRequired
	}

	keys, err := s.load()
	if err != nil {
		return err
	}

	keys[p.String()] = KeyEntry{Key: key}
	return s.save(keys)
}

// Get returns the stored key, or "" when none is stored.
func (s *Store) Get(p models.ProviderType) (string, error) {
	keys, err := s.load()
	if err != nil {
		return "", err
	}
	return keys[p.String()].Key, nil
}

func (s *Store) Delete(p models.ProviderType) error {
	keys, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := keys[p.String()]; !ok {
		return fmt.Errorf("%w for %s", ErrKeyNotFound, p)
	}

	delete(keys, p.String())
	return s.save(keys)
}

// List returns the providers with a stored key, sorted.
func (s *Store) List() ([]models.ProviderType, error) {
	keys, err := s.load()
	if err != nil {
		return nil, err
	}

	providers := make([]models.ProviderType, 0, len(keys))
	for name := range keys {
		providers = append(providers, models.ProviderType(name))
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers, nil
}

// MaskKey returns a masked version of the key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// Credential is a resolved key and where it came from.
type Credential struct {
	Key    string
	Source string
}

// Resolver picks a key in priority order: an explicit flag, the store, then
// the environment.
type Resolver struct {
	store *Store
	env   map[models.ProviderType]string
}

// NewResolver uses env as the environment fallback, keyed by provider.
// store may be nil.
func NewResolver(store *Store, env map[models.ProviderType]string) *Resolver {
	return &Resolver{store: store, env: env}
}

func (r *Resolver) Resolve(explicit string, p models.ProviderType) (*Credential, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return &Credential{Key: explicit, Source: "command-line flag"}, nil
	}

	if r.store != nil {
		stored, err := r.store.Get(p)
		if err == nil && stored != "" {
			return &Credential{Key: stored, Source: "stored key (" + r.store.Path() + ")"}, nil
		}
	}

	envVar := EnvVars[p]
	if key := strings.TrimSpace(r.env[p]); key != "" {
		return &Credential{Key: key, Source: fmt.Sprintf("environment variable (%s)", envVar)}, nil
	}

	return nil, fmt.Errorf("%w for %s: run 'retouch keys set --provider %s' or set %s",
		provider.ErrAPIKeyRequired, p, p, envVar)
}
