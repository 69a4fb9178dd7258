package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/manash/retouch/pkg/models"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrAPIKeyRequired   = errors.New("API key is required")
	ErrGenerationFailed = errors.New("image generation failed")
	ErrNoImage          = fmt.Errorf("%w: provider returned no image", ErrGenerationFailed)
)

// Provider turns a composed request into exactly one image.
type Provider interface {
	Name() models.ProviderType
	Generate(ctx context.Context, req *models.GenerationRequest) (*models.Image, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Log returns the configured logger or a discarding one.
func (c *Config) Log() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// IsCredentialError reports whether err means the provider could not be
// reached at all for lack of a key.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrAPIKeyRequired)
}

type Factory struct {
	registry  *models.ModelRegistry
	configs   map[models.ProviderType]*Config
	providers map[models.ProviderType]Provider
}

func NewFactory(registry *models.ModelRegistry) *Factory {
	return &Factory{
		registry:  registry,
		configs:   make(map[models.ProviderType]*Config),
		providers: make(map[models.ProviderType]Provider),
	}
}

func (f *Factory) Configure(providerType models.ProviderType, cfg *Config) {
	f.configs[providerType] = cfg
}

func (f *Factory) Register(provider Provider) {
	f.providers[provider.Name()] = provider
}

func (f *Factory) Get(providerType models.ProviderType) (Provider, error) {
	provider, ok := f.providers[providerType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerType)
	}
	return provider, nil
}

// Resolve picks the registered provider and the model it should use for tier.
func (f *Factory) Resolve(providerType models.ProviderType, tier models.ModelTier) (Provider, *models.ModelCapabilities, error) {
	provider, err := f.Get(providerType)
	if err != nil {
		return nil, nil, err
	}

	cap, err := f.registry.ForTier(providerType, tier)
	if err != nil {
		return nil, nil, err
	}

	return provider, cap, nil
}

func (f *Factory) GetConfig(providerType models.ProviderType) (*Config, bool) {
	cfg, ok := f.configs[providerType]
	return cfg, ok
}

func (f *Factory) ListProviders() []models.ProviderType {
	types := make([]models.ProviderType, 0, len(f.providers))
	for t := range f.providers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
