package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/manash/retouch/pkg/models"
)

// mockProvider is a test implementation of Provider.
type mockProvider struct {
	name         models.ProviderType
	generateFunc func(ctx context.Context, req *models.GenerationRequest) (*models.Image, error)
}

func (m *mockProvider) Name() models.ProviderType {
	return m.name
}

func (m *mockProvider) Generate(ctx context.Context, req *models.GenerationRequest) (*models.Image, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return &models.Image{Data: []byte("img")}, nil
}

func TestNewFactory(t *testing.T) {
	registry := models.NewModelRegistry()
	factory := NewFactory(registry)

	if factory == nil {
		t.Fatal("NewFactory() returned nil")
	}
	if factory.registry != registry {
		t.Error("NewFactory() registry not set correctly")
	}
	if factory.configs == nil {
		t.Error("NewFactory() configs map is nil")
	}
	if factory.providers == nil {
		t.Error("NewFactory() providers map is nil")
	}
}

func TestFactory_Configure(t *testing.T) {
	factory := NewFactory(models.NewModelRegistry())
	cfg := &Config{
		APIKey:  "test-key",
		BaseURL: "https://test.api.com",
		Timeout: 30 * time.Second,
	}

	factory.Configure(models.ProviderGemini, cfg)

	got, ok := factory.GetConfig(models.ProviderGemini)
	if !ok {
		t.Fatal("GetConfig() returned false after Configure()")
	}
	if got.APIKey != cfg.APIKey {
		t.Errorf("GetConfig() APIKey = %v, want %v", got.APIKey, cfg.APIKey)
	}
	if got.BaseURL != cfg.BaseURL {
		t.Errorf("GetConfig() BaseURL = %v, want %v", got.BaseURL, cfg.BaseURL)
	}
	if got.Timeout != cfg.Timeout {
		t.Errorf("GetConfig() Timeout = %v, want %v", got.Timeout, cfg.Timeout)
	}
}

func TestFactory_GetConfig_NotFound(t *testing.T) {
	factory := NewFactory(models.NewModelRegistry())

	_, ok := factory.GetConfig(models.ProviderOpenAI)
	if ok {
		t.Error("GetConfig() returned true for unconfigured provider")
	}
}

func TestFactory_Register(t *testing.T) {
	factory := NewFactory(models.NewModelRegistry())
	factory.Register(&mockProvider{name: models.ProviderGemini})

	got, err := factory.Get(models.ProviderGemini)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name() != models.ProviderGemini {
		t.Errorf("Get() provider name = %v, want %v", got.Name(), models.ProviderGemini)
	}
}

func TestFactory_Get_NotFound(t *testing.T) {
	factory := NewFactory(models.NewModelRegistry())

	_, err := factory.Get(models.ProviderOpenAI)
	if !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Get() error = %v, want %v", err, ErrProviderNotFound)
	}
}

func TestFactory_Resolve(t *testing.T) {
	factory := NewFactory(models.DefaultRegistry())
	factory.Register(&mockProvider{name: models.ProviderGemini})

	tests := []struct {
		tier models.ModelTier
		want string
	}{
		{models.TierStandard, "gemini-2.5-flash-image"},
		{models.TierHighFidelity, "gemini-3-pro-image-preview"},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			p, cap, err := factory.Resolve(models.ProviderGemini, tt.tier)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if p.Name() != models.ProviderGemini {
				t.Errorf("Resolve() provider = %v", p.Name())
			}
			if cap.Name != tt.want {
				t.Errorf("Resolve() model = %s, want %s", cap.Name, tt.want)
			}
		})
	}
}

func TestFactory_Resolve_Errors(t *testing.T) {
	factory := NewFactory(models.NewModelRegistry())

	if _, _, err := factory.Resolve(models.ProviderGemini, models.TierStandard); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Resolve() error = %v, want %v", err, ErrProviderNotFound)
	}

	factory.Register(&mockProvider{name: models.ProviderGemini})
	if _, _, err := factory.Resolve(models.ProviderGemini, models.TierStandard); !errors.Is(err, models.ErrNoModelForTier) {
		t.Errorf("Resolve() error = %v, want %v", err, models.ErrNoModelForTier)
	}
}

func TestFactory_ListProviders(t *testing.T) {
	factory := NewFactory(models.NewModelRegistry())
	factory.Register(&mockProvider{name: models.ProviderOpenAI})
	factory.Register(&mockProvider{name: models.ProviderGemini})

	providers := factory.ListProviders()
	if len(providers) != 2 {
		t.Fatalf("ListProviders() returned %d providers, want 2", len(providers))
	}
	if providers[0] != models.ProviderGemini || providers[1] != models.ProviderOpenAI {
		t.Errorf("ListProviders() = %v, want sorted [gemini openai]", providers)
	}
}

func TestIsCredentialError(t *testing.T) {
	if !IsCredentialError(fmt.Errorf("gemini: %w", ErrAPIKeyRequired)) {
		t.Error("IsCredentialError(wrapped key error) = false")
	}
	if IsCredentialError(ErrGenerationFailed) {
		t.Error("IsCredentialError(generation failure) = true")
	}
	if IsCredentialError(nil) {
		t.Error("IsCredentialError(nil) = true")
	}
}
