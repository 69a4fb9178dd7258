// Package gemini implements provider.Provider on the Gemini image models.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/manash/retouch/internal/provider"
	"github.com/manash/retouch/pkg/models"
)

const defaultTimeout = 120 * time.Second

type Provider struct {
	client   *genai.Client
	registry *models.ModelRegistry
	log      *slog.Logger
}

func New(ctx context.Context, cfg *provider.Config, registry *models.ModelRegistry) (*Provider, error) {
	if cfg == nil || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, provider.ErrAPIKeyRequired
	}

	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Provider{
		client:   client,
		registry: registry,
		log:      cfg.Log().With("provider", models.ProviderGemini),
	}, nil
}

func (p *Provider) Name() models.ProviderType {
	return models.ProviderGemini
}

func (p *Provider) Generate(ctx context.Context, req *models.GenerationRequest) (*models.Image, error) {
	if req.Model == "" {
		cap, err := p.registry.ForTier(models.ProviderGemini, req.Tier)
		if err != nil {
			return nil, err
		}
		cap.ApplyDefaults(req)
	}

	contents := buildContents(req)
	config := buildConfig(req)

	p.log.Debug("generate content",
		"model", req.Model,
		"tier", req.Tier,
		"images", len(req.Images()),
		"prompt_len", len(req.Prompt))

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrGenerationFailed, err)
	}

	return extractImage(resp)
}

// buildContents orders the parts base image, reference image, then text.
func buildContents(req *models.GenerationRequest) []*genai.Content {
	var parts []*genai.Part
	for _, img := range req.Images() {
		mime := img.MIMEType
		if mime == "" {
			mime = http.DetectContentType(img.Data)
		}
		parts = append(parts, genai.NewPartFromBytes(img.Data, mime))
	}
	if req.Prompt != "" {
		parts = append(parts, genai.NewPartFromText(req.Prompt))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func buildConfig(req *models.GenerationRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	if req.Upscale4K {
		cfg.ImageConfig = &genai.ImageConfig{ImageSize: "4K"}
	}
	return cfg
}

// extractImage returns the first inline image of the first candidate.
func extractImage(resp *genai.GenerateContentResponse) (*models.Image, error) {
	if resp == nil {
		return nil, provider.ErrNoImage
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked (%s)", provider.ErrGenerationFailed, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, provider.ErrNoImage
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return models.NewImage(part.InlineData.Data, part.InlineData.MIMEType), nil
		}
		text.WriteString(part.Text)
	}

	if s := strings.TrimSpace(text.String()); s != "" {
		return nil, fmt.Errorf("%w: model replied with text only: %s", provider.ErrNoImage, truncate(s, 200))
	}
	return nil, provider.ErrNoImage
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
