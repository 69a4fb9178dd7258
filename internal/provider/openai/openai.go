package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/manash/retouch/internal/provider"
	"github.com/manash/retouch/pkg/models"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second

	// The image API rejects empty prompts; an image-only request asks for a
	// faithful refinement instead.
	defaultEditPrompt = "Refine this image while keeping its subject and composition"
)

type apiRequest struct {
	Model        string `json:"model"`
	Prompt       string `json:"prompt"`
	N            int    `json:"n,omitempty"`
	Size         string `json:"size,omitempty"`
	Quality      string `json:"quality,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
}

type apiResponse struct {
	Created int64       `json:"created"`
	Data    []imageData `json:"data"`
	Error   *apiError   `json:"error,omitempty"`
}

type imageData struct {
	B64JSON       string `json:"b64_json,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	registry   *models.ModelRegistry
	log        *slog.Logger
}

func New(cfg *provider.Config, registry *models.ModelRegistry) (*Provider, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, provider.ErrAPIKeyRequired
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &Provider{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		registry: registry,
		log:      cfg.Log().With("provider", models.ProviderOpenAI),
	}, nil
}

func (p *Provider) Name() models.ProviderType {
	return models.ProviderOpenAI
}

// Generate calls the edits endpoint when any input image is present and the
// generations endpoint otherwise.
func (p *Provider) Generate(ctx context.Context, req *models.GenerationRequest) (*models.Image, error) {
	cap, err := p.registry.ForTier(models.ProviderOpenAI, req.Tier)
	if err != nil {
		return nil, err
	}
	cap.ApplyDefaults(req)

	if len(req.Images()) > 0 {
		return p.edit(ctx, req, cap)
	}
	return p.generate(ctx, req, cap)
}

func (p *Provider) generate(ctx context.Context, req *models.GenerationRequest, cap *models.ModelCapabilities) (*models.Image, error) {
	apiReq := p.buildAPIRequest(req, cap)

	jsonData, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := p.baseURL + "/images/generations"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	p.log.Debug("request", "method", http.MethodPost, "url", url, "model", apiReq.Model, "size", apiReq.Size, "quality", apiReq.Quality)

	return p.do(httpReq)
}

func (p *Provider) buildAPIRequest(req *models.GenerationRequest, cap *models.ModelCapabilities) *apiRequest {
	return &apiRequest{
		Model:        req.Model,
		Prompt:       promptOrDefault(req.Prompt),
		N:            1,
		Size:         cap.OutputSize,
		Quality:      cap.Quality,
		OutputFormat: models.FormatPNG.String(),
	}
}

func (p *Provider) do(httpReq *http.Request) (*models.Image, error) {
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %v", provider.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", provider.ErrGenerationFailed, err)
	}

	p.log.Debug("response", "status", resp.StatusCode, "body", string(truncateBase64InJSON(body)))

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response (status %d): %v", provider.ErrGenerationFailed, resp.StatusCode, err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("%w: %s", provider.ErrGenerationFailed, apiResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", provider.ErrGenerationFailed, resp.StatusCode)
	}

	return buildImage(apiResp)
}

func buildImage(apiResp apiResponse) (*models.Image, error) {
	for i, data := range apiResp.Data {
		if data.B64JSON == "" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(data.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode image %d: %v", provider.ErrGenerationFailed, i, err)
		}
		return models.NewImage(decoded, "image/png"), nil
	}
	return nil, provider.ErrNoImage
}

func promptOrDefault(prompt string) string {
	if prompt == "" {
		return defaultEditPrompt
	}
	return prompt
}

func truncateBase64InJSON(body []byte) []byte {
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}

	truncateBase64Fields(data)

	result, err := json.Marshal(data)
	if err != nil {
		return body
	}
	return result
}

func truncateBase64Fields(data map[string]interface{}) {
	for key, value := range data {
		switch v := value.(type) {
		case string:
			if key == "b64_json" && len(v) > 100 {
				data[key] = v[:100] + "... [truncated]"
			}
		case map[string]interface{}:
			truncateBase64Fields(v)
		case []interface{}:
			for _, item := range v {
				if m, ok := item.(map[string]interface{}); ok {
					truncateBase64Fields(m)
				}
			}
		}
	}
}
