package models

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"
)

var (
	ErrEmptyPrompt          = errors.New("prompt cannot be empty")
	ErrNoImageData          = errors.New("image data is required")
	ErrUnknownTier          = errors.New("unknown model tier")
	ErrNoModelForTier       = errors.New("no model registered for tier")
	ErrReferenceUnsupported = errors.New("reference images not supported by model")
)

type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOpenAI ProviderType = "openai"
)

func ValidProviders() []ProviderType {
	return []ProviderType{ProviderGemini, ProviderOpenAI}
}

func (p ProviderType) IsValid() bool {
	return slices.Contains(ValidProviders(), p)
}

func (p ProviderType) String() string {
	return string(p)
}

// ModelTier picks between the fast everyday model and the slower one used
// for 4K upscales.
type ModelTier string

const (
	TierStandard     ModelTier = "standard"
	TierHighFidelity ModelTier = "high-fidelity"
)

// TierFor is the only place model choice is derived from request mode.
func TierFor(upscale bool) ModelTier {
	if upscale {
		return TierHighFidelity
	}
	return TierStandard
}

func (t ModelTier) IsValid() bool {
	return t == TierStandard || t == TierHighFidelity
}

func (t ModelTier) String() string {
	return string(t)
}

type OutputFormat string

const (
	FormatPNG  OutputFormat = "png"
	FormatJPEG OutputFormat = "jpeg"
	FormatWebP OutputFormat = "webp"
)

func ValidFormats() []OutputFormat {
	return []OutputFormat{FormatPNG, FormatJPEG, FormatWebP}
}

func (f OutputFormat) IsValid() bool {
	return slices.Contains(ValidFormats(), f)
}

func (f OutputFormat) String() string {
	return string(f)
}

// Image is an opaque encoded image as received from an upload or a provider.
type Image struct {
	Data     []byte
	MIMEType string
}

// NewImage sniffs the MIME type when none is given.
func NewImage(data []byte, mimeType string) *Image {
	if mimeType == "" && len(data) > 0 {
		mimeType = http.DetectContentType(data)
	}
	return &Image{Data: data, MIMEType: mimeType}
}

func (i *Image) Empty() bool {
	return i == nil || len(i.Data) == 0
}

func (i *Image) Size() int {
	if i == nil {
		return 0
	}
	return len(i.Data)
}

// Format maps the MIME type onto an output format, defaulting to png.
func (i *Image) Format() OutputFormat {
	if i == nil {
		return FormatPNG
	}
	switch strings.ToLower(i.MIMEType) {
	case "image/jpeg", "image/jpg":
		return FormatJPEG
	case "image/webp":
		return FormatWebP
	default:
		return FormatPNG
	}
}

// GenerationRequest is what the engine hands to a provider. Base and
// Reference are optional; Base is image 1 and Reference image 2 when both
// are present.
type GenerationRequest struct {
	Prompt    string
	Base      *Image
	Reference *Image
	Tier      ModelTier
	Model     string
	Upscale4K bool
}

func (r *GenerationRequest) Validate() error {
	if r.Prompt == "" && r.Base.Empty() {
		return ErrEmptyPrompt
	}
	if !r.Tier.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownTier, r.Tier)
	}
	return nil
}

// Images returns the input images in provider order.
func (r *GenerationRequest) Images() []*Image {
	var out []*Image
	if !r.Base.Empty() {
		out = append(out, r.Base)
	}
	if !r.Reference.Empty() {
		out = append(out, r.Reference)
	}
	return out
}

type ModelCapabilities struct {
	Name              string
	Provider          ProviderType
	Tier              ModelTier
	Quality           string
	OutputSize        string
	SupportsReference bool
}

func (c *ModelCapabilities) Validate(req *GenerationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if !req.Reference.Empty() && !c.SupportsReference {
		return fmt.Errorf("%w: %s", ErrReferenceUnsupported, c.Name)
	}
	return nil
}

func (c *ModelCapabilities) ApplyDefaults(req *GenerationRequest) {
	if req.Model == "" {
		req.Model = c.Name
	}
	if req.Tier == "" {
		req.Tier = c.Tier
	}
}

type ModelRegistry struct {
	models map[string]*ModelCapabilities
}

func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{
		models: make(map[string]*ModelCapabilities),
	}
}

func registryKey(provider ProviderType, tier ModelTier) string {
	return string(provider) + "/" + string(tier)
}

// Register indexes a model under its provider and tier. A later
// registration for the same pair replaces the earlier one.
func (r *ModelRegistry) Register(cap *ModelCapabilities) {
	r.models[registryKey(cap.Provider, cap.Tier)] = cap
}

func (r *ModelRegistry) ForTier(provider ProviderType, tier ModelTier) (*ModelCapabilities, error) {
	if !tier.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	cap, ok := r.models[registryKey(provider, tier)]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNoModelForTier, provider, tier)
	}
	return cap, nil
}

func (r *ModelRegistry) List() []string {
	names := make([]string, 0, len(r.models))
	for _, cap := range r.models {
		if !slices.Contains(names, cap.Name) {
			names = append(names, cap.Name)
		}
	}
	sort.Strings(names)
	return names
}

func (r *ModelRegistry) ListByProvider(provider ProviderType) []*ModelCapabilities {
	var caps []*ModelCapabilities
	for _, cap := range r.models {
		if cap.Provider == provider {
			caps = append(caps, cap)
		}
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i].Tier < caps[j].Tier })
	return caps
}

func DefaultRegistry() *ModelRegistry {
	r := NewModelRegistry()

	r.Register(&ModelCapabilities{
		Name:              "gemini-2.5-flash-image",
		Provider:          ProviderGemini,
		Tier:              TierStandard,
		SupportsReference: true,
	})

	r.Register(&ModelCapabilities{
		Name:              "gemini-3-pro-image-preview",
		Provider:          ProviderGemini,
		Tier:              TierHighFidelity,
		OutputSize:        "4K",
		SupportsReference: true,
	})

	r.Register(&ModelCapabilities{
		Name:              "gpt-image-1",
		Provider:          ProviderOpenAI,
		Tier:              TierStandard,
		Quality:           "medium",
		OutputSize:        "1024x1024",
		SupportsReference: true,
	})

	r.Register(&ModelCapabilities{
		Name:              "gpt-image-1",
		Provider:          ProviderOpenAI,
		Tier:              TierHighFidelity,
		Quality:           "high",
		OutputSize:        "1536x1024",
		SupportsReference: true,
	})

	return r
}
