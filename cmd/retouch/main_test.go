package main

import (
	"bytes"
	"context"
	"errors"
	stdimage "image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/manash/retouch/internal/catalog"
	"github.com/manash/retouch/internal/config"
	"github.com/manash/retouch/internal/journal"
	"github.com/manash/retouch/internal/keys"
	"github.com/manash/retouch/internal/provider"
	"github.com/manash/retouch/pkg/models"
)

// mockProvider implements provider.Provider for testing.
type mockProvider struct {
	name         models.ProviderType
	mu           sync.Mutex
	requests     []*models.GenerationRequest
	generateFunc func(ctx context.Context, req *models.GenerationRequest) (*models.Image, error)
}

func (m *mockProvider) Name() models.ProviderType {
	return m.name
}

func (m *mockProvider) Generate(ctx context.Context, req *models.GenerationRequest) (*models.Image, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	req.Model = "mock-" + req.Tier.String()
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return models.NewImage(pngBytes(4, 4), "image/png"), nil
}

func (m *mockProvider) calls() []*models.GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.GenerationRequest(nil), m.requests...)
}

func pngBytes(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, stdimage.NewGray(stdimage.Rect(0, 0, w, h)))
	return buf.Bytes()
}

type testApp struct {
	*App
	out      *bytes.Buffer
	cfg      *config.Config
	keyDir   string
	provider *mockProvider
	// providerCfg is the config handed to NewProvider.
	providerCfg  *provider.Config
	providerType models.ProviderType
}

func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()
	root := t.TempDir()

	ta := &testApp{
		out: &bytes.Buffer{},
		cfg: &config.Config{
			Provider:  "gemini",
			DataDir:   filepath.Join(root, "data"),
			OutputDir: filepath.Join(root, "out"),
			LogLevel:  "error",
			Timeout:   time.Minute,
		},
		keyDir:   filepath.Join(root, "config"),
		provider: &mockProvider{},
	}

	ta.App = &App{
		In:       strings.NewReader(input),
		Out:      ta.out,
		Err:      ta.out,
		Registry: models.DefaultRegistry(),
		LoadConfig: func() (*config.Config, error) {
			cfg := *ta.cfg
			return &cfg, nil
		},
		NewProvider: func(_ context.Context, p models.ProviderType, cfg *provider.Config, _ *models.ModelRegistry) (provider.Provider, error) {
			ta.providerType = p
			ta.providerCfg = cfg
			ta.provider.name = p
			return ta.provider, nil
		},
		NewKeyStore: func() (*keys.Store, error) {
			return keys.NewStoreAt(ta.keyDir), nil
		},
		ReadSecret: func(string) (string, error) {
			return "typed-secret-key-123", nil
		},
		CanDisplay: func(io.Writer) bool { return false },
	}
	return ta
}

func (ta *testApp) execute(args ...string) error {
	cmd := newRootCmd(ta.App)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func writePNG(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, pngBytes(6, 3), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDefaultApp(t *testing.T) {
	app := DefaultApp()

	if app.In != os.Stdin || app.Out != os.Stdout || app.Err != os.Stderr {
		t.Error("DefaultApp() should use the process streams")
	}
	if app.Registry == nil || app.LoadConfig == nil || app.NewProvider == nil ||
		app.NewKeyStore == nil || app.ReadSecret == nil || app.CanDisplay == nil {
		t.Error("DefaultApp() left a dependency unset")
	}
}

func TestNewProvider(t *testing.T) {
	cfg := &provider.Config{APIKey: "sk-test"}

	p, err := newProvider(context.Background(), models.ProviderOpenAI, cfg, models.DefaultRegistry())
	if err != nil {
		t.Fatalf("newProvider(openai) error = %v", err)
	}
	if p.Name() != models.ProviderOpenAI {
		t.Errorf("Name() = %s", p.Name())
	}

	if _, err := newProvider(context.Background(), "stability", cfg, models.DefaultRegistry()); !errors.Is(err, provider.ErrProviderNotFound) {
		t.Errorf("newProvider(stability) error = %v", err)
	}
}

func TestNewRootCmd(t *testing.T) {
	ta := newTestApp(t, "")
	cmd := newRootCmd(ta.App)

	if cmd.Use != "retouch [image]" {
		t.Errorf("Use = %q", cmd.Use)
	}
	for _, name := range []string{"edit", "keys", "styles", "presets"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("subcommand %q missing", name)
		}
	}
	for _, flag := range []string{"provider", "api-key", "log-level", "output-dir", "no-journal"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("flag --%s missing", flag)
		}
	}
}

func TestRootCmd_Version(t *testing.T) {
	ta := newTestApp(t, "")
	if err := ta.execute("--version"); err != nil {
		t.Fatalf("--version error = %v", err)
	}
	if !strings.Contains(ta.out.String(), version) {
		t.Errorf("output = %q", ta.out.String())
	}
}

func TestRootCmd_Args(t *testing.T) {
	ta := newTestApp(t, "")
	if err := ta.execute("a.png", "b.png"); err == nil {
		t.Error("two positional arguments should fail")
	}
}

func TestEdit_PromptAndStyle(t *testing.T) {
	ta := newTestApp(t, "")

	err := ta.execute("edit", "--api-key", "flag-key", "--prompt", "a lighthouse", "--style", "watercolor",
		"--refine", "at dawn", "-o", "light.png")
	if err != nil {
		t.Fatalf("edit error = %v", err)
	}

	calls := ta.provider.calls()
	if len(calls) != 1 {
		t.Fatalf("provider calls = %d, want 1", len(calls))
	}
	req := calls[0]
	if !strings.HasPrefix(req.Prompt, "a lighthouse, Watercolor painting style") || !strings.HasSuffix(req.Prompt, "at dawn") {
		t.Errorf("Prompt = %q", req.Prompt)
	}
	if req.Tier != models.TierStandard || req.Upscale4K {
		t.Errorf("Tier = %s Upscale4K = %v", req.Tier, req.Upscale4K)
	}
	if ta.providerCfg.APIKey != "flag-key" || ta.providerCfg.Timeout != time.Minute || ta.providerCfg.Logger == nil {
		t.Errorf("provider config = %+v", ta.providerCfg)
	}

	saved := filepath.Join(ta.cfg.OutputDir, "light.png")
	if _, err := os.Stat(saved); err != nil {
		t.Errorf("output not written: %v", err)
	}
	if !strings.Contains(ta.out.String(), "Saved: "+saved) {
		t.Errorf("output = %q", ta.out.String())
	}
}

func TestEdit_ImageAndReference(t *testing.T) {
	ta := newTestApp(t, "")
	ta.cfg.GeminiAPIKey = "env-key"
	base := writePNG(t, "base.png")
	ref := writePNG(t, "ref.png")

	if err := ta.execute("edit", "--image", base, "--ref", ref, "--preset", "forest cabin night"); err != nil {
		t.Fatalf("edit error = %v", err)
	}

	req := ta.provider.calls()[0]
	if req.Base.Empty() || req.Reference.Empty() {
		t.Fatal("request is missing an input image")
	}
	if !strings.Contains(req.Prompt, "Cozy cabin in the forest at night") {
		t.Errorf("Prompt = %q", req.Prompt)
	}
	if ta.providerCfg.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env fallback", ta.providerCfg.APIKey)
	}

	entries, err := os.ReadDir(ta.cfg.OutputDir)
	if err != nil || len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "retouch-") {
		t.Errorf("output dir = %v, %v", entries, err)
	}
}

func TestEdit_Upscale(t *testing.T) {
	ta := newTestApp(t, "")
	ta.cfg.GeminiAPIKey = "env-key"
	base := writePNG(t, "small.png")

	if err := ta.execute("edit", "--image", base, "--upscale", "-o", "big.png"); err != nil {
		t.Fatalf("edit error = %v", err)
	}
	req := ta.provider.calls()[0]
	if !req.Upscale4K || req.Tier != models.TierHighFidelity {
		t.Errorf("Tier = %s Upscale4K = %v", req.Tier, req.Upscale4K)
	}
	if !strings.Contains(ta.out.String(), "mock-high-fidelity") {
		t.Errorf("output = %q", ta.out.String())
	}
}

func TestEdit_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{"nothing to generate", []string{"edit"}, nil, "nothing to generate"},
		{"upscale without image", []string{"edit", "--upscale"}, nil, "--upscale requires --image"},
		{"prompt and preset", []string{"edit", "--prompt", "x", "--preset", "Abstract Art"}, nil, "prompt"},
		{"unknown style", []string{"edit", "--prompt", "x", "--style", "oil"}, catalog.ErrStyleNotFound, ""},
		{"unknown preset", []string{"edit", "--preset", "nope"}, catalog.ErrPresetNotFound, ""},
		{"bad provider", []string{"edit", "--prompt", "x", "--provider", "stability"}, config.ErrInvalidProvider, ""},
		{"output escapes", []string{"edit", "--prompt", "x", "-o", "../x.png"}, nil, "invalid output path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t, "")
			ta.cfg.GeminiAPIKey = "env-key"

			err := ta.execute(tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestEdit_MissingKey(t *testing.T) {
	ta := newTestApp(t, "")

	err := ta.execute("edit", "--prompt", "a boat")
	if !errors.Is(err, provider.ErrAPIKeyRequired) {
		t.Fatalf("error = %v, want %v", err, provider.ErrAPIKeyRequired)
	}
	if len(ta.provider.calls()) != 0 || ta.providerCfg != nil {
		t.Error("provider created without a key")
	}
}

func TestEdit_ProviderFlag(t *testing.T) {
	ta := newTestApp(t, "")
	ta.cfg.OpenAIAPIKey = "sk-env"
	ta.cfg.OpenAIBaseURL = "http://localhost:1234/v1"

	if err := ta.execute("edit", "--provider", "openai", "--prompt", "a boat"); err != nil {
		t.Fatalf("edit error = %v", err)
	}
	if ta.providerType != models.ProviderOpenAI {
		t.Errorf("provider = %s", ta.providerType)
	}
	if ta.providerCfg.APIKey != "sk-env" || ta.providerCfg.BaseURL != "http://localhost:1234/v1" {
		t.Errorf("provider config = %+v", ta.providerCfg)
	}
}

func TestEdit_StoredKey(t *testing.T) {
	ta := newTestApp(t, "")
	ta.cfg.GeminiAPIKey = "env-key"
	keys.NewStoreAt(ta.keyDir).Set(models.ProviderGemini, "stored-key")

	if err := ta.execute("edit", "--prompt", "a boat"); err != nil {
		t.Fatalf("edit error = %v", err)
	}
	if ta.providerCfg.APIKey != "stored-key" {
		t.Errorf("APIKey = %q, want the stored key", ta.providerCfg.APIKey)
	}
}

func TestEdit_Journal(t *testing.T) {
	ta := newTestApp(t, "")
	ta.cfg.GeminiAPIKey = "env-key"

	if err := ta.execute("edit", "--prompt", "a boat"); err != nil {
		t.Fatalf("edit error = %v", err)
	}

	j, err := journal.OpenDir(ta.cfg.DataDir)
	if err != nil {
		t.Fatalf("OpenDir() error = %v", err)
	}
	defer j.Close()

	entries, err := j.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Prompt != "a boat" || entries[0].Status != journal.StatusOK {
		t.Errorf("entries = %+v", entries)
	}
}

func TestEdit_NoJournal(t *testing.T) {
	ta := newTestApp(t, "")
	ta.cfg.GeminiAPIKey = "env-key"

	if err := ta.execute("edit", "--no-journal", "--prompt", "a boat"); err != nil {
		t.Fatalf("edit error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(ta.cfg.DataDir, journal.FileName)); !os.IsNotExist(err) {
		t.Errorf("journal written with --no-journal: %v", err)
	}
}

func TestEdit_ProviderFailure(t *testing.T) {
	ta := newTestApp(t, "")
	ta.cfg.GeminiAPIKey = "env-key"
	ta.provider.generateFunc = func(context.Context, *models.GenerationRequest) (*models.Image, error) {
		return nil, provider.ErrNoImage
	}

	err := ta.execute("edit", "--prompt", "a boat")
	if !errors.Is(err, provider.ErrNoImage) {
		t.Fatalf("error = %v, want %v", err, provider.ErrNoImage)
	}
	if entries, _ := os.ReadDir(ta.cfg.OutputDir); len(entries) != 0 {
		t.Error("failed generation wrote a file")
	}
}

func TestInteractive(t *testing.T) {
	ta := newTestApp(t, "prompt a cat\ngenerate\nstatus\nquit\n")
	ta.cfg.GeminiAPIKey = "env-key"

	if err := ta.execute(); err != nil {
		t.Fatalf("execute() error = %v", err)
	}

	output := ta.out.String()
	for _, want := range []string{"Using gemini (gemini-2.5-flash-image)", "retouch interactive mode", "1/1", "Goodbye!"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if len(ta.provider.calls()) != 1 {
		t.Errorf("provider calls = %d, want 1", len(ta.provider.calls()))
	}
}

func TestInteractive_OpensImage(t *testing.T) {
	src := writePNG(t, "house.png")
	ta := newTestApp(t, "status\nquit\n")
	ta.cfg.GeminiAPIKey = "env-key"

	if err := ta.execute(src); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !strings.Contains(ta.out.String(), "Opened: "+src) || !strings.Contains(ta.out.String(), "image/png") {
		t.Errorf("output = %q", ta.out.String())
	}
}

func TestInteractive_MissingImage(t *testing.T) {
	ta := newTestApp(t, "quit\n")
	ta.cfg.GeminiAPIKey = "env-key"

	if err := ta.execute(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("opening a missing file should fail")
	}
}

func TestKeys(t *testing.T) {
	ta := newTestApp(t, "")

	if err := ta.execute("keys", "set", "gemini", "AIzaSyExample1234"); err != nil {
		t.Fatalf("keys set error = %v", err)
	}
	if err := ta.execute("keys", "set", "OpenAI"); err != nil {
		t.Fatalf("keys set (prompted) error = %v", err)
	}

	ta.out.Reset()
	if err := ta.execute("keys", "get", "gemini"); err != nil {
		t.Fatalf("keys get error = %v", err)
	}
	if got := strings.TrimSpace(ta.out.String()); got != "AIza*********1234" {
		t.Errorf("keys get = %q", got)
	}

	ta.out.Reset()
	if err := ta.execute("keys", "list"); err != nil {
		t.Fatalf("keys list error = %v", err)
	}
	if !strings.Contains(ta.out.String(), "gemini   stored AIza") || !strings.Contains(ta.out.String(), "openai   stored") {
		t.Errorf("keys list = %q", ta.out.String())
	}

	if err := ta.execute("keys", "delete", "gemini"); err != nil {
		t.Fatalf("keys delete error = %v", err)
	}
	if err := ta.execute("keys", "get", "gemini"); !errors.Is(err, keys.ErrKeyNotFound) {
		t.Errorf("keys get after delete error = %v", err)
	}
	if err := ta.execute("keys", "delete", "gemini"); !errors.Is(err, keys.ErrKeyNotFound) {
		t.Errorf("second delete error = %v", err)
	}
}

func TestKeys_ListEnv(t *testing.T) {
	ta := newTestApp(t, "")
	ta.cfg.OpenAIAPIKey = "sk-env"

	if err := ta.execute("keys", "list"); err != nil {
		t.Fatalf("keys list error = %v", err)
	}
	output := ta.out.String()
	if !strings.Contains(output, "gemini   not set") || !strings.Contains(output, "openai   from OPENAI_API_KEY") {
		t.Errorf("keys list = %q", output)
	}
}

func TestKeys_UnknownProvider(t *testing.T) {
	ta := newTestApp(t, "")
	if err := ta.execute("keys", "set", "stability", "k"); err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("error = %v", err)
	}
}

func TestReadSecret_Pipe(t *testing.T) {
	app := &App{In: strings.NewReader("  piped-key  \n"), Err: io.Discard}
	got, err := app.readSecret("key: ")
	if err != nil || got != "piped-key" {
		t.Errorf("readSecret() = %q, %v", got, err)
	}

	app = &App{In: strings.NewReader("no-newline"), Err: io.Discard}
	if got, err := app.readSecret("key: "); err != nil || got != "no-newline" {
		t.Errorf("readSecret() = %q, %v", got, err)
	}

	app = &App{In: strings.NewReader(""), Err: io.Discard}
	if _, err := app.readSecret("key: "); !errors.Is(err, io.EOF) {
		t.Errorf("readSecret() on empty input error = %v", err)
	}
}

func TestStylesCmd(t *testing.T) {
	ta := newTestApp(t, "")
	if err := ta.execute("styles"); err != nil {
		t.Fatalf("styles error = %v", err)
	}
	for _, id := range []string{"photo", "anime", "watercolor", "pencil", "colored_pencil", "marker"} {
		if !strings.Contains(ta.out.String(), id) {
			t.Errorf("styles missing %s", id)
		}
	}
}

func TestPresetsCmd_CatalogFile(t *testing.T) {
	ta := newTestApp(t, "")
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	os.WriteFile(path, []byte(`presets:
  - category: Studio
    items:
      - title: Product Shot
        prompt: White seamless background, softbox lighting
`), 0644)
	ta.cfg.CatalogFile = path

	if err := ta.execute("presets", "-v"); err != nil {
		t.Fatalf("presets error = %v", err)
	}
	output := ta.out.String()
	for _, want := range []string{"Studio", "Product Shot", "softbox lighting", "Futuristic City"} {
		if !strings.Contains(output, want) {
			t.Errorf("presets missing %q", want)
		}
	}
}
