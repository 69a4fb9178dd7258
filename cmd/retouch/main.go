package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manash/retouch/internal/catalog"
	"github.com/manash/retouch/internal/config"
	"github.com/manash/retouch/internal/display"
	"github.com/manash/retouch/internal/image"
	"github.com/manash/retouch/internal/journal"
	"github.com/manash/retouch/internal/keys"
	"github.com/manash/retouch/internal/logging"
	"github.com/manash/retouch/internal/provider"
	"github.com/manash/retouch/internal/provider/gemini"
	"github.com/manash/retouch/internal/provider/openai"
	"github.com/manash/retouch/internal/repl"
	"github.com/manash/retouch/internal/session"
	"github.com/manash/retouch/internal/telemetry"
	"github.com/manash/retouch/pkg/models"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagProvider  string
	flagAPIKey    string
	flagLogLevel  string
	flagOutputDir string
	flagNoJournal bool
)

type App struct {
	In          io.Reader
	Out         io.Writer
	Err         io.Writer
	Registry    *models.ModelRegistry
	LoadConfig  func() (*config.Config, error)
	NewProvider func(ctx context.Context, p models.ProviderType, cfg *provider.Config, registry *models.ModelRegistry) (provider.Provider, error)
	NewKeyStore func() (*keys.Store, error)
	// ReadSecret reads a key without echoing it.
	ReadSecret func(prompt string) (string, error)
	// CanDisplay reports whether w accepts inline images.
	CanDisplay func(w io.Writer) bool
}

func DefaultApp() *App {
	app := &App{
		In:          os.Stdin,
		Out:         os.Stdout,
		Err:         os.Stderr,
		Registry:    models.DefaultRegistry(),
		LoadConfig:  config.Load,
		NewProvider: newProvider,
		NewKeyStore: keys.NewStore,
		CanDisplay:  display.IsTerminalSupported,
	}
	app.ReadSecret = app.readSecret
	return app
}

func newProvider(ctx context.Context, p models.ProviderType, cfg *provider.Config, registry *models.ModelRegistry) (provider.Provider, error) {
	switch p {
	case models.ProviderGemini:
		return gemini.New(ctx, cfg, registry)
	case models.ProviderOpenAI:
		return openai.New(cfg, registry)
	default:
		return nil, fmt.Errorf("%w: %s", provider.ErrProviderNotFound, p)
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := DefaultApp()
	rootCmd := newRootCmd(app)
	return rootCmd.Execute()
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retouch [image]",
		Short: "Edit images with AI image models from the terminal",
		Long: `retouch is an interactive image editor backed by AI image models.

Open a photo, pick a prompt or preset and an art style, generate, then keep
refining the result. Undo and redo walk the last five results.

Supported providers:
  - Gemini (gemini-2.5-flash-image, gemini-3-pro-image-preview for 4K)
  - OpenAI (gpt-image-1)

Examples:
  retouch house.png
  retouch edit --image house.png --preset "Modern Luxury Night" -o night.png
  retouch edit --prompt "a lighthouse at dawn" --style watercolor
  retouch keys set gemini`,
		Args:          cobra.MaximumNArgs(1),
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, args, app)
		},
	}

	cmd.SetIn(app.In)
	cmd.SetOut(app.Out)
	cmd.SetErr(app.Err)

	cmd.PersistentFlags().StringVarP(&flagProvider, "provider", "p", "", "provider to use (gemini, openai; defaults to RETOUCH_PROVIDER or gemini)")
	cmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "API key (defaults to the stored key, then GEMINI_API_KEY / OPENAI_API_KEY)")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flagOutputDir, "output-dir", "", "directory for saved images")
	cmd.PersistentFlags().BoolVar(&flagNoJournal, "no-journal", false, "do not record generations in the activity log")

	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newKeysCmd(app))
	cmd.AddCommand(newStylesCmd(app))
	cmd.AddCommand(newPresetsCmd(app))

	return cmd
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig(cmd *cobra.Command, app *App) (*config.Config, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Provider = flagProvider
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = flagOutputDir
	}
	if flags.Changed("no-journal") {
		cfg.NoJournal = flagNoJournal
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		if err := cat.LoadFile(cfg.CatalogFile); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// runtime is everything a command needs to drive one editing session.
type runtime struct {
	cfg      *config.Config
	log      *logging.Logger
	catalog  *catalog.Catalog
	provider provider.Provider
	model    *models.ModelCapabilities
	journal  *journal.Journal
	ctrl     *session.Controller
	loader   *image.Loader
	saver    *image.Saver
	shutdown func(context.Context) error
}

func setup(ctx context.Context, cmd *cobra.Command, app *App) (*runtime, error) {
	cfg, err := loadConfig(cmd, app)
	if err != nil {
		return nil, err
	}

	var log *logging.Logger
	if cfg.LogFile == "" {
		log, err = logging.New(app.Err, cfg.LogLevel)
	} else {
		log, err = logging.Open(cfg.LogFile, cfg.LogLevel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	rt := &runtime{
		cfg:    cfg,
		log:    log,
		loader: image.NewLoader(),
		saver:  image.NewSaver(cfg.OutputDir),
	}
	ok := false
	defer func() {
		if !ok {
			rt.Close(ctx)
		}
	}()

	rt.shutdown, err = telemetry.Setup(ctx, cfg.OTelEndpoint)
	if err != nil {
		return nil, err
	}

	rt.catalog, err = loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	providerType := cfg.ProviderType()
	store, err := app.NewKeyStore()
	if err != nil {
		log.Warn("key store unavailable", "error", err)
		store = nil
	}
	cred, err := keys.NewResolver(store, cfg.APIKeys()).Resolve(flagAPIKey, providerType)
	if err != nil {
		return nil, err
	}
	log.Debug("resolved credential", "provider", providerType, "source", cred.Source)

	providerCfg := &provider.Config{
		APIKey:  cred.Key,
		BaseURL: cfg.BaseURL(providerType),
		Timeout: cfg.Timeout,
		Logger:  log.Logger,
	}
	prov, err := app.NewProvider(ctx, providerType, providerCfg, app.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	factory := provider.NewFactory(app.Registry)
	factory.Configure(providerType, providerCfg)
	factory.Register(prov)
	rt.provider, rt.model, err = factory.Resolve(providerType, models.TierStandard)
	if err != nil {
		return nil, err
	}

	opts := []session.Option{
		session.WithLogger(log.Logger),
		session.WithTracer(telemetry.Tracer("github.com/manash/retouch/internal/session")),
	}
	if !cfg.NoJournal {
		j, err := journal.OpenDir(cfg.DataDir)
		if err != nil {
			log.Warn("activity log disabled", "error", err)
		} else {
			rt.journal = j
			opts = append(opts, session.WithRecorder(j))
		}
	}

	rt.ctrl = session.New(rt.provider, rt.catalog, opts...)
	rt.ctrl.Start(ctx)

	ok = true
	return rt, nil
}

func (rt *runtime) Close(ctx context.Context) {
	if rt.journal != nil {
		if err := rt.journal.Close(); err != nil {
			rt.log.Warn("failed to close activity log", "error", err)
		}
	}
	if rt.shutdown != nil {
		if err := rt.shutdown(ctx); err != nil {
			rt.log.Warn("failed to flush traces", "error", err)
		}
	}
	rt.log.Close()
}

func runInteractive(cmd *cobra.Command, args []string, app *App) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := setup(ctx, cmd, app)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	var displayer *display.Displayer
	if app.CanDisplay(app.Out) {
		displayer = display.New(app.Out)
	}

	r := repl.New(&repl.Config{
		In:         app.In,
		Out:        app.Out,
		Err:        app.Err,
		Provider:   rt.provider.Name(),
		Controller: rt.ctrl,
		Catalog:    rt.catalog,
		Loader:     rt.loader,
		Saver:      rt.saver,
		Displayer:  displayer,
		Journal:    rt.journal,
		Logger:     rt.log.Logger,
	})

	fmt.Fprintf(app.Out, "Using %s (%s)\n", rt.provider.Name(), rt.model.Name)

	if len(args) == 1 {
		img, err := rt.loader.Load(ctx, args[0])
		if err != nil {
			return err
		}
		if err := rt.ctrl.UploadOriginal(img); err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "Opened: %s\n", args[0])
	}

	return r.Run(ctx)
}
