package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/manash/retouch/internal/keys"
	"github.com/manash/retouch/pkg/models"
)

func newKeysCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage stored API keys",
		Long: `Store, show and remove provider API keys.

Keys are kept in keys.json under the user config directory (override with
RETOUCH_CONFIG_DIR), readable only by you. A key passed with --api-key wins
over a stored key, which wins over GEMINI_API_KEY / OPENAI_API_KEY.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <provider> [key]",
		Short: "Store a key (prompts when the key is omitted)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runKeysSet(app, args)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <provider>",
		Short: "Show a stored key, masked",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runKeysGet(app, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "delete <provider>",
		Aliases: []string{"rm"},
		Short:   "Remove a stored key",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runKeysDelete(app, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show which providers have a key",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runKeysList(app)
		},
	})

	return cmd
}

func parseProvider(s string) (models.ProviderType, error) {
	p := models.ProviderType(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("unknown provider %q: must be one of %v", s, models.ValidProviders())
	}
	return p, nil
}

func runKeysSet(app *App, args []string) error {
	p, err := parseProvider(args[0])
	if err != nil {
		return err
	}

	var key string
	if len(args) == 2 {
		key = args[1]
	} else {
		key, err = app.ReadSecret(fmt.Sprintf("%s API key: ", p))
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	store, err := app.NewKeyStore()
	if err != nil {
		return err
	}
	if err := store.Set(p, key); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Stored %s key in %s\n", p, store.Path())
	return nil
}

func runKeysGet(app *App, name string) error {
	p, err := parseProvider(name)
	if err != nil {
		return err
	}
	store, err := app.NewKeyStore()
	if err != nil {
		return err
	}
	key, err := store.Get(p)
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("%w for %s", keys.ErrKeyNotFound, p)
	}
	fmt.Fprintln(app.Out, keys.MaskKey(key))
	return nil
}

func runKeysDelete(app *App, name string) error {
	p, err := parseProvider(name)
	if err != nil {
		return err
	}
	store, err := app.NewKeyStore()
	if err != nil {
		return err
	}
	if err := store.Delete(p); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Deleted %s key\n", p)
	return nil
}

func runKeysList(app *App) error {
	store, err := app.NewKeyStore()
	if err != nil {
		return err
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	envKeys := cfg.APIKeys()

	for _, p := range models.ValidProviders() {
		key, err := store.Get(p)
		if err != nil {
			return err
		}
		status := "not set"
		if key != "" {
			status = "stored " + keys.MaskKey(key)
		} else if envKeys[p] != "" {
			status = "from " + keys.EnvVars[p]
		}
		fmt.Fprintf(app.Out, "%-8s %s\n", p, status)
	}
	return nil
}

// readSecret reads without echo from a terminal, or one line from app.In
// otherwise.
func (app *App) readSecret(prompt string) (string, error) {
	if f, ok := app.In.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		fmt.Fprint(app.Err, prompt)
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(app.Err)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	line, err := bufio.NewReader(app.In).ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
