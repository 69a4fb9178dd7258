package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/manash/retouch/internal/catalog"
	"github.com/manash/retouch/internal/display"
	"github.com/manash/retouch/internal/image"
	"github.com/manash/retouch/internal/journal"
	"github.com/manash/retouch/internal/session"
	"github.com/manash/retouch/pkg/models"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#B0B8C4")
	colorError   = lipgloss.Color("#EF4444")
	colorSuccess = lipgloss.Color("#10B981")

	titleStyle   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	promptStyle  = lipgloss.NewStyle().Foreground(colorPrimary)
)

type REPL struct {
	in        io.Reader
	out       io.Writer
	err       io.Writer
	provider  models.ProviderType
	ctrl      *session.Controller
	catalog   *catalog.Catalog
	loader    *image.Loader
	saver     *image.Saver
	displayer *display.Displayer
	journal   *journal.Journal
	log       *slog.Logger
	commands  map[string]Command
	ordered   []Command
	scanner   *bufio.Scanner
	running   bool
}

type Config struct {
	In       io.Reader
	Out      io.Writer
	Err      io.Writer
	Provider models.ProviderType
	// Controller holds the editing state. Required.
	Controller *session.Controller
	Catalog    *catalog.Catalog
	Loader     *image.Loader
	Saver      *image.Saver
	// Displayer previews images inline. Nil disables previews.
	Displayer *display.Displayer
	// Journal backs the log command. Nil disables it.
	Journal *journal.Journal
	Logger  *slog.Logger
}

func New(cfg *Config) *REPL {
	r := &REPL{
		in:        cfg.In,
		out:       cfg.Out,
		err:       cfg.Err,
		provider:  cfg.Provider,
		ctrl:      cfg.Controller,
		catalog:   cfg.Catalog,
		loader:    cfg.Loader,
		saver:     cfg.Saver,
		displayer: cfg.Displayer,
		journal:   cfg.Journal,
		log:       cfg.Logger,
		commands:  make(map[string]Command),
	}
	if r.catalog == nil {
		r.catalog = catalog.Default()
	}
	if r.loader == nil {
		r.loader = image.NewLoader()
	}
	if r.saver == nil {
		r.saver = image.NewSaver(".")
	}
	if r.log == nil {
		r.log = slog.New(slog.DiscardHandler)
	}
	r.registerCommands()
	return r
}

func (r *REPL) Run(ctx context.Context) error {
	r.running = true
	r.printWelcome()

	scanner := r.lines()
	for r.running {
		r.printPrompt()
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := r.execute(ctx, line); err != nil {
			lipgloss.Fprintf(r.err, "%s %v\n", errorStyle.Render("Error:"), err)
		}
	}

	return scanner.Err()
}

// lines returns the shared input scanner. Commands that ask questions read
// their answer from it too.
func (r *REPL) lines() *bufio.Scanner {
	if r.scanner == nil {
		r.scanner = bufio.NewScanner(r.in)
	}
	return r.scanner
}

func (r *REPL) execute(ctx context.Context, line string) error {
	parts := parseCommand(line)
	if len(parts) == 0 {
		return nil
	}

	cmdName := strings.ToLower(parts[0])
	args := parts[1:]

	cmd, ok := r.commands[cmdName]
	if !ok {
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmdName)
	}

	// Free text keeps its quotes and apostrophes.
	if _, ok := cmd.(textCommand); ok {
		args = nil
		if _, rest, found := strings.Cut(line, " "); found {
			if rest = strings.TrimSpace(rest); rest != "" {
				args = []string{rest}
			}
		}
	}

	r.log.Debug("executing command", "command", cmd.Name(), "args", len(args))
	return cmd.Execute(ctx, r, args)
}

func (r *REPL) Stop() {
	r.running = false
}

// confirm asks a yes/no question on the input stream. End of input counts
// as no.
func (r *REPL) confirm(_ context.Context, message string) (bool, error) {
	fmt.Fprintf(r.out, "%s [y/N] ", message)
	scanner := r.lines()
	if !scanner.Scan() {
		fmt.Fprintln(r.out)
		return false, scanner.Err()
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// show previews the current image with the session's view transform.
func (r *REPL) show() {
	if r.displayer == nil {
		return
	}
	snap := r.ctrl.Snapshot()
	img := snap.Current()
	if img.Empty() {
		return
	}
	view := display.View{Rotation: snap.Rotation, FlipX: snap.FlipX}
	if err := r.displayer.Display(img, view); err != nil {
		lipgloss.Fprintf(r.err, "%s failed to display: %v\n", mutedStyle.Render("Warning:"), err)
	}
}

func (r *REPL) printWelcome() {
	lipgloss.Fprintln(r.out, titleStyle.Render("retouch interactive mode"))
	fmt.Fprintln(r.out, "Open an image or set a prompt, then 'generate'. Type 'help' for commands, 'quit' to exit.")
	fmt.Fprintln(r.out)
}

func (r *REPL) printPrompt() {
	snap := r.ctrl.Snapshot()
	label := fmt.Sprintf("retouch [%s]", r.provider)
	if n := len(snap.History); n > 0 {
		label += fmt.Sprintf(" %d/%d", snap.HistoryIndex+1, n)
	}
	lipgloss.Fprint(r.out, promptStyle.Render(label)+"> ")
}

func parseCommand(line string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case ch == '"' || ch == '\'':
			if inQuotes && ch == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else if !inQuotes {
				inQuotes = true
				quoteChar = ch
			} else {
				current.WriteRune(ch)
			}
		case ch == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
