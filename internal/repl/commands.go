package repl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/dustin/go-humanize"

	"github.com/manash/retouch/internal/image"
	"github.com/manash/retouch/internal/journal"
	"github.com/manash/retouch/internal/prompt"
	"github.com/manash/retouch/internal/session"
	"github.com/manash/retouch/pkg/models"
)

type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Usage() string
	Execute(ctx context.Context, r *REPL, args []string) error
}

// textCommand marks commands whose argument is the rest of the line, verbatim.
type textCommand interface {
	takesText()
}

func (r *REPL) registerCommands() {
	r.ordered = []Command{
		&PromptCommand{},
		&PresetCommand{},
		&UnpresetCommand{},
		&StyleCommand{},
		&RefineCommand{},
		&GenerateCommand{},
		&UpscaleCommand{},
		&UndoCommand{},
		&RedoCommand{},
		&RotateCommand{},
		&FlipCommand{},
		&OpenCommand{},
		&RefCommand{},
		&UnrefCommand{},
		&ResetCommand{},
		&NewCommand{},
		&SaveCommand{},
		&ShowCommand{},
		&StatusCommand{},
		&StylesCommand{},
		&PresetsCommand{},
		&LogCommand{},
		&HelpCommand{},
		&QuitCommand{},
	}

	for _, cmd := range r.ordered {
		r.commands[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases() {
			r.commands[alias] = cmd
		}
	}
}

// PromptCommand sets the typed prompt
type PromptCommand struct{}

func (c *PromptCommand) Name() string        { return "prompt" }
func (c *PromptCommand) Aliases() []string   { return []string{"p"} }
func (c *PromptCommand) Description() string { return "Type the prompt (replaces any preset)" }
func (c *PromptCommand) Usage() string       { return "prompt [text]" }
func (c *PromptCommand) takesText()          {}

func (c *PromptCommand) Execute(_ context.Context, r *REPL, args []string) error {
	text := strings.Join(args, " ")
	r.ctrl.SetManualPrompt(text)
	if text == "" {
		fmt.Fprintln(r.out, "Prompt cleared")
		return nil
	}
	fmt.Fprintf(r.out, "Prompt: %s\n", text)
	return nil
}

// PresetCommand selects a catalog preset
type PresetCommand struct{}

func (c *PresetCommand) Name() string        { return "preset" }
func (c *PresetCommand) Aliases() []string   { return nil }
func (c *PresetCommand) Description() string { return "Use a preset prompt (replaces typed text)" }
func (c *PresetCommand) Usage() string       { return "preset <title>" }
func (c *PresetCommand) takesText()          {}

func (c *PresetCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return (&PresetsCommand{}).Execute(ctx, r, nil)
	}

	p, err := r.catalog.FindPreset(args[0])
	if err != nil {
		return err
	}
	r.ctrl.SelectPreset(p.Title, p.Prompt)
	fmt.Fprintf(r.out, "Preset: %s\n", p.Title)
	lipgloss.Fprintln(r.out, mutedStyle.Render("  "+truncate(p.Prompt, 100)))
	return nil
}

// UnpresetCommand drops the selected preset
type UnpresetCommand struct{}

func (c *UnpresetCommand) Name() string        { return "unpreset" }
func (c *UnpresetCommand) Aliases() []string   { return nil }
func (c *UnpresetCommand) Description() string { return "Clear the selected preset" }
func (c *UnpresetCommand) Usage() string       { return "unpreset" }

func (c *UnpresetCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	if r.ctrl.Snapshot().Source.Kind() != prompt.SourcePreset {
		fmt.Fprintln(r.out, "No preset selected")
		return nil
	}
	r.ctrl.ClearPreset()
	fmt.Fprintln(r.out, "Preset cleared")
	return nil
}

// StyleCommand toggles an art style
type StyleCommand struct{}

func (c *StyleCommand) Name() string        { return "style" }
func (c *StyleCommand) Aliases() []string   { return nil }
func (c *StyleCommand) Description() string { return "Toggle an art style (same id again clears it)" }
func (c *StyleCommand) Usage() string       { return "style <id>" }

func (c *StyleCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return (&StylesCommand{}).Execute(ctx, r, nil)
	}

	s, err := r.catalog.FindStyle(args[0])
	if err != nil {
		return err
	}
	if r.ctrl.ToggleStyle(s.ID) == "" {
		fmt.Fprintln(r.out, "Style cleared")
		return nil
	}
	fmt.Fprintf(r.out, "Style: %s\n", s.Label)
	return nil
}

// RefineCommand sets the one-shot additional prompt
type RefineCommand struct{}

func (c *RefineCommand) Name() string        { return "refine" }
func (c *RefineCommand) Aliases() []string   { return []string{"add"} }
func (c *RefineCommand) Description() string { return "Add instructions for the next generation only" }
func (c *RefineCommand) Usage() string       { return "refine [text]" }
func (c *RefineCommand) takesText()          {}

func (c *RefineCommand) Execute(_ context.Context, r *REPL, args []string) error {
	text := strings.Join(args, " ")
	r.ctrl.SetAdditionalPrompt(text)
	if text == "" {
		fmt.Fprintln(r.out, "Refinement cleared")
		return nil
	}
	fmt.Fprintf(r.out, "Refinement: %s\n", text)
	return nil
}

// GenerateCommand runs the provider on the current inputs
type GenerateCommand struct{}

func (c *GenerateCommand) Name() string        { return "generate" }
func (c *GenerateCommand) Aliases() []string   { return []string{"gen", "g"} }
func (c *GenerateCommand) Description() string { return "Generate from the prompt, style and images" }
func (c *GenerateCommand) Usage() string       { return "generate" }

func (c *GenerateCommand) Execute(ctx context.Context, r *REPL, _ []string) error {
	return r.generate(ctx, false)
}

// UpscaleCommand re-renders the current image at high fidelity
type UpscaleCommand struct{}

func (c *UpscaleCommand) Name() string        { return "upscale" }
func (c *UpscaleCommand) Aliases() []string   { return []string{"4k"} }
func (c *UpscaleCommand) Description() string { return "Upscale the current image to 4K" }
func (c *UpscaleCommand) Usage() string       { return "upscale" }

func (c *UpscaleCommand) Execute(ctx context.Context, r *REPL, _ []string) error {
	if r.ctrl.Current().Empty() {
		return fmt.Errorf("no image to upscale - use 'open' or 'generate' first")
	}
	return r.generate(ctx, true)
}

func (r *REPL) generate(ctx context.Context, upscale bool) error {
	verb := "Generating"
	if upscale {
		verb = "Upscaling"
	}
	fmt.Fprintf(r.out, "%s with %s...\n", verb, r.provider)

	gen, err := r.ctrl.Generate(ctx, upscale)
	if err != nil {
		return err
	}
	if gen.Skipped {
		fmt.Fprintln(r.out, "Nothing to generate: set a prompt or open an image first")
		return nil
	}

	snap := r.ctrl.Snapshot()
	lipgloss.Fprintf(r.out, "%s %s, %s in %s (%d/%d)\n",
		successStyle.Render("Done:"), gen.Model, humanize.Bytes(uint64(gen.Image.Size())),
		gen.Elapsed.Round(100*time.Millisecond), snap.HistoryIndex+1, len(snap.History))
	r.show()
	return nil
}

// UndoCommand steps back through the history
type UndoCommand struct{}

func (c *UndoCommand) Name() string        { return "undo" }
func (c *UndoCommand) Aliases() []string   { return []string{"u", "back"} }
func (c *UndoCommand) Description() string { return "Step back to the previous result" }
func (c *UndoCommand) Usage() string       { return "undo" }

func (c *UndoCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	if !r.ctrl.Undo() {
		fmt.Fprintln(r.out, "Nothing to undo")
		return nil
	}
	r.printPosition()
	r.show()
	return nil
}

// RedoCommand steps forward through the history
type RedoCommand struct{}

func (c *RedoCommand) Name() string        { return "redo" }
func (c *RedoCommand) Aliases() []string   { return []string{"r"} }
func (c *RedoCommand) Description() string { return "Step forward to the next result" }
func (c *RedoCommand) Usage() string       { return "redo" }

func (c *RedoCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	if !r.ctrl.Redo() {
		fmt.Fprintln(r.out, "Nothing to redo")
		return nil
	}
	r.printPosition()
	r.show()
	return nil
}

func (r *REPL) printPosition() {
	snap := r.ctrl.Snapshot()
	if snap.HistoryIndex < 0 {
		fmt.Fprintf(r.out, "Showing original (0/%d)\n", len(snap.History))
		return
	}
	fmt.Fprintf(r.out, "Showing result %d/%d\n", snap.HistoryIndex+1, len(snap.History))
}

// RotateCommand turns the preview
type RotateCommand struct{}

func (c *RotateCommand) Name() string        { return "rotate" }
func (c *RotateCommand) Aliases() []string   { return []string{"rot"} }
func (c *RotateCommand) Description() string { return "Rotate the preview (degrees, left or right)" }
func (c *RotateCommand) Usage() string       { return "rotate [degrees|left|right]" }

func (c *RotateCommand) Execute(_ context.Context, r *REPL, args []string) error {
	delta := 90
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "left", "l", "ccw":
			delta = -90
		case "right", "r", "cw":
			delta = 90
		default:
			n, err := strconv.Atoi(strings.TrimSuffix(args[0], "°"))
			if err != nil {
				return fmt.Errorf("invalid rotation %q: %s", args[0], c.Usage())
			}
			delta = n
		}
	}

	total := r.ctrl.Rotate(delta)
	fmt.Fprintf(r.out, "Rotation: %d°\n", total)
	r.show()
	return nil
}

// FlipCommand mirrors the preview
type FlipCommand struct{}

func (c *FlipCommand) Name() string        { return "flip" }
func (c *FlipCommand) Aliases() []string   { return []string{"mirror"} }
func (c *FlipCommand) Description() string { return "Mirror the preview horizontally" }
func (c *FlipCommand) Usage() string       { return "flip" }

func (c *FlipCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	if r.ctrl.ToggleFlip() {
		fmt.Fprintln(r.out, "Flip: on")
	} else {
		fmt.Fprintln(r.out, "Flip: off")
	}
	r.show()
	return nil
}

// OpenCommand loads the original image
type OpenCommand struct{}

func (c *OpenCommand) Name() string        { return "open" }
func (c *OpenCommand) Aliases() []string   { return []string{"o", "upload"} }
func (c *OpenCommand) Description() string { return "Open an image to edit (clears results)" }
func (c *OpenCommand) Usage() string       { return "open <path|url>" }

func (c *OpenCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	img, err := r.loader.Load(ctx, args[0])
	if err != nil {
		return err
	}
	if err := r.ctrl.UploadOriginal(img); err != nil {
		return err
	}
	r.printInfo("Opened", img)
	r.show()
	return nil
}

// RefCommand loads the reference image
type RefCommand struct{}

func (c *RefCommand) Name() string        { return "ref" }
func (c *RefCommand) Aliases() []string   { return []string{"reference"} }
func (c *RefCommand) Description() string { return "Set a reference image for style and composition" }
func (c *RefCommand) Usage() string       { return "ref <path|url>" }

func (c *RefCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	img, err := r.loader.Load(ctx, args[0])
	if err != nil {
		return err
	}
	if err := r.ctrl.UploadReference(img); err != nil {
		return err
	}
	r.printInfo("Reference", img)
	return nil
}

// UnrefCommand drops the reference image
type UnrefCommand struct{}

func (c *UnrefCommand) Name() string        { return "unref" }
func (c *UnrefCommand) Aliases() []string   { return nil }
func (c *UnrefCommand) Description() string { return "Remove the reference image" }
func (c *UnrefCommand) Usage() string       { return "unref" }

func (c *UnrefCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	r.ctrl.ClearReference()
	fmt.Fprintln(r.out, "Reference cleared")
	return nil
}

func (r *REPL) printInfo(label string, img *models.Image) {
	info, err := image.Inspect(img)
	if err != nil {
		fmt.Fprintf(r.out, "%s: %s\n", label, humanize.Bytes(uint64(img.Size())))
		return
	}
	fmt.Fprintf(r.out, "%s: %dx%d %s (%s)\n", label, info.Width, info.Height, info.Format, humanize.Bytes(uint64(info.Bytes)))
}

// ResetCommand drops results and view settings
type ResetCommand struct{}

func (c *ResetCommand) Name() string      { return "reset" }
func (c *ResetCommand) Aliases() []string { return nil }
func (c *ResetCommand) Description() string {
	return "Drop results, refinement, style and view changes (keeps images and prompt)"
}
func (c *ResetCommand) Usage() string { return "reset" }

func (c *ResetCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	if err := r.ctrl.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "Reset to original")
	r.show()
	return nil
}

// NewCommand starts over after confirmation
type NewCommand struct{}

func (c *NewCommand) Name() string        { return "new" }
func (c *NewCommand) Aliases() []string   { return nil }
func (c *NewCommand) Description() string { return "Start a new project (asks first)" }
func (c *NewCommand) Usage() string       { return "new" }

func (c *NewCommand) Execute(ctx context.Context, r *REPL, _ []string) error {
	err := r.ctrl.NewProject(ctx, session.ConfirmFunc(r.confirm))
	if errors.Is(err, session.ErrNotConfirmed) {
		fmt.Fprintln(r.out, "Cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, "Started a new project")
	return nil
}

// SaveCommand writes the current image
type SaveCommand struct{}

func (c *SaveCommand) Name() string        { return "save" }
func (c *SaveCommand) Aliases() []string   { return []string{"s", "download"} }
func (c *SaveCommand) Description() string { return "Save the current image" }
func (c *SaveCommand) Usage() string       { return "save [filename]" }

func (c *SaveCommand) Execute(_ context.Context, r *REPL, args []string) error {
	var name string
	if len(args) > 0 {
		name = args[0]
	}

	path, err := r.saver.Save(r.ctrl.Current(), name)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Saved: %s\n", path)
	return nil
}

// ShowCommand previews the current image
type ShowCommand struct{}

func (c *ShowCommand) Name() string        { return "show" }
func (c *ShowCommand) Aliases() []string   { return []string{"display", "view"} }
func (c *ShowCommand) Description() string { return "Display the current image" }
func (c *ShowCommand) Usage() string       { return "show" }

func (c *ShowCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	if r.displayer == nil {
		return fmt.Errorf("inline images are not supported by this terminal")
	}
	if r.ctrl.Current().Empty() {
		return fmt.Errorf("no image yet - use 'open' or 'generate' first")
	}
	r.show()
	return nil
}

// StatusCommand prints the editing state
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Aliases() []string   { return []string{"st", "info"} }
func (c *StatusCommand) Description() string { return "Show prompt, style, images and history position" }
func (c *StatusCommand) Usage() string       { return "status" }

func (c *StatusCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	snap := r.ctrl.Snapshot()

	row := func(label, value string) {
		lipgloss.Fprintf(r.out, "  %s %s\n", mutedStyle.Render(fmt.Sprintf("%-11s", label+":")), value)
	}

	lipgloss.Fprintln(r.out, titleStyle.Render("Project "+shortID(snap.ProjectID)))
	switch snap.Source.Kind() {
	case prompt.SourceManual:
		row("Prompt", snap.Source.ManualText())
	case prompt.SourcePreset:
		row("Preset", snap.Source.PresetTitle())
	default:
		row("Prompt", "-")
	}
	row("Style", orDash(snap.Style))
	row("Refine", orDash(snap.Additional))
	row("Original", imageSummary(snap.Original))
	row("Reference", imageSummary(snap.Reference))
	row("History", fmt.Sprintf("%d/%d", snap.HistoryIndex+1, len(snap.History)))
	row("View", fmt.Sprintf("%d° flip=%t", snap.Rotation, snap.FlipX))
	if snap.Loading {
		row("Busy", "generation in progress")
	}
	return nil
}

func imageSummary(img *models.Image) string {
	if img.Empty() {
		return "-"
	}
	return fmt.Sprintf("%s %s", img.MIMEType, humanize.Bytes(uint64(img.Size())))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// StylesCommand lists art styles
type StylesCommand struct{}

func (c *StylesCommand) Name() string        { return "styles" }
func (c *StylesCommand) Aliases() []string   { return nil }
func (c *StylesCommand) Description() string { return "List art styles" }
func (c *StylesCommand) Usage() string       { return "styles" }

func (c *StylesCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	selected := r.ctrl.Snapshot().Style
	for _, s := range r.catalog.Styles() {
		marker := "  "
		if s.ID == selected {
			marker = "* "
		}
		lipgloss.Fprintf(r.out, "%s%-16s %s\n", marker, s.ID, mutedStyle.Render(s.Label))
	}
	return nil
}

// PresetsCommand lists preset prompts by category
type PresetsCommand struct{}

func (c *PresetsCommand) Name() string        { return "presets" }
func (c *PresetsCommand) Aliases() []string   { return nil }
func (c *PresetsCommand) Description() string { return "List preset prompts" }
func (c *PresetsCommand) Usage() string       { return "presets" }

func (c *PresetsCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	selected := r.ctrl.Snapshot().Source.PresetTitle()
	for _, cat := range r.catalog.Categories() {
		lipgloss.Fprintln(r.out, titleStyle.Render(cat.Name))
		for _, p := range cat.Presets {
			marker := "  "
			if p.Title == selected {
				marker = "* "
			}
			fmt.Fprintf(r.out, "%s%s\n", marker, p.Title)
		}
	}
	return nil
}

// LogCommand shows recent provider calls
type LogCommand struct{}

func (c *LogCommand) Name() string        { return "log" }
func (c *LogCommand) Aliases() []string   { return []string{"history", "h"} }
func (c *LogCommand) Description() string { return "Show recent generations" }
func (c *LogCommand) Usage() string       { return "log [count]" }

func (c *LogCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if r.journal == nil {
		return fmt.Errorf("activity log is disabled")
	}

	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		limit = n
	}

	entries, err := r.journal.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read activity log: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.out, "No generations yet")
		return nil
	}

	for _, e := range entries {
		status := successStyle.Render(e.Status)
		if e.Status == journal.StatusFailed {
			status = errorStyle.Render(e.Status)
		}
		lipgloss.Fprintf(r.out, "%s  %-6s  %-28s  %6s  %s\n",
			mutedStyle.Render(fmt.Sprintf("%-14s", humanize.Time(e.CreatedAt))),
			status, e.Model, humanize.Bytes(uint64(e.OutputBytes)), truncate(e.Prompt, 50))
		if e.Error != "" {
			lipgloss.Fprintln(r.out, mutedStyle.Render("    "+e.Error))
		}
	}

	stats, err := r.journal.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read activity log: %w", err)
	}
	fmt.Fprintf(r.out, "%d generation(s), %d failed, %s produced across %d project(s)\n",
		stats.Generations, stats.Failures, humanize.Bytes(uint64(stats.OutputBytes)), stats.Projects)
	return nil
}

// HelpCommand lists commands
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Aliases() []string   { return []string{"?"} }
func (c *HelpCommand) Description() string { return "Show available commands" }
func (c *HelpCommand) Usage() string       { return "help" }

func (c *HelpCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	fmt.Fprintln(r.out, "Available commands:")
	fmt.Fprintln(r.out)

	for _, cmd := range r.ordered {
		aliases := ""
		if len(cmd.Aliases()) > 0 {
			aliases = fmt.Sprintf(" (%s)", strings.Join(cmd.Aliases(), ", "))
		}
		fmt.Fprintf(r.out, "  %-24s%s\n", cmd.Name()+aliases, cmd.Description())
		lipgloss.Fprintln(r.out, mutedStyle.Render(fmt.Sprintf("  %-24sUsage: %s", "", cmd.Usage())))
	}

	return nil
}

// QuitCommand exits the REPL
type QuitCommand struct{}

func (c *QuitCommand) Name() string        { return "quit" }
func (c *QuitCommand) Aliases() []string   { return []string{"exit", "q"} }
func (c *QuitCommand) Description() string { return "Exit interactive mode" }
func (c *QuitCommand) Usage() string       { return "quit" }

func (c *QuitCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	fmt.Fprintln(r.out, "Goodbye!")
	r.Stop()
	return nil
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
