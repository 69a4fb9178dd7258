package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/manash/retouch/internal/display"
)

var (
	flagImage   string
	flagRef     string
	flagPrompt  string
	flagPreset  string
	flagStyle   string
	flagRefine  string
	flagUpscale bool
	flagOutput  string
	flagShow    bool
)

func newEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Run one generation without the interactive shell",
		Long: `Run a single generation and save the result.

With --image the picture is edited; with --ref a second image guides style and
composition. --upscale re-renders --image at 4K with the high-fidelity model.

Examples:
  retouch edit --prompt "a lighthouse at dawn" --style watercolor
  retouch edit --image house.png --preset "Forest Cabin Night" -o cabin.png
  retouch edit --image house.png --ref mood.jpg --prompt "match the mood"
  retouch edit --image small.png --upscale`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEdit(cmd, app)
		},
	}

	cmd.Flags().StringVarP(&flagImage, "image", "i", "", "image to edit (path or URL)")
	cmd.Flags().StringVarP(&flagRef, "ref", "r", "", "reference image (path or URL)")
	cmd.Flags().StringVar(&flagPrompt, "prompt", "", "prompt text")
	cmd.Flags().StringVar(&flagPreset, "preset", "", "preset title (see 'retouch presets')")
	cmd.Flags().StringVar(&flagStyle, "style", "", "art style id (see 'retouch styles')")
	cmd.Flags().StringVar(&flagRefine, "refine", "", "extra instructions appended to the prompt")
	cmd.Flags().BoolVar(&flagUpscale, "upscale", false, "upscale --image to 4K")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output filename (relative to the output directory)")
	cmd.Flags().BoolVar(&flagShow, "show", false, "display the result in the terminal")
	cmd.MarkFlagsMutuallyExclusive("prompt", "preset")

	return cmd
}

func runEdit(cmd *cobra.Command, app *App) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if flagUpscale && flagImage == "" {
		return fmt.Errorf("--upscale requires --image")
	}

	rt, err := setup(ctx, cmd, app)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	if flagImage != "" {
		img, err := rt.loader.Load(ctx, flagImage)
		if err != nil {
			return err
		}
		if err := rt.ctrl.UploadOriginal(img); err != nil {
			return err
		}
	}
	if flagRef != "" {
		img, err := rt.loader.Load(ctx, flagRef)
		if err != nil {
			return err
		}
		if err := rt.ctrl.UploadReference(img); err != nil {
			return err
		}
	}

	switch {
	case flagPreset != "":
		p, err := rt.catalog.FindPreset(flagPreset)
		if err != nil {
			return err
		}
		rt.ctrl.SelectPreset(p.Title, p.Prompt)
	case flagPrompt != "":
		rt.ctrl.SetManualPrompt(flagPrompt)
	}

	if flagStyle != "" {
		s, err := rt.catalog.FindStyle(flagStyle)
		if err != nil {
			return err
		}
		rt.ctrl.ToggleStyle(s.ID)
	}
	rt.ctrl.SetAdditionalPrompt(flagRefine)

	fmt.Fprintf(app.Out, "Generating with %s...\n", rt.provider.Name())

	gen, err := rt.ctrl.Generate(ctx, flagUpscale)
	if err != nil {
		return err
	}
	if gen.Skipped {
		return fmt.Errorf("nothing to generate: pass --prompt, --preset or --image")
	}

	path, err := rt.saver.Save(gen.Image, flagOutput)
	if err != nil {
		return err
	}

	if flagShow && app.CanDisplay(app.Out) {
		if err := display.New(app.Out).Display(gen.Image, display.View{}); err != nil {
			fmt.Fprintf(app.Err, "Warning: failed to display: %v\n", err)
		}
	}

	fmt.Fprintf(app.Out, "Saved: %s (%s, %s in %s)\n", path, gen.Model,
		humanize.Bytes(uint64(gen.Image.Size())), gen.Elapsed.Round(100*time.Millisecond))
	return nil
}
