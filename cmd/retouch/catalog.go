package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStylesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List art styles",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			for _, s := range cat.Styles() {
				fmt.Fprintf(app.Out, "%-16s %-16s %s\n", s.ID, s.Label, s.Descriptor)
			}
			return nil
		},
	}
}

func newPresetsCmd(app *App) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List preset prompts by category",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			for i, c := range cat.Categories() {
				if i > 0 {
					fmt.Fprintln(app.Out)
				}
				fmt.Fprintln(app.Out, c.Name)
				for _, p := range c.Presets {
					fmt.Fprintf(app.Out, "  %s\n", p.Title)
					if verbose {
						fmt.Fprintf(app.Out, "      %s\n", p.Prompt)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the prompt text too")
	return cmd
}
