package main

import (
	"log/slog"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	cfgFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "docnav",
		Short: "Build in-page navigation for documentation pages",
		Long: `docnav reads the headings of HTML, Markdown, PDF and DOCX documents
and builds the nested navigation tree that sits beside the page content.
HTML and Markdown pages are rendered with the navigation injected.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "docnav.yml", "config file path")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(
		newBuildCmd(opts),
		newTreeCmd(opts),
		newTOCCmd(opts),
	)
	return cmd
}

// load reads the configuration and builds the logger for a command.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return cfg, log, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, log, err
	}
	return cfg, log, nil
}
