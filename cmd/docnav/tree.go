package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgallion1/docnav/internal/navigator"
	"github.com/dgallion1/docnav/internal/parser"
	"github.com/spf13/cobra"
)

func newTreeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file>",
		Short: "Print the navigation tree of a document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := root.load(cmd)
			if err != nil {
				return err
			}

			path := args[0]
			p, err := parser.ForFile(path, cfg.ParserOptions())
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := p.Parse(f, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			opts := cfg.NavOptions()
			for _, w := range navigator.Warnings(navigator.Validate(doc, opts)) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(navigator.Build(doc, opts))
		},
	}
}
