package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/docnav/internal/sitetoc"
	"github.com/spf13/cobra"
)

func newTOCCmd(root *rootOptions) *cobra.Command {
	var active, siteRoot string
	cmd := &cobra.Command{
		Use:   "toc <file>",
		Short: "Print a site table of contents, or the trail to the active page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := root.load(cmd)
			if err != nil {
				return err
			}
			if siteRoot == "" {
				siteRoot = cfg.SiteRoot
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			toc, err := sitetoc.Parse(f, siteRoot)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if active == "" {
				printTOC(out, toc.Entries, 0)
				return nil
			}
			trail := toc.Trail(active)
			if trail == nil {
				return fmt.Errorf("%s is not in the table of contents", active)
			}
			titles := make([]string, len(trail))
			for i, e := range trail {
				titles[i] = e.Title
			}
			fmt.Fprintln(out, strings.Join(titles, " > "))
			return nil
		},
	}
	cmd.Flags().StringVar(&active, "active", "", "page path to locate")
	cmd.Flags().StringVar(&siteRoot, "root", "", "site root substituted into links (default from config)")
	return cmd
}

func printTOC(w io.Writer, entries []*sitetoc.Entry, depth int) {
	for _, e := range entries {
		line := strings.Repeat("  ", depth) + e.Title
		if e.Href != "" {
			line += "  " + e.Href
		}
		fmt.Fprintln(w, line)
		printTOC(w, e.Children, depth+1)
	}
}
