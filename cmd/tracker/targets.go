package main

import (
	"io"

	"github.com/aluiziolira/go-scrape-competitors/config"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newTargetsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the configured targets without fetching them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			renderTargets(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func renderTargets(w io.Writer, cfg *config.Config) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Name", "URL", "Selector", "Max", "Dedupe"})
	for i, target := range cfg.Targets {
		t.AppendRow(table.Row{i + 1, target.Name, target.URL, target.Selector, cfg.MaxItemsFor(target), target.Dedupe})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

