package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-competitors/models"
	"github.com/aluiziolira/go-scrape-competitors/pipeline"
	"github.com/jedib0t/go-pretty/v6/table"
)

func printSummary(result *models.RunResult, duration time.Duration, paths pipeline.OutputPaths, metrics map[string]interface{}) {
	writeSummary(os.Stdout, result, duration, paths, metrics)
}

func writeSummary(w io.Writer, result *models.RunResult, duration time.Duration, paths pipeline.OutputPaths, metrics map[string]interface{}) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Scrape complete")
	t.AppendHeader(table.Row{"Target", "Items", "Status"})
	for _, r := range result.Results {
		status := "ok"
		switch {
		case r.Failed():
			status = "failed: " + r.Error
		case len(r.Items) == 0:
			status = "no items"
		}
		t.AppendRow(table.Row{r.Name, len(r.Items), status})
	}
	t.AppendFooter(table.Row{"Total", result.TotalItems, fmt.Sprintf("%d errors", result.ErrorCount)})
	t.SetStyle(table.StyleRounded)
	t.Render()

	fmt.Fprintf(w, "  Requests:      %d\n", result.RequestCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Fprintf(w, "  Error types:   %v\n", result.ErrorsByType)
	}
	if valErrors, ok := metrics["validation_errors"].(map[string]int); ok && len(valErrors) > 0 {
		fmt.Fprintf(w, "  Validation:    %v\n", valErrors)
	}
	fmt.Fprintf(w, "  Duration:      %v\n", duration.Round(time.Millisecond))
	if files := paths.List(); len(files) > 0 {
		fmt.Fprintf(w, "  Output files:  %s\n", strings.Join(files, ", "))
	}
}
