package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/textutil"
)

// report is the document written to --output
type report struct {
	BaseURL        string                         `json:"baseUrl"`
	GeneratedAt    time.Time                      `json:"generatedAt"`
	Crawl          []model.CrawlResult            `json:"crawl"`
	Triggers       []model.BookingTrigger         `json:"triggers"`
	Flows          []model.BookingFlow            `json:"flows"`
	BookingSystems []model.BookingSystemDiscovery `json:"bookingSystems"`
}

// writeReport writes v as indented JSON to path, or stdout for "-"
func writeReport(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	if path == "-" || path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// printSummary renders one row per flow variation and one per widget
func printSummary(w io.Writer, rep report) {
	if len(rep.Flows) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Flow", "Variation", "Type", "Steps", "Completed", "Stopped"})
		for _, f := range rep.Flows {
			for _, v := range f.Flows {
				mode := v.GroupSizeMode
				if v.GroupSize > 0 {
					mode = fmt.Sprintf("%s (%d)", mode, v.GroupSize)
				}
				t.AppendRow(table.Row{textutil.Truncate(f.Name, 40), mode, v.FlowType, stepPath(v.Steps), v.Completed, v.TerminationReason})
			}
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	}

	if len(rep.BookingSystems) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Widget", "Platform", "Categories", "Packages", "Errors"})
		for _, s := range rep.BookingSystems {
			t.AppendRow(table.Row{textutil.Truncate(s.URL, 60), s.Platform, len(s.Categories), len(s.Packages), len(s.Errors)})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	}
}

// stepPath abbreviates the step types of a variation, e.g.
// "product_selection > date_selection"
func stepPath(steps []model.FlowStep) string {
	if len(steps) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		parts = append(parts, string(s.StepType))
	}
	return fmt.Sprintf("%d: %s", len(steps), strings.Join(parts, " > "))
}
