package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/rshade/batchrun/internal/config"
	"github.com/rshade/batchrun/pkg/batch"
)

// itemRecord is the rendered form of one item outcome.
type itemRecord struct {
	Index    int    `json:"index"            yaml:"index"`
	Batch    int    `json:"batch"            yaml:"batch"`
	Input    string `json:"input"            yaml:"input"`
	Output   string `json:"output,omitempty" yaml:"output,omitempty"`
	Error    string `json:"error,omitempty"  yaml:"error,omitempty"`
	Attempts int    `json:"attempts"         yaml:"attempts"`
}

// runSummary aggregates a finished run for the text renderer.
type runSummary struct {
	Items    int
	Batches  int
	Failed   int
	Attempts int
	Timeouts int
	Elapsed  time.Duration
}

var (
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))            //nolint:gochecknoglobals // Style constant
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true) //nolint:gochecknoglobals // Style constant
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))            //nolint:gochecknoglobals // Style constant
	summaryStyle = lipgloss.NewStyle().Bold(true)                                 //nolint:gochecknoglobals // Style constant
)

// toRecords pairs outcomes with their inputs, keeping the group structure.
func toRecords(items []string, groups [][]batch.Outcome[string]) [][]itemRecord {
	records := make([][]itemRecord, len(groups))
	for gi, g := range groups {
		records[gi] = make([]itemRecord, len(g))
		for i, o := range g {
			rec := itemRecord{
				Index:    o.Index,
				Batch:    gi,
				Input:    items[o.Index],
				Output:   o.Value,
				Attempts: o.Attempts,
			}
			if o.Err != nil {
				rec.Error = o.Err.Error()
			}
			records[gi][i] = rec
		}
	}
	return records
}

// renderer writes run results in one output format.
type renderer struct {
	w      io.Writer
	format string
	styled bool
}

func (r renderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

// renderResults writes records nested by batch, or flat when flatten is set.
func (r renderer) renderResults(records [][]itemRecord, flatten bool, summary runSummary) error {
	var v interface{} = records
	if flatten {
		flat := make([]itemRecord, 0, summary.Items)
		for _, g := range records {
			flat = append(flat, g...)
		}
		v = flat
	}

	switch r.format {
	case config.FormatJSON:
		return r.encodeJSON(v)
	case config.FormatYAML:
		return r.encodeYAML(v)
	default:
		return r.renderText(records, flatten, summary)
	}
}

func (r renderer) encodeJSON(v interface{}) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r renderer) encodeYAML(v interface{}) error {
	enc := yaml.NewEncoder(r.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (r renderer) renderText(records [][]itemRecord, flatten bool, summary runSummary) error {
	for gi, g := range records {
		if !flatten {
			if _, err := fmt.Fprintln(r.w, r.style(mutedStyle, fmt.Sprintf("batch %d", gi+1))); err != nil {
				return err
			}
		}
		for _, rec := range g {
			status := r.style(okStyle, "ok  ")
			detail := rec.Output
			if rec.Error != "" {
				status = r.style(failStyle, "FAIL")
				detail = rec.Error
			}
			if _, err := fmt.Fprintf(r.w, "  %s #%d %s: %s\n", status, rec.Index, rec.Input, detail); err != nil {
				return err
			}
		}
	}

	p := message.NewPrinter(language.English)
	line := p.Sprintf("%d items in %d batches, %d failed, %d attempts, %d timeouts, %s",
		summary.Items, summary.Batches, summary.Failed, summary.Attempts, summary.Timeouts,
		summary.Elapsed.Round(time.Millisecond).String())
	_, err := fmt.Fprintln(r.w, r.style(summaryStyle, line))
	return err
}

// renderGroups writes the partition of items.
func (r renderer) renderGroups(groups [][]string) error {
	switch r.format {
	case config.FormatJSON:
		return r.encodeJSON(groups)
	case config.FormatYAML:
		return r.encodeYAML(groups)
	default:
		for gi, g := range groups {
			if _, err := fmt.Fprintf(r.w, "%s %v\n", r.style(mutedStyle, fmt.Sprintf("group %d:", gi+1)), g); err != nil {
				return err
			}
		}
		p := message.NewPrinter(language.English)
		_, err := p.Fprintf(r.w, "%d groups\n", len(groups))
		return err
	}
}

// formatProgress renders a progress line for stderr.
func formatProgress(s batch.ProgressSnapshot, eta time.Duration) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("batch %d/%d (%.1f%%), %d/%d items, %.1f items/s, eta %s",
		s.ProcessedGroups, s.TotalGroups, s.PercentComplete,
		s.ProcessedItems, s.TotalItems, s.ItemsPerSecond, eta.Round(time.Second).String())
}
