package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pfrederiksen/force-scraper/internal/department"
	"github.com/pfrederiksen/force-scraper/internal/logger"
	"github.com/pfrederiksen/force-scraper/internal/scraper"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// Summary describes a finished run.
type Summary struct {
	Command     string          `json:"command"`
	StartedAt   time.Time       `json:"started_at"`
	Duration    string          `json:"duration"`
	Departments int             `json:"departments"`
	Files       []string        `json:"files"`
	Metrics     logger.Snapshot `json:"metrics"`
}

func newSummary(command string, started time.Time, departments int, files []string) *Summary {
	return &Summary{
		Command:     command,
		StartedAt:   started,
		Duration:    time.Since(started).Round(time.Millisecond).String(),
		Departments: departments,
		Files:       files,
		Metrics:     logger.MetricsSnapshot(),
	}
}

// WriteSummary writes the run summary in the specified format
func WriteSummary(w io.Writer, s *Summary, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, s)
	case FormatText:
		return writeSummaryText(w, s)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeSummaryText(w io.Writer, s *Summary) error {
	fmt.Fprintf(w, "%s: %d departments in %s\n", s.Command, s.Departments, s.Duration)

	if len(s.Files) == 0 {
		fmt.Fprintln(w, "No files written.")
	} else {
		fmt.Fprintln(w, "Files written:")
		for _, f := range s.Files {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}

	if len(s.Metrics.Counters) == 0 {
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Value"})
	for _, name := range s.Metrics.CounterNames() {
		t.AppendRow(table.Row{name, s.Metrics.Counters[name]})
	}
	for name, stats := range s.Metrics.Timings {
		t.AppendRow(table.Row{name + " (avg)", stats.Average.Round(time.Millisecond).String()})
	}
	t.SortBy([]table.SortBy{{Name: "Metric", Mode: table.Asc}})
	t.Render()
	return nil
}

// WriteDepartments writes the department listing in the specified format
func WriteDepartments(w io.Writer, depts []department.Department, sc *scraper.Scraper, format OutputFormat) error {
	switch format {
	case FormatJSON:
		type entry struct {
			department.Department
			FullURL string `json:"full_url"`
		}
		out := make([]entry, len(depts))
		for i, d := range depts {
			out[i] = entry{Department: d, FullURL: sc.FullURL(d.RelativeURL)}
		}
		return writeJSON(w, out)
	case FormatText:
		if len(depts) == 0 {
			fmt.Fprintln(w, "No departments found.")
			return nil
		}
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"#", "Department", "URL"})
		for i, d := range depts {
			t.AppendRow(table.Row{i + 1, d.Name, sc.FullURL(d.RelativeURL)})
		}
		t.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d", len(depts)), ""})
		t.Render()
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
