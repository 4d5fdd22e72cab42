package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pfrederiksen/bts-board/internal/table"
	"github.com/pfrederiksen/bts-board/internal/view"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatHTML OutputFormat = "html"
)

// OutputResult contains the panels fetched by show
type OutputResult struct {
	CheckedAt  time.Time    `json:"checked_at"`
	Today      string       `json:"today"`
	Date       string       `json:"date,omitempty"`
	Candidates []string     `json:"candidates,omitempty"`
	Panels     []view.Panel `json:"panels"`
}

// Failed reports whether any panel ended in the error state
func (r *OutputResult) Failed() bool {
	for _, p := range r.Panels {
		if p.Status == view.StatusError {
			return true
		}
	}
	return false
}

// DatesResult is the output of the dates command
type DatesResult struct {
	Today      string   `json:"today"`
	Candidates []string `json:"candidates"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	case FormatHTML:
		return view.Render(w, view.Page{
			Today:      result.Today,
			Candidates: result.Candidates,
			Selected:   result.Date,
			Panels:     result.Panels,
		})
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteDates writes the dates command output
func WriteDates(w io.Writer, result *DatesResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		fmt.Fprintf(w, "Today: %s\n", result.Today)
		for _, c := range result.Candidates {
			fmt.Fprintf(w, "  %s\n", c)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs panels as aligned tables
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	heading := result.Today
	if result.Date != "" {
		heading = result.Date
	}
	fmt.Fprintf(w, "%s\n", heading)

	for _, p := range result.Panels {
		fmt.Fprintf(w, "\n%s:\n", p.Title)

		switch {
		case p.HasTable():
			if err := table.WriteText(w, p.Table); err != nil {
				return err
			}
			if verbose {
				fmt.Fprintf(w, "  (%s rows, %s from %s)\n",
					humanize.Comma(int64(p.Table.Len())), humanize.Bytes(uint64(p.Size)), p.URL)
			}
		case p.HasBanner():
			fmt.Fprintf(w, "  %s\n", p.Message)
			if verbose {
				fmt.Fprintf(w, "  (source: %s)\n", p.URL)
			}
		default:
			fmt.Fprintf(w, "  (%s)\n", p.Status)
		}
	}

	return nil
}
