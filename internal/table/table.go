package table

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// ErrEmpty is returned when the CSV text contains no rows
var ErrEmpty = errors.New("csv has no rows")

// Table is a parsed CSV file. Rows may have different lengths; no header or
// column schema is assumed.
type Table struct {
	Rows [][]string `json:"rows"`
}

// Parse splits text into rows on newlines and into cells on commas.
// Quoting and escaping are not supported: a comma always starts a new cell.
// A trailing "\r" is stripped from each line and trailing blank lines are
// dropped. Blank lines between rows are kept as empty rows.
func Parse(text string) (*Table, error) {
	text = strings.TrimRight(text, "\r\n")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmpty
	}

	lines := strings.Split(text, "\n")
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		rows = append(rows, strings.Split(line, ","))
	}

	return &Table{Rows: rows}, nil
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Width returns the number of cells in the widest row
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	width := 0
	for _, row := range t.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// WriteText writes the table as tab-aligned columns
func WriteText(w io.Writer, t *Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	return tw.Flush()
}
