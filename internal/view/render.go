package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/dustin/go-humanize"
)

//go:embed templates/page.html
var templateFS embed.FS

// DefaultTitle is the page heading
const DefaultTitle = "Beat the Streak"

var pageTemplate = template.Must(template.New("page.html").Funcs(template.FuncMap{
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"bytes": func(n int64) string {
		if n < 0 {
			n = 0
		}
		return humanize.Bytes(uint64(n))
	},
}).ParseFS(templateFS, "templates/page.html"))

// Page is everything the page template needs
type Page struct {
	Title      string
	Today      string
	Candidates []string
	Selected   string
	Panels     []Panel
}

// Render writes the page as HTML. Nothing is written if rendering fails.
func Render(w io.Writer, p Page) error {
	if p.Title == "" {
		p.Title = DefaultTitle
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return fmt.Errorf("executing page template: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing page: %w", err)
	}
	return nil
}
