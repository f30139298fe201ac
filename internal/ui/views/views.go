// Package views renders the UI's HTML from embedded templates.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/aquastack-labs/fishdoc/internal/kb"
)

//go:embed templates
var templateFS embed.FS

// Page carries the fields every view shares. Feature view data embeds it.
type Page struct {
	Title  string
	Active string
	Flash  string
	Error  string
}

// Renderer holds the parsed template sets. Each page is parsed together
// with the layout so pages can override the layout's content block.
type Renderer struct {
	pages     map[string]*template.Template
	fragments *template.Template
}

var funcs = template.FuncMap{
	"pct": func(cf float64) string {
		return fmt.Sprintf("%.1f%%", cf*100)
	},
	"cf2": func(cf float64) string {
		return fmt.Sprintf("%.2f", cf)
	},
	"join": strings.Join,
	"datetime": func(t time.Time) string {
		return t.Local().Format("2006-01-02 15:04")
	},
	"shortid": func(id string) string {
		if len(id) > 8 {
			return id[:8]
		}
		return id
	},
	"highlight": highlight,
}

var boldSpan = regexp.MustCompile(`\*\*(.*?)\*\*`)

// highlight marks query occurrences in text for search results. The text is
// escaped before the mark tags go in, so the result is safe to emit as HTML.
// The query is escaped the same way so it can still match text containing
// &, < or ".
func highlight(text, query string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	marked := kb.HighlightQuery(escaped, template.HTMLEscapeString(query))
	return template.HTML(boldSpan.ReplaceAllString(marked, "<mark>$1</mark>"))
}

// pageNames lists the page templates under templates/. Each is parsed with
// the layout into its own set.
var pageNames = []string{
	"diagnosis",
	"result",
	"knowledge",
	"history",
	"consultation",
	"explorer",
}

// New parses all embedded templates.
func New() (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html", "templates/fragments.html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = t
	}

	fragments, err := template.New("fragments").Funcs(funcs).ParseFS(templateFS,
		"templates/fragments.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragments: %w", err)
	}

	return &Renderer{pages: pages, fragments: fragments}, nil
}

// Page renders a full page into w.
func (r *Renderer) Page(w io.Writer, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page template: %s", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}

// Fragment renders a named fragment to a string, for SSE element patches.
func (r *Renderer) Fragment(name string, data any) (string, error) {
	var b strings.Builder
	if err := r.fragments.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("failed to render fragment %s: %w", name, err)
	}
	return b.String(), nil
}
