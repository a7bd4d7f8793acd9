package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"

	"github.com/gin-gonic/gin/render"
	"github.com/jon4hz/lendbook/internal/web"
)

//go:embed layout.html pages/*.html
var templatesFS embed.FS

// layoutName is the entry template every page is rendered through.
const layoutName = "layout"

// Renderer renders pages through the shared layout.
// Each page is parsed into its own template set, so every page can define "content".
type Renderer struct {
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*Renderer)(nil)

// New parses the layout and all pages.
func New() (*Renderer, error) {
	files, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list page templates: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New(name).
			Funcs(web.FuncMap()).
			ParseFS(templatesFS, "layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Instance implements render.HTMLRender.
func (r *Renderer) Instance(name string, data any) render.Render {
	tmpl, ok := r.pages[name]
	if !ok {
		// executing the empty set fails and gin records the error
		tmpl = template.New(name)
	}
	return render.HTML{
		Template: tmpl,
		Name:     layoutName,
		Data:     data,
	}
}

// Pages returns the names of all parsed pages.
func (r *Renderer) Pages() []string {
	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	return names
}
