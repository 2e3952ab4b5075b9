// Package web serves the server-rendered pages. Templates are Liquid files embedded in the binary.
package web

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/osteele/liquid"
)

//go:embed templates/*.liquid
var templateFS embed.FS

const layoutName = "layout"

// Renderer parses every page template once and renders pages inside the shared layout.
type Renderer struct {
	engine *liquid.Engine
	pages  map[string]*liquid.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	return newRenderer(templateFS)
}

func newRenderer(fsys fs.FS) (*Renderer, error) {
	engine := liquid.NewEngine()
	// {{ flag | checked }} renders the checked attribute when flag is true.
	engine.RegisterFilter("checked", func(v any) string {
		if b, ok := v.(bool); ok && b {
			return "checked"
		}
		return ""
	})

	files, err := fs.Glob(fsys, "templates/*.liquid")
	if err != nil {
		return nil, err
	}
	r := &Renderer{engine: engine, pages: make(map[string]*liquid.Template, len(files))}
	for _, f := range files {
		src, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, err
		}
		tpl, perr := engine.ParseString(string(src))
		if perr != nil {
			return nil, fmt.Errorf("parse %s: %w", f, perr)
		}
		r.pages[strings.TrimSuffix(path.Base(f), ".liquid")] = tpl
	}
	if _, ok := r.pages[layoutName]; !ok {
		return nil, fmt.Errorf("missing %s template", layoutName)
	}
	return r, nil
}

// RenderString renders page inside the layout. bindings are visible to both.
func (r *Renderer) RenderString(page string, bindings map[string]any) (string, error) {
	tpl, ok := r.pages[page]
	if !ok || page == layoutName {
		return "", fmt.Errorf("unknown page %q", page)
	}
	content, err := tpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", page, err)
	}
	outer := make(map[string]any, len(bindings)+1)
	for k, v := range bindings {
		outer[k] = v
	}
	outer["content"] = content
	html, err := r.pages[layoutName].RenderString(outer)
	if err != nil {
		return "", fmt.Errorf("render layout: %w", err)
	}
	return html, nil
}

// Render writes the rendered page with the given status.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, bindings map[string]any) error {
	html, err := r.RenderString(page, bindings)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = io.WriteString(w, html)
	return err
}
