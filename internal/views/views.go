// Package views renders the server-side HTML pages from embedded templates.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Viewer is the signed-in user as far as templates are concerned.
type Viewer struct {
	ID       int64
	Username string
	IsAdmin  bool
}

// Page is the value every template executes against.
type Page struct {
	Title  string
	Viewer *Viewer
	Data   any
}

type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"join": strings.Join,
}

// New parses base.html together with each page template.
func New() (*Renderer, error) {
	base, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parse base template: %w", err)
	}

	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, path := range names {
		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".html")
		if name == "base" {
			continue
		}
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(templateFS, path); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		r.pages[name] = clone
	}
	return r, nil
}

// MustNew panics on template errors; templates are compiled in.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes the page into a buffer first so a template error turns
// into a plain 500 rather than a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) {
	tmpl, ok := r.pages[name]
	if !ok {
		log.Printf("views: unknown template %q", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", page); err != nil {
		log.Printf("views: render %s: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// ErrorData feeds the shared error page.
type ErrorData struct {
	Status  int
	Message string
}

func (r *Renderer) Error(w http.ResponseWriter, status int, viewer *Viewer, message string) {
	r.Render(w, status, "error", Page{
		Title:  http.StatusText(status),
		Viewer: viewer,
		Data:   ErrorData{Status: status, Message: message},
	})
}
