package web

import (
	"bytes"
	"embed"
	"html/template"
	"log"
	"net/http"
	"strings"

	"listingmatch/internal/model"
	"listingmatch/internal/review"
)

//go:embed templates/*.html
var templateFS embed.FS

type templates struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
	"contains": func(list []string, v string) bool {
		for _, s := range list {
			if s == v {
				return true
			}
		}
		return false
	},
}

func parseTemplates() (*templates, error) {
	t := &templates{pages: make(map[string]*template.Template)}
	for _, name := range []string{"login", "upload", "review"} {
		page, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/settings.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		t.pages[name] = page
	}
	return t, nil
}

// pageData is the model of every page.
type pageData struct {
	Title       string
	Error       string
	Warnings    []string
	AuthEnabled bool

	FileName  string
	Headers   []string
	Mapping   model.ColumnMapping
	Settings  model.Settings
	Markets   []string
	PageSizes []int

	Rows      []review.RowView
	Page      int
	PageCount int
	Prev      int
	Next      int
	Start     int
	End       int
	Total     int
	Matched   int
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	page, ok := s.pages.pages[name]
	if !ok {
		log.Printf("[Web] unknown template %q", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("[Web] render %s: %v", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
