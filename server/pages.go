package server

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/jrsteele09/go-session-relay/sessions"
)

//go:embed templates/*.html
var templateFiles embed.FS

const layoutTemplate = "layout.html"

var pageFuncs = template.FuncMap{
	"isAdmin": func(r sessions.Role) bool { return r.IsAdmin() },
}

// ParsePage parses the named page template together with the shared layout.
// Executing the result renders the layout with the page's "content" block.
func ParsePage(name string) (*template.Template, error) {
	tmpl, err := template.New(layoutTemplate).Funcs(pageFuncs).ParseFS(templateFiles,
		"templates/"+layoutTemplate,
		"templates/"+name,
	)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", name, err)
	}
	return tmpl, nil
}
