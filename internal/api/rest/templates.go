package rest

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

// LoadTemplates разбирает встроенные HTML-шаблоны страниц
func LoadTemplates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.html")
}
