// Package web renders the server-side pages (login, signup, home) and
// carries flash notices between redirects.
package web

import (
	"embed"
	"html/template"
	"log"
	"net/http"

	"github.com/ayush/microblog/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.ParseFS(templatesFS, "templates/*.html")),
	}
}

func (rd *Renderer) Render(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := rd.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}

// LoginData feeds login.html.
type LoginData struct {
	Notice string
	Alert  string
	Email  string
}

// SignupData feeds signup.html.
type SignupData struct {
	Notice string
	Errors models.FieldErrors
	Params models.SignupParams
}

// HomeData feeds home.html.
type HomeData struct {
	Notice   string
	UserName string
	Posts    []models.Post
}
