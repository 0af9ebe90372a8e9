// Package web is the composition layer: it maps the HTTP surface onto the
// auth, notes, and weather services, assembles render contexts, and hands
// them to the template layer. All failures surface as redirects to a
// sensible prior page, an inline fallback message, or a generic error
// page; internal detail never reaches the client.
package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/user/skynote-go/auth"
	"github.com/user/skynote-go/notes"
	"github.com/user/skynote-go/weather"
)

//go:embed templates/*.html
var templateFS embed.FS

// RenderContext is the set of named values handed to a template to produce
// one HTML response. It lives for a single request.
type RenderContext struct {
	// Session identifies the logged-in user, nil on public pages.
	Session *auth.Session
	// Notes is the user's full note list.
	Notes []notes.Note
	// Weather is the fresh snapshot for the user's city, nil when the
	// lookup failed or found nothing.
	Weather *weather.Snapshot
	// WeatherMessage is the textual fallback shown when Weather is nil.
	WeatherMessage string
	// EditNote is the note loaded into the edit form, nil otherwise.
	EditNote *notes.Note
	// Message is a generic page message, used by the error view.
	Message string
}

// Renderer renders named views from the embedded template set.
type Renderer struct {
	tmpl *template.Template
	log  zerolog.Logger
}

// NewRenderer parses the embedded templates.
func NewRenderer(log zerolog.Logger) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl, log: log}, nil
}

// Render writes the named view with the given status code.
func (rd *Renderer) Render(w http.ResponseWriter, status int, name string, data *RenderContext) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := rd.tmpl.ExecuteTemplate(w, name, data); err != nil {
		// Headers are already out; all that is left is logging.
		rd.log.Error().Err(err).Str("template", name).Msg("template execution failed")
	}
}

// RenderError writes the generic error page. The message must already be
// user-safe.
func (rd *Renderer) RenderError(w http.ResponseWriter, status int, message string) {
	rd.Render(w, status, "error.html", &RenderContext{Message: message})
}
