package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/user/skynote-go/apperror"
	"github.com/user/skynote-go/auth"
	"github.com/user/skynote-go/notes"
	"github.com/user/skynote-go/weather"
)

// WeatherService is the weather lookup as the web layer sees it.
type WeatherService interface {
	Current(ctx context.Context, city string) (*weather.Snapshot, error)
}

// Handlers maps the HTTP form routes onto the services.
type Handlers struct {
	auth     *auth.AuthService
	notes    *notes.Service
	weather  WeatherService
	sessions *auth.Sessions
	renderer *Renderer
	log      zerolog.Logger
}

// NewHandlers creates the web handlers.
func NewHandlers(authService *auth.AuthService, noteService *notes.Service, weatherService WeatherService, sessions *auth.Sessions, renderer *Renderer, log zerolog.Logger) *Handlers {
	return &Handlers{
		auth:     authService,
		notes:    noteService,
		weather:  weatherService,
		sessions: sessions,
		renderer: renderer,
		log:      log,
	}
}

// RegisterRoutes wires every route onto the router.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleHome)
	r.Get("/logout", h.handleLogout)
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)

	// The login and register forms short-circuit to the notes page when a
	// session is already active.
	r.Group(func(r chi.Router) {
		r.Use(h.sessions.RedirectIfAuthenticated)
		r.Get("/login", h.handleLoginForm)
		r.Get("/register", h.handleRegisterForm)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.RequireSession)
		r.Get("/app", h.handleApp)
		r.Post("/submit", h.handleSubmit)
		r.Post("/app-edit", h.handleEdit)
		r.Post("/app-update", h.handleUpdate)
		r.Post("/app-delete", h.handleDelete)
	})
}

func (h *Handlers) handleHome(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "home.html", &RenderContext{})
}

func (h *Handlers) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "login.html", &RenderContext{})
}

func (h *Handlers) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "register.html", &RenderContext{})
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogin submits credentials. Success redirects to the notes page,
// any authentication failure redirects back to the login form.
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := h.auth.Login(r.Context(), auth.LoginRequest{
		Email:    r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := h.sessions.Issue(w, user); err != nil {
		h.log.Error().Err(err).Msg("failed to issue session")
		h.renderer.RenderError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}
	http.Redirect(w, r, "/app", http.StatusSeeOther)
}

// handleRegister creates an account and logs the new user straight in. A
// duplicate email redirects to the login form without creating a row.
func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	user, err := h.auth.Register(r.Context(), auth.RegisterRequest{
		Email:    r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
		City:     r.PostFormValue("city"),
	})
	if err != nil {
		if apperror.IsConflict(err) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if apperror.IsValidationError(err) {
			http.Redirect(w, r, "/register", http.StatusSeeOther)
			return
		}
		h.log.Error().Err(err).Msg("registration failed")
		h.renderer.RenderError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	if err := h.sessions.Issue(w, user); err != nil {
		h.log.Error().Err(err).Msg("failed to issue session")
		h.renderer.RenderError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}
	http.Redirect(w, r, "/app", http.StatusSeeOther)
}

// handleApp renders the main notes page with a fresh weather lookup for
// the session's city.
func (h *Handlers) handleApp(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	ctxData, err := h.composeAppContext(r, sess, nil)
	if err != nil {
		h.renderer.RenderError(w, http.StatusInternalServerError, "Could not load your notes.")
		return
	}
	h.renderer.Render(w, http.StatusOK, "app.html", ctxData)
}

// handleSubmit creates a note for the current user and redirects back to
// the notes page. A failed write renders an error instead of a redirect
// that would imply success.
func (h *Handlers) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/app", http.StatusSeeOther)
		return
	}

	_, err := h.notes.Create(r.Context(), sess.UserID, r.PostFormValue("title"), r.PostFormValue("content"))
	if err != nil {
		h.renderer.RenderError(w, http.StatusInternalServerError, "Could not save your note.")
		return
	}
	http.Redirect(w, r, "/app", http.StatusSeeOther)
}

// handleEdit loads one of the user's notes into the edit form alongside
// the usual notes page content.
func (h *Handlers) handleEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	noteID, err := h.formNoteID(r)
	if err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid note.")
		return
	}

	note, err := h.notes.Find(r.Context(), sess.UserID, noteID)
	if err != nil {
		if apperror.IsNotFound(err) {
			h.renderer.RenderError(w, http.StatusNotFound, "Note not found.")
			return
		}
		h.renderer.RenderError(w, http.StatusInternalServerError, "Could not load your note.")
		return
	}

	ctxData, err := h.composeAppContext(r, sess, note)
	if err != nil {
		h.renderer.RenderError(w, http.StatusInternalServerError, "Could not load your notes.")
		return
	}
	h.renderer.Render(w, http.StatusOK, "app.html", ctxData)
}

// handleUpdate applies a partial update to one of the user's notes.
func (h *Handlers) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	noteID, err := h.formNoteID(r)
	if err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid note.")
		return
	}

	_, err = h.notes.Update(r.Context(), sess.UserID, noteID, r.PostFormValue("title"), r.PostFormValue("content"))
	if err != nil {
		if apperror.IsNotFound(err) {
			h.renderer.RenderError(w, http.StatusNotFound, "Note not found.")
			return
		}
		h.renderer.RenderError(w, http.StatusInternalServerError, "Could not update your note.")
		return
	}
	http.Redirect(w, r, "/app", http.StatusSeeOther)
}

// handleDelete removes one of the user's notes.
func (h *Handlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	noteID, err := h.formNoteID(r)
	if err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid note.")
		return
	}

	if err := h.notes.Delete(r.Context(), sess.UserID, noteID); err != nil {
		if apperror.IsNotFound(err) {
			h.renderer.RenderError(w, http.StatusNotFound, "Note not found.")
			return
		}
		h.renderer.RenderError(w, http.StatusInternalServerError, "Could not delete your note.")
		return
	}
	http.Redirect(w, r, "/app", http.StatusSeeOther)
}

// composeAppContext builds the render context for the notes page: the full
// note list plus either a weather snapshot or the fallback message. The
// weather lookup happens fresh on every call and its failures degrade to
// the message without affecting the note list.
func (h *Handlers) composeAppContext(r *http.Request, sess *auth.Session, editNote *notes.Note) (*RenderContext, error) {
	ctx := r.Context()

	snapshot, err := h.weather.Current(ctx, sess.City)
	if err != nil {
		if !apperror.IsNotFound(err) {
			h.log.Warn().Err(err).Str("city", sess.City).Msg("weather lookup failed")
		}
		snapshot = nil
	}

	noteList, err := h.notes.List(ctx, sess.UserID)
	if err != nil {
		h.log.Error().Err(err).Int("user", sess.UserID).Msg("failed to list notes")
		return nil, err
	}

	data := &RenderContext{
		Session:  sess,
		Notes:    noteList,
		Weather:  snapshot,
		EditNote: editNote,
	}
	if snapshot == nil {
		data.WeatherMessage = weather.FallbackMessage
	}
	return data, nil
}

func (h *Handlers) formNoteID(r *http.Request) (int, error) {
	if err := r.ParseForm(); err != nil {
		return 0, err
	}
	return strconv.Atoi(r.PostFormValue("id"))
}
