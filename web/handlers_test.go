package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/skynote-go/apperror"
	"github.com/user/skynote-go/auth"
	"github.com/user/skynote-go/config"
	"github.com/user/skynote-go/notes"
	"github.com/user/skynote-go/weather"
)

// memCredStore is an in-memory auth.CredentialStore. Setting byEmailErr
// makes lookups fail as if the database were unreachable.
type memCredStore struct {
	users      map[string]*auth.User
	nextID     int
	byEmailErr error
}

func newMemCredStore() *memCredStore {
	return &memCredStore{users: make(map[string]*auth.User), nextID: 1}
}

func (m *memCredStore) Create(_ context.Context, user *auth.User) (*auth.User, error) {
	if _, exists := m.users[user.Email]; exists {
		return nil, apperror.NewConflictError("email already exists", nil)
	}
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	m.nextID++
	m.users[user.Email] = user
	return user, nil
}

func (m *memCredStore) ByEmail(_ context.Context, email string) (*auth.User, error) {
	if m.byEmailErr != nil {
		return nil, m.byEmailErr
	}
	user, ok := m.users[email]
	if !ok {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	return user, nil
}

// memNoteStore is an in-memory notes.Store with ownership scoping. The
// per-operation error fields inject persistence failures.
type memNoteStore struct {
	notes     map[int]*notes.Note
	nextID    int
	insertErr error
	updateErr error
	deleteErr error
}

func newMemNoteStore() *memNoteStore {
	return &memNoteStore{notes: make(map[int]*notes.Note), nextID: 1}
}

func (m *memNoteStore) ListByCreator(_ context.Context, userID int) ([]notes.Note, error) {
	var result []notes.Note
	for id := 1; id < m.nextID; id++ {
		if n, ok := m.notes[id]; ok && n.Creator == userID {
			result = append(result, *n)
		}
	}
	return result, nil
}

func (m *memNoteStore) Insert(_ context.Context, note *notes.Note) (*notes.Note, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	note.ID = m.nextID
	m.nextID++
	stored := *note
	m.notes[note.ID] = &stored
	return note, nil
}

func (m *memNoteStore) Get(_ context.Context, id, userID int) (*notes.Note, error) {
	n, ok := m.notes[id]
	if !ok || n.Creator != userID {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("note %d not found", id), nil)
	}
	copied := *n
	return &copied, nil
}

func (m *memNoteStore) Update(_ context.Context, note *notes.Note) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	n, ok := m.notes[note.ID]
	if !ok || n.Creator != note.Creator {
		return apperror.NewNotFoundError(fmt.Sprintf("note %d not found", note.ID), nil)
	}
	n.Title = note.Title
	n.Content = note.Content
	return nil
}

func (m *memNoteStore) Delete(_ context.Context, id, userID int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	n, ok := m.notes[id]
	if !ok || n.Creator != userID {
		return apperror.NewNotFoundError(fmt.Sprintf("note %d not found", id), nil)
	}
	delete(m.notes, id)
	return nil
}

// fakeWeather is a canned web.WeatherService.
type fakeWeather struct {
	snapshot *weather.Snapshot
	err      error
}

func (f *fakeWeather) Current(_ context.Context, _ string) (*weather.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

type testApp struct {
	router   http.Handler
	creds    *memCredStore
	notes    *memNoteStore
	weather  *fakeWeather
	sessions *auth.Sessions
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	creds := newMemCredStore()
	noteStore := newMemNoteStore()
	wthr := &fakeWeather{snapshot: &weather.Snapshot{
		City:      "Paris",
		Condition: "Sunny",
		TempC:     22,
	}}

	log := zerolog.Nop()
	sessions := auth.NewSessions(&config.SessionConfig{Secret: "test-secret", Duration: time.Hour})
	renderer, err := NewRenderer(log)
	require.NoError(t, err)

	handlers := NewHandlers(
		auth.NewAuthService(creds, log),
		notes.NewService(noteStore, log),
		wthr,
		sessions,
		renderer,
		log,
	)

	r := chi.NewRouter()
	handlers.RegisterRoutes(r)

	return &testApp{
		router:   r,
		creds:    creds,
		notes:    noteStore,
		weather:  wthr,
		sessions: sessions,
	}
}

func (a *testApp) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns the session cookie.
func (a *testApp) register(t *testing.T, email, password, city string) *http.Cookie {
	t.Helper()
	rec := a.postForm("/register", url.Values{
		"username": {email},
		"password": {password},
		"city":     {city},
	}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/app", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestAppRequiresSession(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	rec := app.get("/app", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLoginFormShortCircuitsWithSession(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	cookie := app.register(t, "a@x.com", "pw", "Paris")

	for _, path := range []string{"/login", "/register"} {
		rec := app.get(path, cookie)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/app", rec.Header().Get("Location"), path)
	}
}

func TestRegisterDuplicateRedirectsToLogin(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register(t, "a@x.com", "pw", "Paris")

	rec := app.postForm("/register", url.Values{
		"username": {"a@x.com"},
		"password": {"other"},
		"city":     {"Lyon"},
	}, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Len(t, app.creds.users, 1, "duplicate registration must not create a second row")
}

func TestLoginFlow(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register(t, "a@x.com", "pw", "Paris")

	t.Run("correct credentials", func(t *testing.T) {
		rec := app.postForm("/login", url.Values{"username": {"a@x.com"}, "password": {"pw"}}, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/app", rec.Header().Get("Location"))
		assert.NotEmpty(t, rec.Result().Cookies())
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := app.postForm("/login", url.Values{"username": {"a@x.com"}, "password": {"nope"}}, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Empty(t, rec.Result().Cookies(), "no session on failed login")
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	cookie := app.register(t, "a@x.com", "pw", "Paris")

	rec := app.get("/logout", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cleared := rec.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.Negative(t, cleared[0].MaxAge)
}

func TestAppRendersWeatherAndNotes(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	cookie := app.register(t, "a@x.com", "pw", "Paris")
	app.postForm("/submit", url.Values{"title": {"Groceries"}, "content": {"milk"}}, cookie)

	rec := app.get("/app", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Sunny")
	assert.Contains(t, body, "Groceries")
	assert.Contains(t, body, "milk")
	assert.NotContains(t, body, weather.FallbackMessage)
}

func TestAppWeatherFallback(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	cookie := app.register(t, "a@x.com", "pw", "Paris")
	app.postForm("/submit", url.Values{"title": {"Groceries"}, "content": {"milk"}}, cookie)

	app.weather.err = apperror.NewExternalServiceError("weather request failed", nil)

	rec := app.get("/app", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, weather.FallbackMessage)
	assert.Contains(t, body, "Groceries", "notes list is unaffected by weather failure")
}

func TestEditOtherUsersNoteIsNotFound(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	owner := app.register(t, "a@x.com", "pw", "Paris")
	app.postForm("/submit", url.Values{"title": {"Mine"}, "content": {"secret"}}, owner)

	intruder := app.register(t, "b@x.com", "pw", "Lyon")

	for _, path := range []string{"/app-edit", "/app-update", "/app-delete"} {
		rec := app.postForm(path, url.Values{"id": {"1"}, "title": {"Stolen"}, "content": {"x"}}, intruder)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	assert.Equal(t, "Mine", app.notes.notes[1].Title, "note must be untouched")
}

func TestUpdatePartialMergeThroughHandler(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	cookie := app.register(t, "a@x.com", "pw", "Paris")
	app.postForm("/submit", url.Values{"title": {"Original"}, "content": {"old"}}, cookie)

	rec := app.postForm("/app-update", url.Values{"id": {"1"}, "title": {""}, "content": {"X"}}, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/app", rec.Header().Get("Location"))

	assert.Equal(t, "Original", app.notes.notes[1].Title)
	assert.Equal(t, "X", app.notes.notes[1].Content)
}

func TestWriteFailureRendersErrorPage(t *testing.T) {
	t.Parallel()

	boom := apperror.NewDatabaseError("write failed", errors.New("connection reset by peer"))

	tests := []struct {
		name   string
		path   string
		form   url.Values
		inject func(store *memNoteStore)
	}{
		{"submit", "/submit", url.Values{"title": {"New"}, "content": {"x"}}, func(s *memNoteStore) { s.insertErr = boom }},
		{"update", "/app-update", url.Values{"id": {"1"}, "title": {"New"}, "content": {"x"}}, func(s *memNoteStore) { s.updateErr = boom }},
		{"delete", "/app-delete", url.Values{"id": {"1"}}, func(s *memNoteStore) { s.deleteErr = boom }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			app := newTestApp(t)
			cookie := app.register(t, "a@x.com", "pw", "Paris")
			app.postForm("/submit", url.Values{"title": {"Existing"}, "content": {"body"}}, cookie)

			tc.inject(app.notes)
			rec := app.postForm(tc.path, tc.form, cookie)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Empty(t, rec.Header().Get("Location"), "a failed write must not redirect as if it succeeded")
			assert.Contains(t, rec.Body.String(), "Could not", "user sees the error page")
		})
	}
}

func TestLoginStoreFailure(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register(t, "a@x.com", "pw", "Paris")
	app.creds.byEmailErr = apperror.NewDatabaseError("failed to get user by email", errors.New("connection refused"))

	rec := app.postForm("/login", url.Values{"username": {"a@x.com"}, "password": {"pw"}}, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Empty(t, rec.Result().Cookies(), "no session when the credential lookup fails")
}

func TestEditLoadsNoteIntoForm(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	cookie := app.register(t, "a@x.com", "pw", "Paris")
	app.postForm("/submit", url.Values{"title": {"Editable"}, "content": {"body"}}, cookie)

	rec := app.postForm("/app-edit", url.Values{"id": {"1"}}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Edit note")
	assert.Contains(t, body, "Editable")
}

func TestEndToEndScenario(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	// Register, auto-authenticated.
	cookie := app.register(t, "a@x.com", "pw", "Paris")

	// Submit a note with an empty title.
	rec := app.postForm("/submit", url.Values{"title": {""}, "content": {"hi"}}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/app", rec.Header().Get("Location"))

	// The list shows one note titled "Untitled" with content "hi".
	rec = app.get("/app", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), notes.DefaultTitle)
	assert.Contains(t, rec.Body.String(), "hi")

	// Delete it by id.
	rec = app.postForm("/app-delete", url.Values{"id": {"1"}}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	// The list is empty again.
	rec = app.get("/app", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No notes yet")
	assert.NotContains(t, rec.Body.String(), "hi")
}
