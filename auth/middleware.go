package auth

import "net/http"

// RequireSession guards routes that need an authenticated user. Requests
// without a valid session cookie are redirected to the login form;
// otherwise the session identity is placed in the request context for the
// downstream handler.
func (s *Sessions) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.Current(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), sess)))
	})
}

// RedirectIfAuthenticated short-circuits the login and register forms for
// users who already hold a session, sending them straight to the notes
// page.
func (s *Sessions) RedirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.Current(r); ok {
			http.Redirect(w, r, "/app", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
