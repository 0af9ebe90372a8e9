// Package auth handles credential verification and session identity. It
// covers registration, login, session cookie issuance and validation, and
// the middleware that guards authenticated routes.
package auth

import "time"

// User represents a registered user. The City field drives the weather
// widget on the notes page.
type User struct {
	ID             int
	Email          string
	HashedPassword string
	City           string
	CreatedAt      time.Time
}
