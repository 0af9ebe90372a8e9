package auth

// RegisterRequest carries the registration form fields. The login form
// labels the email field "username", matching the registration template.
type RegisterRequest struct {
	Email    string
	Password string
	City     string
}

// LoginRequest carries the login form fields.
type LoginRequest struct {
	Email    string
	Password string
}
