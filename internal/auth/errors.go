package auth

import "errors"

// SessionCookie is the cookie carrying the session identifier.
const SessionCookie = "sessionId"

var (
	// ErrNoSession is returned when a session identifier does not resolve
	// to a user. It signals "unauthenticated", not a system failure.
	ErrNoSession = errors.New("no session")

	// ErrInvalidCredentials is returned on login with a wrong username or
	// password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUsernameTaken is returned on signup with an existing username.
	ErrUsernameTaken = errors.New("username already taken")
)
