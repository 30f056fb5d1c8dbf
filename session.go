package gamedex

import "context"

// SessionStatus describes the state of the authenticated browsing session.
type SessionStatus string

// Session states. NotConfigured means no credentials are present, which is
// a supported degraded mode: scraping proceeds unauthenticated.
const (
	SessionNotConfigured    SessionStatus = "not_configured"
	SessionNotAuthenticated SessionStatus = "not_authenticated"
	SessionAuthenticated    SessionStatus = "authenticated"
	SessionExpired          SessionStatus = "session_expired"
	SessionError            SessionStatus = "error"
)

// Credentials hold the forum login pair.
type Credentials struct {
	Username string
	Password string
}

// Configured reports whether both fields are present.
func (c Credentials) Configured() bool {
	return c.Username != "" && c.Password != ""
}

// SessionManager owns the single authenticated browsing context shared by
// all pipeline runs. Implementations must serialize navigation on the
// shared context; two concurrent navigations on one browsing context
// corrupt each other's extracted content.
type SessionManager interface {
	// EnsureAuthenticated returns true if a valid authenticated context is
	// available or was newly established. Missing credentials and failed
	// logins return false rather than an error; both are supported
	// degraded modes.
	EnsureAuthenticated(ctx context.Context) bool

	// Status reports the session state. The check is cheap: it confirms
	// the held context is not parked on a login redirect but performs no
	// navigation.
	Status(ctx context.Context) SessionStatus

	// Invalidate tears down the held context and resets the session to
	// not_authenticated. Called when a downstream scrape detects expiry.
	Invalidate()
}
