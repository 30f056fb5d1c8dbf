package rod

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ChallX/gamedex"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// loginTimeout bounds the whole login exchange.
const loginTimeout = 45 * time.Second

// Ensure SessionManager implements gamedex.SessionManager at compile time.
var _ gamedex.SessionManager = (*SessionManager)(nil)

// SessionManager owns the single authenticated browsing context shared by
// all pipeline runs. Repeated logins are slow and trip the forum's
// anti-automation defenses, so at most one authenticated page is
// maintained for the process lifetime and concurrent scrapes borrow it
// one at a time.
type SessionManager struct {
	manager *BrowserManager
	creds   gamedex.Credentials
	site    string
	logger  *slog.Logger

	// mu serializes login, invalidation, and all borrowed navigation on
	// the shared page. Two concurrent navigations on one browsing context
	// corrupt each other's extracted content.
	mu     sync.Mutex
	page   *rod.Page
	gen    int64
	status gamedex.SessionStatus
}

// NewSessionManager creates a SessionManager for the given site
// (e.g. "f95zone.to"). Credentials may be empty; the session then reports
// not_configured and EnsureAuthenticated returns false.
func NewSessionManager(manager *BrowserManager, creds gamedex.Credentials, site string, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	status := gamedex.SessionNotAuthenticated
	if !creds.Configured() {
		status = gamedex.SessionNotConfigured
	}
	return &SessionManager{
		manager: manager,
		creds:   creds,
		site:    site,
		logger:  logger,
		status:  status,
	}
}

// EnsureAuthenticated returns true if a valid authenticated page is held
// or a new login succeeded. Missing credentials and failed logins return
// false; both are supported degraded modes and the caller proceeds
// unauthenticated.
func (m *SessionManager) EnsureAuthenticated(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.creds.Configured() {
		m.status = gamedex.SessionNotConfigured
		return false
	}

	m.checkGenerationLocked()
	if m.page != nil && m.status == gamedex.SessionAuthenticated {
		return true
	}

	if err := m.login(ctx); err != nil {
		m.logger.Warn("login failed", "site", m.site, "error", err)
		m.teardownLocked()
		m.status = gamedex.SessionError
		if gamedex.ErrorCode(err) == gamedex.EAUTHFAILED {
			m.status = gamedex.SessionNotAuthenticated
		}
		return false
	}

	m.status = gamedex.SessionAuthenticated
	m.logger.Info("session authenticated", "site", m.site)
	return true
}

// Status reports the session state. When a page is held, a cheap liveness
// check confirms it is not parked on a login redirect; no navigation is
// performed.
func (m *SessionManager) Status(ctx context.Context) gamedex.SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkGenerationLocked()
	if m.page == nil {
		return m.status
	}

	info, err := m.page.Info()
	if err != nil {
		return gamedex.SessionError
	}
	if isLoginURL(info.URL) {
		m.status = gamedex.SessionExpired
	}
	return m.status
}

// Invalidate tears down the held page and resets the session. Called when
// a downstream scrape detects expiry, and by the browser manager's
// recycle hook.
func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardownLocked()
	if m.creds.Configured() {
		m.status = gamedex.SessionNotAuthenticated
	} else {
		m.status = gamedex.SessionNotConfigured
	}
}

// Authenticated reports whether an authenticated page is currently held,
// without any liveness check.
func (m *SessionManager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkGenerationLocked()
	return m.page != nil && m.status == gamedex.SessionAuthenticated
}

// WithPage borrows the authenticated page for one navigation+extraction
// sequence. The borrow is exclusive: concurrent callers queue on the
// session mutex. Returns ENOTFOUND if no authenticated page is held.
func (m *SessionManager) WithPage(ctx context.Context, fn func(page *rod.Page) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkGenerationLocked()
	if m.page == nil || m.status != gamedex.SessionAuthenticated {
		return gamedex.Errorf(gamedex.ENOTFOUND, "no authenticated session held")
	}
	return fn(m.page.Context(ctx))
}

// Close releases the held page. Safe to call on shutdown regardless of state.
func (m *SessionManager) Close() error {
	m.Invalidate()
	return nil
}

// login performs the credential exchange and positively confirms success.
// All three checks must hold: no redirect back to the login path, no
// error panel, and an authenticated-only navigation element present.
// Must be called with mu held.
func (m *SessionManager) login(ctx context.Context) error {
	page, err := m.manager.NewPage()
	if err != nil {
		return gamedex.Errorf(gamedex.EUNAVAILABLE, "opening login page: %v", err)
	}

	// Keep a handle for teardown on failure paths.
	m.page = page

	timed, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()
	p := page.Context(timed)

	if err := p.Navigate("https://" + m.site + "/login/"); err != nil {
		return gamedex.Errorf(gamedex.EUNAVAILABLE, "navigating to login: %v", err)
	}
	if err := p.WaitLoad(); err != nil {
		return gamedex.Errorf(gamedex.ETIMEOUT, "waiting for login page: %v", err)
	}

	userField, err := p.Element(`input[name="login"]`)
	if err != nil {
		return gamedex.Errorf(gamedex.EAUTHFAILED, "login form not found: %v", err)
	}
	if err := userField.Input(m.creds.Username); err != nil {
		return gamedex.Errorf(gamedex.EAUTHFAILED, "filling username: %v", err)
	}

	passField, err := p.Element(`input[name="password"]`)
	if err != nil {
		return gamedex.Errorf(gamedex.EAUTHFAILED, "password field not found: %v", err)
	}
	if err := passField.Input(m.creds.Password); err != nil {
		return gamedex.Errorf(gamedex.EAUTHFAILED, "filling password: %v", err)
	}

	submit, err := p.Element(`button[type="submit"]`)
	if err != nil {
		return gamedex.Errorf(gamedex.EAUTHFAILED, "submit button not found: %v", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return gamedex.Errorf(gamedex.EAUTHFAILED, "submitting login: %v", err)
	}
	if err := p.WaitLoad(); err != nil {
		return gamedex.Errorf(gamedex.ETIMEOUT, "waiting for login result: %v", err)
	}

	m.manager.IncrementPageCount()

	info, err := p.Info()
	if err != nil {
		return gamedex.Errorf(gamedex.EAUTHFAILED, "reading post-login URL: %v", err)
	}
	if isLoginURL(info.URL) {
		return gamedex.Errorf(gamedex.EAUTHFAILED, "still on login page after submit")
	}

	hasError, _, err := p.Has(".blockMessage--error")
	if err == nil && hasError {
		return gamedex.Errorf(gamedex.EAUTHFAILED, "login error panel present")
	}

	hasAccount, _, err := p.Has(`a[href*="/account/"]`)
	if err != nil || !hasAccount {
		return gamedex.Errorf(gamedex.EAUTHFAILED, "authenticated navigation element absent")
	}

	m.gen = m.manager.Generation()
	return nil
}

// checkGenerationLocked drops the held page if the browser it belonged to
// has been recycled. Must be called with mu held.
func (m *SessionManager) checkGenerationLocked() {
	if m.page == nil || m.manager.Generation() == m.gen {
		return
	}
	// The page died with the old browser; closing it would only error.
	m.page = nil
	m.status = gamedex.SessionNotAuthenticated
	if !m.creds.Configured() {
		m.status = gamedex.SessionNotConfigured
	}
}

// teardownLocked closes and clears the held page. Must be called with mu held.
func (m *SessionManager) teardownLocked() {
	if m.page != nil {
		if err := m.page.Close(); err != nil {
			m.logger.Warn("closing session page", "error", err)
		}
		m.page = nil
	}
}

// isLoginURL reports whether a URL is the forum's login endpoint or a
// redirect back to it.
func isLoginURL(u string) bool {
	lower := strings.ToLower(u)
	return strings.Contains(lower, "/login")
}
