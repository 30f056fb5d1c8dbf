package mock

import (
	"context"

	"github.com/ChallX/gamedex"
)

var _ gamedex.SessionManager = (*SessionManager)(nil)

// SessionManager is a mock implementation of gamedex.SessionManager.
type SessionManager struct {
	EnsureAuthenticatedFn func(ctx context.Context) bool
	StatusFn              func(ctx context.Context) gamedex.SessionStatus
	InvalidateFn          func()
}

func (m *SessionManager) EnsureAuthenticated(ctx context.Context) bool {
	return m.EnsureAuthenticatedFn(ctx)
}

func (m *SessionManager) Status(ctx context.Context) gamedex.SessionStatus {
	return m.StatusFn(ctx)
}

func (m *SessionManager) Invalidate() {
	m.InvalidateFn()
}
