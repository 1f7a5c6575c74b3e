// Package session holds the panel's single admin session: the cached
// identity backed by the persisted upstream token.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/boldtribe/kids-admin/internal/model"
	"github.com/boldtribe/kids-admin/internal/platform"
	"github.com/boldtribe/kids-admin/internal/store"
)

// State is the session lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateAnonymous
	StateAuthenticated
)

// Manager owns the session state. It starts uninitialized; Init reads
// the token store once, after which the state is anonymous or
// authenticated until login, logout, or an upstream 401 flips it.
type Manager struct {
	mu      sync.RWMutex
	db      *sql.DB
	client  *platform.Client
	state   State
	profile *model.Profile
}

// NewManager creates the session manager and registers itself as the
// client's 401 listener, so token expiry becomes a single notified
// transition instead of scattered storage clears.
func NewManager(database *sql.DB, client *platform.Client) *Manager {
	m := &Manager{
		db:     database,
		client: client,
		state:  StateUninitialized,
	}
	client.OnUnauthorized = m.handleUnauthorized
	return m
}

// Init reads the token store once. A stored token plus profile makes
// the session authenticated without upstream verification; a stale or
// forged token is trusted until the first 401.
func (m *Manager) Init(ctx context.Context) error {
	token, err := store.GetToken(ctx, m.db)
	if err != nil {
		return fmt.Errorf("reading stored token: %w", err)
	}
	blob, err := store.GetProfile(ctx, m.db)
	if err != nil {
		return fmt.Errorf("reading stored profile: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	profile := model.ParseProfile(blob)
	if token != "" && profile != nil {
		m.state = StateAuthenticated
		m.profile = profile
	} else {
		m.state = StateAnonymous
		m.profile = nil
	}
	return nil
}

// Login authenticates against the platform, persists the token and
// profile, and transitions to authenticated.
func (m *Manager) Login(ctx context.Context, username, password string) (*model.Profile, error) {
	result, err := m.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	if err := store.SetToken(ctx, m.db, result.Token); err != nil {
		return nil, fmt.Errorf("persisting token: %w", err)
	}
	if err := store.SetProfile(ctx, m.db, result.Profile.Encode()); err != nil {
		return nil, fmt.Errorf("persisting profile: %w", err)
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	profile := result.Profile
	m.profile = &profile
	m.mu.Unlock()

	slog.Info("admin logged in", "username", result.Profile.Username)
	return &profile, nil
}

// Logout clears persisted state and returns to anonymous,
// unconditionally. There is no upstream invalidation call.
func (m *Manager) Logout(ctx context.Context) {
	if err := store.RemoveToken(ctx, m.db); err != nil {
		slog.Error("failed to remove token on logout", "error", err)
	}
	if err := store.RemoveProfile(ctx, m.db); err != nil {
		slog.Error("failed to remove profile on logout", "error", err)
	}

	m.mu.Lock()
	m.state = StateAnonymous
	m.profile = nil
	m.mu.Unlock()

	slog.Info("admin logged out")
}

// handleUnauthorized is the 401 transition. The client has already
// cleared the stored token by the time this runs.
func (m *Manager) handleUnauthorized() {
	m.mu.Lock()
	changed := m.state == StateAuthenticated
	m.state = StateAnonymous
	m.profile = nil
	m.mu.Unlock()

	if changed {
		slog.Warn("session expired upstream, forcing re-login")
	}
}

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "uninitialized"
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Authenticated reports whether the session holds a trusted identity.
func (m *Manager) Authenticated() bool {
	return m.State() == StateAuthenticated
}

// Profile returns the cached admin profile, or nil when anonymous.
func (m *Manager) Profile() *model.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return nil
	}
	p := *m.profile
	return &p
}
