// Package session implements session start/refresh/merge-back and the
// expiry worker (C9): the hot subset of a user's profile is hydrated into
// a fast-store blob on first request, mutated there at engagement latency,
// and folded back into the persistent profile once the session goes idle.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"feedranker/internal/models"
	"feedranker/internal/profilestore"
	"feedranker/internal/sessionstore"
)

const SessionTTLSeconds = 600

type Manager struct {
	profiles *profilestore.Store
	sessions *sessionstore.Store
}

func NewManager(profiles *profilestore.Store, sessions *sessionstore.Store) *Manager {
	return &Manager{profiles: profiles, sessions: sessions}
}

// Start hydrates a fresh session blob from the user's persistent profile and
// registers it in the last-access sorted set.
func (m *Manager) Start(ctx context.Context, userID string) (string, *models.SessionBlob, error) {
	profile, err := m.profiles.LoadProfile(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	blob := models.FromProfile(userID, profile)
	sessionID := uuid.NewString()

	if err := m.sessions.SaveSession(ctx, sessionID, blob); err != nil {
		return "", nil, err
	}
	if err := m.sessions.SaveSessionOwner(ctx, sessionID, userID); err != nil {
		return "", nil, err
	}
	if err := m.sessions.Touch(ctx, sessionID, time.Now().UnixMilli()); err != nil {
		return "", nil, err
	}
	return sessionID, blob, nil
}

// Refresh bumps a session's last-access score without touching the blob
// itself; liveness is governed entirely by the sorted set.
func (m *Manager) Refresh(ctx context.Context, sessionID string) error {
	return m.sessions.Touch(ctx, sessionID, time.Now().UnixMilli())
}

// Load fetches the live session blob, or nil if it doesn't exist.
func (m *Manager) Load(ctx context.Context, sessionID string) (*models.SessionBlob, error) {
	return m.sessions.GetSession(ctx, sessionID)
}
