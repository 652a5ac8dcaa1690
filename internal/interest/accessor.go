package interest

import (
	"context"
	"time"

	"feedranker/internal/models"
	"feedranker/internal/profilestore"
	"feedranker/internal/sessionstore"
)

// SessionAccessor operates against a live session blob, refreshing the
// last-access sorted set on every save.
type SessionAccessor struct {
	sessions  *sessionstore.Store
	sessionID string
	blob      *models.SessionBlob
}

func NewSessionAccessor(sessions *sessionstore.Store, sessionID string, blob *models.SessionBlob) *SessionAccessor {
	return &SessionAccessor{sessions: sessions, sessionID: sessionID, blob: blob}
}

func (a *SessionAccessor) CategoryPools(ctx context.Context) ([]*models.CategoryNode, []*models.CategoryNode, error) {
	return a.blob.TopCategories, a.blob.RisingCategories, nil
}

func (a *SessionAccessor) SaveCategoryPools(ctx context.Context, top, rising []*models.CategoryNode) error {
	a.blob.TopCategories, a.blob.RisingCategories = top, rising
	if err := a.sessions.SaveSession(ctx, a.sessionID, a.blob); err != nil {
		return err
	}
	return a.sessions.Touch(ctx, a.sessionID, time.Now().UnixMilli())
}

// PersistentAccessor operates directly against the persistent profile
// document.
type PersistentAccessor struct {
	profiles *profilestore.Store
	userID   string
	profile  *models.UserProfile
}

func NewPersistentAccessor(profiles *profilestore.Store, userID string, profile *models.UserProfile) *PersistentAccessor {
	return &PersistentAccessor{profiles: profiles, userID: userID, profile: profile}
}

func (a *PersistentAccessor) CategoryPools(ctx context.Context) ([]*models.CategoryNode, []*models.CategoryNode, error) {
	return a.profile.TopInterests, a.profile.RisingInterests, nil
}

func (a *PersistentAccessor) SaveCategoryPools(ctx context.Context, top, rising []*models.CategoryNode) error {
	a.profile.TopInterests, a.profile.RisingInterests = top, rising
	return a.profiles.SaveProfile(ctx, a.profile)
}
