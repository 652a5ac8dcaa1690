package creator

import (
	"context"
	"time"

	"feedranker/internal/models"
	"feedranker/internal/profilestore"
	"feedranker/internal/sessionstore"
)

type SessionAccessor struct {
	sessions  *sessionstore.Store
	sessionID string
	blob      *models.SessionBlob
}

func NewSessionAccessor(sessions *sessionstore.Store, sessionID string, blob *models.SessionBlob) *SessionAccessor {
	return &SessionAccessor{sessions: sessions, sessionID: sessionID, blob: blob}
}

func (a *SessionAccessor) CreatorPools(ctx context.Context) ([]*models.FollowedCreator, []*models.CreatorNode, []*models.CreatorNode, []*models.WatchedEntry, []*models.SkippedEntry, error) {
	return a.blob.FollowedCreators, a.blob.TopCreators, a.blob.RisingCreators, a.blob.WatchedCreators, a.blob.SkippedCreators, nil
}

func (a *SessionAccessor) SaveCreatorPools(ctx context.Context, following []*models.FollowedCreator, top, rising []*models.CreatorNode, watched []*models.WatchedEntry, skipped []*models.SkippedEntry) error {
	a.blob.FollowedCreators, a.blob.TopCreators, a.blob.RisingCreators = following, top, rising
	a.blob.WatchedCreators, a.blob.SkippedCreators = watched, skipped
	if err := a.sessions.SaveSession(ctx, a.sessionID, a.blob); err != nil {
		return err
	}
	return a.sessions.Touch(ctx, a.sessionID, time.Now().UnixMilli())
}

type PersistentAccessor struct {
	profiles *profilestore.Store
	profile  *models.UserProfile
}

func NewPersistentAccessor(profiles *profilestore.Store, profile *models.UserProfile) *PersistentAccessor {
	return &PersistentAccessor{profiles: profiles, profile: profile}
}

func (a *PersistentAccessor) CreatorPools(ctx context.Context) ([]*models.FollowedCreator, []*models.CreatorNode, []*models.CreatorNode, []*models.WatchedEntry, []*models.SkippedEntry, error) {
	ci := a.profile.CreatorsInterests
	return a.profile.Following, ci.TopCreators, ci.RisingCreators, ci.Watched, ci.Skipped, nil
}

func (a *PersistentAccessor) SaveCreatorPools(ctx context.Context, following []*models.FollowedCreator, top, rising []*models.CreatorNode, watched []*models.WatchedEntry, skipped []*models.SkippedEntry) error {
	a.profile.Following = following
	a.profile.CreatorsInterests = models.CreatorsInterests{
		TopCreators:    top,
		RisingCreators: rising,
		Watched:        watched,
		Skipped:        skipped,
	}
	return a.profiles.SaveProfile(ctx, a.profile)
}
