// Package engagement is the engagement controller (C12): the orchestrator
// invoked by the HTTP edge. It validates the request, then dispatches to
// the post metrics engine (C7), the interest and creator services (C5/C6,
// dual-pathed against session or persistent storage), and the event
// pipeline (C8).
package engagement

import (
	"context"
	"errors"
	"time"

	"feedranker/internal/creator"
	"feedranker/internal/events"
	"feedranker/internal/interest"
	"feedranker/internal/models"
	"feedranker/internal/postmetrics"
	"feedranker/internal/profilestore"
	"feedranker/internal/sessionstore"
)

var ErrValidation = errors.New("engagement: validation failed")

// PositiveRequest mirrors the POST /engagement/positive body; each field is
// a 0/1 flag in the wire format, decoded to bool at the handler.
type PositiveRequest struct {
	PostID    string
	Viewed    bool
	Completed bool
	Liked     bool
	Commented bool
	Shared    bool
	Followed  bool
}

func (r PositiveRequest) eventTypes() []string {
	var types []string
	if r.Viewed {
		types = append(types, "view")
	}
	if r.Completed {
		types = append(types, "completion")
	}
	if r.Liked {
		types = append(types, "like")
	}
	if r.Commented {
		types = append(types, "comment")
	}
	if r.Shared {
		types = append(types, "share")
	}
	return types
}

func (r PositiveRequest) weight() float64 {
	total := 0.0
	for _, t := range r.eventTypes() {
		total += postmetrics.EventWeights[t]
	}
	return total
}

type Controller struct {
	posts     PostLookup
	metrics   *postmetrics.Engine
	interests *interest.Service
	creators  *creator.Service
	profiles  *profilestore.Store
	sessions  *sessionstore.Store
	producer  *events.Producer
}

// PostLookup is the slice of poststore.Store this controller needs: just
// enough to resolve a post's category/subcategory/creator for scoring.
type PostLookup interface {
	Load(ctx context.Context, postID string) (*models.Post, error)
}

func NewController(posts PostLookup, metrics *postmetrics.Engine, interests *interest.Service, creators *creator.Service, profiles *profilestore.Store, sessions *sessionstore.Store, producer *events.Producer) *Controller {
	return &Controller{posts: posts, metrics: metrics, interests: interests, creators: creators, profiles: profiles, sessions: sessions, producer: producer}
}

// Positive handles POST /engagement/positive: it updates post metrics,
// scores the interest/creator pools, optionally follows the creator, and
// publishes the engagement event.
func (c *Controller) Positive(ctx context.Context, userID, sessionID string, req PositiveRequest) error {
	if req.PostID == "" {
		return ErrValidation
	}

	post, err := c.posts.Load(ctx, req.PostID)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	weight := req.weight()

	if _, err := c.metrics.Update(ctx, req.PostID, req.eventTypes(), nil, now); err != nil {
		return err
	}

	interestAccessor, creatorAccessor, err := c.resolveAccessors(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	if err := c.interests.ScoreInterest(ctx, interestAccessor, userID, post.Category, post.SubCategory, post.Specific, weight, now); err != nil {
		return err
	}
	if err := c.creators.Score(ctx, creatorAccessor, post.Creator, weight, now); err != nil {
		return err
	}

	if req.Followed {
		if err := c.Follow(ctx, userID, sessionID, post.Creator, true); err != nil {
			return err
		}
	}

	if c.producer != nil {
		_ = c.producer.PublishEngagement(ctx, events.EngagementEvent{
			PostID:          req.PostID,
			UserID:          userID,
			Category:        post.Category,
			SubCategory:     post.SubCategory,
			CreatorID:       post.Creator,
			EngagementScore: weight,
		})
	}
	return nil
}

// Negative handles POST /engagement/negative: it applies SKIP_WEIGHT to the
// post's category/creator pools. It does not touch post metrics or publish
// an event — a skip is a personalization signal, not an engagement record.
func (c *Controller) Negative(ctx context.Context, userID, sessionID, postID string) error {
	if postID == "" {
		return ErrValidation
	}
	post, err := c.posts.Load(ctx, postID)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	interestAccessor, creatorAccessor, err := c.resolveAccessors(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	if err := c.interests.SkipInterest(ctx, interestAccessor, post.Category, post.SubCategory, post.Specific, now); err != nil {
		return err
	}
	return c.creators.Skip(ctx, creatorAccessor, post.Creator, now)
}

// Follow toggles a followed-creator entry. On follow, it upserts with
// default score=0 and current timestamps; on unfollow, it removes the
// entry.
func (c *Controller) Follow(ctx context.Context, userID, sessionID, creatorID string, follow bool) error {
	now := time.Now().UnixMilli()

	if sessionID != "" {
		blob, err := c.sessions.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if blob != nil {
			blob.FollowedCreators = toggleFollow(blob.FollowedCreators, creatorID, follow, now)
			if err := c.sessions.SaveSession(ctx, sessionID, blob); err != nil {
				return err
			}
			return c.sessions.Touch(ctx, sessionID, now)
		}
	}

	profile, err := c.profiles.LoadProfile(ctx, userID)
	if err != nil {
		return err
	}
	profile.Following = toggleFollow(profile.Following, creatorID, follow, now)
	return c.profiles.SaveProfile(ctx, profile)
}

func toggleFollow(following []*models.FollowedCreator, creatorID string, follow bool, now int64) []*models.FollowedCreator {
	out := make([]*models.FollowedCreator, 0, len(following)+1)
	for _, f := range following {
		if f.CreatorID != creatorID {
			out = append(out, f)
		}
	}
	if follow {
		out = append(out, &models.FollowedCreator{CreatorID: creatorID, Score: 0, LastUpdated: now})
	}
	return out
}

// resolveAccessors picks the session backing when a live session exists,
// falling back to the persistent profile. Both returned accessors save
// independently (interest.Service and creator.Service each call their own
// Save*Pools), which is safe here since a session-backed pair shares the
// same in-memory blob pointer.
func (c *Controller) resolveAccessors(ctx context.Context, userID, sessionID string) (interest.Accessor, creator.Accessor, error) {
	if sessionID != "" {
		blob, err := c.sessions.GetSession(ctx, sessionID)
		if err != nil {
			return nil, nil, err
		}
		if blob != nil {
			ia := interest.NewSessionAccessor(c.sessions, sessionID, blob)
			ca := creator.NewSessionAccessor(c.sessions, sessionID, blob)
			return ia, ca, nil
		}
	}

	profile, err := c.profiles.LoadProfile(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	ia := interest.NewPersistentAccessor(c.profiles, userID, profile)
	ca := creator.NewPersistentAccessor(c.profiles, profile)
	return ia, ca, nil
}
