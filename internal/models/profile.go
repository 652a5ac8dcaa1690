// models/profile.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// SpecificNode is the leaf of the category > subcategory > specific pool
// hierarchy. It carries no nested pool of its own.
type SpecificNode struct {
	Name        string  `json:"name" bson:"name"`
	Score       float64 `json:"score" bson:"score"`
	LastUpdated int64   `json:"lastUpdated" bson:"last_updated"`
}

func (n *SpecificNode) Key() string          { return n.Name }
func (n *SpecificNode) GetScore() float64    { return n.Score }
func (n *SpecificNode) SetScore(s float64)   { n.Score = s }
func (n *SpecificNode) GetLastUpdated() int64 { return n.LastUpdated }
func (n *SpecificNode) SetLastUpdated(t int64) { n.LastUpdated = t }

// SubNode sits between a category and its leaf-level specifics.
type SubNode struct {
	Name        string          `json:"name" bson:"name"`
	Score       float64         `json:"score" bson:"score"`
	LastUpdated int64           `json:"lastUpdated" bson:"last_updated"`
	Specific    []*SpecificNode `json:"specific" bson:"specific"`
}

func (n *SubNode) Key() string          { return n.Name }
func (n *SubNode) GetScore() float64    { return n.Score }
func (n *SubNode) SetScore(s float64)   { n.Score = s }
func (n *SubNode) GetLastUpdated() int64 { return n.LastUpdated }
func (n *SubNode) SetLastUpdated(t int64) { n.LastUpdated = t }

// CategoryNode is a node of topInterests/risingInterests, bearing its own
// capped pools of subcategories.
type CategoryNode struct {
	Name        string     `json:"name" bson:"name"`
	Score       float64    `json:"score" bson:"score"`
	LastUpdated int64      `json:"lastUpdated" bson:"last_updated"`
	TopSubs     []*SubNode `json:"topSubs" bson:"top_subs"`
	RisingSubs  []*SubNode `json:"risingSubs" bson:"rising_subs"`
}

func (n *CategoryNode) Key() string          { return n.Name }
func (n *CategoryNode) GetScore() float64    { return n.Score }
func (n *CategoryNode) SetScore(s float64)   { n.Score = s }
func (n *CategoryNode) GetLastUpdated() int64 { return n.LastUpdated }
func (n *CategoryNode) SetLastUpdated(t int64) { n.LastUpdated = t }

// CreatorNode is an entry in topCreators/risingCreators.
type CreatorNode struct {
	CreatorID   string  `json:"creatorId" bson:"creator_id"`
	Score       float64 `json:"score" bson:"score"`
	LastUpdated int64   `json:"lastUpdated" bson:"last_updated"`
	Skips       int     `json:"skips" bson:"skips"`
	LastSkipAt  int64   `json:"lastSkipAt,omitempty" bson:"last_skip_at,omitempty"`
}

func (n *CreatorNode) Key() string          { return n.CreatorID }
func (n *CreatorNode) GetScore() float64    { return n.Score }
func (n *CreatorNode) SetScore(s float64)   { n.Score = s }
func (n *CreatorNode) GetLastUpdated() int64 { return n.LastUpdated }
func (n *CreatorNode) SetLastUpdated(t int64) { n.LastUpdated = t }

// WatchedEntry / SkippedEntry are the cool-off tiers of the creator state
// machine; they carry a skip counter and a re-entry gate instead of a score.
type WatchedEntry struct {
	CreatorID      string `json:"creatorId" bson:"creator_id"`
	Skips          int    `json:"skips" bson:"skips"`
	LastSkipUpdate int64  `json:"lastSkipUpdate" bson:"last_skip_update"`
	ReentryAt      int64  `json:"reentryAt,omitempty" bson:"reentry_at,omitempty"`
}

func (n *WatchedEntry) Key() string { return n.CreatorID }

type SkippedEntry struct {
	CreatorID      string `json:"creatorId" bson:"creator_id"`
	Skips          int    `json:"skips" bson:"skips"`
	LastSkipUpdate int64  `json:"lastSkipUpdate" bson:"last_skip_update"`
	ReentryAt      int64  `json:"reentryAt" bson:"reentry_at"`
}

func (n *SkippedEntry) Key() string { return n.CreatorID }

// FollowedCreator is a followed creator slot. The field is named CreatorID
// here for clarity; it is the creator the user follows, not the user.
type FollowedCreator struct {
	CreatorID   string  `json:"userId" bson:"creator_id"`
	Score       float64 `json:"score" bson:"score"`
	LastUpdated int64   `json:"lastUpdated" bson:"last_updated"`
	Skips       int     `json:"skips" bson:"skips"`
	LastSkipAt  int64   `json:"lastSkipAt,omitempty" bson:"last_skip_at,omitempty"`
	ReentryAt   int64   `json:"reentryAt,omitempty" bson:"reentry_at,omitempty"`
}

func (n *FollowedCreator) Key() string          { return n.CreatorID }
func (n *FollowedCreator) GetScore() float64    { return n.Score }
func (n *FollowedCreator) SetScore(s float64)   { n.Score = s }
func (n *FollowedCreator) GetLastUpdated() int64 { return n.LastUpdated }
func (n *FollowedCreator) SetLastUpdated(t int64) { n.LastUpdated = t }

// CreatorsInterests groups the five creator-state pools for a user.
type CreatorsInterests struct {
	TopCreators    []*CreatorNode    `json:"topCreators" bson:"top_creators"`
	RisingCreators []*CreatorNode    `json:"risingCreators" bson:"rising_creators"`
	Watched        []*WatchedEntry   `json:"watchedCreatorsPool" bson:"watched_creators_pool"`
	Skipped        []*SkippedEntry   `json:"skippedCreatorsPool" bson:"skipped_creators_pool"`
}

// UserProfile is the persistent, long-term interest profile for a user.
type UserProfile struct {
	BaseModel `bson:",inline"`

	UserID            primitive.ObjectID `json:"userId" bson:"user_id"`
	TopInterests      []*CategoryNode    `json:"topInterests" bson:"top_interests"`
	RisingInterests   []*CategoryNode    `json:"risingInterests" bson:"rising_interests"`
	CreatorsInterests CreatorsInterests  `json:"creatorsInterests" bson:"creators_interests"`
	Following         []*FollowedCreator `json:"following" bson:"following"`
	SeenPosts         []string           `json:"seenPosts" bson:"seen_posts"`
}

// SeenSet builds a lookup set from SeenPosts for O(1) membership checks.
func (p *UserProfile) SeenSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.SeenPosts))
	for _, id := range p.SeenPosts {
		set[id] = struct{}{}
	}
	return set
}
