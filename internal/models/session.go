// models/session.go
package models

// SessionBlob is the fast-store mirror of the hot subset of a user's
// profile, addressed by session id. Timestamps are integer milliseconds so
// the blob round-trips through JSON without timezone ambiguity.
type SessionBlob struct {
	UserID            string             `json:"userId"`
	TopCategories     []*CategoryNode    `json:"topCategories"`
	RisingCategories  []*CategoryNode    `json:"risingCategories"`
	TopCreators       []*CreatorNode     `json:"topCreators"`
	RisingCreators    []*CreatorNode     `json:"risingCreators"`
	WatchedCreators   []*WatchedEntry    `json:"watchedCreators"`
	SkippedCreators   []*SkippedEntry    `json:"skippedCreators"`
	FollowedCreators  []*FollowedCreator `json:"followedCreators"`
	SeenPosts         []string           `json:"seenPosts"`
}

// FromProfile projects a persistent profile into a session blob.
func FromProfile(userID string, p *UserProfile) *SessionBlob {
	return &SessionBlob{
		UserID:           userID,
		TopCategories:    p.TopInterests,
		RisingCategories: p.RisingInterests,
		TopCreators:      p.CreatorsInterests.TopCreators,
		RisingCreators:   p.CreatorsInterests.RisingCreators,
		WatchedCreators:  p.CreatorsInterests.Watched,
		SkippedCreators:  p.CreatorsInterests.Skipped,
		FollowedCreators: p.Following,
		SeenPosts:        p.SeenPosts,
	}
}
