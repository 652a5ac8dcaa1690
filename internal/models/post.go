// models/post.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Post carries everything the scoring and feed-assembly paths need. CRUD
// around the rest of a post's content lives outside this module.
type Post struct {
	BaseModel `bson:",inline"`

	Creator     string `json:"creator" bson:"creator"`
	Category    string `json:"category" bson:"category"`
	SubCategory string `json:"subCategory,omitempty" bson:"sub_category,omitempty"`
	Specific    string `json:"specific,omitempty" bson:"specific,omitempty"`

	ImpressionCount int64   `json:"impressionCount" bson:"impression_count"`
	EngagementSum   float64 `json:"engagementSum" bson:"engagement_sum"`
	RawScore        float64 `json:"rawScore" bson:"raw_score"`
	TrendingScore   float64 `json:"trendingScore" bson:"trending_score"`

	ShortTermVelocityEMA  float64 `json:"shortTermVelocityEMA" bson:"short_term_velocity_ema"`
	HistoricalVelocityEMA float64 `json:"historicalVelocityEMA" bson:"historical_velocity_ema"`
	BayesianScore         float64 `json:"bayesianScore" bson:"bayesian_score"`
	CumulativeScore       float64 `json:"cumulativeScore" bson:"cumulative_score"`

	IsEvergreen bool `json:"isEvergreen" bson:"is_evergreen"`
	IsRising    bool `json:"isRising" bson:"is_rising"`

	WindowEvents []EngagementEvent `json:"-" bson:"window_events"`

	LastTrendingUpdate int64 `json:"lastTrendingUpdate" bson:"last_trending_update"`
	LastScoreUpdate    int64 `json:"lastScoreUpdate" bson:"last_score_update"`
}

// EngagementEvent is one weighted event inside a post's rising window.
type EngagementEvent struct {
	TS     int64   `bson:"ts"`
	Weight float64 `bson:"weight"`
}

func (p *Post) IDHex() string { return p.ID.Hex() }

// GlobalStats tracks aggregate impression/engagement counters for a
// category or subcategory, keyed by (entityType, name).
type GlobalStats struct {
	BaseModel `bson:",inline"`

	EntityType      string  `bson:"entity_type"`
	Name            string  `bson:"name"`
	ImpressionCount int64   `bson:"impression_count"`
	TotalEngagement float64 `bson:"total_engagement"`
}

func (g *GlobalStats) Average() float64 {
	if g.ImpressionCount <= 0 {
		return 0
	}
	return g.TotalEngagement / float64(g.ImpressionCount)
}

// UserInterestStats is the per-user analogue of GlobalStats, keyed by
// (userId, entityType, name).
type UserInterestStats struct {
	BaseModel `bson:",inline"`

	UserID          primitive.ObjectID `bson:"user_id"`
	EntityType      string             `bson:"entity_type"`
	Name            string             `bson:"name"`
	ImpressionCount int64              `bson:"impression_count"`
	TotalEngagement float64            `bson:"total_engagement"`
}

// CreatorStats is the per-creator analogue, keyed by creatorId.
type CreatorStats struct {
	BaseModel `bson:",inline"`

	CreatorID       string  `bson:"creator_id"`
	ImpressionCount int64   `bson:"impression_count"`
	TotalEngagement float64 `bson:"total_engagement"`
}

func (c *CreatorStats) Average() float64 {
	if c.ImpressionCount <= 0 {
		return 0
	}
	return c.TotalEngagement / float64(c.ImpressionCount)
}
