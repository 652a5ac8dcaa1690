// Package events is the event pipeline (C8): producers for
// engagement-events and post-score-events, and consumers for the
// engagement-stats and hourly-aggregator groups. Grounded on Watermill +
// NATS JetStream, standing in for the abstract event bus the spec names at
// its interface.
package events

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	TopicEngagementEvents = "engagement-events"
	TopicPostScoreEvents  = "post-score-events"

	ConsumerGroupEngagementStats  = "engagement-stats"
	ConsumerGroupHourlyAggregator = "hourly-aggregator"
)

// EngagementEvent is the full engagement record published on
// engagement-events.
type EngagementEvent struct {
	PostID          string  `json:"postId"`
	UserID          string  `json:"userId"`
	Category        string  `json:"category"`
	SubCategory     string  `json:"subCategory,omitempty"`
	CreatorID       string  `json:"creatorId"`
	EngagementScore float64 `json:"engagementScore"`
}

// ErrInvalidPayload is a non-retriable producer error: the caller must fix
// the payload, retrying will not help.
var ErrInvalidPayload = errors.New("events: invalid payload")

func (e EngagementEvent) Validate() error {
	if e.PostID == "" || e.UserID == "" || e.Category == "" || e.CreatorID == "" {
		return ErrInvalidPayload
	}
	return nil
}

func (e EngagementEvent) Marshal() ([]byte, error) { return json.Marshal(e) }

func UnmarshalEngagementEvent(data []byte) (EngagementEvent, error) {
	var e EngagementEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return e, err
	}
	return e, e.Validate()
}

// PostScoreEvent is published on post-score-events; it carries a raw score
// delta destined for the hourly aggregator's buffer.
type PostScoreEvent struct {
	PostID          string    `json:"postId"`
	UserID          string    `json:"userId"`
	EngagementType  string    `json:"engagementType"`
	ScoreDelta      float64   `json:"scoreDelta"`
	Timestamp       time.Time `json:"timestamp"`
}

func (e PostScoreEvent) Validate() error {
	if e.PostID == "" || e.EngagementType == "" {
		return ErrInvalidPayload
	}
	return nil
}

func (e PostScoreEvent) Marshal() ([]byte, error) { return json.Marshal(e) }

func UnmarshalPostScoreEvent(data []byte) (PostScoreEvent, error) {
	var e PostScoreEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return e, err
	}
	return e, e.Validate()
}
