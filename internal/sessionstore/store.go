// Package sessionstore is the fast-store (Redis) backing for session
// blobs, the last-access sorted set that governs session TTL, and the
// hourly score-buffer hash. Grounded on the teacher's key-prefixing and
// JSON-marshal-into-Redis conventions.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"feedranker/internal/models"
)

// ErrCorruptSession marks a session blob that failed to unmarshal; the
// expiry worker treats this as grounds to delete the session outright
// rather than retry.
var ErrCorruptSession = errors.New("sessionstore: corrupt session blob")

const (
	sessionKeyPrefix   = "sess:"
	sessionOwnerPrefix = "sess:owner:"
	lastAccessZSetKey  = "sessions:lastAccess"
	scoreBufferHashKey = "score_buffer"
)

type Store struct {
	client redis.Cmdable
}

func New(client redis.Cmdable) *Store {
	return &Store{client: client}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func sessionOwnerKey(sessionID string) string {
	return sessionOwnerPrefix + sessionID
}

// SaveSessionOwner records the user a session was started for, written once
// at session creation and never touched by in-session mutations. Merge-back
// compares this independent record against the blob's own self-reported
// UserID to detect tampering or a corrupted blob.
func (s *Store) SaveSessionOwner(ctx context.Context, sessionID, userID string) error {
	return s.client.Set(ctx, sessionOwnerKey(sessionID), userID, 0).Err()
}

// GetSessionOwner returns the recorded owner, or "" if none was ever saved
// (legacy sessions predating this record should not be treated as a
// mismatch).
func (s *Store) GetSessionOwner(ctx context.Context, sessionID string) (string, error) {
	owner, err := s.client.Get(ctx, sessionOwnerKey(sessionID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return owner, err
}

// SaveSession writes the blob with no TTL; liveness is governed entirely by
// the last-access sorted set.
func (s *Store) SaveSession(ctx context.Context, sessionID string, blob *models.SessionBlob) error {
	data, err := json.Marshal(blob)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sessionID), data, 0).Err()
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (*models.SessionBlob, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var blob models.SessionBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, fmt.Errorf("session %s: %w: %v", sessionID, ErrCorruptSession, err)
	}
	return &blob, nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.Del(ctx, sessionOwnerKey(sessionID))
	pipe.ZRem(ctx, lastAccessZSetKey, sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// Touch creates or refreshes a session's last-access score.
func (s *Store) Touch(ctx context.Context, sessionID string, nowMs int64) error {
	return s.client.ZAdd(ctx, lastAccessZSetKey, &redis.Z{Score: float64(nowMs), Member: sessionID}).Err()
}

// ExpiredSessionIDs returns session ids whose last-access score is at or
// before cutoffMs.
func (s *Store) ExpiredSessionIDs(ctx context.Context, cutoffMs int64) ([]string, error) {
	return s.client.ZRangeByScore(ctx, lastAccessZSetKey, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", cutoffMs),
	}).Result()
}

func (s *Store) RemoveFromLastAccess(ctx context.Context, sessionID string) error {
	return s.client.ZRem(ctx, lastAccessZSetKey, sessionID).Err()
}

// BufferScoreDelta mirrors an in-process score-buffer increment to the
// fast-store hash so any aggregator instance can recover it on restart.
func (s *Store) BufferScoreDelta(ctx context.Context, postID string, delta float64) error {
	return s.client.HIncrByFloat(ctx, scoreBufferHashKey, postID, delta).Err()
}

func (s *Store) ClearBufferedPost(ctx context.Context, postID string) error {
	return s.client.HDel(ctx, scoreBufferHashKey, postID).Err()
}

// LoadBuffer hydrates the entire score-buffer hash, used on aggregator
// startup to recover in-process state after a restart.
func (s *Store) LoadBuffer(ctx context.Context) (map[string]float64, error) {
	raw, err := s.client.HGetAll(ctx, scoreBufferHashKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
			out[k] = f
		}
	}
	return out, nil
}
