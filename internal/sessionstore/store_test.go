package sessionstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedranker/internal/models"
)

func newTestStore(t *testing.T) *Store {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client)
}

func TestSaveAndGetSessionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	blob := &models.SessionBlob{UserID: "u1", TopCategories: []*models.CategoryNode{{Name: "Tech", Score: 1.5}}}

	require.NoError(t, store.SaveSession(ctx, "sid1", blob))
	got, err := store.GetSession(ctx, "sid1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "Tech", got.TopCategories[0].Name)
}

func TestExpiredSessionIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Touch(ctx, "old", 100))
	require.NoError(t, store.Touch(ctx, "fresh", 100_000))

	expired, err := store.ExpiredSessionIDs(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, expired)
}

func TestDeleteSessionRemovesBothKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveSession(ctx, "sid1", &models.SessionBlob{UserID: "u1"}))
	require.NoError(t, store.Touch(ctx, "sid1", 100))

	require.NoError(t, store.DeleteSession(ctx, "sid1"))

	got, err := store.GetSession(ctx, "sid1")
	require.NoError(t, err)
	assert.Nil(t, got)

	expired, err := store.ExpiredSessionIDs(ctx, 1_000_000)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestScoreBufferMirror(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.BufferScoreDelta(ctx, "postA", 2.5))
	require.NoError(t, store.BufferScoreDelta(ctx, "postA", 1.5))

	buf, err := store.LoadBuffer(ctx)
	require.NoError(t, err)
	assert.InEpsilon(t, 4.0, buf["postA"], 1e-9)

	require.NoError(t, store.ClearBufferedPost(ctx, "postA"))
	buf, err = store.LoadBuffer(ctx)
	require.NoError(t, err)
	assert.Empty(t, buf)
}
