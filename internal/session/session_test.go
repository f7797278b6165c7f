package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listingmatch/internal/model"
	"listingmatch/internal/review"
	"listingmatch/internal/table"
)

func loadedSession() *Session {
	s := New(review.DefaultSettings("it"))
	s.Authenticated = true
	s.Load("listings.csv", &table.Table{
		Headers: []string{"ASIN", "Image"},
		Rows:    [][]string{{"B001", "https://w/1.jpg"}, {"B002", ""}},
	})
	s.Mapping = &model.ColumnMapping{ASIN: "ASIN", WholesaleImage: "Image"}
	s.Matches.Set(1, true)
	return s
}

func assertRoundTrip(t *testing.T, want, got *Session) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, got.Authenticated)
	assert.Equal(t, want.Table, got.Table)
	assert.Equal(t, want.Mapping, got.Mapping)
	assert.Equal(t, want.Settings, got.Settings)
	assert.True(t, got.Matches.Get(1))
	assert.False(t, got.Matches.Get(0))
	assert.True(t, got.Ready())
}

func TestSession_LoadKeepsMatchesAndClearsMapping(t *testing.T) {
	s := loadedSession()
	s.Page = 3

	s.Load("other.csv", &table.Table{Headers: []string{"x"}})

	assert.Nil(t, s.Mapping)
	assert.False(t, s.Ready())
	assert.Equal(t, 1, s.Page)
	assert.True(t, s.Replaced)
	assert.True(t, s.Matches.Get(1))
}

func TestSession_FirstLoadIsNotReplacement(t *testing.T) {
	s := New(review.DefaultSettings("it"))
	s.Load("a.csv", &table.Table{Headers: []string{"x"}})
	assert.False(t, s.Replaced)
}

func TestSession_RenewChangesOnlyID(t *testing.T) {
	s := loadedSession()

	next := s.Renew()

	assert.NotEqual(t, s.ID, next.ID)
	assert.NotEmpty(t, next.ID)
	assert.Equal(t, s.Table, next.Table)
	assert.Equal(t, s.Mapping, next.Mapping)
	assert.Equal(t, s.FileName, next.FileName)
	assert.True(t, next.Matches.Get(1))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Hour)
	store.now = func() time.Time { return now }

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	s := loadedSession()
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assertRoundTrip(t, s, got)

	// Mutating a loaded copy does not touch the stored session.
	got.Matches.Set(0, true)
	again, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, again.Matches.Get(0))

	// Reads slide the expiry.
	now = now.Add(50 * time.Minute)
	_, err = store.Get(ctx, s.ID)
	require.NoError(t, err)
	now = now.Add(50 * time.Minute)
	_, err = store.Get(ctx, s.ID)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, s))
	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, time.Hour)

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	s := loadedSession()
	require.NoError(t, store.Save(ctx, s))
	assert.True(t, mr.Exists("session:"+s.ID))
	assert.Equal(t, time.Hour, mr.TTL("session:"+s.ID))

	mr.FastForward(30 * time.Minute)
	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assertRoundTrip(t, s, got)
	assert.Equal(t, time.Hour, mr.TTL("session:"+s.ID))

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, s))
	require.NoError(t, store.Delete(ctx, s.ID))
	assert.False(t, mr.Exists("session:"+s.ID))
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, mr.Set("session:bad", "{not json"))

	_, err := NewRedisStore(client, 0).Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
