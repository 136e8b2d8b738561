package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"group-order-service/internal/models"
)

func testSession(id string, expiresAt time.Time) *models.GroupSession {
	return &models.GroupSession{
		ID:        id,
		HostID:    "host-1",
		HostName:  "Alice",
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
		Status:    models.StatusActive,
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	session := testSession("s1", time.Now().Add(time.Hour))
	require.NoError(t, s.Create(ctx, session))
	require.Equal(t, int64(1), session.Version)

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "s1", got.ID)
	require.Equal(t, int64(1), got.Version)

	require.ErrorIs(t, s.Create(ctx, testSession("s1", time.Now().Add(time.Hour))), ErrAlreadyExists)
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorePutVersionConflict(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	session := testSession("s1", time.Now().Add(time.Hour))
	require.NoError(t, s.Create(ctx, session))

	first, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	second, err := s.Get(ctx, "s1")
	require.NoError(t, err)

	first.HostName = "Bob"
	require.NoError(t, s.Put(ctx, first, first.Version))
	require.Equal(t, int64(2), first.Version)

	second.HostName = "Carol"
	require.ErrorIs(t, s.Put(ctx, second, second.Version), ErrVersionConflict)

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "Bob", got.HostName)
}

func TestMemoryStorePutMissing(t *testing.T) {
	s := NewMemoryStore()
	session := testSession("ghost", time.Now().Add(time.Hour))
	require.ErrorIs(t, s.Put(context.Background(), session, 1), ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testSession("s1", time.Now().Add(time.Hour))))
	require.NoError(t, s.Delete(ctx, "s1"))
	require.ErrorIs(t, s.Delete(ctx, "s1"), ErrNotFound)
}

func TestMemoryStoreCopiesOnReadAndWrite(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	session := testSession("s1", time.Now().Add(time.Hour))
	session.Participants = []models.GroupParticipant{{ID: "p1", Name: "Alice"}}
	require.NoError(t, s.Create(ctx, session))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	got.Participants[0].Name = "Mallory"

	again, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "Alice", again.Participants[0].Name)
}

func TestMemoryStoreSweepExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Create(ctx, testSession("live", now.Add(time.Hour))))
	require.NoError(t, s.Create(ctx, testSession("dead-1", now.Add(-time.Minute))))
	require.NoError(t, s.Create(ctx, testSession("dead-2", now.Add(-time.Hour))))

	count, err := s.SweepExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Equal(t, 1, s.Len())

	_, err = s.Get(ctx, "dead-1")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "live")
	require.NoError(t, err)
}

func TestMemoryStoreList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testSession("a", time.Now().Add(time.Hour))))
	require.NoError(t, s.Create(ctx, testSession("b", time.Now().Add(time.Hour))))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
