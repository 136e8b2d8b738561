package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSweeperEvictsExpiredSessions(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Create(ctx, testSession("dead", time.Now().Add(-time.Minute))))
	require.NoError(t, s.Create(ctx, testSession("live", time.Now().Add(time.Hour))))

	sweeper := NewSweeper(s, 10*time.Millisecond)
	go sweeper.Run(ctx)

	require.Eventually(t, func() bool {
		return s.Len() == 1
	}, time.Second, 5*time.Millisecond)

	_, err := s.Get(ctx, "live")
	require.NoError(t, err)
}

func TestSweeperStopsOnCancel(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())

	sweeper := NewSweeper(s, 5*time.Millisecond)
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestNewSweeperDefaultsInterval(t *testing.T) {
	sweeper := NewSweeper(NewMemoryStore(), 0)
	require.Equal(t, time.Hour, sweeper.interval)
}
