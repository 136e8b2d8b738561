package cart

import (
	"testing"

	"github.com/stretchr/testify/require"

	"group-order-service/internal/models"
)

func TestFileStorageRoundTrip(t *testing.T) {
	storage := NewFileStorage(t.TempDir())

	_, ok, err := storage.Load()
	require.NoError(t, err)
	require.False(t, ok)

	c := groupCart()
	c.AddItem(pizza, nil, 2, "p1")
	require.NoError(t, storage.Save(c.Snapshot()))

	state, ok, err := storage.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, state.GroupMode)
	require.Len(t, state.Items, 1)
	require.Len(t, state.Participants, 2)

	restored := New()
	restored.Restore(state)
	require.True(t, restored.GroupMode())
	require.InDelta(t, 10.0, restored.Total(), 0.001)

	shares := restored.SplitSummary()
	require.Len(t, shares, 2)
	require.InDelta(t, 10.0, shares[0].Subtotal, 0.001)
}

func TestFileStorageOverwrites(t *testing.T) {
	storage := NewFileStorage(t.TempDir())

	require.NoError(t, storage.Save(State{GroupMode: true}))
	require.NoError(t, storage.Save(State{GroupMode: false, Items: []models.CartItem{{ID: "pizza", Quantity: 1}}}))

	state, ok, err := storage.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, state.GroupMode)
	require.Len(t, state.Items, 1)
}
