package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[int](0)

	require.NoError(t, m.Create(ctx, "a", 1))
	assert.ErrorIs(t, m.Create(ctx, "a", 2), ErrExists)
	assert.ErrorIs(t, m.Create(ctx, "", 2), ErrEmptyKey)

	v, err := m.Read(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.NoError(t, m.Update(ctx, "a", 3))
	v, err = m.Read(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.ErrorIs(t, m.Update(ctx, "b", 1), ErrNotFound)

	require.NoError(t, m.Delete(ctx, "a"))
	_, err = m.Read(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, "a"), ErrNotFound)
}

func TestMemoryEvictsOldest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[string](2)

	require.NoError(t, m.Create(ctx, "a", "1"))
	require.NoError(t, m.Create(ctx, "b", "2"))
	require.NoError(t, m.Delete(ctx, "a"))
	require.NoError(t, m.Create(ctx, "c", "3"))
	require.NoError(t, m.Create(ctx, "d", "4"))

	_, err := m.Read(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
	for _, k := range []string{"c", "d"} {
		_, err := m.Read(ctx, k)
		assert.NoError(t, err, k)
	}
	assert.Equal(t, Statistics{Entries: 2, Capacity: 2, Evictions: 1}, m.Statistics())
}

func TestMemoryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemory[int](1)

	assert.ErrorIs(t, m.Create(ctx, "a", 1), context.Canceled)
	_, err := m.Read(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}
