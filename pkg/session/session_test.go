package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	sid, err := s.Create(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, sid)

	email, err := s.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	require.NoError(t, s.Delete(ctx, sid))
	_, err = s.Get(ctx, sid)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }

	sid, err := s.Create(ctx, "alice@example.com")
	require.NoError(t, err)

	now = now.Add(59 * time.Second)
	_, err = s.Get(ctx, sid)
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = s.Get(ctx, sid)
	assert.ErrorIs(t, err, ErrNotFound)
}
