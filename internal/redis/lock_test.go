package redisclient

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerRejectsNestedAcquire(t *testing.T) {
	l := NewLocalLocker()
	key := SlotKey(uuid.New())

	err := l.WithLock(context.Background(), key, func(ctx context.Context) error {
		return l.WithLock(ctx, key, func(context.Context) error { return nil })
	})
	assert.ErrorIs(t, err, ErrLockNotAcquired)
}

func TestLocalLockerReleasesOnError(t *testing.T) {
	l := NewLocalLocker()
	key := AdmissionKey(uuid.New())
	boom := errors.New("boom")

	err := l.WithLock(context.Background(), key, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	called := false
	err = l.WithLock(context.Background(), key, func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	l := NewLocalLocker()

	err := l.WithLock(context.Background(), SlotKey(uuid.New()), func(ctx context.Context) error {
		return l.WithLock(ctx, SlotKey(uuid.New()), func(context.Context) error { return nil })
	})
	assert.NoError(t, err)
}

func TestKeys(t *testing.T) {
	id := uuid.MustParse("6f1c3c3e-1111-4f7a-9a55-3b1f0f4b2c10")
	assert.Equal(t, "lock:slot:6f1c3c3e-1111-4f7a-9a55-3b1f0f4b2c10", SlotKey(id))
	assert.Equal(t, "lock:admission:6f1c3c3e-1111-4f7a-9a55-3b1f0f4b2c10", AdmissionKey(id))
}
