package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*miniredis.Miniredis, Locker) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisBookingLocker(client, 5*time.Second)
}

func TestWithBookingLock_RunsSectionAndReleases(t *testing.T) {
	mr, locker := newTestLocker(t)

	vetID := uuid.New()
	at := time.Date(2026, 10, 3, 17, 0, 0, 0, time.UTC)

	ran := false
	err := locker.WithBookingLock(context.Background(), vetID, at, func(ctx context.Context) error {
		ran = true
		assert.True(t, mr.Exists("lock:booking:"+vetID.String()+":1791046800"))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, mr.Exists("lock:booking:"+vetID.String()+":1791046800"), "lock released")
}

func TestWithBookingLock_Contention(t *testing.T) {
	_, locker := newTestLocker(t)

	vetID := uuid.New()
	at := time.Date(2026, 10, 3, 17, 0, 0, 0, time.UTC)

	err := locker.WithBookingLock(context.Background(), vetID, at, func(ctx context.Context) error {
		// A second caller for the same vet and instant must bounce while we
		// hold the lock.
		inner := locker.WithBookingLock(ctx, vetID, at, func(context.Context) error {
			t.Fatal("contended section must not run")
			return nil
		})
		assert.ErrorIs(t, inner, ErrLockNotAcquired)
		return nil
	})
	require.NoError(t, err)
}

func TestWithBookingLock_DistinctSlotsDoNotContend(t *testing.T) {
	_, locker := newTestLocker(t)

	vetA := uuid.New()
	vetB := uuid.New()
	at := time.Date(2026, 10, 3, 17, 0, 0, 0, time.UTC)

	err := locker.WithBookingLock(context.Background(), vetA, at, func(ctx context.Context) error {
		// Same instant, different vet.
		if err := locker.WithBookingLock(ctx, vetB, at, func(context.Context) error { return nil }); err != nil {
			return err
		}
		// Same vet, different instant.
		return locker.WithBookingLock(ctx, vetA, at.Add(30*time.Minute), func(context.Context) error { return nil })
	})
	require.NoError(t, err)
}

func TestWithBookingLock_SectionErrorPropagatesAndReleases(t *testing.T) {
	mr, locker := newTestLocker(t)

	vetID := uuid.New()
	at := time.Date(2026, 10, 3, 17, 0, 0, 0, time.UTC)

	sentinel := assert.AnError
	err := locker.WithBookingLock(context.Background(), vetID, at, func(context.Context) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	// Released despite the failure; a retry can acquire immediately.
	require.Empty(t, mr.Keys())
	err = locker.WithBookingLock(context.Background(), vetID, at, func(context.Context) error { return nil })
	require.NoError(t, err)
}
