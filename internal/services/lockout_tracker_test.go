package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func newTestTracker(t *testing.T) (*LockoutTracker, *miniredis.Miniredis) {
	st, mr := newTestStore(t)
	tracker := NewLockoutTracker(st, LockoutConfig{ResetWindow: 30 * time.Minute}, slog.Default())
	return tracker, mr
}

func TestLockoutDuration_EscalationTable(t *testing.T) {
	tests := []struct {
		attempt int64
		want    time.Duration
	}{
		{1, 0},
		{4, 0},
		{5, 30 * time.Second},
		{6, 60 * time.Second},
		{7, 120 * time.Second},
		{8, 240 * time.Second},
		{9, 480 * time.Second},
		{10, 1800 * time.Second},
		{25, 1800 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, lockoutDuration(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestLockoutTracker_NoLockBeforeFifthFailure(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		attempts, lockSeconds := tracker.TrackAttempt(ctx, "user@example.com")
		assert.Equal(t, int64(i), attempts)
		assert.Zero(t, lockSeconds)
	}

	status := tracker.CheckLockout(ctx, "user@example.com")
	assert.False(t, status.IsLocked)
}

func TestLockoutTracker_FifthFailureLocks(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	var lockSeconds int64
	for i := 0; i < 5; i++ {
		_, lockSeconds = tracker.TrackAttempt(ctx, "user@example.com")
	}
	assert.Equal(t, int64(30), lockSeconds)

	status := tracker.CheckLockout(ctx, "user@example.com")
	assert.True(t, status.IsLocked)
	assert.Equal(t, int64(5), status.Attempts)
	assert.Greater(t, status.RemainingSeconds, int64(0))
	assert.LessOrEqual(t, status.RemainingSeconds, int64(30))
}

func TestLockoutTracker_CounterSurvivesServedLockout(t *testing.T) {
	tracker, mr := newTestTracker(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		tracker.TrackAttempt(ctx, "user@example.com")
	}

	// Wait out the 30s lock; the counter key keeps its own longer TTL.
	mr.FastForward(31 * time.Second)
	assert.False(t, tracker.CheckLockout(ctx, "user@example.com").IsLocked)

	// The next failure is attempt six, escalating to a 60s lock.
	attempts, lockSeconds := tracker.TrackAttempt(ctx, "user@example.com")
	assert.Equal(t, int64(6), attempts)
	assert.Equal(t, int64(60), lockSeconds)
}

func TestLockoutTracker_CounterExpiresAfterResetWindow(t *testing.T) {
	tracker, mr := newTestTracker(t)
	ctx := context.Background()

	tracker.TrackAttempt(ctx, "user@example.com")
	tracker.TrackAttempt(ctx, "user@example.com")

	mr.FastForward(31 * time.Minute)

	attempts, _ := tracker.TrackAttempt(ctx, "user@example.com")
	assert.Equal(t, int64(1), attempts, "counter should restart after the reset window")
}

func TestLockoutTracker_ResetAll(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		tracker.TrackAttempt(ctx, "user@example.com")
	}
	assert.True(t, tracker.CheckLockout(ctx, "user@example.com").IsLocked)

	tracker.ResetAll(ctx, "user@example.com")
	assert.False(t, tracker.CheckLockout(ctx, "user@example.com").IsLocked)

	attempts, _ := tracker.TrackAttempt(ctx, "user@example.com")
	assert.Equal(t, int64(1), attempts)

	// Idempotent on already-clean state
	tracker.ResetAll(ctx, "other@example.com")
}

func TestLockoutTracker_AccountsAreIndependent(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		tracker.TrackAttempt(ctx, "locked@example.com")
	}

	assert.True(t, tracker.CheckLockout(ctx, "locked@example.com").IsLocked)
	assert.False(t, tracker.CheckLockout(ctx, "free@example.com").IsLocked)
}

func TestLockoutTracker_FailsOpenWhenStoreDown(t *testing.T) {
	st, mr := newTestStore(t)
	tracker := NewLockoutTracker(st, LockoutConfig{}, slog.Default())
	ctx := context.Background()

	mr.Close()

	status := tracker.CheckLockout(ctx, "user@example.com")
	assert.False(t, status.IsLocked)

	attempts, lockSeconds := tracker.TrackAttempt(ctx, "user@example.com")
	assert.Zero(t, attempts)
	assert.Zero(t, lockSeconds)
}
