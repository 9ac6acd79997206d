package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/repository"
	"github.com/alexanderramin/pathways/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMilestoneRepo_UpsertIsKeyedByUserAndMilestone(t *testing.T) {
	repo := repository.NewSQLUserMilestoneRepo(testutil.NewTestDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s := &domain.UserMilestoneStatus{UserID: "u1", MilestoneID: "m1", MilestoneName: "PRES"}
	s.ApplyStatus(domain.MilestoneInProgress, now)
	require.NoError(t, repo.Upsert(ctx, s))

	again := &domain.UserMilestoneStatus{UserID: "u1", MilestoneID: "m1", MilestoneName: "PRES"}
	again.ApplyStatus(domain.MilestoneDone, now.Add(time.Hour))
	require.NoError(t, repo.Upsert(ctx, again))

	rows, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, s.ID, rows[0].ID, "the original row is updated in place")
	assert.Equal(t, domain.MilestoneDone, rows[0].Status)
	require.NotNil(t, rows[0].CompletedAt)
	assert.True(t, rows[0].CompletedAt.Equal(now.Add(time.Hour)))
}

func TestUserMilestoneRepo_CompletedAtClearedWhenNotDone(t *testing.T) {
	repo := repository.NewSQLUserMilestoneRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	s := &domain.UserMilestoneStatus{UserID: "u1", MilestoneID: "m1"}
	s.ApplyStatus(domain.MilestoneDone, time.Now())
	require.NoError(t, repo.Upsert(ctx, s))

	s.ApplyStatus(domain.MilestoneTodo, time.Now())
	require.NoError(t, repo.Upsert(ctx, s))

	got, err := repo.Get(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.MilestoneTodo, got.Status)
	assert.Nil(t, got.CompletedAt)
}

func TestUserMilestoneRepo_ListIsScopedToUser(t *testing.T) {
	repo := repository.NewSQLUserMilestoneRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	for _, u := range []string{"u1", "u2"} {
		require.NoError(t, repo.Upsert(ctx, &domain.UserMilestoneStatus{
			UserID: u, MilestoneID: "m1", Status: domain.MilestoneTodo,
		}))
	}

	rows, err := repo.ListByUser(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "u2", rows[0].UserID)

	_, err = repo.Get(ctx, "u3", "m1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
