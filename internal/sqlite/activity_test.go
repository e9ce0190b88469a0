package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/appforge/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogAndList(t *testing.T) {
	db := NewTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	proj := createTestProject(t, db, "tenant1")
	b := createTestBuild(t, db, "tenant1", proj.ID)

	entry := &activity.ActivityEntry{
		ProjectID:    proj.ID,
		BuildID:      &b.ID,
		ActivityType: activity.TypeBuildRequested,
		Summary:      "apk build requested for Test App",
	}
	require.NoError(t, repo.Log(ctx, "tenant1", entry))
	require.NotZero(t, entry.ID)
	require.Equal(t, "tenant1", entry.TenantID)
	require.False(t, entry.CreatedAt.IsZero())

	entries, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{ProjectID: proj.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, activity.TypeBuildRequested, entries[0].ActivityType)
	require.NotNil(t, entries[0].BuildID)
	require.Equal(t, b.ID, *entries[0].BuildID)
}

func TestActivityRepository_Filters(t *testing.T) {
	db := NewTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	proj := createTestProject(t, db, "tenant1")
	b1 := createTestBuild(t, db, "tenant1", proj.ID)
	b2 := createTestBuild(t, db, "tenant1", proj.ID)

	for _, e := range []*activity.ActivityEntry{
		{ProjectID: proj.ID, BuildID: &b1.ID, ActivityType: activity.TypeBuildRequested, Summary: "requested"},
		{ProjectID: proj.ID, BuildID: &b1.ID, ActivityType: activity.TypeBuildFailed, Summary: "failed"},
		{ProjectID: proj.ID, BuildID: &b2.ID, ActivityType: activity.TypeBuildRequested, Summary: "requested"},
	} {
		require.NoError(t, repo.Log(ctx, "tenant1", e))
	}

	byBuild, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{BuildID: &b1.ID})
	require.NoError(t, err)
	require.Len(t, byBuild, 2)

	failedType := activity.TypeBuildFailed
	byType, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{ActivityType: &failedType})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	require.Equal(t, "failed", byType[0].Summary)

	limited, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{ProjectID: proj.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestActivityRepository_TenantIsolation(t *testing.T) {
	db := NewTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	proj := createTestProject(t, db, "tenant1")
	entry := &activity.ActivityEntry{
		ProjectID:    proj.ID,
		ActivityType: activity.TypeBuildRequested,
		Summary:      "requested",
	}
	require.NoError(t, repo.Log(ctx, "tenant1", entry))

	entries, err := repo.List(ctx, "tenant2", activity.ListActivityOptions{})
	require.NoError(t, err)
	require.Empty(t, entries)
}
