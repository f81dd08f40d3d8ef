package job_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docgarden/features/job"
	"docgarden/internal/testutils"
)

func TestJobRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	repo := job.NewPostgresRepo(s.DB)
	ctx := context.Background()

	j1 := &job.Job{ID: uuid.NewString(), URL: "https://example.com/a"}
	require.NoError(t, repo.Create(ctx, j1))
	assert.Equal(t, job.StatusQueued, j1.Status)

	// Ordering in List is newest first.
	time.Sleep(100 * time.Millisecond)

	j2 := &job.Job{ID: uuid.NewString(), URL: "https://example.com/b"}
	require.NoError(t, repo.Create(ctx, j2))

	jobs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, j2.ID, jobs[0].ID, "newest job should be first")

	// Walk j1 through the pipeline states.
	require.NoError(t, repo.AppendStatus(ctx, j1.ID, job.StatusFetching, 10, ""))
	require.NoError(t, repo.AppendStatus(ctx, j1.ID, job.StatusProcessing, 25, ""))
	require.NoError(t, repo.SetDocumentType(ctx, j1.ID, job.TypeHTML))

	got, err := repo.Get(ctx, j1.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusProcessing, got.Status)
	assert.Equal(t, 25, got.Progress)
	assert.Equal(t, job.TypeHTML, got.DocumentType)
	assert.GreaterOrEqual(t, len(got.History), 3)

	// Progress never goes backwards.
	require.NoError(t, repo.AppendStatus(ctx, j1.ID, job.StatusChunking, 10, ""))
	got, err = repo.Get(ctx, j1.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.Progress)

	// Past the cancellable window, cancellation is a no-op.
	cancelled, err := repo.CancelIfPending(ctx, j1.ID, "cancelled by user")
	require.NoError(t, err)
	assert.False(t, cancelled)

	// j2 is still queued and can be cancelled.
	cancelled, err = repo.CancelIfPending(ctx, j2.ID, "cancelled by user")
	require.NoError(t, err)
	assert.True(t, cancelled)

	got, err = repo.Get(ctx, j2.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, got.Status)
	assert.Equal(t, "cancelled by user", got.Error)

	// A terminal job rejects further transitions.
	err = repo.AppendStatus(ctx, j2.ID, job.StatusFetching, 10, "")
	assert.ErrorIs(t, err, job.ErrTerminal)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[job.StatusChunking])
	assert.Equal(t, 1, counts[job.StatusFailed])

	_, err = repo.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
