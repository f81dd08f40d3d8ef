package job_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docgarden/features/job"
)

func TestPostgresRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO jobs").
		WithArgs("job-1", "https://example.com", job.StatusQueued, job.TypeUnknown, 0).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("INSERT INTO job_status_history").
		WithArgs("job-1", job.StatusQueued, "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	j := &job.Job{ID: "job-1", URL: "https://example.com"}
	require.NoError(t, repo.Create(context.Background(), j))

	assert.Equal(t, job.StatusQueued, j.Status)
	assert.Len(t, j.History, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_AppendStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE jobs SET status").
			WithArgs("job-1", job.StatusFetching, 10, job.StatusCompleted, job.StatusFailed).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO job_status_history").
			WithArgs("job-1", job.StatusFetching, "").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.AppendStatus(context.Background(), "job-1", job.StatusFetching, 10, "")
		assert.NoError(t, err)
	})

	t.Run("TerminalJobRefusesTransition", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE jobs SET status").
			WithArgs("job-1", job.StatusChunking, 50, job.StatusCompleted, job.StatusFailed).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.AppendStatus(context.Background(), "job-1", job.StatusChunking, 50, "")
		assert.ErrorIs(t, err, job.ErrTerminal)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_MarkFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE jobs SET status").
		WithArgs("job-1", job.StatusFailed, "fetch error", job.StatusCompleted, job.StatusFailed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO job_status_history").
		WithArgs("job-1", job.StatusFailed, "fetch error").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.MarkFailed(context.Background(), "job-1", "fetch error"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_CancelIfPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)

	t.Run("StillPending", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE jobs SET status").
			WithArgs("job-1", job.StatusFailed, job.CancelledMessage,
				job.StatusQueued, job.StatusFetching, job.StatusProcessing).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO job_status_history").
			WithArgs("job-1", job.StatusFailed, job.CancelledMessage).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		ok, err := repo.CancelIfPending(context.Background(), "job-1", job.CancelledMessage)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("AlreadyMovedOn", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE jobs SET status").
			WithArgs("job-2", job.StatusFailed, job.CancelledMessage,
				job.StatusQueued, job.StatusFetching, job.StatusProcessing).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		ok, err := repo.CancelIfPending(context.Background(), "job-2", job.CancelledMessage)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_CountByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)

	mock.ExpectQuery("SELECT status, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("queued", 3).
			AddRow("completed", 7))

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts[job.StatusQueued])
	assert.Equal(t, 7, counts[job.StatusCompleted])
}
