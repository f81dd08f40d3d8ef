package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrTerminal is returned by transition writes when the job has already
// reached completed or failed. The running pipeline treats it as a stop
// signal at its next stage boundary.
var ErrTerminal = errors.New("job is in a terminal state")

type Repository interface {
	Create(ctx context.Context, j *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context) ([]Job, error)

	// AppendStatus atomically moves the job to status, raises progress
	// (never lowers it) and appends a history entry. Returns ErrTerminal
	// if the job already left the state machine.
	AppendStatus(ctx context.Context, id string, status Status, progress int, message string) error

	// MarkFailed is the failure variant of AppendStatus: it also records
	// the error message on the job itself.
	MarkFailed(ctx context.Context, id, message string) error

	// CancelIfPending conditionally fails the job when it is still in a
	// cancellable state. Returns false without error when the job has
	// already moved on; the caller maps that to a conflict.
	CancelIfPending(ctx context.Context, id, message string) (bool, error)

	SetDocumentType(ctx context.Context, id string, dt DocumentType) error
	SetDocument(ctx context.Context, id, documentID string) error

	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, j *Job) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO jobs (id, url, status, document_type, progress)
	          VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`
	if err := tx.QueryRowContext(ctx, query, j.ID, j.URL, StatusQueued, TypeUnknown, 0).
		Scan(&j.CreatedAt, &j.UpdatedAt); err != nil {
		return err
	}

	history := `INSERT INTO job_status_history (job_id, status, message) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, history, j.ID, StatusQueued, ""); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	j.Status = StatusQueued
	j.DocumentType = TypeUnknown
	j.History = []StatusEntry{{Status: StatusQueued, Timestamp: j.CreatedAt}}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Job, error) {
	j := &Job{}
	var docID sql.NullString
	query := `SELECT id, url, status, document_type, progress, error, document_id, created_at, updated_at
	          FROM jobs WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&j.ID, &j.URL, &j.Status, &j.DocumentType, &j.Progress, &j.Error, &docID, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if docID.Valid {
		j.DocumentID = docID.String
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT status, message, created_at FROM job_status_history WHERE job_id = $1 ORDER BY id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e StatusEntry
		if err := rows.Scan(&e.Status, &e.Message, &e.Timestamp); err != nil {
			return nil, err
		}
		j.History = append(j.History, e)
	}
	return j, rows.Err()
}

func (r *PostgresRepo) List(ctx context.Context) ([]Job, error) {
	query := `SELECT id, url, status, document_type, progress, error, document_id, created_at, updated_at
	          FROM jobs ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var docID sql.NullString
		if err := rows.Scan(&j.ID, &j.URL, &j.Status, &j.DocumentType, &j.Progress, &j.Error, &docID, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		if docID.Valid {
			j.DocumentID = docID.String
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *PostgresRepo) AppendStatus(ctx context.Context, id string, status Status, progress int, message string) error {
	return r.transition(ctx, id, status, message, func(tx *sql.Tx) (sql.Result, error) {
		// GREATEST keeps progress monotonic even if stages raced.
		return tx.ExecContext(ctx,
			`UPDATE jobs SET status = $2, progress = GREATEST(progress, $3), updated_at = now()
			 WHERE id = $1 AND status NOT IN ($4, $5)`,
			id, status, progress, StatusCompleted, StatusFailed)
	})
}

func (r *PostgresRepo) MarkFailed(ctx context.Context, id, message string) error {
	return r.transition(ctx, id, StatusFailed, message, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx,
			`UPDATE jobs SET status = $2, error = $3, updated_at = now()
			 WHERE id = $1 AND status NOT IN ($4, $5)`,
			id, StatusFailed, message, StatusCompleted, StatusFailed)
	})
}

func (r *PostgresRepo) transition(ctx context.Context, id string, status Status, message string, update func(*sql.Tx) (sql.Result, error)) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := update(tx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", id, ErrTerminal)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO job_status_history (job_id, status, message) VALUES ($1, $2, $3)`,
		id, status, message); err != nil {
		return err
	}
	return tx.Commit()
}

// CancelIfPending resolves the race between cancellation and the running
// pipeline with a single conditional update: if the job already left a
// cancellable state, the update matches nothing and cancellation loses.
func (r *PostgresRepo) CancelIfPending(ctx context.Context, id, message string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE jobs SET status = $2, error = $3, updated_at = now()
		 WHERE id = $1 AND status IN ($4, $5, $6)`,
		id, StatusFailed, message, StatusQueued, StatusFetching, StatusProcessing)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO job_status_history (job_id, status, message) VALUES ($1, $2, $3)`,
		id, StatusFailed, message); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (r *PostgresRepo) SetDocumentType(ctx context.Context, id string, dt DocumentType) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET document_type = $2, updated_at = now() WHERE id = $1`, id, dt)
	return err
}

func (r *PostgresRepo) SetDocument(ctx context.Context, id, documentID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET document_id = $2, updated_at = now() WHERE id = $1`, id, documentID)
	return err
}

func (r *PostgresRepo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var s Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		counts[s] = n
	}
	return counts, rows.Err()
}
