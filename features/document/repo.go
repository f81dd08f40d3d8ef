package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"docgarden/features/job"
)

// ListFilter narrows and paginates document listings.
type ListFilter struct {
	Type    job.DocumentType
	GroupID string
	Page    int
	Limit   int
}

type Repository interface {
	Save(ctx context.Context, d *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	GetByURL(ctx context.Context, url string) (*Document, error)
	List(ctx context.Context, f ListFilter) ([]Document, int, error)
	UpdateMeta(ctx context.Context, id string, title string, metadata map[string]interface{}) (*Document, error)
	SetGroups(ctx context.Context, id string, groupIDs []string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, d *Document) error {
	pages, err := json.Marshal(d.Pages)
	if err != nil {
		return fmt.Errorf("marshal pages: %w", err)
	}
	chunks, err := json.Marshal(d.Chunks)
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}
	meta := d.Metadata
	if meta == nil {
		meta = map[string]interface{}{}
	}
	metadata, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `INSERT INTO documents (id, url, title, document_type, text_content, html_content, pages, chunks, metadata)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		d.ID, d.URL, d.Title, d.DocumentType, d.Text, d.HTMLContent, pages, chunks, metadata).
		Scan(&d.CreatedAt, &d.UpdatedAt)
}

const docColumns = `d.id, d.url, d.title, d.document_type, d.text_content, d.html_content, d.pages, d.chunks, d.metadata, d.created_at, d.updated_at`

func (r *PostgresRepo) scan(row interface {
	Scan(dest ...interface{}) error
}) (*Document, error) {
	d := &Document{}
	var htmlContent sql.NullString
	var pages, chunks, metadata []byte
	if err := row.Scan(&d.ID, &d.URL, &d.Title, &d.DocumentType, &d.Text, &htmlContent, &pages, &chunks, &metadata, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if htmlContent.Valid {
		d.HTMLContent = htmlContent.String
	}
	if err := json.Unmarshal(pages, &d.Pages); err != nil {
		return nil, fmt.Errorf("unmarshal pages: %w", err)
	}
	if err := json.Unmarshal(chunks, &d.Chunks); err != nil {
		return nil, fmt.Errorf("unmarshal chunks: %w", err)
	}
	if err := json.Unmarshal(metadata, &d.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return d, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+docColumns+` FROM documents d WHERE d.id = $1`, id)
	d, err := r.scan(row)
	if err != nil {
		return nil, err
	}
	return r.withGroups(ctx, d)
}

func (r *PostgresRepo) GetByURL(ctx context.Context, url string) (*Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+docColumns+` FROM documents d WHERE d.url = $1`, url)
	d, err := r.scan(row)
	if err != nil {
		return nil, err
	}
	return r.withGroups(ctx, d)
}

func (r *PostgresRepo) withGroups(ctx context.Context, d *Document) (*Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT group_id FROM group_documents WHERE document_id = $1`, d.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var gid string
		if err := rows.Scan(&gid); err != nil {
			return nil, err
		}
		d.GroupIDs = append(d.GroupIDs, gid)
	}
	return d, rows.Err()
}

func (r *PostgresRepo) List(ctx context.Context, f ListFilter) ([]Document, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}

	where := ` WHERE 1=1`
	args := []interface{}{}
	if f.Type != "" {
		args = append(args, f.Type)
		where += fmt.Sprintf(" AND d.document_type = $%d", len(args))
	}
	if f.GroupID != "" {
		args = append(args, f.GroupID)
		where += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM group_documents gd WHERE gd.document_id = d.id AND gd.group_id = $%d)", len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents d`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := `SELECT ` + docColumns + ` FROM documents d` + where +
		fmt.Sprintf(` ORDER BY d.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, *d)
	}
	return docs, total, rows.Err()
}

func (r *PostgresRepo) UpdateMeta(ctx context.Context, id string, title string, metadata map[string]interface{}) (*Document, error) {
	if title != "" {
		if _, err := r.db.ExecContext(ctx,
			`UPDATE documents SET title = $2, updated_at = now() WHERE id = $1`, id, title); err != nil {
			return nil, err
		}
	}
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
		if _, err := r.db.ExecContext(ctx,
			`UPDATE documents SET metadata = $2, updated_at = now() WHERE id = $1`, id, raw); err != nil {
			return nil, err
		}
	}
	return r.Get(ctx, id)
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// SetGroups replaces a document's group memberships in one transaction.
func (r *PostgresRepo) SetGroups(ctx context.Context, id string, groupIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM group_documents WHERE document_id = $1`, id); err != nil {
		return err
	}
	if len(groupIDs) > 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_documents (group_id, document_id)
			 SELECT unnest($2::uuid[]), $1`, id, pq.Array(groupIDs)); err != nil {
			return err
		}
	}
	return tx.Commit()
}
