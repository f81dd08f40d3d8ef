package group

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

type Repository interface {
	Create(ctx context.Context, g *Group) error
	Get(ctx context.Context, id string) (*Group, error)
	List(ctx context.Context) ([]Group, error)
	Update(ctx context.Context, g *Group) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	AddDocuments(ctx context.Context, id string, documentIDs []string) error
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, g *Group) error {
	var parent interface{}
	if g.ParentID != "" {
		parent = g.ParentID
	}
	query := `INSERT INTO groups (id, name, description, parent_id)
	          VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, g.ID, g.Name, g.Description, parent).
		Scan(&g.CreatedAt, &g.UpdatedAt)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Group, error) {
	g := &Group{}
	var parent sql.NullString
	query := `SELECT id, name, description, parent_id, created_at, updated_at FROM groups WHERE id = $1`
	if err := r.db.QueryRowContext(ctx, query, id).
		Scan(&g.ID, &g.Name, &g.Description, &parent, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	if parent.Valid {
		g.ParentID = parent.String
	}
	return r.loadRelations(ctx, g)
}

func (r *PostgresRepo) loadRelations(ctx context.Context, g *Group) (*Group, error) {
	children, err := r.db.QueryContext(ctx,
		`SELECT id FROM groups WHERE parent_id = $1 ORDER BY name ASC`, g.ID)
	if err != nil {
		return nil, err
	}
	defer children.Close()
	for children.Next() {
		var id string
		if err := children.Scan(&id); err != nil {
			return nil, err
		}
		g.ChildIDs = append(g.ChildIDs, id)
	}
	if err := children.Err(); err != nil {
		return nil, err
	}

	docs, err := r.db.QueryContext(ctx,
		`SELECT document_id FROM group_documents WHERE group_id = $1`, g.ID)
	if err != nil {
		return nil, err
	}
	defer docs.Close()
	for docs.Next() {
		var id string
		if err := docs.Scan(&id); err != nil {
			return nil, err
		}
		g.DocumentIDs = append(g.DocumentIDs, id)
	}
	return g, docs.Err()
}

func (r *PostgresRepo) List(ctx context.Context) ([]Group, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, parent_id, created_at, updated_at FROM groups ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		var parent sql.NullString
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &parent, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		if parent.Valid {
			g.ParentID = parent.String
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *PostgresRepo) Update(ctx context.Context, g *Group) error {
	var parent interface{}
	if g.ParentID != "" {
		parent = g.ParentID
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE groups SET name = $2, description = $3, parent_id = $4, updated_at = now() WHERE id = $1`,
		g.ID, g.Name, g.Description, parent)
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

// Delete removes the group; children are detached and document memberships
// dropped by the schema's ON DELETE clauses.
func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
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

func (r *PostgresRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM groups WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *PostgresRepo) AddDocuments(ctx context.Context, id string, documentIDs []string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_documents (group_id, document_id)
		 SELECT $1, unnest($2::uuid[])
		 ON CONFLICT DO NOTHING`, id, pq.Array(documentIDs))
	return err
}
