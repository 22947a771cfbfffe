package postgres

import (
	"context"
	"errors"

	"github.com/avelkine/filevault/internal/errs"
	"github.com/avelkine/filevault/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// FileRepo implements FileRepository using PostgreSQL.
type FileRepo struct{ db *DB }

// NewFileRepo constructs a file repository.
func NewFileRepo(db *DB) *FileRepo { return &FileRepo{db: db} }

const fileCols = `id, user_id, name, type, is_public, parent_id, local_path, created_at`

// Create inserts a new file node row.
func (r *FileRepo) Create(ctx context.Context, f *model.FileNode) error {
	const q = `
INSERT INTO files (id, user_id, name, type, is_public, parent_id, local_path)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Pool.Exec(ctx, q, f.ID, f.UserID, f.Name, string(f.Kind), f.IsPublic, f.ParentID, f.LocalPath)
	return err
}

// GetByID selects a node by id regardless of owner.
func (r *FileRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.FileNode, error) {
	const q = `
SELECT ` + fileCols + `
FROM files WHERE id=$1`
	return scanFile(r.db.Pool.QueryRow(ctx, q, id))
}

// GetOwned selects a node by id and owner.
func (r *FileRepo) GetOwned(ctx context.Context, userID, id uuid.UUID) (*model.FileNode, error) {
	const q = `
SELECT ` + fileCols + `
FROM files WHERE id=$1 AND user_id=$2`
	return scanFile(r.db.Pool.QueryRow(ctx, q, id, userID))
}

// ListByParent returns nodes owned by userID under parentID in insertion order.
// An invalid parentID matches top-level nodes (parent_id IS NULL).
func (r *FileRepo) ListByParent(
	ctx context.Context, userID uuid.UUID, parentID uuid.NullUUID, offset, limit int,
) ([]model.FileNode, error) {
	const q = `
SELECT ` + fileCols + `
FROM files
WHERE user_id=$1 AND parent_id IS NOT DISTINCT FROM $2
ORDER BY created_at, id
OFFSET $3 LIMIT $4`
	rows, err := r.db.Pool.Query(ctx, q, userID, parentID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.FileNode{}
	for rows.Next() {
		var f model.FileNode
		if err := scanFileInto(rows, &f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SetPublic flips the visibility flag of an owned node and returns the updated row.
func (r *FileRepo) SetPublic(ctx context.Context, userID, id uuid.UUID, isPublic bool) (*model.FileNode, error) {
	const q = `
UPDATE files SET is_public=$3
WHERE id=$1 AND user_id=$2
RETURNING ` + fileCols
	return scanFile(r.db.Pool.QueryRow(ctx, q, id, userID, isPublic))
}

// Count returns the number of file nodes across all users.
func (r *FileRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanFileInto(row rowScanner, f *model.FileNode) error {
	var kind string
	if err := row.Scan(&f.ID, &f.UserID, &f.Name, &kind, &f.IsPublic, &f.ParentID, &f.LocalPath, &f.CreatedAt); err != nil {
		return err
	}
	f.Kind = model.Kind(kind)
	return nil
}

func scanFile(row pgx.Row) (*model.FileNode, error) {
	var f model.FileNode
	if err := scanFileInto(row, &f); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &f, nil
}
