package repository

import (
	"context"

	"github.com/avelkine/filevault/internal/model"
	"github.com/gofrs/uuid/v5"
)

// FileRepository provides access to the per-user file tree metadata.
type FileRepository interface {
	// Create inserts a new file node.
	Create(ctx context.Context, f *model.FileNode) error

	// GetByID returns a node by id regardless of owner. Used for parent
	// checks and the public-aware content path.
	GetByID(ctx context.Context, id uuid.UUID) (*model.FileNode, error)

	// GetOwned returns a node only when it belongs to userID.
	GetOwned(ctx context.Context, userID, id uuid.UUID) (*model.FileNode, error)

	// ListByParent returns nodes owned by userID under parentID (invalid
	// parentID means top level), in insertion order, windowed by offset/limit.
	ListByParent(ctx context.Context, userID uuid.UUID, parentID uuid.NullUUID, offset, limit int) ([]model.FileNode, error)

	// SetPublic updates the visibility flag of an owned node and returns the
	// updated row. Returns errs.ErrNotFound when no such owned node exists.
	SetPublic(ctx context.Context, userID, id uuid.UUID, isPublic bool) (*model.FileNode, error)

	// Count returns the number of file nodes across all users.
	Count(ctx context.Context) (int64, error)
}
