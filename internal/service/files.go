package service

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/avelkine/filevault/internal/blob"
	"github.com/avelkine/filevault/internal/errs"
	"github.com/avelkine/filevault/internal/model"
	"github.com/avelkine/filevault/internal/repository"
)

// DefaultPageSize is the fixed listing window.
const DefaultPageSize = 20

// RootParent is the wire sentinel for the tree root.
const RootParent = "0"

// FileService defines operations over the per-user file tree.
type FileService interface {
	// Create validates and persists a new node, writing blob content first
	// for non-folder kinds.
	Create(ctx context.Context, userID uuid.UUID, nf model.NewFile) (*model.FileNode, error)
	// GetByID returns an owned node. Ownership is required even for public
	// nodes; a non-owner gets errs.ErrNotFound.
	GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.FileNode, error)
	// List returns owned nodes under parentID, windowed by page.
	List(ctx context.Context, userID uuid.UUID, parentID string, page int) ([]model.FileNode, error)
	// SetVisibility updates the visibility flag of an owned node.
	SetVisibility(ctx context.Context, userID uuid.UUID, id string, isPublic bool) (*model.FileNode, error)
	// Content returns the blob bytes of a node. Public nodes are readable by
	// anyone; private nodes only by their owner, with denial reported as
	// errs.ErrNotFound so private ids do not leak.
	Content(ctx context.Context, userID uuid.UUID, authed bool, id string) ([]byte, *model.FileNode, error)
}

type FileServiceImpl struct {
	repo  repository.FileRepository
	blobs blob.Store
	log   *zap.Logger
}

// NewFileService constructs FileService with required dependencies.
func NewFileService(repo repository.FileRepository, blobs blob.Store, log *zap.Logger) *FileServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileServiceImpl{repo: repo, blobs: blobs, log: log}
}

// Create validates the request field-by-field, checks the parent, then writes
// the blob (if any) before persisting metadata.
func (s *FileServiceImpl) Create(ctx context.Context, userID uuid.UUID, nf model.NewFile) (*model.FileNode, error) {
	if nf.Name == "" {
		return nil, errs.Validation("Missing name")
	}
	if !nf.Kind.Valid() {
		return nil, errs.Validation("Missing type")
	}
	if nf.Kind != model.KindFolder && !nf.HasData {
		return nil, errs.Validation("Missing data")
	}

	var parentID uuid.NullUUID
	if nf.ParentID != "" && nf.ParentID != RootParent {
		pid, err := uuid.FromString(nf.ParentID)
		if err != nil {
			// an unparseable id cannot name an existing node
			return nil, errs.Validation("Parent not found")
		}
		parent, err := s.repo.GetByID(ctx, pid)
		if err != nil {
			return nil, errs.Validation("Parent not found")
		}
		// No ownership check on the parent: creating under another user's
		// folder is allowed in the baseline design.
		if parent.Kind != model.KindFolder {
			return nil, errs.Validation("Parent is not a folder")
		}
		parentID = uuid.NullUUID{UUID: pid, Valid: true}
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	f := &model.FileNode{
		ID:       id,
		UserID:   userID,
		Name:     nf.Name,
		Kind:     nf.Kind,
		IsPublic: nf.IsPublic,
		ParentID: parentID,
	}
	if nf.Kind != model.KindFolder {
		ref, err := s.blobs.Put(ctx, nf.Data)
		if err != nil {
			return nil, err
		}
		f.LocalPath = ref
	}
	if err := s.repo.Create(ctx, f); err != nil {
		if f.LocalPath != "" {
			// accepted failure mode: the blob stays orphaned, report only
			s.log.Warn("orphaned blob after metadata write failure",
				zap.String("ref", f.LocalPath), zap.Error(err))
		}
		return nil, err
	}
	return f, nil
}

// GetByID returns an owned node by id string.
func (s *FileServiceImpl) GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.FileNode, error) {
	fid, err := uuid.FromString(id)
	if err != nil {
		return nil, errs.ErrNotFound
	}
	return s.repo.GetOwned(ctx, userID, fid)
}

// List returns owned nodes whose parent equals parentID, insertion-ordered,
// with skip = page*DefaultPageSize. No cursor state is kept between calls.
func (s *FileServiceImpl) List(ctx context.Context, userID uuid.UUID, parentID string, page int) ([]model.FileNode, error) {
	if page < 0 {
		page = 0
	}
	var pid uuid.NullUUID
	if parentID != "" && parentID != RootParent {
		p, err := uuid.FromString(parentID)
		if err != nil {
			// nothing can live under an unparseable parent
			return []model.FileNode{}, nil
		}
		pid = uuid.NullUUID{UUID: p, Valid: true}
	}
	return s.repo.ListByParent(ctx, userID, pid, page*DefaultPageSize, DefaultPageSize)
}

// SetVisibility updates the visibility flag of an owned node.
func (s *FileServiceImpl) SetVisibility(ctx context.Context, userID uuid.UUID, id string, isPublic bool) (*model.FileNode, error) {
	fid, err := uuid.FromString(id)
	if err != nil {
		return nil, errs.ErrNotFound
	}
	return s.repo.SetPublic(ctx, userID, fid, isPublic)
}

// Content reads the blob of a node, enforcing the public/private access rule.
func (s *FileServiceImpl) Content(ctx context.Context, userID uuid.UUID, authed bool, id string) ([]byte, *model.FileNode, error) {
	fid, err := uuid.FromString(id)
	if err != nil {
		return nil, nil, errs.ErrNotFound
	}
	f, err := s.repo.GetByID(ctx, fid)
	if err != nil {
		return nil, nil, err
	}
	if f.Kind == model.KindFolder {
		return nil, nil, errs.Validation("A folder doesn't have content")
	}
	if !f.IsPublic && (!authed || userID != f.UserID) {
		// deliberately NotFound, never Unauthorized
		return nil, nil, errs.ErrNotFound
	}
	b, err := s.blobs.Get(ctx, f.LocalPath)
	if err != nil {
		return nil, nil, err
	}
	return b, f, nil
}
