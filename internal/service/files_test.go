package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/gofrs/uuid/v5"

	"github.com/avelkine/filevault/internal/blob"
	"github.com/avelkine/filevault/internal/errs"
	"github.com/avelkine/filevault/internal/model"
	"github.com/avelkine/filevault/internal/repository"
)

// fakeFileRepo keeps nodes in insertion order, like the real table.
type fakeFileRepo struct {
	nodes     []model.FileNode
	createErr error
}

var _ repository.FileRepository = (*fakeFileRepo)(nil)

func (f *fakeFileRepo) Create(_ context.Context, n *model.FileNode) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nodes = append(f.nodes, *n)
	return nil
}

func (f *fakeFileRepo) GetByID(_ context.Context, id uuid.UUID) (*model.FileNode, error) {
	for i := range f.nodes {
		if f.nodes[i].ID == id {
			c := f.nodes[i]
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeFileRepo) GetOwned(_ context.Context, userID, id uuid.UUID) (*model.FileNode, error) {
	for i := range f.nodes {
		if f.nodes[i].ID == id && f.nodes[i].UserID == userID {
			c := f.nodes[i]
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeFileRepo) ListByParent(
	_ context.Context, userID uuid.UUID, parentID uuid.NullUUID, offset, limit int,
) ([]model.FileNode, error) {
	out := []model.FileNode{}
	for i := range f.nodes {
		n := f.nodes[i]
		if n.UserID != userID || n.ParentID != parentID {
			continue
		}
		out = append(out, n)
	}
	if offset >= len(out) {
		return []model.FileNode{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeFileRepo) SetPublic(_ context.Context, userID, id uuid.UUID, isPublic bool) (*model.FileNode, error) {
	for i := range f.nodes {
		if f.nodes[i].ID == id && f.nodes[i].UserID == userID {
			f.nodes[i].IsPublic = isPublic
			c := f.nodes[i]
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeFileRepo) Count(context.Context) (int64, error) {
	return int64(len(f.nodes)), nil
}

func newFileService(t *testing.T) (*FileServiceImpl, *fakeFileRepo, *blob.DiskStore) {
	t.Helper()
	repo := &fakeFileRepo{}
	blobs := blob.NewDiskStore(t.TempDir())
	return NewFileService(repo, blobs, nil), repo, blobs
}

func mustCreate(t *testing.T, s *FileServiceImpl, userID uuid.UUID, nf model.NewFile) *model.FileNode {
	t.Helper()
	f, err := s.Create(context.Background(), userID, nf)
	if err != nil {
		t.Fatalf("Create(%q): %v", nf.Name, err)
	}
	return f
}

func TestFiles_Create_Validation(t *testing.T) {
	t.Parallel()
	s, _, _ := newFileService(t)
	ctx := context.Background()
	user := uuid.Must(uuid.NewV4())

	cases := []struct {
		name string
		nf   model.NewFile
		msg  string
	}{
		{"no name", model.NewFile{Kind: model.KindFolder}, "Missing name"},
		{"no type", model.NewFile{Name: "a"}, "Missing type"},
		{"bad type", model.NewFile{Name: "a", Kind: "archive"}, "Missing type"},
		{"no data", model.NewFile{Name: "a.txt", Kind: model.KindFile}, "Missing data"},
		{"no data image", model.NewFile{Name: "a.png", Kind: model.KindImage}, "Missing data"},
	}
	for _, tc := range cases {
		_, err := s.Create(ctx, user, tc.nf)
		if !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("%s: want validation error, got %v", tc.name, err)
		}
		if err.Error() != tc.msg {
			t.Fatalf("%s: want message %q, got %q", tc.name, tc.msg, err.Error())
		}
	}

	// empty data is still data
	f := mustCreate(t, s, user, model.NewFile{Name: "empty.txt", Kind: model.KindFile, HasData: true})
	if f.LocalPath == "" {
		t.Fatalf("leaf node must carry a blob reference")
	}
}

func TestFiles_Create_ParentRules(t *testing.T) {
	t.Parallel()
	s, _, _ := newFileService(t)
	ctx := context.Background()
	user := uuid.Must(uuid.NewV4())

	folder := mustCreate(t, s, user, model.NewFile{Name: "docs", Kind: model.KindFolder})
	leaf := mustCreate(t, s, user, model.NewFile{
		Name: "a.txt", Kind: model.KindFile, HasData: true, Data: []byte("x"),
	})

	// unknown parent
	_, err := s.Create(ctx, user, model.NewFile{
		Name: "b", Kind: model.KindFolder, ParentID: uuid.Must(uuid.NewV4()).String(),
	})
	if err == nil || err.Error() != "Parent not found" {
		t.Fatalf("unknown parent: %v", err)
	}

	// unparseable parent id
	_, err = s.Create(ctx, user, model.NewFile{Name: "b", Kind: model.KindFolder, ParentID: "xyz"})
	if err == nil || err.Error() != "Parent not found" {
		t.Fatalf("bad parent syntax: %v", err)
	}

	// parent exists but is a leaf
	_, err = s.Create(ctx, user, model.NewFile{Name: "b", Kind: model.KindFolder, ParentID: leaf.ID.String()})
	if err == nil || err.Error() != "Parent is not a folder" {
		t.Fatalf("leaf parent: %v", err)
	}

	// "0" and "" both mean root
	root1 := mustCreate(t, s, user, model.NewFile{Name: "r1", Kind: model.KindFolder, ParentID: "0"})
	if root1.ParentID.Valid {
		t.Fatalf("parent \"0\" must mean root")
	}

	child := mustCreate(t, s, user, model.NewFile{Name: "c", Kind: model.KindFolder, ParentID: folder.ID.String()})
	if !child.ParentID.Valid || child.ParentID.UUID != folder.ID {
		t.Fatalf("child parent: %+v", child.ParentID)
	}

	// the baseline design performs no ownership check on the parent
	stranger := uuid.Must(uuid.NewV4())
	if _, err := s.Create(ctx, stranger, model.NewFile{
		Name: "guest", Kind: model.KindFolder, ParentID: folder.ID.String(),
	}); err != nil {
		t.Fatalf("create under foreign folder should pass: %v", err)
	}
}

func TestFiles_Create_WritesBlobBeforeMetadata(t *testing.T) {
	t.Parallel()
	s, repo, blobs := newFileService(t)
	ctx := context.Background()
	user := uuid.Must(uuid.NewV4())

	f := mustCreate(t, s, user, model.NewFile{
		Name: "a.txt", Kind: model.KindFile, HasData: true, Data: []byte("hello"),
	})
	b, err := blobs.Get(ctx, f.LocalPath)
	if err != nil || !bytes.Equal(b, []byte("hello")) {
		t.Fatalf("blob content: %q err=%v", b, err)
	}

	// folders never reference a blob
	d := mustCreate(t, s, user, model.NewFile{Name: "dir", Kind: model.KindFolder})
	if d.LocalPath != "" {
		t.Fatalf("folder carries blob reference %q", d.LocalPath)
	}

	// metadata failure after the blob write surfaces the error; the blob is
	// orphaned, not cleaned up
	repo.createErr = errors.New("db down")
	if _, err := s.Create(ctx, user, model.NewFile{
		Name: "b.txt", Kind: model.KindFile, HasData: true, Data: []byte("x"),
	}); err == nil {
		t.Fatalf("want metadata error")
	}
}

func TestFiles_GetByID_OwnerOnly(t *testing.T) {
	t.Parallel()
	s, _, _ := newFileService(t)
	ctx := context.Background()
	owner := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())

	f := mustCreate(t, s, owner, model.NewFile{
		Name: "pub.txt", Kind: model.KindFile, HasData: true, Data: []byte("x"), IsPublic: true,
	})

	got, err := s.GetByID(ctx, owner, f.ID.String())
	if err != nil || got.ID != f.ID {
		t.Fatalf("owner read: %v", err)
	}

	// public visibility does not open the metadata path to non-owners
	if _, err := s.GetByID(ctx, other, f.ID.String()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("non-owner must get NotFound even for public, got %v", err)
	}

	if _, err := s.GetByID(ctx, owner, "not-a-uuid"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("invalid id syntax must be NotFound, got %v", err)
	}
}

func TestFiles_List_OwnershipParentAndPaging(t *testing.T) {
	t.Parallel()
	s, _, _ := newFileService(t)
	ctx := context.Background()
	alice := uuid.Must(uuid.NewV4())
	bob := uuid.Must(uuid.NewV4())

	docs := mustCreate(t, s, alice, model.NewFile{Name: "docs", Kind: model.KindFolder})
	for i := 0; i < 25; i++ {
		mustCreate(t, s, alice, model.NewFile{
			Name: "f", Kind: model.KindFile, HasData: true, ParentID: docs.ID.String(),
		})
	}
	mustCreate(t, s, bob, model.NewFile{Name: "intruder", Kind: model.KindFolder, ParentID: docs.ID.String()})

	page0, err := s.List(ctx, alice, docs.ID.String(), 0)
	if err != nil {
		t.Fatalf("List page 0: %v", err)
	}
	if len(page0) != DefaultPageSize {
		t.Fatalf("page 0 size: %d", len(page0))
	}
	for _, n := range page0 {
		if n.UserID != alice {
			t.Fatalf("leaked a node not owned by the caller")
		}
		if !n.ParentID.Valid || n.ParentID.UUID != docs.ID {
			t.Fatalf("leaked a node from another parent")
		}
	}

	page1, err := s.List(ctx, alice, docs.ID.String(), 1)
	if err != nil || len(page1) != 5 {
		t.Fatalf("page 1: len=%d err=%v", len(page1), err)
	}
	page2, err := s.List(ctx, alice, docs.ID.String(), 2)
	if err != nil || len(page2) != 0 {
		t.Fatalf("page past the end must be empty, got %d", len(page2))
	}

	// root listing sees only top-level nodes
	top, err := s.List(ctx, alice, "", 0)
	if err != nil || len(top) != 1 || top[0].Name != "docs" {
		t.Fatalf("root listing: %+v err=%v", top, err)
	}

	// negative page clamps to 0
	if got, err := s.List(ctx, alice, "0", -3); err != nil || len(got) != 1 {
		t.Fatalf("negative page: len=%d err=%v", len(got), err)
	}

	// unparseable parent matches nothing
	if got, err := s.List(ctx, alice, "???", 0); err != nil || len(got) != 0 {
		t.Fatalf("bad parent id: len=%d err=%v", len(got), err)
	}
}

func TestFiles_SetVisibility(t *testing.T) {
	t.Parallel()
	s, _, _ := newFileService(t)
	ctx := context.Background()
	owner := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())

	f := mustCreate(t, s, owner, model.NewFile{
		Name: "a.txt", Kind: model.KindFile, HasData: true, Data: []byte("x"),
	})
	if f.IsPublic {
		t.Fatalf("nodes are private by default")
	}

	pub, err := s.SetVisibility(ctx, owner, f.ID.String(), true)
	if err != nil || !pub.IsPublic {
		t.Fatalf("publish: %+v err=%v", pub, err)
	}
	priv, err := s.SetVisibility(ctx, owner, f.ID.String(), false)
	if err != nil || priv.IsPublic {
		t.Fatalf("unpublish: %+v err=%v", priv, err)
	}

	if _, err := s.SetVisibility(ctx, other, f.ID.String(), true); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("non-owner publish must be NotFound, got %v", err)
	}
	if _, err := s.SetVisibility(ctx, owner, "zzz", true); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("invalid id must be NotFound, got %v", err)
	}
}

func TestFiles_Content_VisibilityRules(t *testing.T) {
	t.Parallel()
	s, _, _ := newFileService(t)
	ctx := context.Background()
	owner := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())

	private := mustCreate(t, s, owner, model.NewFile{
		Name: "secret.txt", Kind: model.KindFile, HasData: true, Data: []byte("s3cret"),
	})
	folder := mustCreate(t, s, owner, model.NewFile{Name: "dir", Kind: model.KindFolder})

	// owner reads private content
	b, f, err := s.Content(ctx, owner, true, private.ID.String())
	if err != nil || !bytes.Equal(b, []byte("s3cret")) || f.Name != "secret.txt" {
		t.Fatalf("owner content: %q err=%v", b, err)
	}

	// everyone else gets NotFound, authenticated or not
	if _, _, err := s.Content(ctx, other, true, private.ID.String()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("authed non-owner: %v", err)
	}
	if _, _, err := s.Content(ctx, uuid.Nil, false, private.ID.String()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("anonymous: %v", err)
	}

	// publishing opens the content path to everyone
	if _, err := s.SetVisibility(ctx, owner, private.ID.String(), true); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if b, _, err := s.Content(ctx, uuid.Nil, false, private.ID.String()); err != nil || !bytes.Equal(b, []byte("s3cret")) {
		t.Fatalf("anonymous read of public: %q err=%v", b, err)
	}

	// folders have no content
	_, _, err = s.Content(ctx, owner, true, folder.ID.String())
	if !errors.Is(err, errs.ErrValidation) || err.Error() != "A folder doesn't have content" {
		t.Fatalf("folder content: %v", err)
	}

	// unknown and malformed ids
	if _, _, err := s.Content(ctx, owner, true, uuid.Must(uuid.NewV4()).String()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown id: %v", err)
	}
	if _, _, err := s.Content(ctx, owner, true, "???"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("malformed id: %v", err)
	}
}

func TestFiles_Content_MissingBlob(t *testing.T) {
	t.Parallel()
	s, _, _ := newFileService(t)
	ctx := context.Background()
	owner := uuid.Must(uuid.NewV4())

	f := mustCreate(t, s, owner, model.NewFile{
		Name: "gone.txt", Kind: model.KindFile, HasData: true, Data: []byte("x"), IsPublic: true,
	})
	if err := os.Remove(f.LocalPath); err != nil {
		t.Fatalf("remove blob: %v", err)
	}

	if _, _, err := s.Content(ctx, owner, true, f.ID.String()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("missing blob must be NotFound, got %v", err)
	}
}

func TestStatsService_Counts(t *testing.T) {
	t.Parallel()

	users := &fakeUsers{byEmail: map[string]*model.User{}}
	files := &fakeFileRepo{}
	st := NewStatsService(users, files)

	got, err := st.Counts(context.Background())
	if err != nil || got.Users != 0 || got.Files != 0 {
		t.Fatalf("empty counts: %+v err=%v", got, err)
	}

	_ = users.Create(context.Background(), &model.User{ID: uuid.Must(uuid.NewV4()), Email: "a@b.com"})
	files.nodes = append(files.nodes, model.FileNode{ID: uuid.Must(uuid.NewV4())})

	got, err = st.Counts(context.Background())
	if err != nil || got.Users != 1 || got.Files != 1 {
		t.Fatalf("counts: %+v err=%v", got, err)
	}
}
