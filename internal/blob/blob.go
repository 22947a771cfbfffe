// Package blob stores binary payloads on local disk, decoupled from metadata.
package blob

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gofrs/uuid/v5"

	"github.com/avelkine/filevault/internal/errs"
)

// Store persists opaque byte payloads under generated references.
type Store interface {
	// Put writes content verbatim under a fresh reference and returns it.
	Put(ctx context.Context, content []byte) (string, error)
	// Get returns the content at ref, or errs.ErrNotFound when nothing is
	// stored there (e.g. removed out-of-band).
	Get(ctx context.Context, ref string) ([]byte, error)
}

// DiskStore implements Store as one file per blob beneath a root directory.
// No compression, deduplication or checksumming is performed.
type DiskStore struct{ root string }

// NewDiskStore constructs a store rooted at dir. The directory is created
// on first Put.
func NewDiskStore(dir string) *DiskStore { return &DiskStore{root: dir} }

// Put writes content under a random UUID name and returns the full path.
func (s *DiskStore) Put(_ context.Context, content []byte) (string, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", err
	}
	name, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	ref := filepath.Join(s.root, name.String())
	if err := os.WriteFile(ref, content, 0o644); err != nil {
		return "", err
	}
	return ref, nil
}

// Get reads the content stored at ref.
func (s *DiskStore) Get(_ context.Context, ref string) ([]byte, error) {
	b, err := os.ReadFile(ref)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}
