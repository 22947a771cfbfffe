// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Kind classifies a FileNode as a folder or a content-bearing leaf.
type Kind string

const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
	KindImage  Kind = "image"
)

// Valid reports whether k is one of the three allowed kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindFolder, KindFile, KindImage:
		return true
	}
	return false
}

// User represents an account. The password digest is Argon2id over a
// per-user salt; plaintext is never stored.
type User struct {
	ID        uuid.UUID // PK
	Email     string    // unique
	PwdHash   []byte    // Argon2id(password, Salt)
	Salt      []byte    // per-user auth salt
	CreatedAt time.Time
}

// FileNode is a metadata record in the per-user file tree. ParentID is
// invalid (NULL) for top-level nodes, the root sentinel. LocalPath references
// blob content for non-folder kinds and is never exposed over the wire.
type FileNode struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Kind      Kind
	IsPublic  bool
	ParentID  uuid.NullUUID
	LocalPath string // empty for folders
	CreatedAt time.Time
}

// NewFile carries a create request after transport decoding but before
// validation. ParentID keeps its opaque wire form ("" or "0" meaning root);
// Data is already decoded from base64, with HasData recording whether the
// field was present at all.
type NewFile struct {
	Name     string
	Kind     Kind
	ParentID string
	IsPublic bool
	Data     []byte
	HasData  bool
}
