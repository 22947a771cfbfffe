// Package service contains application services for authentication, files
// and instance stats.
package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/avelkine/filevault/internal/crypto"
	"github.com/avelkine/filevault/internal/errs"
	"github.com/avelkine/filevault/internal/model"
	"github.com/avelkine/filevault/internal/repository"
	"github.com/avelkine/filevault/internal/session"
)

// AuthService defines registration and session operations.
type AuthService interface {
	// Register creates a new user with secure password hashing.
	Register(ctx context.Context, email, password string) (*model.User, error)
	// Login verifies credentials and issues an opaque session token.
	Login(ctx context.Context, email, password string) (token string, err error)
	// Resolve maps a session token to the bound user ID.
	Resolve(ctx context.Context, token string) (uuid.UUID, error)
	// Logout revokes a resolved session token.
	Logout(ctx context.Context, token string) error
	// UserByID loads an account by ID.
	UserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type AuthServiceImpl struct {
	users      repository.UserRepository
	sessions   session.Store
	sessionTTL time.Duration
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, sessions session.Store, sessionTTL time.Duration) *AuthServiceImpl {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthServiceImpl{users: users, sessions: sessions, sessionTTL: sessionTTL}
}

// Register creates a new user record with a per-user salt.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" {
		return nil, errs.Validation("Missing email")
	}
	if password == "" {
		return nil, errs.Validation("Missing password")
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	salt, err := pkgcrypto.RandBytes(pkgcrypto.SaltLen)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		ID:      uid,
		Email:   email,
		PwdHash: pkgcrypto.HashPassword([]byte(password), salt),
		Salt:    salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and binds a fresh 128-bit random token to the
// user in the session store for the configured TTL.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errs.ErrUnauthorized
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.Salt, u.PwdHash) {
		// hide whether the account exists
		return "", errs.ErrUnauthorized
	}
	tok, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	token := tok.String()
	if err := s.sessions.Set(ctx, session.KeyPrefix+token, u.ID.String(), s.sessionTTL); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve looks the token up in the session store. This lookup is the sole
// authentication mechanism after login; no password re-verification happens.
func (s *AuthServiceImpl) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, errs.ErrUnauthorized
	}
	v, err := s.sessions.Get(ctx, session.KeyPrefix+token)
	if err != nil {
		return uuid.Nil, errs.ErrUnauthorized
	}
	uid, err := uuid.FromString(v)
	if err != nil {
		return uuid.Nil, errs.ErrUnauthorized
	}
	return uid, nil
}

// Logout revokes the token. The token must still resolve; revoking an
// unknown or expired token is itself unauthorized.
func (s *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	if _, err := s.Resolve(ctx, token); err != nil {
		return err
	}
	return s.sessions.Del(ctx, session.KeyPrefix+token)
}

// UserByID loads an account by ID.
func (s *AuthServiceImpl) UserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}
