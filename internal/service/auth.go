package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Ayala-Braverman/practicod3-1/internal/auth"
	"github.com/Ayala-Braverman/practicod3-1/internal/model"
	"github.com/Ayala-Braverman/practicod3-1/internal/storage"
)

// CredentialStore is the persistence the auth service needs.
type CredentialStore interface {
	UserExists(ctx context.Context, userName string) (bool, error)
	UserAdd(ctx context.Context, userName, passwordHash string) (*model.User, error)
	UserGet(ctx context.Context, userName string) (*model.User, error)
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	Token string
	User  model.UserProfile
}

// AuthService registers and authenticates users and issues session tokens.
type AuthService struct {
	users     CredentialStore
	tokens    *auth.TokenIssuer
	hasher    *auth.PasswordHasher
	dummyHash string
	logger    *slog.Logger
}

// NewAuthService creates an AuthService
func NewAuthService(users CredentialStore, tokens *auth.TokenIssuer, hasher *auth.PasswordHasher, logger *slog.Logger) (*AuthService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	// compared against when the user does not exist, so both failure paths
	// cost one bcrypt comparison
	dummy, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		dummyHash: dummy,
		logger:    logger,
	}, nil
}

// Register creates a user and returns a session for it. Surrounding
// whitespace is not part of the user name.
func (s *AuthService) Register(ctx context.Context, userName, password string) (*AuthResult, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: userName and password are required", ErrInvalidInput)
	}

	exists, err := s.users.UserExists(ctx, userName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateUser
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}

	// the unique constraint settles races the pre-check lets through
	user, err := s.users.UserAdd(ctx, userName, hash)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}

	s.logger.Info("User registered", "user_id", user.ID)
	return s.session(user)
}

// Authenticate checks credentials and returns a new session.
func (s *AuthService) Authenticate(ctx context.Context, userName, password string) (*AuthResult, error) {
	user, err := s.users.UserGet(ctx, strings.TrimSpace(userName))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		_ = s.hasher.Compare(s.dummyHash, password)
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return s.session(user)
}

// IssueToken signs a session token for the given identity.
func (s *AuthService) IssueToken(userID int64, userName string) (string, error) {
	return s.tokens.Issue(userID, userName)
}

// VerifyToken returns the user id bound to a valid token.
func (s *AuthService) VerifyToken(token string) (int64, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return claims.UserID, nil
}

func (s *AuthService) session(user *model.User) (*AuthResult, error) {
	token, err := s.IssueToken(user.ID, user.UserName)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user.Profile()}, nil
}
