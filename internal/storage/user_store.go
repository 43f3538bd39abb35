package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Ayala-Braverman/practicod3-1/internal/model"
)

// UserExists checks if a user with the given name exists.
func (s *Store) UserExists(ctx context.Context, userName string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, s.db.Rebind("SELECT COUNT(*) FROM users WHERE user_name = ?"), userName)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

// UserAdd inserts a new user with an already hashed password. A taken name
// yields ErrDuplicate.
func (s *Store) UserAdd(ctx context.Context, userName, passwordHash string) (*model.User, error) {
	id, err := s.insert(ctx, "INSERT INTO users (user_name, password_hash) VALUES (?, ?)", userName, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %q: %w", userName, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to add user: %w", err)
	}
	return &model.User{ID: id, UserName: userName, PasswordHash: passwordHash}, nil
}

// UserGet retrieves a user by name.
func (s *Store) UserGet(ctx context.Context, userName string) (*model.User, error) {
	user := &model.User{}
	err := s.db.GetContext(ctx, user,
		s.db.Rebind("SELECT id, user_name, password_hash FROM users WHERE user_name = ?"), userName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
