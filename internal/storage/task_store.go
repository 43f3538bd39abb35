package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Ayala-Braverman/practicod3-1/internal/model"
)

// Every query below filters on user_id; a row owned by someone else is
// indistinguishable from a missing one.

// TaskList returns all tasks owned by userID ordered by id.
func (s *Store) TaskList(ctx context.Context, userID int64) ([]model.Task, error) {
	tasks := []model.Task{}
	err := s.db.SelectContext(ctx, &tasks,
		s.db.Rebind("SELECT id, name, is_complete, user_id FROM items WHERE user_id = ? ORDER BY id"), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// TaskGet returns one task owned by userID.
func (s *Store) TaskGet(ctx context.Context, userID, id int64) (*model.Task, error) {
	task := &model.Task{}
	err := s.db.GetContext(ctx, task,
		s.db.Rebind("SELECT id, name, is_complete, user_id FROM items WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// TaskAdd inserts an incomplete task for userID.
func (s *Store) TaskAdd(ctx context.Context, userID int64, name string) (*model.Task, error) {
	id, err := s.insert(ctx, "INSERT INTO items (name, is_complete, user_id) VALUES (?, ?, ?)", name, false, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to add task: %w", err)
	}
	return &model.Task{ID: id, Name: name, IsComplete: false, UserID: userID}, nil
}

// TaskUpdate sets isComplete and, when name is non-nil, the name of a task
// owned by userID. The ownership check and the write share one transaction.
func (s *Store) TaskUpdate(ctx context.Context, userID, id int64, name *string, isComplete bool) error {
	return s.withOwnedTask(ctx, userID, id, func(tx *sqlx.Tx) error {
		var err error
		if name != nil {
			_, err = tx.ExecContext(ctx,
				tx.Rebind("UPDATE items SET name = ?, is_complete = ? WHERE id = ? AND user_id = ?"),
				*name, isComplete, id, userID)
		} else {
			_, err = tx.ExecContext(ctx,
				tx.Rebind("UPDATE items SET is_complete = ? WHERE id = ? AND user_id = ?"),
				isComplete, id, userID)
		}
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return nil
	})
}

// TaskDelete removes a task owned by userID.
func (s *Store) TaskDelete(ctx context.Context, userID, id int64) error {
	return s.withOwnedTask(ctx, userID, id, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM items WHERE id = ? AND user_id = ?"), id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return nil
	})
}

// withOwnedTask runs fn in a transaction after confirming the task exists
// and belongs to userID. MySQL reports zero affected rows for no-op updates,
// so RowsAffected cannot stand in for the ownership check.
func (s *Store) withOwnedTask(ctx context.Context, userID, id int64, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerID int64
	err = tx.GetContext(ctx, &ownerID, tx.Rebind("SELECT user_id FROM items WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch task owner: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
