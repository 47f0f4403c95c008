package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/ldi/todo/pkg/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SaveTasks replaces every stored task with tasks, keeping their order.
func (db *DB) SaveTasks(ctx context.Context, tasks []*models.Task) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("failed to clear tasks: %w", err)
	}

	for i, t := range tasks {
		if err := insertTask(ctx, tx, i, t); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('count', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, fmt.Sprint(len(tasks))); err != nil {
		return fmt.Errorf("failed to record task count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tasks: %w", err)
	}
	return nil
}

func insertTask(ctx context.Context, exec executor, position int, t *models.Task) error {
	var due any
	if t.DueDate != nil {
		due = t.DueDate.String()
	}
	completed := 0
	if t.Completed {
		completed = 1
	}

	_, err := exec.ExecContext(ctx, `
		INSERT INTO tasks (id, position, title, description, due_date, priority, completed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, position, t.Title, t.Description, due, t.Priority.String(), completed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task %s: %w", t.ID, err)
	}
	return nil
}

// LoadTasks returns all stored tasks in saved order. Rows that break the
// task invariants produce an InvalidDataError.
func (db *DB) LoadTasks(ctx context.Context) ([]*models.Task, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, description, due_date, priority, completed
		FROM tasks
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		t := &models.Task{}
		var (
			due       sql.NullString
			priority  string
			completed int
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &due, &priority, &completed); err != nil {
			return nil, &models.InvalidDataError{Reason: fmt.Sprintf("failed to scan task: %v", err)}
		}

		if err := t.Priority.UnmarshalText([]byte(priority)); err != nil {
			return nil, &models.InvalidDataError{Reason: fmt.Sprintf("task %s: %v", t.ID, err)}
		}
		if due.Valid && due.String != "" {
			d, err := models.ParseDate(due.String)
			if err != nil {
				return nil, &models.InvalidDataError{Reason: fmt.Sprintf("task %s: invalid due date %q", t.ID, due.String)}
			}
			t.DueDate = &d
		}
		t.Completed = completed != 0

		if err := t.Validate(); err != nil {
			return nil, &models.InvalidDataError{Reason: fmt.Sprintf("task %s: %v", t.ID, err)}
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return tasks, nil
}

// Save writes tasks to a SQLite file at path, creating it if needed.
func Save(ctx context.Context, path string, tasks []*models.Task) error {
	database, err := Open(path)
	if err != nil {
		return &models.IOError{Op: "save", Path: path, Err: err}
	}
	defer database.Close()

	if err := database.Init(ctx); err != nil {
		return &models.IOError{Op: "save", Path: path, Err: err}
	}
	if err := database.SaveTasks(ctx, tasks); err != nil {
		return &models.IOError{Op: "save", Path: path, Err: err}
	}
	if err := database.Close(); err != nil {
		return &models.IOError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// Load reads tasks from the SQLite file at path without modifying it. A
// file that is not a SQLite database or lacks the tasks table is reported
// as invalid data; a failure to read it is an IOError.
func Load(ctx context.Context, path string) ([]*models.Task, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &models.IOError{Op: "load", Path: path, Err: err}
	}

	database, err := OpenReadOnly(path)
	if err != nil {
		return nil, &models.IOError{Op: "load", Path: path, Err: err}
	}
	defer database.Close()

	ok, err := database.HasSchema(ctx)
	if err != nil {
		return nil, loadError(path, err)
	}
	if !ok {
		return nil, &models.InvalidDataError{Path: path, Reason: "no tasks table"}
	}

	tasks, err := database.LoadTasks(ctx)
	if err != nil {
		return nil, loadError(path, err)
	}
	return tasks, nil
}

// loadError sorts a read failure into bad content or a failing file.
func loadError(path string, err error) error {
	var ide *models.InvalidDataError
	if errors.As(err, &ide) {
		ide.Path = path
		return ide
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_ERROR, sqlite3.SQLITE_MISMATCH:
			return &models.InvalidDataError{Path: path, Reason: err.Error()}
		}
		return &models.IOError{Op: "load", Path: path, Err: err}
	}

	// Scan conversion failures: a column holds a value of the wrong kind.
	return &models.InvalidDataError{Path: path, Reason: err.Error()}
}
