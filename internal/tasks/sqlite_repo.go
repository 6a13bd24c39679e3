package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SchemaVersion is recorded in PRAGMA user_version by ApplyMigrations.
const SchemaVersion = 1

type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(dsn string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection: SQLite serialises writers anyway and this keeps
	// concurrent callers from surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Close() error { return r.db.Close() }

// Store calls run to completion once started; the caller's ctx only
// carries values (trace spans) into the driver.
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// GetAllTasks returns every task, newest id first.
func (r *SQLiteRepo) GetAllTasks(ctx context.Context) ([]Task, error) {
	rows, err := r.db.QueryContext(detached(ctx), `
		SELECT id, title, is_completed
		FROM tasks
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	out := []Task{}
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.IsCompleted); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) GetTaskByID(ctx context.Context, id int64) (Task, error) {
	var t Task
	err := r.db.QueryRowContext(detached(ctx), `
		SELECT id, title, is_completed
		FROM tasks
		WHERE id = ?
	`, id).Scan(&t.ID, &t.Title, &t.IsCompleted)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

// InsertTask upserts t. A zero id is bound as NULL so AUTOINCREMENT picks
// the next id; a conflicting id replaces the stored row.
func (r *SQLiteRepo) InsertTask(ctx context.Context, t Task) (Task, error) {
	if t.ID < 0 {
		return Task{}, ErrInvalidID
	}
	id := sql.NullInt64{Int64: t.ID, Valid: t.ID != 0}
	res, err := r.db.ExecContext(detached(ctx), `
		INSERT OR REPLACE INTO tasks (id, title, is_completed)
		VALUES (?, ?, ?)
	`, id, t.Title, t.IsCompleted)
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	if t.ID == 0 {
		newID, err := res.LastInsertId()
		if err != nil {
			return Task{}, fmt.Errorf("insert task: %w", err)
		}
		t.ID = newID
	}
	return t, nil
}

func (r *SQLiteRepo) UpdateTask(ctx context.Context, t Task) error {
	_, err := r.db.ExecContext(detached(ctx), `
		UPDATE tasks
		SET title = ?, is_completed = ?
		WHERE id = ?
	`, t.Title, t.IsCompleted, t.ID)
	if err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	return nil
}

func (r *SQLiteRepo) DeleteTask(ctx context.Context, t Task) error {
	if _, err := r.db.ExecContext(detached(ctx), `DELETE FROM tasks WHERE id = ?`, t.ID); err != nil {
		return fmt.Errorf("delete task %d: %w", t.ID, err)
	}
	return nil
}

// ApplyMigrations ensures schema exists
func (r *SQLiteRepo) ApplyMigrations(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	is_completed INTEGER NOT NULL DEFAULT 0
);
	`)
	if err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// UserVersion reports the schema version stored in the database file.
func (r *SQLiteRepo) UserVersion(ctx context.Context) (int, error) {
	var v int
	if err := r.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// Helper to build DSN like: file:/absolute/path?_pragma=busy_timeout(5000)&...
func SQLiteFileDSN(path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file:" + filepath.ToSlash(abs) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", nil
}

// OpenSQLite opens the database file at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	dsn, err := SQLiteFileDSN(path)
	if err != nil {
		return nil, fmt.Errorf("sqlite dsn: %w", err)
	}
	repo, err := NewSQLiteRepo(dsn)
	if err != nil {
		return nil, err
	}
	if err := repo.ApplyMigrations(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}
