package tasks

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// LazyStore opens its backing Store on first use. The opener runs at most
// once; an open error is kept and returned by every later call.
type LazyStore struct {
	open func() (Store, error)

	once  sync.Once
	store Store
	err   error
}

// NewLazyStore defers calling open until the first store operation.
func NewLazyStore(open func() (Store, error)) *LazyStore {
	return &LazyStore{open: open}
}

// NewLazySQLite defers opening and migrating the database file at path.
func NewLazySQLite(path string, logger *slog.Logger) *LazyStore {
	return NewLazyStore(func() (Store, error) {
		repo, err := OpenSQLite(context.Background(), path)
		if err != nil {
			logger.Error("store_open_failed", slog.String("path", path), slog.String("error", err.Error()))
			return nil, err
		}
		logger.Info("store_open", slog.String("path", path))
		return repo, nil
	})
}

// Get returns the opened store, opening it if needed.
func (l *LazyStore) Get() (Store, error) {
	l.once.Do(func() {
		l.store, l.err = l.open()
	})
	return l.store, l.err
}

// Close closes the backing store if it was opened and is closable.
func (l *LazyStore) Close() error {
	// Closing before first use leaves the handle permanently unopened.
	l.once.Do(func() {
		l.err = ErrStoreClosed
	})
	if l.store == nil {
		return nil
	}
	if c, ok := l.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (l *LazyStore) GetAllTasks(ctx context.Context) ([]Task, error) {
	s, err := l.Get()
	if err != nil {
		return nil, err
	}
	return s.GetAllTasks(ctx)
}

func (l *LazyStore) GetTaskByID(ctx context.Context, id int64) (Task, error) {
	s, err := l.Get()
	if err != nil {
		return Task{}, err
	}
	return s.GetTaskByID(ctx, id)
}

func (l *LazyStore) InsertTask(ctx context.Context, t Task) (Task, error) {
	s, err := l.Get()
	if err != nil {
		return Task{}, err
	}
	return s.InsertTask(ctx, t)
}

func (l *LazyStore) UpdateTask(ctx context.Context, t Task) error {
	s, err := l.Get()
	if err != nil {
		return err
	}
	return s.UpdateTask(ctx, t)
}

func (l *LazyStore) DeleteTask(ctx context.Context, t Task) error {
	s, err := l.Get()
	if err != nil {
		return err
	}
	return s.DeleteTask(ctx, t)
}
