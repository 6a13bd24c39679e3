package tasks

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrNotFound  = errors.New("task not found")
	ErrInvalidID = errors.New("invalid task id")

	ErrStoreClosed = errors.New("task store closed")
)

// Store is the data-access contract for the tasks table.
//
// InsertTask upserts by id: an id of 0 gets a fresh, never-used id and an
// existing id is replaced entirely. UpdateTask and DeleteTask are no-ops
// when the id does not exist.
type Store interface {
	GetAllTasks(ctx context.Context) ([]Task, error)
	GetTaskByID(ctx context.Context, id int64) (Task, error)
	InsertTask(ctx context.Context, t Task) (Task, error)
	UpdateTask(ctx context.Context, t Task) error
	DeleteTask(ctx context.Context, t Task) error
}

type InMemoryRepo struct {
	mu    sync.Mutex
	seq   int64
	store map[int64]Task
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		store: make(map[int64]Task),
	}
}

func (r *InMemoryRepo) GetAllTasks(_ context.Context) ([]Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Task, 0, len(r.store))
	for _, t := range r.store {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *InMemoryRepo) GetTaskByID(_ context.Context, id int64) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.store[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (r *InMemoryRepo) InsertTask(_ context.Context, t Task) (Task, error) {
	if t.ID < 0 {
		return Task{}, ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// seq is a high-water mark so ids of deleted tasks are never handed out again.
	if t.ID == 0 {
		r.seq++
		t.ID = r.seq
	} else if t.ID > r.seq {
		r.seq = t.ID
	}
	r.store[t.ID] = t
	return t, nil
}

func (r *InMemoryRepo) UpdateTask(_ context.Context, t Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[t.ID]; ok {
		r.store[t.ID] = t
	}
	return nil
}

func (r *InMemoryRepo) DeleteTask(_ context.Context, t Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.store, t.ID)
	return nil
}
