// Package board is the presentation-side collaborator of the task store:
// it loads the list shown to the user and turns user input into store calls.
package board

import (
	"context"

	"github.com/s1natex/todolist-go/internal/tasks"
)

// Board drives the task list screen. Store calls are started through
// tasks.Async and awaited, so a caller's ctx can stop waiting without
// aborting the write already in flight.
type Board struct {
	async *tasks.Async
}

// New returns a Board backed by store.
func New(store tasks.Store) *Board {
	return &Board{async: tasks.NewAsync(store)}
}

// Load returns the tasks to display, newest first.
func (b *Board) Load(ctx context.Context) ([]tasks.Task, error) {
	return b.async.GetAllTasks(ctx).Await(ctx)
}

// Get returns task id or tasks.ErrNotFound.
func (b *Board) Get(ctx context.Context, id int64) (tasks.Task, error) {
	return b.async.GetTaskByID(ctx, id).Await(ctx)
}

// Submit creates a pending task with the given title and returns the stored
// record. An empty title creates nothing and returns nil without error.
func (b *Board) Submit(ctx context.Context, title string) (*tasks.Task, error) {
	if title == "" {
		return nil, nil
	}
	t, err := b.async.InsertTask(ctx, tasks.Task{Title: title, IsCompleted: false}).Await(ctx)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Edit holds optional field changes; nil fields keep the stored value.
type Edit struct {
	Title       *string
	IsCompleted *bool
}

// Apply overwrites the fields set in e on task id and returns the stored
// result. UpdateTask is a no-op for a missing row, so the task is read back
// and tasks.ErrNotFound is returned if it was deleted in between.
func (b *Board) Apply(ctx context.Context, id int64, e Edit) (tasks.Task, error) {
	t, err := b.Get(ctx, id)
	if err != nil {
		return tasks.Task{}, err
	}
	if e.Title != nil {
		t.Title = *e.Title
	}
	if e.IsCompleted != nil {
		t.IsCompleted = *e.IsCompleted
	}
	if _, err := b.async.UpdateTask(ctx, t).Await(ctx); err != nil {
		return tasks.Task{}, err
	}
	return b.Get(ctx, id)
}

func (b *Board) SetCompleted(ctx context.Context, id int64, done bool) (tasks.Task, error) {
	return b.Apply(ctx, id, Edit{IsCompleted: &done})
}

func (b *Board) Rename(ctx context.Context, id int64, title string) (tasks.Task, error) {
	return b.Apply(ctx, id, Edit{Title: &title})
}

// Remove deletes task id, reporting tasks.ErrNotFound when it is absent.
func (b *Board) Remove(ctx context.Context, id int64) error {
	t, err := b.Get(ctx, id)
	if err != nil {
		return err
	}
	_, err = b.async.DeleteTask(ctx, t).Await(ctx)
	return err
}
