package tasks

import "context"

// Future is the pending result of a store call started by Async.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func spawn[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fn()
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the call finishes or ctx ends. Giving up on the wait
// does not stop the underlying store call.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Async starts store calls on their own goroutines so event loops can
// keep running while storage I/O is in flight.
type Async struct {
	store Store
}

// NewAsync wraps store; the returned futures share nothing but store.
func NewAsync(store Store) *Async {
	return &Async{store: store}
}

func (a *Async) GetAllTasks(ctx context.Context) *Future[[]Task] {
	ctx = context.WithoutCancel(ctx)
	return spawn(func() ([]Task, error) { return a.store.GetAllTasks(ctx) })
}

func (a *Async) GetTaskByID(ctx context.Context, id int64) *Future[Task] {
	ctx = context.WithoutCancel(ctx)
	return spawn(func() (Task, error) { return a.store.GetTaskByID(ctx, id) })
}

func (a *Async) InsertTask(ctx context.Context, t Task) *Future[Task] {
	ctx = context.WithoutCancel(ctx)
	return spawn(func() (Task, error) { return a.store.InsertTask(ctx, t) })
}

func (a *Async) UpdateTask(ctx context.Context, t Task) *Future[struct{}] {
	ctx = context.WithoutCancel(ctx)
	return spawn(func() (struct{}, error) { return struct{}{}, a.store.UpdateTask(ctx, t) })
}

func (a *Async) DeleteTask(ctx context.Context, t Task) *Future[struct{}] {
	ctx = context.WithoutCancel(ctx)
	return spawn(func() (struct{}, error) { return struct{}{}, a.store.DeleteTask(ctx, t) })
}
