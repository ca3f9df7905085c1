// Package task implements the simulated world's cooperative task runtime
// (spec.md §4.1): a suspendable computation that produces a value of type
// T, in either eager (runs immediately) or lazy (runs on first await)
// flavour, composed by awaiting.
//
// Go's native concurrency primitives stand in for the source project's
// coroutine handles: a Task is a goroutine plus a channel carrying its
// result, exactly the substitution spec.md §9 recommends ("use the
// target's native async/await where available ... Go goroutines +
// channels").
package task

import (
	"sync"

	simerrors "simnet/errors"
)

// Func is the body of a task: given nothing, it produces a value or an
// error.
type Func[T any] func() (T, error)

// Task represents a cooperative computation producing a value of type T.
// It is either still running, complete with a value, or complete with an
// error. A Task must be awaited exactly once (via Await) or explicitly
// Detach()ed; awaiting it twice is an error, and reading its value before
// completion is an error.
type Task[T any] struct {
	mu       sync.Mutex
	done     chan struct{}
	started  bool
	awaited  bool
	detached bool
	value    T
	err      error
	fn       Func[T]
}

// NewEager constructs a Task that begins executing fn immediately.
func NewEager[T any](fn Func[T]) *Task[T] {
	t := &Task[T]{done: make(chan struct{}), fn: fn}
	t.start()
	return t
}

// NewLazy constructs a Task that does not run fn until it is first
// awaited. If a lazy task is Detach()ed without ever being awaited, fn is
// never invoked — "a lazy task that is dropped without being awaited must
// run no side effects" (spec.md §4.1).
func NewLazy[T any](fn Func[T]) *Task[T] {
	return &Task[T]{done: make(chan struct{}), fn: fn}
}

// Completed returns an already-complete Task wrapping value, with no
// associated computation. Awaiting it returns immediately.
func Completed[T any](value T) *Task[T] {
	t := &Task[T]{done: make(chan struct{}), started: true, value: value}
	close(t.done)
	return t
}

func (t *Task[T]) start() {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	fn := t.fn
	t.mu.Unlock()

	go func() {
		value, err := fn()
		t.mu.Lock()
		t.value, t.err = value, err
		t.mu.Unlock()
		close(t.done)
	}()
}

// IsComplete reports whether the task has finished (successfully or not).
func (t *Task[T]) IsComplete() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Await blocks the calling goroutine until the task completes and
// returns its value or error. Awaiting an already-complete task returns
// immediately. Awaiting the same task a second time returns
// ErrTaskAlreadyAwaited instead of blocking forever.
func (t *Task[T]) Await() (T, error) {
	t.mu.Lock()
	if t.awaited {
		t.mu.Unlock()
		var zero T
		return zero, simerrors.ErrTaskAlreadyAwaited
	}
	t.awaited = true
	t.mu.Unlock()

	t.start()
	<-t.done

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.err
}

// Value returns the task's result without blocking. It is an error to
// call this before the task has completed.
func (t *Task[T]) Value() (T, error) {
	if !t.IsComplete() {
		var zero T
		return zero, simerrors.ErrTaskNotComplete
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.err
}

// Detach marks the task as explicitly not-awaited, satisfying the "must
// either be awaited or explicitly detached" contract without starting it
// if it is lazy and has not already started.
func (t *Task[T]) Detach() {
	t.mu.Lock()
	t.detached = true
	t.mu.Unlock()
}

// Detached reports whether Detach was called.
func (t *Task[T]) Detached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.detached
}

// WhenAll awaits every task in tasks and returns their values in order
// together with the first error encountered, if any (reported after all
// tasks have completed, so a failure in one task never orphans the
// others).
func WhenAll[T any](tasks ...*Task[T]) ([]T, error) {
	values := make([]T, len(tasks))
	var firstErr error
	for i, tk := range tasks {
		v, err := tk.Await()
		values[i] = v
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return values, firstErr
}
