// Package errors provides predefined sentinel errors for common failure cases.
package errors

// Task errors (package task).
var (
	// ErrTaskAlreadyAwaited indicates a task was awaited a second time.
	ErrTaskAlreadyAwaited = &SimError{
		Kind:   ErrAlreadyAwaited,
		Detail: "task already awaited",
	}

	// ErrTaskNotComplete indicates a task's value was read before it finished.
	ErrTaskNotComplete = &SimError{
		Kind:   ErrNotComplete,
		Detail: "task has not completed",
	}
)

// Timer errors (package timer).
var (
	// ErrTimerNotFound indicates the timer handle is stale or was never valid.
	ErrTimerNotFound = &SimError{
		Kind:   ErrNotFound,
		Detail: "timer handle not found",
	}
)

// Socket fabric errors (package socket).
var (
	// ErrAddressInUse indicates the (address, port) pair is already bound.
	ErrAddressInUse = &SimError{
		Kind:   ErrAlreadyExists,
		Detail: "address already bound",
	}

	// ErrSocketClosed indicates an operation on a socket that has been dropped.
	ErrSocketClosed = &SimError{
		Kind:   ErrInvalidState,
		Detail: "socket closed",
	}

	// ErrTypeMismatch indicates a connect() between incompatible socket types.
	ErrTypeMismatch = &SimError{
		Kind:   ErrInvalidConfig,
		Detail: "socket type mismatch",
	}
)

// Process errors (package process, kernel).
var (
	// ErrProcessNotFound indicates the pid is not present in the process table.
	ErrProcessNotFound = &SimError{
		Kind:   ErrNotFound,
		Detail: "process not found",
	}
)

// Device/host errors (package host).
var (
	// ErrDeviceDisabled indicates an admin override blocking start_device.
	ErrDeviceDisabled = &SimError{
		Kind:   ErrDevice,
		Detail: "device disabled",
	}

	// ErrDeviceFaulted indicates the device is in the terminal Error state.
	ErrDeviceFaulted = &SimError{
		Kind:   ErrDevice,
		Detail: "device faulted",
	}

	// ErrDeviceNotFound indicates the device id/uuid is unknown to the host.
	ErrDeviceNotFound = &SimError{
		Kind:   ErrNotFound,
		Detail: "device not found",
	}
)

// Users & groups errors (package users).
var (
	// ErrUserExists indicates add_user was called with a name already in use.
	ErrUserExists = &SimError{
		Kind:   ErrAlreadyExists,
		Detail: "user already exists",
	}

	// ErrUserNotFound indicates the username has no passwd entry.
	ErrUserNotFound = &SimError{
		Kind:   ErrNotFound,
		Detail: "user not found",
	}

	// ErrAuthFailed indicates a password did not match during authenticate().
	ErrAuthFailed = &SimError{
		Kind:   ErrAuth,
		Detail: "authentication failed",
	}
)
