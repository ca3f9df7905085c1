// Package process implements the simulated world's process model
// (spec.md §4.7): a unit of cooperative execution with its own argv,
// environment, typed reader/writer registries, and session identity.
//
// Field-level locking and accessor-method shape follow the teacher's
// Container struct (container/container.go: sync.RWMutex-guarded fields,
// thread-safe accessor methods, defensive-copy getters), adapted from a
// single OCI container's lifecycle fields to a process's identity and
// stream-adapter fields.
package process

import (
	"reflect"
	"sync"

	"simnet/task"
)

// Pid identifies a process within an OS's process table. 0 means "no
// process" (e.g. an unresolved leader_pid).
type Pid int64

// EnvMode selects how GetEnv resolves a miss: Local never consults the
// parent process; Inherit falls through to the parent on a miss, per
// spec.md §4.7.
type EnvMode int

const (
	Local EnvMode = iota
	Inherit
)

const (
	warnPrefix = "⚠ "
	errPrefix  = "✕ "
)

// Proc is a unit of cooperative execution: env vars, typed readers and
// writers, session identity, and a reference (never ownership) to its
// parent process for Inherit-mode lookups.
type Proc struct {
	mu sync.RWMutex

	pid       Pid
	sid       int
	uid       int
	gid       int
	leaderPid Pid

	argv   []string
	env    map[string]string
	parent *Proc

	writers map[reflect.Type]func(any) bool
	readers map[reflect.Type]func() (any, bool)

	task        *task.Task[int]
	data        any
	fallbackOut func(string)
}

// New returns a process identified by pid, optionally with a parent for
// Inherit-mode env/reader/writer lookups. fallbackOut is invoked by Put
// when no writer for string is registered anywhere up the parent chain
// (spec.md §4.7: "the caller may then print to the process's configured
// stdout stream").
func New(pid Pid, parent *Proc, fallbackOut func(string)) *Proc {
	return &Proc{
		pid:         pid,
		leaderPid:   pid,
		env:         make(map[string]string),
		parent:      parent,
		writers:     make(map[reflect.Type]func(any) bool),
		readers:     make(map[reflect.Type]func() (any, bool)),
		fallbackOut: fallbackOut,
	}
}

// Pid returns the process's id.
func (p *Proc) Pid() Pid {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pid
}

// Sid returns the process's session id.
func (p *Proc) Sid() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sid
}

// Uid returns the process's user id.
func (p *Proc) Uid() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.uid
}

// Gid returns the process's group id.
func (p *Proc) Gid() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.gid
}

// LeaderPid returns the pid of the session leader this process belongs
// to, or 0 if unresolved.
func (p *Proc) LeaderPid() Pid {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.leaderPid
}

// SetSid sets the process's session id — used by login/su-style
// commands, per spec.md §4.7.
func (p *Proc) SetSid(sid int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sid = sid
}

// SetUid sets the process's user id.
func (p *Proc) SetUid(uid int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uid = uid
}

// SetGid sets the process's group id.
func (p *Proc) SetGid(gid int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gid = gid
}

// SetLeaderPid sets the session-leader pid this process belongs to.
func (p *Proc) SetLeaderPid(pid Pid) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leaderPid = pid
}

// Argv returns a copy of the process's argument vector.
func (p *Proc) Argv() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.argv))
	copy(out, p.argv)
	return out
}

// SetArgv replaces the process's argument vector.
func (p *Proc) SetArgv(argv []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.argv = argv
}

// SetEnv sets name in this process's own environment map.
func (p *Proc) SetEnv(name, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.env[name] = value
}

// GetEnv looks up name. In Local mode only this process's map is
// consulted; in Inherit mode a miss falls through to the parent process,
// per spec.md §4.7.
func (p *Proc) GetEnv(name string, mode EnvMode) (string, bool) {
	p.mu.RLock()
	v, ok := p.env[name]
	parent := p.parent
	p.mu.RUnlock()
	if ok {
		return v, true
	}
	if mode == Inherit && parent != nil {
		return parent.GetEnv(name, Inherit)
	}
	return "", false
}

// Data returns the process's opaque per-process data slot.
func (p *Proc) Data() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data
}

// SetData replaces the process's opaque per-process data slot.
func (p *Proc) SetData(v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = v
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// RegisterWriter installs fn as this process's writer for messages of
// type T, replacing any previously registered writer for T.
func RegisterWriter[T any](p *Proc, fn func(T)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writers[typeKey[T]()] = func(v any) bool {
		fn(v.(T))
		return true
	}
}

// Write delivers msg to the nearest writer for T in p's parent chain
// (p itself first), returning true if one was found and invoked.
func Write[T any](p *Proc, msg T) bool {
	key := typeKey[T]()
	for cur := p; cur != nil; {
		cur.mu.RLock()
		fn, ok := cur.writers[key]
		next := cur.parent
		cur.mu.RUnlock()
		if ok {
			return fn(msg)
		}
		cur = next
	}
	return false
}

// RegisterReader installs fn as this process's reader for type T.
func RegisterReader[T any](p *Proc, fn func() (T, bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readers[typeKey[T]()] = func() (any, bool) {
		return fn()
	}
}

// Read consults the nearest reader for T in p's parent chain.
func Read[T any](p *Proc) (T, bool) {
	key := typeKey[T]()
	for cur := p; cur != nil; {
		cur.mu.RLock()
		fn, ok := cur.readers[key]
		next := cur.parent
		cur.mu.RUnlock()
		if ok {
			v, ok := fn()
			if ok {
				return v.(T), true
			}
			var zero T
			return zero, false
		}
		cur = next
	}
	var zero T
	return zero, false
}

// Put writes a raw string to the process's attached writer for string
// messages, falling back to fallbackOut if no writer is registered
// anywhere up the parent chain.
func (p *Proc) Put(s string) {
	if !Write[string](p, s) && p.fallbackOut != nil {
		p.fallbackOut(s)
	}
}

// Putln writes s followed by a newline.
func (p *Proc) Putln(s string) {
	p.Put(s + "\n")
}

// Warn writes s prefixed with a stock warning marker.
func (p *Proc) Warn(s string) {
	p.Put(warnPrefix + s)
}

// Warnln writes s prefixed with a stock warning marker, followed by a
// newline.
func (p *Proc) Warnln(s string) {
	p.Putln(warnPrefix + s)
}

// Err writes s prefixed with a stock failure marker, matching spec.md
// §7's shell failure surface ("✕ rm '/etc': Insufficient permissions.").
func (p *Proc) Err(s string) {
	p.Put(errPrefix + s)
}

// Errln writes s prefixed with a stock failure marker, followed by a
// newline.
func (p *Proc) Errln(s string) {
	p.Putln(errPrefix + s)
}

// EntryFunc produces the suspendable computation a dispatched process
// runs to completion.
type EntryFunc func(p *Proc) *task.Task[int]

// Dispatch stores argv on the process and invokes fn to produce its
// running task.
func (p *Proc) Dispatch(fn EntryFunc, argv []string) *task.Task[int] {
	p.SetArgv(argv)
	t := fn(p)
	p.mu.Lock()
	p.task = t
	p.mu.Unlock()
	return t
}

// AwaitDispatch dispatches fn and awaits its task, returning the
// resulting exit code.
func (p *Proc) AwaitDispatch(fn EntryFunc, argv []string) (int, error) {
	return p.Dispatch(fn, argv).Await()
}

// Task returns the process's currently (or most recently) running
// computation, if any.
func (p *Proc) Task() *task.Task[int] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.task
}
