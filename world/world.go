// Package world implements the simulated world's fixed-step driver
// (spec.md §4.10): it owns every host, the shared timer manager, the
// shared IP manager, and a cross-thread update queue of one-shot
// closures.
//
// Launch's context-cancellation shutdown follows the teacher's
// cmd/root.go GetContext (signal.NotifyContext-based cancellation),
// retargeted from "stop accepting CLI work" to "stop ticking the
// simulation".
package world

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"simnet/host"
	"simnet/socket"
	"simnet/timer"
)

// tickSleep is the small constant delay between ticks spec.md §4.10
// names ("~1 ms").
const tickSleep = time.Millisecond

// World is the top-level simulation driver.
type World struct {
	mu     sync.Mutex
	hosts  map[uuid.UUID]*host.Host
	timers *timer.Manager
	ip     *socket.IPManager
	update []func()
}

// New returns an empty world with a fresh timer manager and IP manager —
// the two shared registries every host's OS is constructed against.
func New() *World {
	return &World{
		hosts:  make(map[uuid.UUID]*host.Host),
		timers: timer.NewManager(),
		ip:     socket.NewIPManager(),
	}
}

// Timers returns the world's shared timer manager, for OS construction.
func (w *World) Timers() *timer.Manager {
	return w.timers
}

// IPManager returns the world's shared IP manager, for OS construction.
func (w *World) IPManager() *socket.IPManager {
	return w.ip
}

// AddHost registers h with the world.
func (w *World) AddHost(h *host.Host) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hosts[h.UUID()] = h
}

// RemoveHost unregisters the host with the given id.
func (w *World) RemoveHost(id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.hosts, id)
}

// Hosts returns every currently registered host.
func (w *World) Hosts() []*host.Host {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*host.Host, 0, len(w.hosts))
	for _, h := range w.hosts {
		out = append(out, h)
	}
	return out
}

// Enqueue marshals fn onto the world's driver thread: it runs during a
// future UpdateWorld call rather than synchronously. This is the world's
// sole cross-thread entry point, per spec.md §5's shared-resource policy
// — its critical section only appends to a slice and never invokes fn
// under the lock.
func (w *World) Enqueue(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.update = append(w.update, fn)
}

// popUpdate removes and returns at most one pending update closure.
func (w *World) popUpdate() (func(), bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.update) == 0 {
		return nil, false
	}
	fn := w.update[0]
	w.update = w.update[1:]
	return fn, true
}

// UpdateWorld advances the simulation by one step (spec.md §4.10):
// pop and invoke at most one pending update closure, advance the timer
// manager by dt, then advance the IP manager's forwarders once.
func (w *World) UpdateWorld(dt float64) {
	if fn, ok := w.popUpdate(); ok {
		fn()
	}
	w.timers.Step(dt)
	w.ip.Step()
}

// Launch spawns a background loop computing wall-clock dt between
// iterations, calling UpdateWorld(dt), and sleeping tickSleep between
// ticks. It returns once ctx is cancelled.
func (w *World) Launch(ctx context.Context) {
	last := time.Now()
	ticker := time.NewTicker(tickSleep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			w.UpdateWorld(dt)
		}
	}
}
