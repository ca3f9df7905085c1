// Package socket implements the simulated world's socket fabric
// (spec.md §4.4): typed bidirectional sockets connected through an IP
// manager that tracks bound (address, port) endpoints, with per-tick
// forwarders moving at most one message per direction per world step.
//
// The bind/resolve/connect naming and the "move one message per step"
// discipline follow the teacher's console-socket FD handoff in
// container/exec.go, generalized from a single PTY handoff to a full
// address-keyed registry of many concurrent socket pairs.
package socket

import (
	"sync"

	simerrors "simnet/errors"
	"simnet/netaddr"
	"simnet/queue"
)

// Socket is one end of a bidirectional typed channel: Rx is read by this
// end's owner, Tx is written by this end's owner and read by the peer's
// Rx. A connected peer is always a *Socket[Tx, Rx] — its Rx is this
// end's Tx type and vice versa — which Connect enforces with a runtime
// type assertion, reporting ErrTypeMismatch on failure.
type Socket[Rx, Tx any] struct {
	mu       sync.Mutex
	rx       *queue.Queue[Rx]
	tx       *queue.Queue[Tx]
	peer     peerHandle
	endpoint netaddr.Endpoint
	bound    bool
	closed   bool
}

// peerHandle is a type-erased reference to a connected peer, used only
// to detach the reverse link on Close; the actual message movement goes
// through the closures captured in IPManager.forward.
type peerHandle interface {
	detachPeer()
}

func (s *Socket[Rx, Tx]) detachPeer() {
	s.mu.Lock()
	s.peer = nil
	s.mu.Unlock()
}

// New returns an unconnected, unbound socket.
func New[Rx, Tx any]() *Socket[Rx, Tx] {
	return &Socket[Rx, Tx]{rx: queue.New[Rx](), tx: queue.New[Tx]()}
}

// Send enqueues a message for delivery to the peer. It is an error to
// send on a closed socket.
func (s *Socket[Rx, Tx]) Send(msg Tx) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return simerrors.ErrSocketClosed
	}
	s.tx.Push(msg)
	return nil
}

// Recv removes and returns the oldest message delivered by the peer, if
// any, without blocking.
func (s *Socket[Rx, Tx]) Recv() (Rx, bool) {
	return s.rx.Pop()
}

// AsyncRecv returns a channel delivering the next message from the peer,
// per queue.Queue.AsyncRead's suspension semantics.
func (s *Socket[Rx, Tx]) AsyncRecv() <-chan Rx {
	return s.rx.AsyncRead()
}

// Close marks the socket closed and detaches the peer link, so the peer
// stops forwarding to a socket nobody is reading from anymore. Further
// Send calls fail with ErrSocketClosed; already-buffered messages remain
// readable via Recv.
func (s *Socket[Rx, Tx]) Close() {
	s.mu.Lock()
	s.closed = true
	peer := s.peer
	s.peer = nil
	s.mu.Unlock()
	if peer != nil {
		peer.detachPeer()
	}
}

// Closed reports whether Close has been called on this socket.
func (s *Socket[Rx, Tx]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Endpoint returns the (address, port) this socket is bound to, if any.
func (s *Socket[Rx, Tx]) Endpoint() (netaddr.Endpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint, s.bound
}

// connected reports whether this socket currently has a live peer.
func (s *Socket[Rx, Tx]) connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer != nil
}

// forwardOne moves at most one buffered message from src's tx queue into
// dst's rx queue, per spec.md §4.4's "at most one message per direction
// per step" rule. It reports whether a message was moved.
func forwardOne[Rx, Tx any](src *Socket[Rx, Tx], dst *Socket[Tx, Rx]) bool {
	if !src.connected() {
		return false
	}
	msg, ok := src.tx.Pop()
	if !ok {
		return false
	}
	dst.rx.Push(msg)
	return true
}

// IPManager binds sockets to (address, port) endpoints and connects
// bound pairs, standing in for the simulated world's network layer.
type IPManager struct {
	mu       sync.Mutex
	bindings map[netaddr.Endpoint]any
	forward  []func() bool
}

// NewIPManager returns an empty IP manager.
func NewIPManager() *IPManager {
	return &IPManager{bindings: make(map[netaddr.Endpoint]any)}
}

// Bind reserves endpoint for sock. ErrAddressInUse is returned if the
// endpoint is already bound.
func Bind[Rx, Tx any](m *IPManager, endpoint netaddr.Endpoint, sock *Socket[Rx, Tx]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.bindings[endpoint]; exists {
		return simerrors.ErrAddressInUse
	}
	sock.mu.Lock()
	sock.endpoint = endpoint
	sock.bound = true
	sock.mu.Unlock()
	m.bindings[endpoint] = sock
	return nil
}

// Unbind releases endpoint, if bound.
func (m *IPManager) Unbind(endpoint netaddr.Endpoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bindings, endpoint)
}

// Resolve returns the socket bound to endpoint, if any, asserting it has
// the (Rx, Tx) type the caller expects. ErrTypeMismatch is returned if a
// socket is bound at endpoint but with a different message type.
func Resolve[Rx, Tx any](m *IPManager, endpoint netaddr.Endpoint) (*Socket[Rx, Tx], error) {
	m.mu.Lock()
	bound, exists := m.bindings[endpoint]
	m.mu.Unlock()
	if !exists {
		return nil, simerrors.WrapWithSubject(nil, simerrors.ErrNotFound, "resolve", endpoint.String())
	}
	sock, ok := bound.(*Socket[Rx, Tx])
	if !ok {
		return nil, simerrors.ErrTypeMismatch
	}
	return sock, nil
}

// Connect resolves endpoint to a socket of the complementary (Tx, Rx)
// type and splices it to sock as a connected peer pair: sock's Tx feeds
// the resolved socket's Rx and vice versa. ErrTypeMismatch is returned if
// the endpoint is bound to a socket of an incompatible type.
func Connect[Rx, Tx any](m *IPManager, endpoint netaddr.Endpoint, sock *Socket[Rx, Tx]) error {
	peer, err := Resolve[Tx, Rx](m, endpoint)
	if err != nil {
		return err
	}

	sock.mu.Lock()
	sock.peer = peer
	sock.mu.Unlock()
	peer.mu.Lock()
	peer.peer = sock
	peer.mu.Unlock()

	m.mu.Lock()
	m.forward = append(m.forward,
		func() bool { return forwardOne(sock, peer) },
		func() bool { return forwardOne(peer, sock) },
	)
	m.mu.Unlock()
	return nil
}

// Step advances every connected pair by one tick, moving at most one
// message per direction per step, matching spec.md §4.10's world update
// ordering (timers advance, then socket forwarders step).
func (m *IPManager) Step() {
	m.mu.Lock()
	forwarders := make([]func() bool, len(m.forward))
	copy(forwarders, m.forward)
	m.mu.Unlock()
	for _, f := range forwarders {
		f()
	}
}
