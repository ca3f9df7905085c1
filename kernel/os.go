// Package kernel implements the simulated world's per-host operating
// system (spec.md §4.8, "OS" in the glossary): device registry, process
// table, socket table, filesystem access, and shell bootstrap.
//
// The Create→dispatch→await→erase-from-table sequencing that RunProcess
// follows is grounded on the teacher's container/create.go→start.go
// orchestration (Create, then Start, with cleanup-on-error threaded
// through each step), adapted from a single container's lifecycle into
// many short-lived process lifecycles sharing one table.
package kernel

import (
	"sync"

	"github.com/google/uuid"

	simerrors "simnet/errors"
	"simnet/fs"
	"simnet/netaddr"
	"simnet/process"
	"simnet/socket"
	"simnet/task"
	"simnet/timer"
	"simnet/users"
)

// Device is the minimal view of a host device the OS needs for its
// uuid-keyed registry (spec.md §4.8's register_devices). Declared here
// rather than importing package host directly, since host owns an OS —
// host.Device satisfies this interface.
type Device interface {
	UUID() uuid.UUID
}

// ownedSocket is the minimal, type-erased view of a socket the OS's
// fd table needs to tear one down: close it and release its (address,
// port) binding, without knowing its Rx/Tx message types.
type ownedSocket interface {
	Close()
	Endpoint() (netaddr.Endpoint, bool)
}

// socketEntry is one fd table row: the socket itself plus the pid that
// created it, so a dead process's sockets can be found and released.
type socketEntry struct {
	sock  ownedSocket
	owner process.Pid
}

// CreateProcessParams configures CreateProcess, per spec.md §4.8.
type CreateProcessParams struct {
	LeaderPid process.Pid
	UID       int
	GID       int
	Writer    func(string)
}

// OS holds one host's simulated kernel state.
type OS struct {
	mu sync.Mutex

	devices   map[uuid.UUID]Device
	processes map[process.Pid]*process.Proc
	nextPid   process.Pid
	sockets   map[int]socketEntry
	nextFd    int

	ip      *socket.IPManager
	timers  *timer.Manager
	fsys    *fs.Filesystem
	usersDB *users.Store

	addr       netaddr.Address
	shellEntry process.EntryFunc
}

// New constructs an OS bound to the world's shared IP manager and timer
// manager, with its own filesystem seeded with the standard layout
// (spec.md §6) and an empty users store. addr is the address this OS is
// reachable at for bind_socket/connect_socket.
func New(ip *socket.IPManager, timers *timer.Manager, addr netaddr.Address, shellEntry process.EntryFunc) *OS {
	fsys := fs.New()
	fs.SeedStandardLayout(fsys)
	usersDB := users.New(fsys)

	return &OS{
		devices:    make(map[uuid.UUID]Device),
		processes:  make(map[process.Pid]*process.Proc),
		nextPid:    1,
		sockets:    make(map[int]socketEntry),
		ip:         ip,
		timers:     timers,
		fsys:       fsys,
		usersDB:    usersDB,
		addr:       addr,
		shellEntry: shellEntry,
	}
}

// RegisterDevices snapshots devices into the OS's uuid→device map,
// replacing any previous registration — spec.md §4.8's register_devices.
func (os *OS) RegisterDevices(devices []Device) {
	os.mu.Lock()
	defer os.mu.Unlock()
	os.devices = make(map[uuid.UUID]Device, len(devices))
	for _, d := range devices {
		os.devices[d.UUID()] = d
	}
}

// Device returns the registered device with the given uuid.
func (os *OS) Device(id uuid.UUID) (Device, error) {
	os.mu.Lock()
	defer os.mu.Unlock()
	d, ok := os.devices[id]
	if !ok {
		return nil, simerrors.ErrDeviceNotFound
	}
	return d, nil
}

// CreateProcess allocates a fresh pid and records the process in the
// table. If params.LeaderPid resolves to an existing process, the new
// process's leader is set to it; otherwise the new process leads itself.
func (os *OS) CreateProcess(params CreateProcessParams) *process.Proc {
	os.mu.Lock()
	pid := os.nextPid
	os.nextPid++

	var leader *process.Proc
	if params.LeaderPid != 0 {
		leader = os.processes[params.LeaderPid]
	}
	os.mu.Unlock()

	p := process.New(pid, nil, params.Writer)
	p.SetUid(params.UID)
	p.SetGid(params.GID)
	if leader != nil {
		p.SetLeaderPid(params.LeaderPid)
	} else {
		p.SetLeaderPid(pid)
	}

	os.mu.Lock()
	os.processes[pid] = p
	os.mu.Unlock()
	return p
}

// RunProcess creates a process, dispatches entry with argv, awaits it,
// and erases the process from the table on completion — keyed by pid
// rather than by table position, so the table may be mutated by other
// processes completing during the await (spec.md §4.8). Any sockets the
// process created are destroyed alongside it: spec.md §7's "a dead
// process is removed from the table and its socket bindings released".
func (os *OS) RunProcess(entry process.EntryFunc, argv []string, params CreateProcessParams) *task.Task[int] {
	return task.NewEager(func() (int, error) {
		p := os.CreateProcess(params)
		pid := p.Pid()
		code, err := p.AwaitDispatch(entry, argv)

		os.mu.Lock()
		delete(os.processes, pid)
		os.mu.Unlock()
		os.destroyProcessSockets(pid)

		return code, err
	})
}

// GetProcess looks up a process by pid.
func (os *OS) GetProcess(pid process.Pid) (*process.Proc, error) {
	os.mu.Lock()
	defer os.mu.Unlock()
	p, ok := os.processes[pid]
	if !ok {
		return nil, simerrors.ErrProcessNotFound
	}
	return p, nil
}

// GetProcesses invokes visitor once per currently-tracked process. The
// visitor runs outside the table lock, matching the concurrency
// contract that callbacks never run under a lock (spec.md §5).
func (os *OS) GetProcesses(visitor func(*process.Proc)) {
	os.mu.Lock()
	snapshot := make([]*process.Proc, 0, len(os.processes))
	for _, p := range os.processes {
		snapshot = append(snapshot, p)
	}
	os.mu.Unlock()

	for _, p := range snapshot {
		visitor(p)
	}
}

// CreateSocket allocates a new symmetric socket of message type T,
// indexed in the OS's fd→socket map and owned by owner, per spec.md §3's
// "process-scoped descriptor": the fd is released, along with any
// binding, when owner's process is erased from the table.
func CreateSocket[T any](os *OS, owner process.Pid) (*socket.Socket[T, T], int) {
	os.mu.Lock()
	defer os.mu.Unlock()
	fd := os.nextFd
	os.nextFd++
	sock := socket.New[T, T]()
	os.sockets[fd] = socketEntry{sock: sock, owner: owner}
	return sock, fd
}

// DestroySocket closes the socket at fd, releases its (address, port)
// binding if it had one, and removes it from the fd table. It is a
// no-op if fd is not currently registered.
func (os *OS) DestroySocket(fd int) {
	os.mu.Lock()
	entry, ok := os.sockets[fd]
	if ok {
		delete(os.sockets, fd)
	}
	os.mu.Unlock()
	if !ok {
		return
	}
	entry.sock.Close()
	if endpoint, bound := entry.sock.Endpoint(); bound {
		os.ip.Unbind(endpoint)
	}
}

// destroyProcessSockets releases every socket owned by pid — called when
// pid's process is erased from the table (spec.md §7).
func (os *OS) destroyProcessSockets(pid process.Pid) {
	os.mu.Lock()
	var fds []int
	for fd, entry := range os.sockets {
		if entry.owner == pid {
			fds = append(fds, fd)
		}
	}
	os.mu.Unlock()
	for _, fd := range fds {
		os.DestroySocket(fd)
	}
}

// BindSocket binds sock to (this OS's address, port) in the world's IP
// manager.
func BindSocket[Rx, Tx any](os *OS, sock *socket.Socket[Rx, Tx], port uint16) error {
	return socket.Bind(os.ip, netaddr.Endpoint{Addr: os.addr, Port: port}, sock)
}

// ConnectSocket connects sock to the socket bound at (addr, port),
// forwarding through the world's IP manager.
func ConnectSocket[Rx, Tx any](os *OS, sock *socket.Socket[Rx, Tx], addr netaddr.Address, port uint16) error {
	return socket.Connect(os.ip, netaddr.Endpoint{Addr: addr, Port: port}, sock)
}

// GetFilesystem returns this OS's filesystem.
func (os *OS) GetFilesystem() (*fs.Filesystem, bool) {
	if os.fsys == nil {
		return nil, false
	}
	return os.fsys, true
}

// Users returns this OS's users & groups store.
func (os *OS) Users() *users.Store {
	return os.usersDB
}

// Wait returns a channel that is closed once seconds of simulated time
// have elapsed; a task suspends by receiving from it. Wait itself does
// not block.
func (os *OS) Wait(seconds float64) (<-chan struct{}, error) {
	return os.timers.Wait(seconds)
}

// GetShell bootstraps a process running the default login shell
// function and dispatches it immediately.
func (os *OS) GetShell(params CreateProcessParams) (*process.Proc, error) {
	if os.shellEntry == nil {
		return nil, simerrors.New(simerrors.ErrInvalidConfig, "get_shell", "no shell entry configured")
	}
	p := os.CreateProcess(params)
	p.Dispatch(os.shellEntry, nil)
	return p, nil
}
