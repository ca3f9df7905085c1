package kernel

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simnet/netaddr"
	"simnet/process"
	"simnet/socket"
	"simnet/task"
	"simnet/timer"
)

func newTestOS(t *testing.T, shellEntry process.EntryFunc) *OS {
	t.Helper()
	ip := socket.NewIPManager()
	timers := timer.NewManager()
	addr, err := netaddr.Parse("fe80::1")
	require.NoError(t, err)
	return New(ip, timers, addr, shellEntry)
}

type fakeDevice struct{ id uuid.UUID }

func (d fakeDevice) UUID() uuid.UUID { return d.id }

func TestRegisterDevicesThenLookup(t *testing.T) {
	os := newTestOS(t, nil)
	d := fakeDevice{id: uuid.New()}
	os.RegisterDevices([]Device{d})

	got, err := os.Device(d.id)
	require.NoError(t, err)
	assert.Equal(t, d.id, got.UUID())
}

func TestDeviceNotFound(t *testing.T) {
	os := newTestOS(t, nil)
	_, err := os.Device(uuid.New())
	require.Error(t, err)
}

func TestCreateProcessAssignsLeaderToSelfByDefault(t *testing.T) {
	os := newTestOS(t, nil)
	p := os.CreateProcess(CreateProcessParams{UID: 1000, GID: 1000})
	assert.Equal(t, p.Pid(), p.LeaderPid())
	assert.Equal(t, 1000, p.Uid())
}

func TestCreateProcessResolvesExistingLeader(t *testing.T) {
	os := newTestOS(t, nil)
	leader := os.CreateProcess(CreateProcessParams{})
	child := os.CreateProcess(CreateProcessParams{LeaderPid: leader.Pid()})
	assert.Equal(t, leader.Pid(), child.LeaderPid())
}

func TestRunProcessErasesFromTableOnCompletion(t *testing.T) {
	os := newTestOS(t, nil)
	release := make(chan struct{})
	entry := func(p *process.Proc) *task.Task[int] {
		return task.NewEager(func() (int, error) {
			<-release
			return 0, nil
		})
	}

	result := os.RunProcess(entry, []string{"cmd"}, CreateProcessParams{})
	var pid process.Pid
	require.Eventually(t, func() bool {
		os.GetProcesses(func(p *process.Proc) { pid = p.Pid() })
		return pid != 0
	}, time.Second, time.Millisecond)
	require.NotZero(t, pid)
	close(release)

	code, err := result.Await()
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	_, err = os.GetProcess(pid)
	require.Error(t, err)
}

func TestGetProcessesVisitsAllTrackedProcesses(t *testing.T) {
	os := newTestOS(t, nil)
	os.CreateProcess(CreateProcessParams{})
	os.CreateProcess(CreateProcessParams{})

	var count int
	os.GetProcesses(func(p *process.Proc) { count++ })
	assert.Equal(t, 2, count)
}

func TestCreateBindConnectSocketsForwardAcrossOSes(t *testing.T) {
	ip := socket.NewIPManager()
	timers := timer.NewManager()
	addrA, _ := netaddr.Parse("fe80::1")
	addrB, _ := netaddr.Parse("fe80::2")
	osA := New(ip, timers, addrA, nil)
	osB := New(ip, timers, addrB, nil)

	server, _ := CreateSocket[string](osB, 0)
	require.NoError(t, BindSocket[string, string](osB, server, 7))

	client, _ := CreateSocket[string](osA, 0)
	require.NoError(t, ConnectSocket[string, string](osA, client, addrB, 7))

	require.NoError(t, client.Send("hello"))
	ip.Step()

	got, ok := server.Recv()
	require.True(t, ok)
	assert.Equal(t, "hello", got)
}

func TestDestroySocketUnbindsAndRemovesFromTable(t *testing.T) {
	os := newTestOS(t, nil)
	sock, fd := CreateSocket[string](os, 0)
	require.NoError(t, BindSocket[string, string](os, sock, 9))

	_, err := socket.Resolve[string, string](os.ip, netaddr.Endpoint{Addr: os.addr, Port: 9})
	require.NoError(t, err)

	os.DestroySocket(fd)

	_, err = socket.Resolve[string, string](os.ip, netaddr.Endpoint{Addr: os.addr, Port: 9})
	require.Error(t, err)
	assert.True(t, sock.Closed())

	os.mu.Lock()
	_, stillTracked := os.sockets[fd]
	os.mu.Unlock()
	assert.False(t, stillTracked)
}

// TestRunProcessReleasesItsSocketsOnCompletion exercises spec.md §8's
// testable property directly: after a process that bound a socket is
// dropped from the table, resolving its (addr, port) again returns none.
func TestRunProcessReleasesItsSocketsOnCompletion(t *testing.T) {
	os := newTestOS(t, nil)
	var fd int
	entry := func(p *process.Proc) *task.Task[int] {
		return task.NewEager(func() (int, error) {
			sock, f := CreateSocket[string](os, p.Pid())
			fd = f
			require.NoError(t, BindSocket[string, string](os, sock, 11))
			return 0, nil
		})
	}

	result := os.RunProcess(entry, nil, CreateProcessParams{})
	code, err := result.Await()
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	_, err = socket.Resolve[string, string](os.ip, netaddr.Endpoint{Addr: os.addr, Port: 11})
	require.Error(t, err)

	os.mu.Lock()
	_, stillTracked := os.sockets[fd]
	os.mu.Unlock()
	assert.False(t, stillTracked)
}

func TestGetFilesystemReturnsSeededFilesystem(t *testing.T) {
	os := newTestOS(t, nil)
	fsys, ok := os.GetFilesystem()
	require.True(t, ok)
	assert.NotZero(t, fsys.Fid("/etc"))
}

func TestWaitDelegatesToTimerManager(t *testing.T) {
	os := newTestOS(t, nil)
	ch, err := os.Wait(1.0)
	require.NoError(t, err)

	select {
	case <-ch:
		t.Fatal("should not have fired yet")
	default:
	}
}

func TestGetShellWithNoEntryConfiguredFails(t *testing.T) {
	os := newTestOS(t, nil)
	_, err := os.GetShell(CreateProcessParams{})
	require.Error(t, err)
}

func TestGetShellDispatchesConfiguredEntry(t *testing.T) {
	ran := make(chan struct{})
	entry := func(p *process.Proc) *task.Task[int] {
		return task.NewEager(func() (int, error) {
			close(ran)
			return 0, nil
		})
	}
	os := newTestOS(t, entry)
	p, err := os.GetShell(CreateProcessParams{})
	require.NoError(t, err)
	require.NotNil(t, p.Task())

	code, err := p.Task().Await()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	<-ran
}
