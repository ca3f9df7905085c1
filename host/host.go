package host

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"simnet/kernel"
	"simnet/shell"
)

// bootFilePath is where a host's boot sequence looks for driver-init
// commands to run through its OS, per spec.md §4.9.
const bootFilePath = "/boot.os"

// Host owns a set of devices and exactly one OS, per spec.md §3's
// ownership summary.
type Host struct {
	mu      sync.Mutex
	id      uuid.UUID
	devices []*Device
	os      *kernel.OS
}

// New constructs a host owning devices and os.
func New(devices []*Device, os *kernel.OS) *Host {
	return &Host{
		id:      uuid.New(),
		devices: devices,
		os:      os,
	}
}

// UUID identifies this host.
func (h *Host) UUID() uuid.UUID {
	return h.id
}

// Devices returns the host's devices.
func (h *Host) Devices() []*Device {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Device, len(h.devices))
	copy(out, h.devices)
	return out
}

// OS returns the host's operating system.
func (h *Host) OS() *kernel.OS {
	return h.os
}

// Boot runs the host's boot sequence (spec.md §4.9): register the
// host's devices with the OS, start each device in declaration order,
// then locate and execute the boot file line by line through the OS.
// A device that fails to start halts further boot steps for this host
// (spec.md §7) — neither later devices nor the boot file run — but the
// error is returned rather than panicking, since device-level failure
// never tears down the world.
func (h *Host) Boot() error {
	devices := h.Devices()

	kdevs := make([]kernel.Device, len(devices))
	for i, d := range devices {
		kdevs[i] = d
	}
	h.os.RegisterDevices(kdevs)

	for _, d := range devices {
		if err := d.StartDevice(); err != nil {
			return err
		}
	}

	return h.runBootFile()
}

// runBootFile executes /boot.os line by line, each line as its own
// dispatched process. A missing boot file is not an error — device
// startup alone is a complete, valid boot.
func (h *Host) runBootFile() error {
	fsys, ok := h.os.GetFilesystem()
	if !ok {
		return nil
	}
	_, f, code := fsys.Open(bootFilePath, false)
	if !code.OK() {
		return nil
	}

	for _, line := range strings.Split(string(f.Content), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		result := h.os.RunProcess(shell.EntryFromArgv, fields, kernel.CreateProcessParams{})
		if _, err := result.Await(); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown reverses Boot: stop every device, in reverse declaration
// order, per spec.md §4.9.
func (h *Host) Shutdown() {
	devices := h.Devices()
	for i := len(devices) - 1; i >= 0; i-- {
		devices[i].StopDevice()
	}
}
