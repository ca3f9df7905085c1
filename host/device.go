// Package host implements the simulated world's physical model
// (spec.md §4.9): a Host owning devices and one OS, with a boot/shutdown
// sequence driving each device through its lifecycle state machine.
package host

import (
	"sync"

	"github.com/google/uuid"

	simerrors "simnet/errors"
)

// Kind distinguishes the device roles spec.md §4.9 names: Disk, CPU, NIC.
type Kind int

const (
	KindCPU Kind = iota
	KindDisk
	KindNIC
	KindGeneric
)

func (k Kind) String() string {
	switch k {
	case KindCPU:
		return "cpu"
	case KindDisk:
		return "disk"
	case KindNIC:
		return "nic"
	default:
		return "generic"
	}
}

// State is a device's lifecycle state, per spec.md §4.8's device-state
// machine.
type State int

const (
	PoweredOff State = iota
	Starting
	PoweredOn
	Stopping
	Error
	Disabled
)

func (s State) String() string {
	switch s {
	case PoweredOff:
		return "powered_off"
	case Starting:
		return "starting"
	case PoweredOn:
		return "powered_on"
	case Stopping:
		return "stopping"
	case Error:
		return "error"
	case Disabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// allowedTransitions is a table-driven whitelist of legal state
// transitions, keyed the way the teacher's device major:minor whitelist
// keys allowed device numbers — a flat map checked by membership rather
// than a chain of if-statements.
var allowedTransitions = map[State]map[State]bool{
	PoweredOff: {Starting: true, Disabled: true},
	Starting:   {PoweredOn: true, Error: true},
	PoweredOn:  {Stopping: true, Error: true},
	Stopping:   {PoweredOff: true, Error: true},
	Error:      {},
	Disabled:   {PoweredOff: true},
}

// StartFunc performs whatever driver-init work a device's start_device
// step requires, returning an error on failure (which drives the device
// to Error).
type StartFunc func() error

// Device is one host device: a uuid identity, a role Kind, and a
// lifecycle state machine driven by start_device/stop_device.
type Device struct {
	mu sync.Mutex

	id    uuid.UUID
	kind  Kind
	state State
	start StartFunc
}

// NewDevice constructs a device in PoweredOff state with a fresh uuid.
// start is invoked by StartDevice and may be nil for a no-op device.
func NewDevice(kind Kind, start StartFunc) *Device {
	return &Device{
		id:    uuid.New(),
		kind:  kind,
		state: PoweredOff,
		start: start,
	}
}

// UUID satisfies kernel.Device.
func (d *Device) UUID() uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

// Kind returns the device's role.
func (d *Device) Kind() Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.kind
}

// State returns the device's current lifecycle state.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Device) transition(to State) error {
	if !allowedTransitions[d.state][to] {
		return simerrors.WrapWithSubject(nil, simerrors.ErrInvalidState, "transition", d.id.String())
	}
	d.state = to
	return nil
}

// Disable is an admin override that forces the device out of service
// regardless of its current state, short of Error (which is terminal).
func (d *Device) Disable() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Error {
		return simerrors.ErrDeviceFaulted
	}
	d.state = Disabled
	return nil
}

// Enable clears an admin Disable, returning the device to PoweredOff.
func (d *Device) Enable() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != Disabled {
		return nil
	}
	return d.transition(PoweredOff)
}

// Reset clears a terminal Error state back to PoweredOff.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Error {
		d.state = PoweredOff
	}
}

// StartDevice drives PoweredOff→Starting→PoweredOn, invoking the
// device's StartFunc in the Starting state. A Disabled device refuses to
// start; a failing StartFunc drives the device to Error.
func (d *Device) StartDevice() error {
	d.mu.Lock()
	if d.state == Disabled {
		d.mu.Unlock()
		return simerrors.ErrDeviceDisabled
	}
	if err := d.transition(Starting); err != nil {
		d.mu.Unlock()
		return err
	}
	start := d.start
	d.mu.Unlock()

	if start != nil {
		if err := start(); err != nil {
			d.mu.Lock()
			d.state = Error
			d.mu.Unlock()
			return err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transition(PoweredOn)
}

// StopDevice drives PoweredOn→Stopping→PoweredOff.
func (d *Device) StopDevice() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != PoweredOn {
		return nil
	}
	if err := d.transition(Stopping); err != nil {
		return err
	}
	return d.transition(PoweredOff)
}
