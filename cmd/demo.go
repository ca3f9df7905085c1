package cmd

import (
	"simnet/host"
	"simnet/kernel"
	"simnet/netaddr"
	"simnet/shell"
	"simnet/world"
)

// demoAddr is the address the one demo host in this CLI is reachable at.
const demoAddr = "fe80::1"

// newDemoHost builds the single-host, three-device (Disk, CPU, NIC)
// topology spec.md §8 scenario 1 describes, wired into w's shared timer
// and IP managers, with the demo shell (package shell) as its default
// login shell.
func newDemoHost(w *world.World) (*host.Host, error) {
	addr, err := netaddr.Parse(demoAddr)
	if err != nil {
		return nil, err
	}

	os := kernel.New(w.IPManager(), w.Timers(), addr, shell.Entry)
	devices := []*host.Device{
		host.NewDevice(host.KindDisk, nil),
		host.NewDevice(host.KindCPU, nil),
		host.NewDevice(host.KindNIC, nil),
	}

	h := host.New(devices, os)
	w.AddHost(h)
	return h, nil
}
