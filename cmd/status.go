package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"simnet/process"
	"simnet/world"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Boot a demo host and report its device topology and live process table",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	w := world.New()
	h, err := newDemoHost(w)
	if err != nil {
		return err
	}
	if err := h.Boot(); err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	fmt.Printf("host %s\n", h.UUID())
	for _, d := range h.Devices() {
		fmt.Printf("  device %s  %-6s %s\n", d.UUID(), d.Kind(), d.State())
	}

	var pids []process.Pid
	h.OS().GetProcesses(func(p *process.Proc) { pids = append(pids, p.Pid()) })
	fmt.Printf("processes: %d\n", len(pids))
	for _, pid := range pids {
		fmt.Printf("  pid %d\n", pid)
	}

	return nil
}
