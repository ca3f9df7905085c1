package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"simnet/world"
)

// tickDT is the fixed per-step simulated time this command advances the
// world by, matching the ~1ms constant spec.md §4.10 names for Launch's
// background loop.
const tickDT = 0.001

var tickCount int

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Boot a demo host and manually advance the world by a fixed number of steps",
	Args:  cobra.NoArgs,
	RunE:  runTick,
}

func init() {
	tickCmd.Flags().IntVar(&tickCount, "count", 1, "number of world steps to advance")
	rootCmd.AddCommand(tickCmd)
}

func runTick(cmd *cobra.Command, args []string) error {
	w := world.New()
	h, err := newDemoHost(w)
	if err != nil {
		return err
	}
	if err := h.Boot(); err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	for i := 0; i < tickCount; i++ {
		w.UpdateWorld(tickDT)
	}

	fmt.Printf("ticked %d time(s), %.3fs simulated\n", tickCount, float64(tickCount)*tickDT)
	return nil
}
