package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"simnet/world"
)

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Boot a demo host and print each device's resulting state",
	Args:  cobra.NoArgs,
	RunE:  runBoot,
}

func init() {
	rootCmd.AddCommand(bootCmd)
}

func runBoot(cmd *cobra.Command, args []string) error {
	w := world.New()
	h, err := newDemoHost(w)
	if err != nil {
		return err
	}

	bootErr := h.Boot()
	for _, d := range h.Devices() {
		fmt.Printf("%-6s %s\n", d.Kind(), d.State())
	}
	if bootErr != nil {
		return fmt.Errorf("boot: %w", bootErr)
	}

	fmt.Println("os: powered_on")
	return nil
}
