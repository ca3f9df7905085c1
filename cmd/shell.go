package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"simnet/kernel"
	"simnet/shell"
	"simnet/world"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Boot a demo host and run an interactive shell against it",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	w := world.New()
	h, err := newDemoHost(w)
	if err != nil {
		return err
	}
	if err := h.Boot(); err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	go w.Launch(ctx)

	interactive := term.IsTerminal(int(os.Stdin.Fd()))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("$ ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		result := h.OS().RunProcess(shell.EntryFromArgv, fields, kernel.CreateProcessParams{
			Writer: func(s string) { fmt.Print(s) },
		})
		if _, err := result.Await(); err != nil {
			fmt.Fprintf(os.Stderr, "✕ %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
	return scanner.Err()
}
