// simnetctl drives a simulated networked computer: hosts with devices
// boot an in-process operating system, spawn cooperative processes over
// virtual sockets, and run shell commands against an in-memory
// filesystem with classic UNIX permissions.
//
// Commands:
//
//	boot    - Boot a demo host and print each device's resulting state
//	tick    - Boot a demo host and manually advance the world by N steps
//	status  - Boot a demo host and report its device topology and process table
//	shell   - Boot a demo host and run an interactive shell against it
//	version - Print version information
package main

import (
	"fmt"
	"os"

	"simnet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
