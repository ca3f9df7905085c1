// Package shell is a minimal demo command table exercising the
// process/socket/OS seam end to end (spec.md §8 scenario 2). The full
// set of built-in command programs (ls, cat, ping, useradd, sudo, an
// editor, …) is explicitly out of scope per spec.md §1 — only "echo" is
// implemented here, enough to drive a shell round trip through a real
// process with real sockets.
package shell

import (
	"strconv"
	"strings"

	"simnet/process"
	"simnet/socket"
	"simnet/task"
)

// CommandFunc runs one command's body, writing any output through p and
// returning the process exit code.
type CommandFunc func(p *process.Proc, args []string) int

var commands = map[string]CommandFunc{
	"echo": cmdEcho,
}

func cmdEcho(p *process.Proc, args []string) int {
	p.Putln("echo: [" + strings.Join(args, " ") + "]")
	return 0
}

// Dispatch looks up argv[0] in the command table and runs it with
// argv[1:], or reports "command not found" through p's error stream
// (spec.md §7's shell failure surface) and returns exit code 127.
func Dispatch(p *process.Proc, argv []string) int {
	if len(argv) == 0 {
		return 0
	}
	cmd, ok := commands[argv[0]]
	if !ok {
		p.Errln(argv[0] + ": command not found")
		return 127
	}
	return cmd(p, argv[1:])
}

// splitSubmitted splits raw input on the shell's line-submit keys (\r,
// \n), per spec.md §6's input key conventions, dropping blank lines.
func splitSubmitted(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r", "\n")
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func runLine(p *process.Proc, line string) int {
	code := Dispatch(p, strings.Fields(line))
	p.SetEnv("RET_VAL", strconv.Itoa(code))
	return code
}

// EntryFromArgv runs the process's own argv once as a single command —
// used to execute a host's boot.os file line by line, one process per
// line, per spec.md §4.9.
func EntryFromArgv(p *process.Proc) *task.Task[int] {
	return task.NewEager(func() (int, error) {
		return Dispatch(p, p.Argv()), nil
	})
}

// Entry is the default login shell function (spec.md §4.8's get_shell):
// it reads one chunk of raw input from the process's registered string
// reader, splits it into submitted lines, and runs each as a command in
// turn, returning the last command's exit code.
func Entry(p *process.Proc) *task.Task[int] {
	return task.NewEager(func() (int, error) {
		raw, ok := process.Read[string](p)
		if !ok {
			return 0, nil
		}
		code := 0
		for _, line := range splitSubmitted(raw) {
			code = runLine(p, line)
		}
		return code, nil
	})
}

// AttachSockets wires a pair of string sockets into p's typed
// reader/writer registries: reads suspend on in's AsyncRecv until the
// world's next forwarder step delivers a message, writes go to out's Tx
// queue. AsyncRecv, not the non-blocking Recv, is what makes process.Read
// one of the suspension points spec.md §5 names — a process reading an
// empty socket yields its goroutine until a later world tick wakes it.
// This is the bridge between the socket fabric (C4) and the process
// model's stream adapters (C7).
func AttachSockets(p *process.Proc, in *socket.Socket[string, string], out *socket.Socket[string, string]) {
	process.RegisterReader(p, func() (string, bool) {
		msg := <-in.AsyncRecv()
		return msg, true
	})
	process.RegisterWriter(p, func(s string) { _ = out.Send(s) })
}
