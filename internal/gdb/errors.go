package gdb

import (
	"fmt"
	"strings"
	"time"
)

// StartupError represents a failure to spawn the debugger subprocess
// or to complete the initial attach/connect handshake. Fatal: no
// transfer can start without a connected session.
type StartupError struct {
	// GDBPath is the debugger binary that was invoked
	GDBPath string
	// Stage describes which part of startup failed ("spawn", "connect", ...)
	Stage string
	// Output is the debugger output collected so far, if any
	Output string
	// Underlying error
	Err error
}

func (e *StartupError) Error() string {
	msg := fmt.Sprintf("debugger startup failed during %s (gdb: %s)", e.Stage, e.GDBPath)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if e.Output != "" {
		msg += "\noutput: " + e.Output
	}
	return msg
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// TimeoutError represents a command turn that did not produce a
// complete response (prompt sentinel) within the deadline. The partial
// output collected so far is retained so the caller can decide whether
// to retry or abort.
type TimeoutError struct {
	// Command is the command line that timed out
	Command string
	// Timeout is the deadline that was exceeded
	Timeout time.Duration
	// Partial holds the output lines collected before the deadline
	Partial []string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no complete response to %q within %s (%d lines collected)",
		e.Command, e.Timeout, len(e.Partial))
}

// ParseError represents debugger output that did not match the
// expected textual grammar. Distinct from ExecutionError: the command
// may well have succeeded with unexpected output formatting, which
// usually indicates a debugger version mismatch rather than a target
// failure.
type ParseError struct {
	// Command is the command whose response failed to parse
	Command string
	// Field names the value that could not be extracted
	Field string
	// Output is the response text that failed to match
	Output string
	// Underlying error, if any
	Err error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("failed to parse %s from response to %q", e.Field, e.Command)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if e.Output != "" {
		msg += "\noutput: " + e.Output
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExecutionError represents a command the debugger itself reported as
// failed (connection lost, inaccessible memory, undefined command).
type ExecutionError struct {
	// Command is the command line that failed
	Command string
	// Line is the output line that signalled the failure
	Line string
	// Underlying error, if any
	Err error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("debugger command %q failed", e.Command)
	if e.Line != "" {
		msg += ": " + strings.TrimSpace(e.Line)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ConnectionError represents a failure to reach the remote debug
// server (OpenOCD, J-Link GDB server, qemu gdbstub, ...).
type ConnectionError struct {
	// Host is the remote server host
	Host string
	// Port is the remote server port
	Port int
	// Underlying error
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to debug server at %s:%d: %v\n"+
		"Hint: ensure the GDB server is running and the target is attached.",
		e.Host, e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// PrerequisiteError represents a missing prerequisite (the GDB binary
// itself, or a reachable debug server).
type PrerequisiteError struct {
	// Prerequisite is the name of the missing prerequisite
	Prerequisite string
	// Details provides additional context
	Details string
	// Underlying error
	Err error
}

func (e *PrerequisiteError) Error() string {
	msg := fmt.Sprintf("missing prerequisite: %s", e.Prerequisite)
	if e.Details != "" {
		msg += "\n" + e.Details
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\nError: %v", e.Err)
	}
	return msg
}

func (e *PrerequisiteError) Unwrap() error {
	return e.Err
}
