package gdb

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"
)

// ValidateGDBPath checks that the configured debugger binary exists,
// executes, and is actually GNU GDB.
func ValidateGDBPath(ctx context.Context, gdbPath string) error {
	if gdbPath == "" {
		return &PrerequisiteError{
			Prerequisite: "gdb",
			Details:      "debugger path is empty",
		}
	}

	versionCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(versionCtx, gdbPath, "--version")
	output, err := cmd.Output()
	if err != nil {
		return &PrerequisiteError{
			Prerequisite: "gdb",
			Details:      fmt.Sprintf("failed to execute %s --version", gdbPath),
			Err:          err,
		}
	}

	if !strings.Contains(string(output), "GNU gdb") {
		return &PrerequisiteError{
			Prerequisite: "gdb",
			Details:      fmt.Sprintf("%s does not appear to be GNU GDB", gdbPath),
		}
	}

	return nil
}

// GDBVersion returns the first line of `gdb --version` output.
func GDBVersion(ctx context.Context, gdbPath string) (string, error) {
	versionCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	output, err := exec.CommandContext(versionCtx, gdbPath, "--version").Output()
	if err != nil {
		return "", err
	}
	lines := strings.SplitN(string(output), "\n", 2)
	return strings.TrimSpace(lines[0]), nil
}

// ValidateRemoteConnection checks that the GDB server endpoint accepts
// TCP connections.
func ValidateRemoteConnection(ctx context.Context, host string, port int) error {
	address := fmt.Sprintf("%s:%d", host, port)
	dialer := net.Dialer{
		Timeout: 2 * time.Second,
	}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return &ConnectionError{
			Host: host,
			Port: port,
			Err:  err,
		}
	}
	defer conn.Close()

	return nil
}
