//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillProcessGroup(pid int) {
	// Best-effort cleanup; Wait reports the outcome.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

// setProcessGroup places the child in its own process group so that
// Ghostscript helpers spawned by it die together on timeout.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
