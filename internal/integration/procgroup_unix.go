//go:build unix

package integration

import (
	"os/exec"
	"syscall"
)

// killProcessGroupOnCancel starts the interpreter in its own process group
// and kills the whole group on cancellation, so children the script spawned
// do not outlive it.
func killProcessGroupOnCancel(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
