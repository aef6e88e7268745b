//go:build unix

package toolchain

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts cmd as the leader of its own process group and makes cancellation
// kill the whole group. soffice forks soffice.bin, which would otherwise outlive the timeout.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
