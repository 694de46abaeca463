//go:build unix

package supervisor

import (
	"os"
	"os/exec"
	"syscall"
)

const minerExecutableName = "signum-miner"

// setSysProcAttr sets platform-specific process attributes.
// On Unix the miner gets its own process group, so a Ctrl+C aimed at the
// panel's terminal does not reach the miner; only Stop terminates it.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// sendTermSignal sends SIGTERM for graceful shutdown.
func sendTermSignal(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}

// sendKillSignal sends SIGKILL for forced termination.
func sendKillSignal(p *os.Process) error {
	return p.Signal(syscall.SIGKILL)
}
