//go:build windows

package supervisor

import (
	"os"
	"os/exec"
)

const minerExecutableName = "signum-miner.exe"

// setSysProcAttr sets platform-specific process attributes.
// No process-group handling is needed on Windows.
func setSysProcAttr(cmd *exec.Cmd) {}

// sendTermSignal terminates the process. Windows has no SIGTERM
// equivalent for console children, so graceful and forced stop coincide.
func sendTermSignal(p *os.Process) error {
	return p.Kill()
}

// sendKillSignal forcefully terminates the process.
func sendKillSignal(p *os.Process) error {
	return p.Kill()
}
