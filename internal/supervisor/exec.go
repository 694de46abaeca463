package supervisor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// ExecLauncher runs the miner as a raw OS process.
type ExecLauncher struct{}

// NewExecLauncher creates a new process-based launcher.
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{}
}

// Start implements Launcher.Start using os/exec. Stdout and stderr are
// merged into a single pipe so the log view sees one ordered stream,
// exactly as the miner would print to a terminal.
func (e *ExecLauncher) Start(ctx context.Context, spec StartSpec) (Handle, error) {
	minerPath := spec.MinerPath
	if minerPath == "" {
		minerPath = defaultMinerExecutable()
	}

	cmd := exec.Command(minerPath, "-c", spec.ConfigPath)
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	setSysProcAttr(cmd)

	// A single pipe for both streams. Writing through one file keeps the
	// kernel's ordering of interleaved writes.
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, fmt.Errorf("failed to start miner %s: %w", minerPath, err)
	}

	// The child holds its own copy of the write end; closing ours makes
	// the read end return EOF when the child exits.
	pw.Close()

	return &ExecHandle{cmd: cmd, output: pr}, nil
}

// ExecHandle represents a miner running as a child process.
type ExecHandle struct {
	cmd    *exec.Cmd
	output *os.File
}

// StreamOutput returns the merged stdout+stderr pipe.
func (h *ExecHandle) StreamOutput(ctx context.Context) (io.ReadCloser, error) {
	return h.output, nil
}

// Signal sends the platform's graceful termination signal.
func (h *ExecHandle) Signal(ctx context.Context) error {
	return sendTermSignal(h.cmd.Process)
}

// Kill forcefully terminates the process.
func (h *ExecHandle) Kill(ctx context.Context) error {
	return sendKillSignal(h.cmd.Process)
}

// Wait blocks until the process exits.
func (h *ExecHandle) Wait(ctx context.Context) ExitResult {
	err := h.cmd.Wait()
	if err == nil {
		return ExitResult{ExitCode: 0}
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		// Nonzero exit (or death by signal, code -1) is an ordinary
		// outcome, not a wait failure.
		return ExitResult{ExitCode: exitErr.ExitCode()}
	}
	return ExitResult{ExitCode: -1, Err: err}
}

// defaultMinerExecutable is the miner binary looked up relative to the
// working directory, with the platform-appropriate name. The "./" prefix
// is kept deliberately so exec never falls back to a PATH lookup.
func defaultMinerExecutable() string {
	return "./" + minerExecutableName
}
