package supervisor

import (
	"context"
	"io"
)

// Launcher abstracts how the miner process is brought up.
// Implementations are raw OS processes and Docker containers.
type Launcher interface {
	// Start launches the miner and returns a handle to it.
	Start(ctx context.Context, spec StartSpec) (Handle, error)
}

// StartSpec contains the parameters for launching the miner.
type StartSpec struct {
	// MinerPath is the miner executable. Empty means the platform
	// default (./signum-miner) for the exec launcher; the docker
	// launcher ignores it.
	MinerPath string

	// ConfigPath is passed to the miner as "-c <path>".
	ConfigPath string

	// WorkDir is the directory the miner runs in.
	WorkDir string
}

// Handle represents one running miner process.
type Handle interface {
	// StreamOutput returns the merged stdout+stderr stream.
	StreamOutput(ctx context.Context) (io.ReadCloser, error)

	// Signal requests graceful termination.
	Signal(ctx context.Context) error

	// Kill forcefully terminates the process.
	Kill(ctx context.Context) error

	// Wait blocks until the process exits. It must be called exactly
	// once per handle.
	Wait(ctx context.Context) ExitResult
}

// ExitResult describes how the miner exited.
type ExitResult struct {
	// ExitCode is the process exit code, -1 when killed by signal or
	// when the exit status is unknown.
	ExitCode int

	// Err is set when waiting itself failed, not for nonzero exits.
	Err error
}
