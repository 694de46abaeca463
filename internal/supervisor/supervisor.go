// Package supervisor owns the lifecycle of the miner child process: at most
// one at a time, started with the config path, its merged output relayed
// line-by-line to the log queue, and terminated gracefully with a bounded
// kill escalation.
package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"minerpanel/internal/logrelay"

	"github.com/google/uuid"
)

// ErrAlreadyRunning is returned by Start while a miner is active.
var ErrAlreadyRunning = errors.New("miner is already running")

// DefaultGraceTimeout bounds how long Stop waits after the graceful signal
// before force-killing the miner.
const DefaultGraceTimeout = 5 * time.Second

// State is the supervisor lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "idle"
	}
}

// ExitEvent reports a miner exit. Exactly one event is delivered per run,
// whether the miner was stopped, crashed, or was killed externally.
type ExitEvent struct {
	RunID    string
	ExitCode int
	Err      error

	// Requested is true when the exit followed an operator Stop.
	Requested bool
}

// Config holds supervisor tuning.
type Config struct {
	// GraceTimeout bounds Stop's wait before the forced kill.
	// Zero means DefaultGraceTimeout.
	GraceTimeout time.Duration

	Logger *slog.Logger
}

// Supervisor runs at most one miner process at a time.
//
// All state transitions happen under one mutex; the state word itself is
// atomic so IsRunning reads are lock-free. One goroutine per run scans the
// output stream into the relay, another waits for process exit and is the
// single place a run is finalized, so exit notification happens exactly
// once no matter how the process died.
type Supervisor struct {
	launcher Launcher
	relay    *logrelay.Relay
	log      *slog.Logger
	grace    time.Duration

	mu            sync.Mutex
	state         atomic.Int32
	handle        Handle
	runID         string
	exited        chan struct{}
	stopRequested atomic.Bool

	exits chan ExitEvent
}

// New creates a supervisor pushing miner output into relay.
func New(launcher Launcher, relay *logrelay.Relay, cfg Config) *Supervisor {
	if cfg.GraceTimeout <= 0 {
		cfg.GraceTimeout = DefaultGraceTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Supervisor{
		launcher: launcher,
		relay:    relay,
		log:      cfg.Logger,
		grace:    cfg.GraceTimeout,
		exits:    make(chan ExitEvent, 8),
	}
}

// Start launches the miner. It fails with ErrAlreadyRunning unless the
// supervisor is idle, and with a wrapped spawn error (leaving the state
// idle) when the launcher cannot bring the process up.
func (s *Supervisor) Start(ctx context.Context, spec StartSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if State(s.state.Load()) != StateIdle {
		return ErrAlreadyRunning
	}
	s.state.Store(int32(StateStarting))

	handle, err := s.launcher.Start(ctx, spec)
	if err != nil {
		s.state.Store(int32(StateIdle))
		return fmt.Errorf("failed to start miner: %w", err)
	}

	out, err := handle.StreamOutput(ctx)
	if err != nil {
		_ = handle.Kill(ctx)
		go handle.Wait(context.Background()) // reap
		s.state.Store(int32(StateIdle))
		return fmt.Errorf("failed to attach to miner output: %w", err)
	}

	runID := uuid.NewString()
	s.runID = runID
	s.handle = handle
	s.exited = make(chan struct{})
	s.stopRequested.Store(false)
	s.state.Store(int32(StateRunning))

	s.log.Info("miner started", "run_id", runID)

	go s.readOutput(out, runID)
	go s.awaitExit(handle, runID, s.exited)
	return nil
}

// Stop terminates a running miner: graceful signal, a bounded wait, then a
// forced kill. It is a no-op when idle and returns once the process has
// exited and the supervisor is idle again.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	if State(s.state.Load()) == StateIdle {
		s.mu.Unlock()
		return nil
	}
	s.stopRequested.Store(true)
	s.state.Store(int32(StateStopping))
	handle := s.handle
	exited := s.exited
	s.mu.Unlock()

	if err := handle.Signal(ctx); err != nil {
		s.log.Warn("graceful signal failed", "error", err)
	}

	select {
	case <-exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.grace):
	}

	s.log.Warn("miner ignored graceful stop, killing", "grace", s.grace)
	if err := handle.Kill(ctx); err != nil {
		s.log.Warn("kill failed", "error", err)
	}

	select {
	case <-exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether a miner process is alive. Lock-free.
func (s *Supervisor) IsRunning() bool {
	st := State(s.state.Load())
	return st == StateRunning || st == StateStopping
}

// State returns the current lifecycle state. Lock-free.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// CurrentRunID returns the ID of the active run, empty when idle.
func (s *Supervisor) CurrentRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if State(s.state.Load()) == StateIdle {
		return ""
	}
	return s.runID
}

// Exits delivers exactly one ExitEvent per miner run.
func (s *Supervisor) Exits() <-chan ExitEvent {
	return s.exits
}

// readOutput scans the merged output stream line-by-line into the relay.
// It runs until end-of-stream, which the child reaching exit guarantees.
func (s *Supervisor) readOutput(rc io.ReadCloser, runID string) {
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.relay.Push(logrelay.Line{RunID: runID, Text: scanner.Text()})
	}
	if err := scanner.Err(); err != nil {
		s.log.Warn("miner output read ended", "run_id", runID, "error", err)
	}
}

// awaitExit is the only caller of Handle.Wait and the only place a run is
// finalized, so the idle transition and the exit event fire exactly once
// for stop, crash, and external kill alike.
func (s *Supervisor) awaitExit(handle Handle, runID string, exited chan struct{}) {
	res := handle.Wait(context.Background())

	s.mu.Lock()
	if s.runID == runID {
		s.handle = nil
		s.state.Store(int32(StateIdle))
	}
	requested := s.stopRequested.Load()
	s.mu.Unlock()

	event := ExitEvent{
		RunID:     runID,
		ExitCode:  res.ExitCode,
		Err:       res.Err,
		Requested: requested,
	}
	select {
	case s.exits <- event:
	default:
		s.log.Warn("exit event dropped, observer not draining", "run_id", runID)
	}

	s.log.Info("miner exited", "run_id", runID, "exit_code", res.ExitCode, "requested", requested)
	close(exited)
}
