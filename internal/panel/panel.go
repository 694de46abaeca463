// Package panel is the API surface the UI layer talks to: config document
// operations, miner start/stop, and polled log delivery. It wires the
// document store, the supervisor, and the log relay together and keeps
// every failure recoverable; nothing here is fatal to the panel process.
package panel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"minerpanel/internal/config"
	"minerpanel/internal/configdoc"
	"minerpanel/internal/logrelay"
	"minerpanel/internal/supervisor"

	"github.com/gofrs/flock"
)

// Option is one top-level entry of the miner config, rendered for editing.
type Option struct {
	Key   string
	Kind  configdoc.Kind
	Value string
}

// Panel ties the core subsystems together behind the operations the UI
// consumes.
type Panel struct {
	cfg   *config.Config
	log   *slog.Logger
	relay *logrelay.Relay
	sup   *supervisor.Supervisor
	lock  *flock.Flock

	mu      sync.Mutex
	doc     *configdoc.Document
	docPath string

	watch *configWatcher
}

// New creates a panel using the launcher named in the settings.
func New(cfg *config.Config, log *slog.Logger) (*Panel, error) {
	launcher, err := newLauncher(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithLauncher(cfg, log, launcher)
}

// NewWithLauncher creates a panel around an explicit launcher. Tests use it
// to substitute a fake miner.
func NewWithLauncher(cfg *config.Config, log *slog.Logger, launcher supervisor.Launcher) (*Panel, error) {
	if log == nil {
		log = slog.Default()
	}

	// One panel per config file: a second instance would fight over the
	// same miner process.
	lock := flock.New(cfg.ConfigPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire panel lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another panel is already managing %s", cfg.ConfigPath)
	}

	relay := logrelay.New(cfg.LogBufferLines)
	sup := supervisor.New(launcher, relay, supervisor.Config{
		GraceTimeout: cfg.StopGraceTimeout,
		Logger:       log.With("component", "supervisor"),
	})

	p := &Panel{
		cfg:     cfg,
		log:     log,
		relay:   relay,
		sup:     sup,
		lock:    lock,
		doc:     configdoc.New(),
		docPath: cfg.ConfigPath,
	}

	watch, err := newConfigWatcher(cfg.ConfigPath, log.With("component", "watcher"))
	if err != nil {
		// The panel works without change notifications; don't fail.
		log.Warn("config watch unavailable", "error", err)
	} else {
		p.watch = watch
	}

	return p, nil
}

func newLauncher(cfg *config.Config) (supervisor.Launcher, error) {
	switch cfg.Launcher {
	case config.LauncherDocker:
		return supervisor.NewDockerLauncher(cfg.DockerImage)
	default:
		return supervisor.NewExecLauncher(), nil
	}
}

// LoadConfig reads the document at path, or re-reads the current one when
// path is empty. On failure the previous in-memory document is retained.
func (p *Panel) LoadConfig(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if path == "" {
		path = p.docPath
	}
	doc, err := configdoc.Load(path)
	if err != nil {
		return err
	}
	p.doc = doc
	if path != p.docPath {
		p.docPath = path
		if p.watch != nil {
			p.watch.retarget(path)
		}
	}
	p.log.Info("config loaded", "path", path, "options", doc.Len())
	return nil
}

// SaveConfig writes the document back to its current path.
func (p *Panel) SaveConfig() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Save(p.docPath)
}

// SaveConfigAs writes the document to path and makes it the current one.
func (p *Panel) SaveConfigAs(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.doc.Save(path); err != nil {
		return err
	}
	if path != p.docPath {
		p.docPath = path
		if p.watch != nil {
			p.watch.retarget(path)
		}
	}
	return nil
}

// ConfigPath returns the path of the active config document.
func (p *Panel) ConfigPath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.docPath
}

// Options lists the document's top-level entries in document order.
func (p *Panel) Options() []Option {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys := p.doc.Keys()
	opts := make([]Option, 0, len(keys))
	for _, key := range keys {
		v, _ := p.doc.Get(key)
		opts = append(opts, Option{Key: key, Kind: v.Kind(), Value: v.Render()})
	}
	return opts
}

// GetOption returns one option by key.
func (p *Panel) GetOption(key string) (Option, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, ok := p.doc.Get(key)
	if !ok {
		return Option{}, false
	}
	return Option{Key: key, Kind: v.Kind(), Value: v.Render()}, true
}

// SetOption applies an operator edit. A *configdoc.ParseError means the
// edit was stored as a raw string instead of its former type; the edit is
// never discarded.
func (p *Panel) SetOption(key, raw string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Set(key, raw)
}

// Start launches the miner against the active config document.
func (p *Panel) Start(ctx context.Context) error {
	p.mu.Lock()
	spec := supervisor.StartSpec{
		MinerPath:  p.cfg.MinerPath,
		ConfigPath: p.docPath,
		WorkDir:    p.cfg.WorkDir,
	}
	p.mu.Unlock()

	return p.sup.Start(ctx, spec)
}

// Stop terminates the miner; a no-op when idle.
func (p *Panel) Stop(ctx context.Context) error {
	return p.sup.Stop(ctx)
}

// IsRunning reports whether the miner is alive.
func (p *Panel) IsRunning() bool {
	return p.sup.IsRunning()
}

// State returns the supervisor state for status displays.
func (p *Panel) State() supervisor.State {
	return p.sup.State()
}

// PollLogLines returns all miner output queued since the previous call, in
// emission order. The UI calls this on its poll cadence.
func (p *Panel) PollLogLines() []logrelay.Line {
	return p.relay.Drain()
}

// DroppedLogLines reports lines evicted by the relay's soft bound.
func (p *Panel) DroppedLogLines() uint64 {
	return p.relay.Dropped()
}

// Exits delivers one event per miner run ending.
func (p *Panel) Exits() <-chan supervisor.ExitEvent {
	return p.sup.Exits()
}

// ConfigChanged notifies about external edits to the config file, so the
// UI can offer a reload. Nil when the filesystem watch is unavailable.
func (p *Panel) ConfigChanged() <-chan string {
	if p.watch == nil {
		return nil
	}
	return p.watch.changes
}

// PollInterval is the cadence the UI should drain logs at.
func (p *Panel) PollInterval() time.Duration {
	return p.cfg.LogPollInterval
}

// Close stops a running miner, releases the instance lock, and shuts the
// config watch down.
func (p *Panel) Close() error {
	var firstErr error

	if p.sup.IsRunning() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*p.cfg.StopGraceTimeout)
		if err := p.sup.Stop(ctx); err != nil {
			firstErr = err
		}
		cancel()
	}

	if p.watch != nil {
		if err := p.watch.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := p.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
