package cmd

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"minerpanel/internal/configdoc"
	"minerpanel/internal/logrelay"
	"minerpanel/internal/panel"
	"minerpanel/internal/supervisor"
)

type fakePanel struct {
	options    []panel.Option
	setKey     string
	setRaw     string
	setErr     error
	running    bool
	started    int
	stopped    int
	reloads    int
	saves      int
	pending    []logrelay.Line
	exits      chan supervisor.ExitEvent
	cfgChanged chan string
}

func newFakePanel() *fakePanel {
	return &fakePanel{
		options: []panel.Option{
			{Key: "cpu_threads", Kind: configdoc.KindInt, Value: "4"},
			{Key: "url", Kind: configdoc.KindString, Value: "https://pool.example.com"},
		},
		exits:      make(chan supervisor.ExitEvent, 1),
		cfgChanged: make(chan string, 1),
	}
}

func (f *fakePanel) LoadConfig(path string) error { f.reloads++; return nil }
func (f *fakePanel) SaveConfig() error            { f.saves++; return nil }
func (f *fakePanel) ConfigPath() string           { return "config.yaml" }
func (f *fakePanel) Options() []panel.Option      { return f.options }

func (f *fakePanel) SetOption(key, raw string) error {
	f.setKey, f.setRaw = key, raw
	return f.setErr
}

func (f *fakePanel) Start(ctx context.Context) error { f.started++; f.running = true; return nil }
func (f *fakePanel) Stop(ctx context.Context) error  { f.stopped++; f.running = false; return nil }
func (f *fakePanel) IsRunning() bool                 { return f.running }

func (f *fakePanel) State() supervisor.State {
	if f.running {
		return supervisor.StateRunning
	}
	return supervisor.StateIdle
}

func (f *fakePanel) PollLogLines() []logrelay.Line {
	lines := f.pending
	f.pending = nil
	return lines
}

func (f *fakePanel) DroppedLogLines() uint64            { return 0 }
func (f *fakePanel) Exits() <-chan supervisor.ExitEvent { return f.exits }
func (f *fakePanel) ConfigChanged() <-chan string       { return f.cfgChanged }
func (f *fakePanel) PollInterval() time.Duration        { return 10 * time.Millisecond }

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func updateModel(t *testing.T, m panelUIModel, msg tea.Msg) panelUIModel {
	t.Helper()
	updated, _ := m.Update(msg)
	next, ok := updated.(panelUIModel)
	if !ok {
		t.Fatalf("Update returned %T, want panelUIModel", updated)
	}
	return next
}

func sizedModel(t *testing.T, f *fakePanel) panelUIModel {
	t.Helper()
	m := newPanelUIModel(f)
	return updateModel(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
}

func TestPanelUI_TickDrainsLogs(t *testing.T) {
	f := newFakePanel()
	m := sizedModel(t, f)

	f.pending = []logrelay.Line{
		{RunID: "r1", Text: "connecting to pool"},
		{RunID: "r1", Text: "scanning plots"},
	}
	m = updateModel(t, m, panelTickMsg{})

	if len(m.logLines) != 2 || m.logLines[0] != "connecting to pool" {
		t.Errorf("logLines = %v", m.logLines)
	}
	if !strings.Contains(m.View(), "scanning plots") {
		t.Error("view does not show drained log line")
	}
}

func TestPanelUI_EditCommitsOption(t *testing.T) {
	f := newFakePanel()
	m := sizedModel(t, f)

	m = updateModel(t, m, keyMsg("e"))
	if !m.editing {
		t.Fatal("e did not enter edit mode")
	}

	m.editor.SetValue("8")
	m = updateModel(t, m, keyMsg("enter"))

	if m.editing {
		t.Error("enter did not leave edit mode")
	}
	if f.setKey != "cpu_threads" || f.setRaw != "8" {
		t.Errorf("SetOption(%q, %q), want (cpu_threads, 8)", f.setKey, f.setRaw)
	}
}

func TestPanelUI_EditEscapeDiscards(t *testing.T) {
	f := newFakePanel()
	m := sizedModel(t, f)

	m = updateModel(t, m, keyMsg("e"))
	m.editor.SetValue("999")
	m = updateModel(t, m, keyMsg("esc"))

	if m.editing {
		t.Error("esc did not leave edit mode")
	}
	if f.setKey != "" {
		t.Errorf("SetOption called on escape: %q", f.setKey)
	}
}

func TestPanelUI_EditParseFailureShownButApplied(t *testing.T) {
	f := newFakePanel()
	f.setErr = &configdoc.ParseError{Key: "cpu_threads", Err: context.Canceled}
	m := sizedModel(t, f)

	m = updateModel(t, m, keyMsg("e"))
	m.editor.SetValue("many")
	m = updateModel(t, m, keyMsg("enter"))

	if f.setRaw != "many" {
		t.Errorf("SetOption raw = %q, want many", f.setRaw)
	}
	if !m.statusBad {
		t.Error("parse failure not reflected in status")
	}
}

func TestPanelUI_StartStopKeys(t *testing.T) {
	f := newFakePanel()
	m := sizedModel(t, f)

	_, cmd := m.Update(keyMsg("s"))
	if cmd == nil {
		t.Fatal("s produced no command while idle")
	}
	if msg := cmd(); msg == nil {
		t.Fatal("start command returned nil msg")
	} else if _, ok := msg.(panelStartedMsg); !ok {
		t.Fatalf("start command returned %T", msg)
	}
	if f.started != 1 {
		t.Errorf("Start called %d times, want 1", f.started)
	}

	m2 := updateModel(t, m, panelStartedMsg{})
	_, cmd = m2.Update(keyMsg("x"))
	if cmd == nil {
		t.Fatal("x produced no command while running")
	}
	if _, ok := cmd().(panelStoppedMsg); !ok {
		t.Fatal("stop command did not return panelStoppedMsg")
	}
	if f.stopped != 1 {
		t.Errorf("Stop called %d times, want 1", f.stopped)
	}
}

func TestPanelUI_CrashSetsErrorStatus(t *testing.T) {
	f := newFakePanel()
	m := sizedModel(t, f)

	m = updateModel(t, m, panelExitMsg{event: supervisor.ExitEvent{ExitCode: 1}})

	if !m.statusBad {
		t.Error("crash exit not marked as an error")
	}
	if !strings.Contains(m.status, "exited with code 1") {
		t.Errorf("status = %q", m.status)
	}
}

func TestPanelUI_ConfigChangeOffersReload(t *testing.T) {
	f := newFakePanel()
	m := sizedModel(t, f)

	m = updateModel(t, m, panelConfigChangedMsg{path: "config.yaml"})
	if !m.reloadHint {
		t.Error("external change did not set the reload hint")
	}

	m = updateModel(t, m, keyMsg("r"))
	if f.reloads != 1 {
		t.Errorf("LoadConfig called %d times, want 1", f.reloads)
	}
	if m.reloadHint {
		t.Error("reload hint not cleared after reload")
	}
}

func TestPanelUI_QuitStopsRunningMiner(t *testing.T) {
	f := newFakePanel()
	f.running = true
	m := sizedModel(t, f)

	m, cmd := mustModel(t)(m.Update(keyMsg("q")))
	if !m.stopping {
		t.Error("quit with a running miner did not begin stopping")
	}
	if cmd == nil {
		t.Fatal("quit produced no stop command")
	}
	cmd()
	if f.stopped != 1 {
		t.Errorf("Stop called %d times, want 1", f.stopped)
	}
}

func mustModel(t *testing.T) func(tea.Model, tea.Cmd) (panelUIModel, tea.Cmd) {
	return func(model tea.Model, cmd tea.Cmd) (panelUIModel, tea.Cmd) {
		t.Helper()
		m, ok := model.(panelUIModel)
		if !ok {
			t.Fatalf("Update returned %T, want panelUIModel", model)
		}
		return m, cmd
	}
}
