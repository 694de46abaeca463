package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"minerpanel/internal/logrelay"
	"minerpanel/internal/panel"
	"minerpanel/internal/supervisor"
)

const panelUILogLimit = 2000

// panelAPI is the slice of *panel.Panel the TUI consumes. Tests
// substitute a scriptable fake.
type panelAPI interface {
	LoadConfig(path string) error
	SaveConfig() error
	ConfigPath() string
	Options() []panel.Option
	SetOption(key, raw string) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
	State() supervisor.State
	PollLogLines() []logrelay.Line
	DroppedLogLines() uint64
	Exits() <-chan supervisor.ExitEvent
	ConfigChanged() <-chan string
	PollInterval() time.Duration
}

// Messages
type panelTickMsg struct{}

type panelStartedMsg struct {
	err error
}

type panelStoppedMsg struct {
	err error
}

type panelExitMsg struct {
	event supervisor.ExitEvent
}

type panelConfigChangedMsg struct {
	path string
}

type panelUIModel struct {
	theme tuiTheme
	api   panelAPI

	width  int
	height int

	options  []panel.Option
	cursor   int
	optTop   int
	editing  bool
	editor   textinput.Model
	logView  viewport.Model
	logLines []string

	status     string
	statusBad  bool
	reloadHint bool
	stopping   bool
	quitting   bool
}

func newPanelUIModel(api panelAPI) panelUIModel {
	editor := textinput.New()
	editor.CharLimit = 512

	lv := viewport.New(0, 0)

	m := panelUIModel{
		theme:    newTUITheme(),
		api:      api,
		editor:   editor,
		logView:  lv,
		logLines: make([]string, 0, 256),
		status:   "ready",
	}
	m.options = api.Options()
	return m
}

func (m panelUIModel) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		waitForExit(m.api.Exits()),
		waitForConfigChange(m.api.ConfigChanged()),
	)
}

func (m panelUIModel) tickCmd() tea.Cmd {
	return tea.Tick(m.api.PollInterval(), func(time.Time) tea.Msg {
		return panelTickMsg{}
	})
}

func waitForExit(ch <-chan supervisor.ExitEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return panelExitMsg{event: ev}
	}
}

func waitForConfigChange(ch <-chan string) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		path, ok := <-ch
		if !ok {
			return nil
		}
		return panelConfigChangedMsg{path: path}
	}
}

func startMinerCmd(api panelAPI) tea.Cmd {
	return func() tea.Msg {
		return panelStartedMsg{err: api.Start(context.Background())}
	}
}

func stopMinerCmd(api panelAPI) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return panelStoppedMsg{err: api.Stop(ctx)}
	}
}

func (m panelUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalculateLayout()

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if m.api.IsRunning() {
				m.stopping = true
				m.setStatus("stopping miner before exit...", false)
				return m, stopMinerCmd(m.api)
			}
			return m, tea.Quit
		case "s":
			if !m.api.IsRunning() {
				m.setStatus("starting miner...", false)
				return m, startMinerCmd(m.api)
			}
		case "x":
			if m.api.IsRunning() && !m.stopping {
				m.stopping = true
				m.setStatus("stopping miner...", false)
				return m, stopMinerCmd(m.api)
			}
		case "r":
			if err := m.api.LoadConfig(""); err != nil {
				m.setStatus(fmt.Sprintf("reload failed: %v", err), true)
			} else {
				m.refreshOptions()
				m.reloadHint = false
				m.setStatus("config reloaded", false)
			}
		case "w":
			if err := m.api.SaveConfig(); err != nil {
				m.setStatus(fmt.Sprintf("save failed: %v", err), true)
			} else {
				m.setStatus("config saved to "+m.api.ConfigPath(), false)
			}
		case "e", "enter":
			if len(m.options) > 0 {
				opt := m.options[m.cursor]
				m.editing = true
				m.editor.SetValue(opt.Value)
				m.editor.CursorEnd()
				m.editor.Focus()
			}
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.clampOptionWindow()
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
				m.clampOptionWindow()
			}
		}

	case panelTickMsg:
		m.drainLogs()
		cmds = append(cmds, m.tickCmd())

	case panelStartedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("start failed: %v", msg.err), true)
		} else {
			m.setStatus("miner running", false)
		}

	case panelStoppedMsg:
		m.stopping = false
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("stop failed: %v", msg.err), true)
			m.quitting = false
		} else if m.quitting {
			return m, tea.Quit
		} else {
			m.setStatus("miner stopped", false)
		}

	case panelExitMsg:
		ev := msg.event
		if ev.Requested {
			m.setStatus("miner stopped", false)
		} else if ev.ExitCode != 0 {
			m.setStatus(fmt.Sprintf("miner exited with code %d", ev.ExitCode), true)
		} else {
			m.setStatus("miner exited", false)
		}
		m.drainLogs()
		cmds = append(cmds, waitForExit(m.api.Exits()))

	case panelConfigChangedMsg:
		m.reloadHint = true
		m.setStatus("config changed on disk; press r to reload", false)
		cmds = append(cmds, waitForConfigChange(m.api.ConfigChanged()))
	}

	m.logView, cmd = m.logView.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m panelUIModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.editor.Blur()
		return m, nil
	case "enter":
		key := m.options[m.cursor].Key
		raw := m.editor.Value()
		m.editing = false
		m.editor.Blur()
		if err := m.api.SetOption(key, raw); err != nil {
			// The edit is stored either way; a parse failure just means
			// it is now a string.
			m.setStatus(fmt.Sprintf("%s set, but: %v", key, err), true)
		} else {
			m.setStatus(key+" updated (w saves to disk)", false)
		}
		m.refreshOptions()
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *panelUIModel) drainLogs() {
	for _, line := range m.api.PollLogLines() {
		m.logLines = append(m.logLines, line.Text)
	}
	if len(m.logLines) > panelUILogLimit {
		m.logLines = m.logLines[len(m.logLines)-panelUILogLimit:]
	}
	atBottom := m.logView.AtBottom()
	m.logView.SetContent(strings.Join(m.logLines, "\n"))
	if atBottom {
		m.logView.GotoBottom()
	}
}

func (m *panelUIModel) refreshOptions() {
	m.options = m.api.Options()
	if m.cursor >= len(m.options) {
		m.cursor = len(m.options) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.clampOptionWindow()
}

func (m *panelUIModel) setStatus(s string, bad bool) {
	m.status = s
	m.statusBad = bad
}

func (m *panelUIModel) optionRows() int {
	rows := (m.height - 14) / 2
	if rows < 4 {
		rows = 4
	}
	return rows
}

func (m *panelUIModel) clampOptionWindow() {
	rows := m.optionRows()
	if m.cursor < m.optTop {
		m.optTop = m.cursor
	}
	if m.cursor >= m.optTop+rows {
		m.optTop = m.cursor - rows + 1
	}
}

func (m *panelUIModel) recalculateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	logHeight := m.height - m.optionRows() - 12
	if logHeight < 4 {
		logHeight = 4
	}
	m.logView.Width = m.width - 6
	m.logView.Height = logHeight
	m.logView.SetContent(strings.Join(m.logLines, "\n"))
	m.logView.GotoBottom()
}

func (m panelUIModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading panel..."
	}

	header := m.renderHeader()
	options := m.renderOptionsPanel()
	logs := m.renderLogPanel()
	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, options, logs, footer)
}

func (m panelUIModel) renderHeader() string {
	title := m.theme.title.Render("minerpanel")
	state := m.theme.muted.Render("idle")
	switch {
	case m.stopping:
		state = m.theme.warn.Render("stopping")
	case m.api.IsRunning():
		state = m.theme.ok.Render("running")
	}

	meta := m.theme.muted.Render("config=" + m.api.ConfigPath())
	if m.reloadHint {
		meta += m.theme.warn.Render("  [changed on disk]")
	}
	if dropped := m.api.DroppedLogLines(); dropped > 0 {
		meta += m.theme.warn.Render(fmt.Sprintf("  dropped=%d", dropped))
	}

	statusStyle := m.theme.info
	if m.statusBad {
		statusStyle = m.theme.danger
	}
	status := statusStyle.Render(m.status)

	return m.theme.panel.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left,
		title+"  "+state, meta, status))
}

func (m panelUIModel) renderOptionsPanel() string {
	lines := []string{m.theme.subtitle.Render("Miner Config")}

	if len(m.options) == 0 {
		lines = append(lines, m.theme.muted.Render("No options loaded (r reloads the config file)"))
	}

	rows := m.optionRows()
	end := m.optTop + rows
	if end > len(m.options) {
		end = len(m.options)
	}
	for i := m.optTop; i < end; i++ {
		opt := m.options[i]
		value := opt.Value
		if idx := strings.IndexByte(value, '\n'); idx >= 0 {
			value = value[:idx] + " ..."
		}
		row := fmt.Sprintf("%-24s %s", opt.Key, value)
		kind := m.theme.muted.Render(" (" + opt.Kind.String() + ")")
		if i == m.cursor && !m.editing {
			lines = append(lines, m.theme.selected.Render(row)+kind)
		} else {
			lines = append(lines, m.theme.text.Render(row)+kind)
		}
	}

	if m.editing {
		lines = append(lines,
			m.theme.info.Render("Editing "+m.options[m.cursor].Key+" (enter applies, esc cancels)"),
			m.editor.View(),
		)
	}

	return m.theme.panel.Width(m.width - 2).Render(strings.Join(lines, "\n"))
}

func (m panelUIModel) renderLogPanel() string {
	label := m.theme.subtitle.Render("Miner Output")
	return m.theme.panel.Width(m.width - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, label, m.logView.View()))
}

func (m panelUIModel) renderFooter() string {
	parts := []string{
		m.theme.help.Render("s start"),
		m.theme.help.Render("x stop"),
		m.theme.help.Render("e edit"),
		m.theme.help.Render("w save"),
		m.theme.help.Render("r reload"),
		m.theme.help.Render("q quit"),
	}
	return m.theme.panel.Width(m.width - 2).Render(strings.Join(parts, "  |  "))
}
