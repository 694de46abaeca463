package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"minerpanel/internal/logger"
	"minerpanel/internal/panel"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive panel",
	Long: `Open the full-screen panel: edit the miner config, start and stop
the miner, and watch its output live. Quitting the panel stops a
running miner first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}

		// The TUI owns the terminal; logs would corrupt the screen.
		log := logger.Discard()

		p, err := panel.New(cfg, log)
		if err != nil {
			return err
		}
		defer p.Close()

		if err := p.LoadConfig(""); err != nil {
			// Surfaced inside the UI; an absent config file is a normal
			// first-run state.
			cmd.PrintErrf("Note: %v\n", err)
		}

		program := tea.NewProgram(newPanelUIModel(p), tea.WithAltScreen())
		_, err = program.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}
