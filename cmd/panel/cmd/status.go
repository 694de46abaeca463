package cmd

import (
	"os"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the panel settings and whether a panel is active",
	Long: `Print the resolved panel settings and check whether another panel
process currently manages this miner config. The check probes the lock
file next to the config; it does not signal or disturb a running panel.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}

		cmd.Printf("%sPanel Status%s\n", colorBold, colorReset)
		cmd.Println("──────────────────────────────")
		cmd.Printf("%sConfig:%s     %s\n", colorDim, colorReset, cfg.ConfigPath)
		miner := cfg.MinerPath
		if miner == "" {
			miner = "./signum-miner (default)"
		}
		cmd.Printf("%sMiner:%s      %s\n", colorDim, colorReset, miner)
		cmd.Printf("%sLauncher:%s   %s\n", colorDim, colorReset, cfg.Launcher)
		if cfg.Launcher == "docker" {
			cmd.Printf("%sImage:%s      %s\n", colorDim, colorReset, cfg.DockerImage)
		}
		cmd.Printf("%sWorkdir:%s    %s\n", colorDim, colorReset, cfg.WorkDir)

		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			cmd.Printf("%sConfig file:%s %smissing%s\n", colorDim, colorReset, colorYellow, colorReset)
		} else {
			cmd.Printf("%sConfig file:%s %spresent%s\n", colorDim, colorReset, colorGreen, colorReset)
		}

		lock := flock.New(cfg.ConfigPath + ".lock")
		locked, err := lock.TryLock()
		switch {
		case err != nil:
			cmd.Printf("%sPanel:%s      unknown (%v)\n", colorDim, colorReset, err)
		case locked:
			lock.Unlock()
			cmd.Printf("%sPanel:%s      %snot running%s\n", colorDim, colorReset, colorDim, colorReset)
		default:
			cmd.Printf("%sPanel:%s      %sactive%s (another process holds %s)\n",
				colorDim, colorReset, colorGreen, colorReset, cfg.ConfigPath+".lock")
		}
		return nil
	},
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}
