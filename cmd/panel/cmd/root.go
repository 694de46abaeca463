package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"minerpanel/internal/config"
)

var settingsFile string

var rootCmd = &cobra.Command{
	Use:   "minerpanel",
	Short: "Minerpanel is a local control panel for a signum-miner process",
	Long: `minerpanel manages one signum-miner process from the terminal.

It edits the miner's YAML configuration without disturbing key order or
unknown fields, starts and stops the miner, and shows its merged output.
The panel never talks to the network itself; the miner does its own pool
communication.

Common workflows:

  Open the interactive panel:
    minerpanel ui

  Run the miner in the foreground, mirroring its output:
    minerpanel run

  Inspect or edit the miner config:
    minerpanel config show
    minerpanel config get cpu_threads
    minerpanel config set cpu_threads 8

  Check whether a panel is already managing this config:
    minerpanel status

Configuration:
  Settings come from an optional minerpanel.yaml file, MINERPANEL_*
  environment variables, and flags, in increasing precedence:
    MINERPANEL_CONFIG_PATH   Miner config file (default: config.yaml)
    MINERPANEL_MINER_PATH    Miner executable (default: ./signum-miner)
    MINERPANEL_LAUNCHER      exec or docker (default: exec)`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	// Read environment variables that match "MINERPANEL_VARNAME"
	viper.SetEnvPrefix("MINERPANEL")
	viper.AutomaticEnv()
}

// loadSettings resolves the panel settings from the optional settings
// file plus any flag overrides.
func loadSettings() (*config.Config, error) {
	cfg, err := config.Load(settingsFile)
	if err != nil {
		return nil, err
	}

	if v := viper.GetString("miner"); v != "" {
		cfg.MinerPath = v
	}
	if v := viper.GetString("config"); v != "" {
		cfg.ConfigPath = v
	}
	if v := viper.GetString("workdir"); v != "" {
		cfg.WorkDir = v
	}
	if v := viper.GetString("launcher"); v != "" {
		cfg.Launcher = v
	}
	if v := viper.GetString("image"); v != "" {
		cfg.DockerImage = v
	}

	switch cfg.Launcher {
	case config.LauncherExec, config.LauncherDocker:
	default:
		return nil, fmt.Errorf("invalid launcher %q: must be %q or %q",
			cfg.Launcher, config.LauncherExec, config.LauncherDocker)
	}
	return cfg, nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "panel settings file (default: built-in defaults)")

	rootCmd.PersistentFlags().StringP("config", "c", "", "miner config file (default: config.yaml)")
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.PersistentFlags().String("miner", "", "path to the miner executable (default: ./signum-miner)")
	viper.BindPFlag("miner", rootCmd.PersistentFlags().Lookup("miner"))

	rootCmd.PersistentFlags().String("workdir", "", "working directory the miner runs in")
	viper.BindPFlag("workdir", rootCmd.PersistentFlags().Lookup("workdir"))

	rootCmd.PersistentFlags().String("launcher", "", "how to run the miner: exec or docker")
	viper.BindPFlag("launcher", rootCmd.PersistentFlags().Lookup("launcher"))

	rootCmd.PersistentFlags().String("image", "", "container image for the docker launcher")
	viper.BindPFlag("image", rootCmd.PersistentFlags().Lookup("image"))
}
