package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"minerpanel/internal/configdoc"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the miner config file",
	Long: `Read and modify the miner's YAML configuration. Edits preserve key
order, comments on untouched entries, and fields the panel does not
know about. Writes go through a temp file and rename, so a crash never
leaves a half-written config behind.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print all options in the miner config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		doc, err := configdoc.Load(cfg.ConfigPath)
		if err != nil {
			return err
		}

		cmd.Printf("%s (%d options)\n", cfg.ConfigPath, doc.Len())
		for _, key := range doc.Keys() {
			v, _ := doc.Get(key)
			if v.Kind() == configdoc.KindNested {
				cmd.Printf("  %s (%s):\n", key, v.Kind())
				continue
			}
			cmd.Printf("  %s (%s) = %s\n", key, v.Kind(), v.Render())
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one option's value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		doc, err := configdoc.Load(cfg.ConfigPath)
		if err != nil {
			return err
		}

		v, ok := doc.Get(args[0])
		if !ok {
			return fmt.Errorf("option %q not found in %s", args[0], cfg.ConfigPath)
		}
		cmd.Println(v.Render())
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one option and save the config",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		doc, err := configdoc.Load(cfg.ConfigPath)
		if err != nil {
			return err
		}

		key, raw := args[0], args[1]
		if err := doc.Set(key, raw); err != nil {
			var perr *configdoc.ParseError
			if !errors.As(err, &perr) {
				return err
			}
			// The edit is applied anyway, stored as a string
			cmd.Printf("Warning: %q does not parse as the option's previous type; stored as a string\n", raw)
		}
		if err := doc.Save(cfg.ConfigPath); err != nil {
			return err
		}

		v, _ := doc.Get(key)
		cmd.Printf("%s = %s\n", key, v.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
