package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"minerpanel/internal/logger"
	"minerpanel/internal/panel"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the miner in the foreground, mirroring its output",
	Long: `Start the miner and mirror its merged stdout and stderr to the
terminal. Ctrl+C stops the miner gracefully; a miner that ignores the
stop signal is killed after the grace timeout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		log := logger.New()

		p, err := panel.New(cfg, log)
		if err != nil {
			return err
		}
		defer p.Close()

		if err := p.LoadConfig(""); err != nil {
			// The miner reads the config file itself and reports its own
			// errors; the panel only needs the document for editing.
			log.Warn("could not read miner config", "path", cfg.ConfigPath, "error", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := p.Start(ctx); err != nil {
			return fmt.Errorf("failed to start miner: %w", err)
		}
		cmd.Printf("Miner started (config: %s)\n", p.ConfigPath())

		done := make(chan struct{})
		var g errgroup.Group
		g.Go(func() error {
			ticker := time.NewTicker(p.PollInterval())
			defer ticker.Stop()
			for {
				for _, line := range p.PollLogLines() {
					fmt.Fprintln(cmd.OutOrStdout(), line.Text)
				}
				select {
				case <-done:
					for _, line := range p.PollLogLines() {
						fmt.Fprintln(cmd.OutOrStdout(), line.Text)
					}
					return nil
				case <-ticker.C:
				}
			}
		})

		var exitErr error
		select {
		case ev := <-p.Exits():
			if ev.ExitCode != 0 {
				exitErr = fmt.Errorf("miner exited with code %d", ev.ExitCode)
			} else {
				cmd.Println("Miner exited")
			}

		case <-ctx.Done():
			cmd.Println("Stopping miner...")
			stopCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.StopGraceTimeout)
			if err := p.Stop(stopCtx); err != nil {
				exitErr = fmt.Errorf("failed to stop miner: %w", err)
			}
			cancel()
			select {
			case <-p.Exits():
			case <-time.After(cfg.StopGraceTimeout):
			}
		}

		close(done)
		if err := g.Wait(); err != nil && exitErr == nil {
			exitErr = err
		}
		if dropped := p.DroppedLogLines(); dropped > 0 {
			cmd.Printf("(%d log lines dropped)\n", dropped)
		}
		return exitErr
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
