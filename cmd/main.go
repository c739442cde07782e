// Command rentscore serves the Guess That Rent leaderboard API and runs
// scoring passes over the listing feed.
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/okian/rentscore/internal/config"
	"github.com/okian/rentscore/pkg/logger"
)

// cli holds state shared by every subcommand.
type cli struct {
	cfg        *config.Config
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "rentscore <command>",
		Short:         "Score rent guesses and serve the leaderboards",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			// Logs go to stderr so command output stays clean on stdout.
			if err := logger.InitWithWriter(cmd.ErrOrStderr(), cfg.LogFormat); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
					logger.String("log_level", cfg.LogLevel), logger.Error(err))
				_ = logger.SetLevelString("info")
			}
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "output as JSON")

	root.AddCommand(
		newServeCmd(c),
		newScoreCmd(c),
		newExplainCmd(c),
		newLeaderboardCmd(c),
	)
	return root
}

func main() {
	err := newRootCmd().Execute()
	if serr := logger.Sync(); serr != nil {
		fmt.Fprintln(os.Stderr, "failed to flush logs:", serr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
