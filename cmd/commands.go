package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	app "github.com/okian/rentscore/internal/app"
	"github.com/okian/rentscore/internal/domain/types"
	"github.com/okian/rentscore/pkg/logger"
)

// withService builds the service for a one-shot command and stops it after
// fn returns.
func withService(ctx context.Context, c *cli, fn func(*app.Service) error) error {
	svc, err := buildService(ctx, c.cfg, logger.Named("rentscore"))
	if err != nil {
		return err
	}
	defer svc.Stop()
	return fn(svc)
}

func newScoreCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Run one scoring pass over the listing feed",
		Long: `Fetch every listing, score each participant with a guess column and
append one score event per scored participant. Prints the run report and
the resulting weekly leaderboard.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return withService(ctx, c, func(svc *app.Service) error {
				report, err := svc.RunScoring(ctx)
				if err != nil {
					return err
				}
				board, err := svc.WeeklyLeaderboard(ctx)
				if err != nil {
					return err
				}
				ranked := types.Ranked(board)
				if c.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), struct {
						Report app.RunReport `json:"report"`
						Weekly []types.Entry `json:"weekly"`
					}{report, ranked})
				}
				w := cmd.OutOrStdout()
				printReport(w, report)
				fmt.Fprintln(w)
				fmt.Fprintln(w, "Weekly leaderboard")
				printBoard(w, ranked)
				return nil
			})
		},
	}
}

func newExplainCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <participant>",
		Short: "Show how a participant's accuracy score is calculated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return withService(ctx, c, func(svc *app.Service) error {
				exp, err := svc.Explain(ctx, args[0])
				if err != nil {
					return fmt.Errorf("explain %q: %w", args[0], err)
				}
				if c.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), exp)
				}
				printExplanation(cmd.OutOrStdout(), exp)
				return nil
			})
		},
	}
}

func newLeaderboardCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:       "leaderboard [daily|weekly]",
		Short:     "Print the daily or weekly leaderboard",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"daily", "weekly"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "weekly"
			if len(args) == 1 {
				kind = args[0]
			}
			ctx := cmd.Context()
			return withService(ctx, c, func(svc *app.Service) error {
				query := svc.WeeklyLeaderboard
				if kind == "daily" {
					query = svc.DailyLeaderboard
				}
				board, err := query(ctx)
				if err != nil {
					return err
				}
				ranked := types.Ranked(board)
				if c.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), ranked)
				}
				printBoard(cmd.OutOrStdout(), ranked)
				return nil
			})
		},
	}
}
