package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <player>",
		Short: "Show a player's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result BalanceResult

			if err := client.Get(playerPath(args[0])+"/balance", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <player>",
		Short: "Show a player's score summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PlayerScore

			if err := client.Get(playerPath(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newLeaderboardCmd() *cobra.Command {
	var limit uint32

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LeaderboardResult

			path := "/api/v1/leaderboard?limit=" + strconv.FormatUint(uint64(limit), 10)
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().Uint32Var(&limit, "limit", 10, "Maximum number of entries")

	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the ledger owner and player count",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LedgerResult

			if err := client.Get("/api/v1/ledger", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <player> <timestamp> <game-id>",
		Short: "Look up the history record for an award",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			timestamp, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid timestamp %q", args[1])
			}
			gameID, err := strconv.ParseUint(args[2], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid game id %q", args[2])
			}

			var result HistoryRecord
			path := fmt.Sprintf("%s/history/%d/%d", playerPath(args[0]), timestamp, gameID)
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAwardCmd() *cobra.Command {
	var gameID uint32

	cmd := &cobra.Command{
		Use:   "award <player> <points>",
		Short: "Award points to a player (ledger owner only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil || points == 0 {
				return fmt.Errorf("points must be a positive integer, got %q", args[1])
			}

			req := map[string]any{
				"points":  points,
				"game_id": gameID,
			}
			var result AwardResult

			if err := client.Post(playerPath(args[0])+"/awards", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().Uint32Var(&gameID, "game-id", 0, "Game the points were earned in (0 for generic)")

	return cmd
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <player>",
		Short: "Clear a player's balance (ledger owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ResetResult

			if err := client.Post(playerPath(args[0])+"/reset", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func playerPath(player string) string {
	return "/api/v1/players/" + url.PathEscape(player)
}
