package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newLeaderboardCmd() *cobra.Command {
	var metric string
	var size int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the live leaderboard for the current match",
		Long: `Rank the players in the current match by one stat.

Metrics: kills, deaths, combat, offense, defense, support, kills_streak.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{"metric": {metric}}
			if size > 0 {
				query.Set("size", strconv.Itoa(size))
			}

			var result Leaderboard
			if err := client.Get(cmd.Context(), "/api/v1/leaderboard?"+query.Encode(), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&metric, "metric", "kills", "Stat to rank by")
	cmd.Flags().IntVar(&size, "size", 0, "Number of players to show (default: server default)")

	return cmd
}
