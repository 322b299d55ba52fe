package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>",
		Short: "Find a player's id by in-game name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Player

			path := "/api/v1/players/resolve?" + url.Values{"name": {args[0]}}.Encode()
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newVipCmd() *cobra.Command {
	var byName bool

	cmd := &cobra.Command{
		Use:   "vip <player-id>",
		Short: "Show a player's VIP status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stableID := args[0]
			if byName {
				var player Player
				path := "/api/v1/players/resolve?" + url.Values{"name": {args[0]}}.Encode()
				if err := client.Get(cmd.Context(), path, &player); err != nil {
					return err
				}
				stableID = player.StableID
			}

			var result VipStatus
			if err := client.Get(cmd.Context(), "/api/v1/vip/"+url.PathEscape(stableID), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&byName, "name", false, "Treat the argument as an in-game name and resolve it first")

	return cmd
}

func newBroadcastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "broadcast <message>",
		Short: "Send a message to everyone in game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result BroadcastResult

			if err := client.Post(cmd.Context(), "/api/v1/broadcast", map[string]string{"message": args[0]}, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
