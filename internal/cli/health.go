package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show console connection health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			if err := client.Get(cmd.Context(), "/api/v1/health", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe the game server console",
		Long: `Run a live connection test against the console API and show the server
name and player count. Exits non-zero if the console is unreachable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ConnectionStatus

			err := client.Get(cmd.Context(), "/api/v1/status", &result)
			var statusErr *StatusError
			if err != nil && !errors.As(err, &statusErr) {
				return err
			}

			output(cmd).Print(result)
			if !result.Connected {
				return errors.New("console unreachable")
			}
			return nil
		},
	}
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <token>",
		Short: "Check an admin token and save it to the token file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.ServerURL, args[0])
			if err := client.Get(cmd.Context(), "/api/v1/jobs", nil); err != nil {
				return err
			}

			if err := cfg.SaveToken(args[0]); err != nil {
				return err
			}

			output(cmd).PrintMessage("Token saved to " + cfg.TokenFile)
			return nil
		},
	}
}
