package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

func newLinksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Inspect Discord to player links",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every linked player",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LinkList

			if err := client.Get(cmd.Context(), "/api/v1/links", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <discord-id>",
		Short: "Show one Discord user's link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Link

			if err := client.Get(cmd.Context(), "/api/v1/links/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	})

	return cmd
}
