package cli

import (
	"errors"
	"net/url"

	"github.com/spf13/cobra"
)

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and run background jobs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List background jobs and their last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result JobList

			if err := client.Get(cmd.Context(), "/api/v1/jobs", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "run <name>",
		Short: "Run a job now and wait for it to finish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Job

			if err := client.Post(cmd.Context(), "/api/v1/jobs/"+url.PathEscape(args[0])+"/run", nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			if result.LastError != "" {
				return errors.New("job failed: " + result.LastError)
			}
			return nil
		},
	})

	return cmd
}
