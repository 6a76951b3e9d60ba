package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// fetchCommand creates the fetch command.
func (c *CLI) fetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download or update the index",
		Long: `Clone or update the index repository (git source) or refresh the cached
tree listing (github source). Search, install and outdated read the index
fetched here.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, cleanup, err := c.openManager(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			spin := newSpinnerWithContext(ctx, os.Stderr, "Fetching index...")
			spin.Start()
			if err := m.Fetch(ctx); err != nil {
				spin.StopWithError("Fetch failed")
				return err
			}

			cat, err := m.Catalog()
			if err != nil {
				spin.StopWithError("Index unreadable")
				return err
			}
			spin.StopWithSuccess("Index up to date")
			printDetail("%d declaration files", cat.Len())
			return nil
		},
	}
}
