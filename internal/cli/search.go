package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "List declaration files matching a term",
		Long: `List every identifier in the index that contains term (case-insensitive).

Unlike install, search does not require the term to match exactly one file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, cleanup, err := c.openManager(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			ids, err := m.Search(ctx, args[0])
			if err != nil {
				return explain(err)
			}
			if len(ids) == 0 {
				printWarning("No declaration files match %q", args[0])
				return nil
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			printDetail("%d matches", len(ids))
			return nil
		},
	}
}
