package cli

import (
	"github.com/spf13/cobra"
)

// initCommand creates the init command.
func (c *CLI) initCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, cleanup, err := c.openManager(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := m.Init(ctx, "", force); err != nil {
				return err
			}
			printSuccess("Created %s", m.ManifestPath())
			printNextStep("Install a declaration file", appName+" install --save <term>")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing manifest")
	return cmd
}
