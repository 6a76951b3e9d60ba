package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

const refWidth = 12

// outdatedCommand creates the outdated command.
func (c *CLI) outdatedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "outdated",
		Short: "List installed files that changed in the index",
		Long: `List manifest entries whose recorded ref differs from the index's current
ref, including entries the index no longer has. Run "dtsm fetch" first to
compare against the latest index.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, cleanup, err := c.openManager(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			ids, err := m.Outdated(ctx)
			if err != nil {
				return explain(err)
			}
			if len(ids) == 0 {
				printSuccess("All installed files are up to date")
				return nil
			}

			mf, err := m.Manifest(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				rows = append(rows, []string{id, shortRef(mf.Dependencies[id].Ref)})
			}
			fmt.Println(outdatedTable(rows))
			printNextStep("Update them", appName+" install --save")
			return nil
		},
	}
}

func outdatedTable(rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("FILE", "INSTALLED REF").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return StyleTitle.Padding(0, 1)
			case col == 1:
				return StyleDim.Padding(0, 1)
			default:
				return StyleValue.Padding(0, 1)
			}
		}).
		String()
}

func shortRef(ref string) string {
	if ref == "" {
		return "-"
	}
	if len(ref) > refWidth {
		return ref[:refWidth]
	}
	return ref
}
