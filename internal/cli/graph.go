package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/dtsm/pkg/io"
	"github.com/matzehuels/dtsm/pkg/render/nodelink"
)

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the installed dependency tree",
		Long: `Render the manifest's entries and the references between them as a
Graphviz diagram. DOT output can be processed with external Graphviz tools;
SVG is rendered in-process.`,
		Example: `  dtsm graph > deps.dot
  dtsm graph --format svg -o deps.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := nodelink.ParseFormat(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			m, cleanup, err := c.openManager(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			mf, err := m.Manifest(ctx)
			if err != nil {
				return err
			}
			data, err := nodelink.Render(ctx, mf, f, nodelink.Options{Detailed: detailed})
			if err != nil {
				return err
			}

			if output == "" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if err := pkgio.WriteFileAtomic(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Rendered %d files", mf.Len())
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(nodelink.FormatDOT), "output format: dot or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include refs in node labels")
	return cmd
}
