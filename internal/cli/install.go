package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/dtsm/pkg/errors"
	"github.com/matzehuels/dtsm/pkg/manager"
)

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	var opts manager.InstallOptions

	cmd := &cobra.Command{
		Use:   "install [term...]",
		Short: "Install declaration files and everything they reference",
		Long: `Install the declaration files matching each term, plus every file they
reference through /// <reference path="..." /> directives.

Each term must match exactly one identifier in the index. Without terms,
every entry recorded in the manifest is reinstalled.`,
		Example: `  dtsm install jquery
  dtsm install --save angularjs/angular.d.ts node
  dtsm install`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, cleanup, err := c.openManager(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			prog := newProgress(c.Logger)
			var res *manager.Result
			if len(args) == 0 {
				res, err = m.InstallFromFile(ctx, opts)
			} else {
				res, err = m.Install(ctx, opts, args...)
			}
			if err != nil {
				return explain(err)
			}
			prog.done("Install finished")

			printInstallResult(res)
			return resultError(res)
		},
	}

	cmd.Flags().BoolVarP(&opts.Save, "save", "s", false, "record installed files in the manifest")
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "resolve and fetch without writing anything")
	return cmd
}

// uninstallCommand creates the uninstall command.
func (c *CLI) uninstallCommand() *cobra.Command {
	var opts manager.UninstallOptions

	cmd := &cobra.Command{
		Use:   "uninstall <term>",
		Short: "Remove an installed declaration file",
		Long: `Remove the installed file matching term. The term is matched against the
manifest's entries, not the index. Files that still reference the removed
one are left in place.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeInstalled,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, cleanup, err := c.openManager(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			removed, err := m.Uninstall(ctx, opts, args[0])
			if err != nil {
				printTermError(args[0], err)
				return err
			}
			for _, id := range removed {
				printSuccess("Removed %s", StyleHighlight.Render(id))
			}
			if opts.Save {
				printDetail("Updated %s", m.ManifestPath())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Save, "save", "s", false, "remove the entry from the manifest")
	return cmd
}

// resultError returns a non-nil error when any entry of res failed.
func resultError(res *manager.Result) error {
	if !res.Failed() {
		return nil
	}
	failed := len(res.FailedTerms()) + len(res.FailedDependencies())
	return &errFailed{failed: failed, total: len(res.Terms) + len(res.Dependencies)}
}

// printInstallResult prints one line per requested term, then the
// referenced files that could not be installed.
func printInstallResult(res *manager.Result) {
	roots := make(map[string]bool)
	for _, term := range res.SortedTerms() {
		o := res.Terms[term]
		roots[o.Identifier] = true
		if !o.OK() {
			printTermError(term, o.Err)
			for _, cand := range o.Candidates {
				printDetail("%s", cand)
			}
			continue
		}
		if term == o.Identifier {
			printSuccess("%s", StyleHighlight.Render(o.Identifier))
		} else {
			printSuccess("%s %s %s", term, StyleDim.Render(iconArrow), StyleHighlight.Render(o.Identifier))
		}
	}

	for _, id := range res.FailedDependencies() {
		if roots[id] {
			continue
		}
		printWarning("%s: %s", id, errors.UserMessage(res.Dependencies[id].Err))
	}

	installed := res.Installed()
	switch {
	case res.DryRun:
		printInfo("Dry run: %d files would be installed", len(installed))
	default:
		printInfo("%d files installed", len(installed))
	}
	if res.Saved {
		printDetail("Manifest updated")
	}
	for _, id := range res.Dropped {
		printWarning("%s removed from manifest (not installed)", id)
	}
}

func printTermError(term string, err error) {
	switch {
	case errors.Is(err, errors.ErrCodeAmbiguous):
		printError("%s: %s", term, errors.UserMessage(err))
	case errors.Is(err, errors.ErrCodeNotFound):
		printError("%s: no declaration file matches", term)
	default:
		printError("%s: %s", term, errors.UserMessage(err))
	}
}
