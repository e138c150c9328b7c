package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillpkg/skillpkg/pkg/validate"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Check a skill directory's structure and syntax",
		Long: `Checks that the directory is a well-formed skill package: SKILL.md is
present with parseable frontmatter, and scripts and config files are
syntactically valid. All problems are reported in one pass.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			problems, err := validate.Tree(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(problems) == 0 {
				fmt.Fprintln(w, successStyle.Render("✓")+" "+args[0]+" is a valid skill package")
				return nil
			}

			fmt.Fprintln(w, errorStyle.Render("✗")+" "+args[0]+" has problems:")
			for _, p := range problems {
				fmt.Fprintln(w, "  "+p)
			}
			return &ExitError{
				Code: ExitValidationFailed,
				Err:  fmt.Errorf("%d problem(s) found", len(problems)),
			}
		},
	}
}
