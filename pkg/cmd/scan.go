package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillpkg/skillpkg/pkg/scan"
)

func newScanCmd() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "Scan a skill directory for malicious patterns",
		Long: `Runs the threat scanner over a local skill directory (or a single
file) and prints a JSON report on stdout. The exit code reflects the
most severe finding: 0 clean, 1 info, 2 warning, 3 critical.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := scan.Scan(args[0])
			if err != nil {
				return err
			}

			data, err := report.JSON(pretty)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			if code := report.ExitCode(); code != ExitOK {
				s := report.Summary
				return &ExitError{
					Code: code,
					Err:  fmt.Errorf("%d critical, %d warning, %d info finding(s)", s.Critical, s.Warning, s.Info),
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON report")
	return cmd
}
