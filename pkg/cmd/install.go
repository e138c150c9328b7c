package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/skillpkg/skillpkg/pkg/config"
	"github.com/skillpkg/skillpkg/pkg/diff"
	"github.com/skillpkg/skillpkg/pkg/installer"
	"github.com/skillpkg/skillpkg/pkg/scan"
	"github.com/skillpkg/skillpkg/pkg/source"
)

func newInstallCmd() *cobra.Command {
	var (
		force    bool
		dryRun   bool
		skipScan bool
		noBackup bool
		maxDepth int
	)

	cmd := &cobra.Command{
		Use:   "install <url> [dest]",
		Short: "Install a skill package from a repository tree",
		Long: `Downloads the directory behind a GitHub tree URL, validates and scans
it, and installs it into dest. When dest is omitted the tree's last
path segment is used, under the current directory.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flagDepth := 0
			if cmd.Flags().Changed("max-depth") {
				flagDepth = maxDepth
			}
			cfg, err := config.Load(flagToken, flagDepth)
			if err != nil {
				return err
			}

			dest := ""
			if len(args) == 2 {
				dest = args[1]
			}

			inst := &installer.Installer{
				Client: &source.Client{Token: cfg.Token, Logger: logger},
				Logger: logger,
			}
			if term.IsTerminal(int(os.Stdin.Fd())) {
				inst.Approver = &consoleApprover{out: cmd.OutOrStdout()}
			}

			out, err := inst.Run(cmd.Context(), installer.Options{
				URL:      args[0],
				Dest:     dest,
				MaxDepth: cfg.MaxDepth,
				Force:    force,
				DryRun:   dryRun,
				SkipScan: skipScan,
				NoBackup: noBackup,
			})
			if err != nil {
				return installExitError(err)
			}

			printOutcome(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompts and install anyway")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list what would be installed without writing anything")
	cmd.Flags().BoolVar(&skipScan, "skip-scan", false, "skip the threat scan")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "replace an existing install without keeping a .bak copy")
	cmd.Flags().IntVar(&maxDepth, "max-depth", source.DefaultMaxDepth, "maximum directory depth to download")

	return cmd
}

// installExitError maps installer failures onto the documented exit codes.
func installExitError(err error) error {
	var (
		verr *installer.ValidationError
		terr *installer.ThreatError
	)
	switch {
	case errors.Is(err, source.ErrInvalidLocation), errors.Is(err, source.ErrNotADirectory):
		return &ExitError{Code: ExitInvalidInput, Err: err}
	case errors.As(err, &verr):
		return &ExitError{Code: ExitValidationFailed, Err: err}
	case errors.As(err, &terr):
		return &ExitError{Code: ExitThreatBlocked, Err: err}
	case errors.Is(err, installer.ErrUnsafeDestination):
		return &ExitError{Code: ExitUnsafeDestination, Err: err}
	default:
		return &ExitError{Code: ExitInstallFailed, Err: err}
	}
}

func printOutcome(w io.Writer, out *installer.Outcome) {
	for _, warning := range out.Warnings {
		fmt.Fprintln(w, warningStyle.Render("!")+" "+warning)
	}

	switch out.Status {
	case installer.StatusDryRun:
		fmt.Fprintln(w, headingStyle.Render("Would install "+out.Location.String()+" to "+out.Dest))
		for _, f := range out.Files {
			fmt.Fprintln(w, "  "+f)
		}
	case installer.StatusNoChange:
		fmt.Fprintln(w, successStyle.Render("✓")+" "+out.Dest+" is already up to date")
	case installer.StatusDeclined:
		fmt.Fprintln(w, mutedStyle.Render("install cancelled"))
	case installer.StatusInstalled:
		fmt.Fprintf(w, "%s installed %d file(s) to %s\n", successStyle.Render("✓"), len(out.Files), out.Dest)
		if out.BackupPath != "" {
			fmt.Fprintln(w, mutedStyle.Render("  previous version saved to "+out.BackupPath))
		}
		fmt.Fprintln(w, mutedStyle.Render("  "+out.Integrity))
	}
}

// consoleApprover renders the pending findings or diff on the terminal
// and asks for an explicit yes before the installer proceeds.
type consoleApprover struct {
	out io.Writer
}

func (a *consoleApprover) Approve(ctx context.Context, p installer.Proposal) (bool, error) {
	var title string
	switch p.Kind {
	case installer.ProposalScanFindings:
		a.renderReport(p.Report)
		title = fmt.Sprintf("Install to %s despite these findings?", p.Dest)
	case installer.ProposalDiffReview:
		a.renderDiff(p.Diff)
		title = fmt.Sprintf("Overwrite %s with these changes?", p.Dest)
	default:
		title = fmt.Sprintf("Proceed with install to %s?", p.Dest)
	}

	confirmed := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

func (a *consoleApprover) renderReport(r *scan.Report) {
	fmt.Fprintln(a.out, headingStyle.Render("Scan findings"))
	for _, f := range r.Findings {
		sev := severityStyle(f.Severity).Render(strings.ToUpper(string(f.Severity)))
		fmt.Fprintf(a.out, "  %s %s:%d %s (%s)\n", sev, f.File, f.Line, f.Description, f.Category)
		if f.MatchedText != "" {
			fmt.Fprintln(a.out, mutedStyle.Render("      "+f.MatchedText))
		}
	}
	s := r.Summary
	fmt.Fprintf(a.out, "  %d critical, %d warning, %d info\n", s.Critical, s.Warning, s.Info)
}

func (a *consoleApprover) renderDiff(d *diff.Result) {
	fmt.Fprintln(a.out, headingStyle.Render("Changes against the installed version"))
	for _, f := range d.Added {
		fmt.Fprintln(a.out, successStyle.Render("  + "+f))
	}
	for _, f := range d.Modified {
		fmt.Fprintln(a.out, warningStyle.Render("  ~ "+f))
	}
	for _, f := range d.Removed {
		fmt.Fprintln(a.out, errorStyle.Render("  - "+f))
	}
}
