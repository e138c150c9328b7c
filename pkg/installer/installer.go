// Package installer orchestrates a skill install: fetch into a scratch
// directory, validate, scan, diff against any existing version, then
// commit. The destination is never touched before the commit step.
package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/skillpkg/skillpkg/pkg/diff"
	"github.com/skillpkg/skillpkg/pkg/scan"
	"github.com/skillpkg/skillpkg/pkg/skill"
	"github.com/skillpkg/skillpkg/pkg/source"
	"github.com/skillpkg/skillpkg/pkg/validate"
	"github.com/skillpkg/skillpkg/pkg/workspace"
)

// Status summarizes how a run ended.
type Status string

const (
	StatusInstalled Status = "installed"
	StatusNoChange  Status = "no-change"
	StatusDeclined  Status = "declined"
	StatusDryRun    Status = "dry-run"
)

var (
	ErrEmptyPackage      = errors.New("package contains no files")
	ErrUnsafeDestination = errors.New("destination looks like a skills container directory")
	ErrApprovalRequired  = errors.New("confirmation required but no approver is available")
)

// ValidationError reports structural problems that block an install.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d problem(s):\n  %s",
		len(e.Problems), strings.Join(e.Problems, "\n  "))
}

// ThreatError blocks a non-interactive install whose scan found
// warning or critical findings.
type ThreatError struct {
	Report *scan.Report
}

func (e *ThreatError) Error() string {
	s := e.Report.Summary
	return fmt.Sprintf("scan found %d critical, %d warning, %d info finding(s); rerun with --force to override",
		s.Critical, s.Warning, s.Info)
}

// CommitError means the commit step failed and the destination may need
// inspection even though a backup restore was attempted.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string { return fmt.Sprintf("committing install: %v", e.Err) }
func (e *CommitError) Unwrap() error { return e.Err }

type ProposalKind string

const (
	ProposalScanFindings ProposalKind = "scan-findings"
	ProposalDiffReview   ProposalKind = "diff-review"
)

// Proposal is a pause point that needs a yes or no before the install
// continues.
type Proposal struct {
	Kind   ProposalKind
	Dest   string
	Report *scan.Report
	Diff   *diff.Result
}

// Approver answers proposals. The CLI asks the user on a terminal;
// non-interactive runs have none and proposals fail closed.
type Approver interface {
	Approve(ctx context.Context, p Proposal) (bool, error)
}

type Options struct {
	URL      string
	Dest     string
	MaxDepth int
	Force    bool
	DryRun   bool
	SkipScan bool
	NoBackup bool
}

type Outcome struct {
	Status     Status
	Location   source.Location
	Dest       string
	Files      []string
	Report     *scan.Report
	Diff       *diff.Result
	Integrity  string
	Warnings   []string
	BackupPath string
}

type Installer struct {
	Client   *source.Client
	Approver Approver
	Logger   *log.Logger
}

func (inst *Installer) logger() *log.Logger {
	if inst.Logger != nil {
		return inst.Logger
	}
	return log.Default()
}

// Run executes one install end to end.
func (inst *Installer) Run(ctx context.Context, opts Options) (*Outcome, error) {
	loc, err := source.ParseTreeURL(opts.URL)
	if err != nil {
		return nil, err
	}

	dest := opts.Dest
	if dest == "" {
		dest = loc.SkillName()
	}
	out := &Outcome{Location: loc, Dest: dest}
	logger := inst.logger()

	if opts.DryRun {
		entries, err := inst.Client.ListDirectory(ctx, loc)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			name := e.Name
			if e.Type == "dir" {
				name += "/"
			}
			out.Files = append(out.Files, name)
		}
		out.Status = StatusDryRun
		return out, nil
	}

	scratch, err := workspace.NewScratch()
	if err != nil {
		return nil, err
	}
	defer scratch.Cleanup()

	logger.Debug("downloading tree", "url", loc.String(), "scratch", scratch.Root())
	files, err := inst.Client.DownloadTree(ctx, loc, scratch.Root(), opts.MaxDepth)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", loc.String(), err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", loc.String(), ErrEmptyPackage)
	}
	out.Files = files

	problems, err := validate.Tree(ctx, scratch.Root())
	if err != nil {
		return nil, fmt.Errorf("validating tree: %w", err)
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	// Metadata issues advise but never block.
	if s, err := skill.Load(scratch.Root()); err == nil {
		if verr := s.Validate(); verr != nil {
			out.Warnings = append(out.Warnings, strings.Split(verr.Error(), "\n")...)
		}
	}

	if opts.SkipScan {
		logger.Warn("threat scan skipped", "url", loc.String())
	} else {
		report, err := scan.Scan(scratch.Root())
		if err != nil {
			return nil, fmt.Errorf("scanning tree: %w", err)
		}
		report.SkillPath = loc.String()
		out.Report = report

		if d := report.Decision(); d == scan.DecisionBlock || d == scan.DecisionCaution {
			if opts.Force {
				logger.Warn("proceeding despite scan findings",
					"critical", report.Summary.Critical,
					"warning", report.Summary.Warning,
					"info", report.Summary.Info)
			} else {
				ok, err := inst.approve(ctx, Proposal{Kind: ProposalScanFindings, Dest: dest, Report: report})
				if err != nil {
					return nil, err
				}
				if !ok {
					out.Status = StatusDeclined
					return out, nil
				}
			}
		}
	}

	destExists := false
	if _, err := os.Stat(dest); err == nil {
		destExists = true
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking %s: %w", dest, err)
	}

	if err := guardContainerDir(dest, destExists, opts.Force); err != nil {
		return nil, err
	}

	if destExists {
		d, err := diff.Compare(scratch.Root(), dest)
		if err != nil {
			return nil, err
		}
		out.Diff = d
		if d.Identical {
			out.Status = StatusNoChange
			return out, nil
		}
		if !opts.Force {
			ok, err := inst.approve(ctx, Proposal{Kind: ProposalDiffReview, Dest: dest, Diff: d})
			if err != nil {
				return nil, err
			}
			if !ok {
				out.Status = StatusDeclined
				return out, nil
			}
		}
	}

	if err := inst.commit(scratch.Root(), dest, destExists, opts.NoBackup, out); err != nil {
		return nil, err
	}

	integrity, err := diff.TreeHash(dest)
	if err != nil {
		return nil, fmt.Errorf("hashing installed tree: %w", err)
	}
	out.Integrity = integrity
	out.Status = StatusInstalled
	logger.Debug("installed", "dest", dest, "files", len(files), "integrity", integrity)
	return out, nil
}

func (inst *Installer) approve(ctx context.Context, p Proposal) (bool, error) {
	if inst.Approver == nil {
		if p.Kind == ProposalScanFindings {
			return false, &ThreatError{Report: p.Report}
		}
		return false, fmt.Errorf("overwriting %s: %w", p.Dest, ErrApprovalRequired)
	}
	return inst.Approver.Approve(ctx, p)
}

// guardContainerDir refuses to replace a directory that holds other
// skills rather than being one. A directory is a skill when it carries
// its own SKILL.md; it is a container when an immediate child does.
func guardContainerDir(dest string, destExists, force bool) error {
	if !destExists || force {
		return nil
	}
	if _, err := os.Stat(filepath.Join(dest, skill.SkillFileName)); err == nil {
		return nil
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dest, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dest, e.Name(), skill.SkillFileName)); err == nil {
			return fmt.Errorf("%s: %w; install into a subdirectory or pass --force", dest, ErrUnsafeDestination)
		}
	}
	return nil
}

// commit replaces dest with the staged tree. The old version is kept as
// a .bak sibling and restored if the move fails.
func (inst *Installer) commit(staged, dest string, destExists, noBackup bool, out *Outcome) error {
	backup := dest + ".bak"
	if destExists {
		if noBackup {
			if err := os.RemoveAll(dest); err != nil {
				return &CommitError{Err: err}
			}
		} else {
			if err := os.RemoveAll(backup); err != nil {
				return &CommitError{Err: err}
			}
			if err := os.Rename(dest, backup); err != nil {
				return &CommitError{Err: err}
			}
			out.BackupPath = backup
		}
	}

	if err := workspace.Move(staged, dest); err != nil {
		if out.BackupPath != "" {
			os.RemoveAll(dest)
			if rerr := os.Rename(backup, dest); rerr != nil {
				inst.logger().Error("restoring backup failed", "backup", backup, "err", rerr)
			} else {
				out.BackupPath = ""
			}
		}
		return &CommitError{Err: err}
	}

	// MkdirTemp created the staged tree with mode 0700.
	if err := os.Chmod(dest, 0o755); err != nil {
		return &CommitError{Err: err}
	}
	return nil
}
