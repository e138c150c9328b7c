package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Version is the semantic version, overridden at build time via ldflags.
var Version = "dev"

var (
	flagVerbose bool
	flagToken   string

	// logger is shared by all subcommands; PersistentPreRun raises its
	// level when --verbose is set.
	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "spkg"})
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "spkg",
		Short: "Skill package installer",
		Long:  "spkg fetches skill packages from repository trees, scans them for malicious content, and installs them into local skill directories.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagVerbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&flagToken, "token", "", "API token for authenticated requests")

	root.AddCommand(newInstallCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newConfigCmd())

	return root
}

func Execute() {
	err := fang.Execute(
		context.Background(),
		NewRootCmd(),
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
