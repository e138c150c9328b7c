package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skillpkg/skillpkg/pkg/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage spkg configuration",
	}
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Writes a config file seeded from the currently resolved settings. The
global ~/.spkg/config.toml is created by default; --local writes
spkg.local.toml in the working directory instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagToken, 0)
			if err != nil {
				return err
			}

			var path string
			if local {
				path, err = config.WriteLocal(".", cfg)
			} else {
				path, err = config.WriteGlobal(cfg)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓")+" wrote "+path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "write spkg.local.toml in the working directory")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagToken, 0)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "token:     "+redactToken(cfg.Token))
			fmt.Fprintf(w, "max_depth: %d\n", cfg.MaxDepth)
			return nil
		},
	}
}

// redactToken keeps just enough of a token to recognize which one is set.
func redactToken(tok string) string {
	if tok == "" {
		return "(unset)"
	}
	if len(tok) <= 8 {
		return strings.Repeat("*", len(tok))
	}
	return tok[:4] + strings.Repeat("*", 4) + tok[len(tok)-4:]
}
