package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/skillpkg/skillpkg/pkg/skill"
)

func newShowCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <path>",
		Short: "Show an installed skill's metadata and instructions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := skill.Load(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, headingStyle.Render(s.Name))
			fmt.Fprintln(w, mutedStyle.Render(s.Description))
			if s.License != "" {
				fmt.Fprintln(w, mutedStyle.Render("license: "+s.License))
			}
			if s.AllowedTools != "" {
				fmt.Fprintln(w, mutedStyle.Render("allowed-tools: "+s.AllowedTools))
			}
			fmt.Fprintln(w)

			if raw {
				fmt.Fprintln(w, s.Body())
				return nil
			}

			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(100),
			)
			if err != nil {
				return fmt.Errorf("building renderer: %w", err)
			}
			rendered, err := r.Render(s.Body())
			if err != nil {
				return fmt.Errorf("rendering %s: %w", skill.SkillFileName, err)
			}
			fmt.Fprint(w, rendered)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the raw markdown body without rendering")
	return cmd
}
