package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ybj/termfolio/internal/content"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check a portfolio fixture",
	Long: `Load a portfolio fixture and report every problem found in it.

Without a path the configured content.path is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := cfg.Content.Path
	if len(args) == 1 {
		path = args[0]
	}

	p, err := content.Load(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := p.Validate(); err != nil {
		var problems content.Problems
		if errors.As(err, &problems) {
			for _, pr := range problems {
				fmt.Fprintf(out, "  %s\n", pr)
			}
			return fmt.Errorf("%s: %d problems", path, len(problems))
		}
		return err
	}

	fmt.Fprintf(out, "%s: ok (%d skills, %d projects, %d multimedia)\n",
		path, len(p.Skills), len(p.Projects), len(p.Multimedia))
	return nil
}
