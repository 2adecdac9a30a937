package commands

import (
	"github.com/spf13/cobra"
)

var (
	// transportFlag overrides GRIPPY_TRANSPORT when set explicitly on
	// the command line.
	transportFlag string

	// verboseFlag enables debug-level logging.
	verboseFlag bool
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "grippy",
	Short: "AI-assisted pull-request review pipeline",
	Long: `grippy runs inside a CI job against a single pull-request event.

It fetches the PR diff, invokes a structured-output LLM review, persists
the review as a typed graph alongside a vector-indexed codebase, posts
inline comments plus a summary dashboard on the PR, and resolves findings
across successive commits on the same PR.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI, returning any error from the selected
// subcommand.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&transportFlag, "transport", "",
		"Agent transport to use: http or local (default: resolved from environment)",
	)
	rootCmd.PersistentFlags().BoolVar(
		&verboseFlag, "verbose", false,
		"Enable debug-level logging",
	)

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(versionCmd)
}
