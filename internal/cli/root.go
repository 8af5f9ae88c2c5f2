// Package cli implements the PersonalFit command-line interface using
// Cobra. Each subcommand maps to a daemon capability (serve, stats,
// challenges, adherence, analyze).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "personalfit",
	Short: "PersonalFit — fitness gamification and medication analytics",
	Long: `PersonalFit is a local-first fitness engagement engine.
It tracks workout streaks, XP and achievements, serves daily challenges,
and analyzes medication adherence against body metrics.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
