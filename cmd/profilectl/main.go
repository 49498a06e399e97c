// Package main provides profilectl, the maintenance CLI for the profile
// matcher: dictionary checks, offline extraction and bulk indexing.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "profilectl",
	Short:         "Profile matcher maintenance CLI",
	Long:          "profilectl validates the skill dictionary, extracts skills from CVs, indexes CVs into Qdrant and loads availability exports into Redis.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	dictionaryPath string
	logLevel       string
	prettyOutput   bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dictionaryPath, "dictionary", "", "Path to the skill dictionary YAML (defaults to SKILLS_DICTIONARY_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (defaults to LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&prettyOutput, "pretty", false, "Pretty-print JSON output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
