package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"alfredoptarigan/profile-matcher/internal/skills"
)

var validateDictionaryCmd = &cobra.Command{
	Use:   "validate-dictionary",
	Short: "Validate the skill dictionary YAML",
	RunE:  runValidateDictionary,
}

func init() {
	rootCmd.AddCommand(validateDictionaryCmd)
}

func runValidateDictionary(_ *cobra.Command, _ []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	dict, err := skills.Load(env.cfg.Skills.DictionaryPath)
	if err != nil {
		return fmt.Errorf("dictionary %s is invalid: %w", env.cfg.Skills.DictionaryPath, err)
	}

	return writeJSON(os.Stdout, map[string]interface{}{
		"path":            env.cfg.Skills.DictionaryPath,
		"version":         dict.Version(),
		"domains":         dict.Domains(),
		"canonical_count": dict.CanonicalCount(),
		"alias_count":     dict.AliasCount(),
	})
}
