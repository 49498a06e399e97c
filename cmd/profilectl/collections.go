package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var initCollectionsCmd = &cobra.Command{
	Use:   "init-collections",
	Short: "Create the Qdrant collections and payload indexes",
	RunE:  runInitCollections,
}

func init() {
	rootCmd.AddCommand(initCollectionsCmd)
}

func runInitCollections(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	store, err := env.vectorStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := store.EnsureCollections(ctx); err != nil {
		return err
	}

	return writeJSON(os.Stdout, map[string]interface{}{
		"collections": []string{env.cfg.Qdrant.SkillsCollection, env.cfg.Qdrant.ExperienceCollection},
		"status":      "ready",
	})
}
