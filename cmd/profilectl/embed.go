package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/models"
	"alfredoptarigan/profile-matcher/internal/services"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed and index one CV PDF into Qdrant",
	RunE:  runEmbed,
}

var embedBatchCmd = &cobra.Command{
	Use:   "embed-batch",
	Short: "Embed and index every CV PDF under a directory",
	Long:  "Embed and index every CV PDF under a directory. The resource id is read from the numeric file name prefix; files without one are reported as failures.",
	RunE:  runEmbedBatch,
}

var (
	embedCVPath string
	embedResID  int64
	embedDryRun bool

	batchInputDir string
	batchDryRun   bool
)

func init() {
	embedCmd.Flags().StringVar(&embedCVPath, "cv", "", "Path to the CV PDF")
	embedCmd.Flags().Int64Var(&embedResID, "res-id", 0, "Resource id (defaults to the file name prefix)")
	embedCmd.Flags().BoolVar(&embedDryRun, "dry-run", false, "Compute embeddings without writing to Qdrant")
	_ = embedCmd.MarkFlagRequired("cv")

	embedBatchCmd.Flags().StringVar(&batchInputDir, "input-dir", "", "Directory containing CV PDFs")
	embedBatchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "Compute embeddings without writing to Qdrant")
	_ = embedBatchCmd.MarkFlagRequired("input-dir")

	rootCmd.AddCommand(embedCmd, embedBatchCmd)
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	resID := embedResID
	if resID == 0 {
		var ok bool
		if resID, ok = services.ResIDFromFileName(embedCVPath); !ok {
			return fmt.Errorf("no res_id prefix in %s, pass --res-id", filepath.Base(embedCVPath))
		}
	}

	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	extractor, _, err := env.extractor()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pipeline, store, err := env.pipeline(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if !embedDryRun {
		if err := store.EnsureCollections(ctx); err != nil {
			return err
		}
	}

	profile, err := env.cvParser().ParseFile(embedCVPath, filepath.Base(embedCVPath), resID)
	if err != nil {
		return err
	}
	counts, err := services.IndexProfile(ctx, extractor, pipeline, profile, embedDryRun)
	if err != nil {
		return err
	}

	return writeJSON(os.Stdout, map[string]interface{}{
		"cv_id":   profile.Metadata.CVID,
		"res_id":  resID,
		"dry_run": embedDryRun,
		"points":  counts,
	})
}

func runEmbedBatch(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	extractor, _, err := env.extractor()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pipeline, store, err := env.pipeline(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if !batchDryRun {
		if err := store.EnsureCollections(ctx); err != nil {
			return err
		}
	}

	files, err := pdfFiles(batchInputDir)
	if err != nil {
		return err
	}

	parser := env.cvParser()
	summary := models.JobSummary{DryRun: batchDryRun}
	for _, path := range files {
		name := filepath.Base(path)
		fail := func(err error) {
			env.log.Warn("failed to index CV", zap.String("file", name), zap.Error(err))
			summary.Failed++
			summary.Errors = append(summary.Errors, models.JobItemError{File: name, Error: err.Error()})
		}

		resID, ok := services.ResIDFromFileName(name)
		if !ok {
			fail(fmt.Errorf("no res_id prefix in file name"))
			continue
		}
		profile, err := parser.ParseFile(path, name, resID)
		if err != nil {
			fail(err)
			continue
		}
		counts, err := services.IndexProfile(ctx, extractor, pipeline, profile, batchDryRun)
		if err != nil {
			fail(err)
			continue
		}
		summary.Processed++
		summary.AddPoints(counts.Skills, counts.Experiences)
	}

	return writeJSON(os.Stdout, summary)
}
