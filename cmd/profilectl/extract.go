package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/services"
	"alfredoptarigan/profile-matcher/internal/skills"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Parse a CV PDF and print its normalized skills",
	RunE:  runExtract,
}

var analyzeUnknownCmd = &cobra.Command{
	Use:   "analyze-unknown",
	Short: "Report skills that do not resolve against the dictionary",
	Long:  "Parse every PDF under a directory and aggregate the skill mentions the dictionary cannot resolve.",
	RunE:  runAnalyzeUnknown,
}

var (
	extractCVPath string
	extractResID  int64

	analyzeInputDir string
	analyzeFormat   string
	analyzeLimit    int
	analyzeOutFile  string
)

func init() {
	extractCmd.Flags().StringVar(&extractCVPath, "cv", "", "Path to the CV PDF")
	extractCmd.Flags().Int64Var(&extractResID, "res-id", 0, "Resource id (defaults to the file name prefix)")
	_ = extractCmd.MarkFlagRequired("cv")

	analyzeUnknownCmd.Flags().StringVar(&analyzeInputDir, "input-dir", "", "Directory containing CV PDFs")
	analyzeUnknownCmd.Flags().StringVar(&analyzeFormat, "format", "json", "Output format: json, csv or text")
	analyzeUnknownCmd.Flags().IntVar(&analyzeLimit, "limit", 50, "Number of top unknown skills to report (0 for all)")
	analyzeUnknownCmd.Flags().StringVarP(&analyzeOutFile, "out", "o", "", "Write the report to a file instead of stdout")
	_ = analyzeUnknownCmd.MarkFlagRequired("input-dir")

	rootCmd.AddCommand(extractCmd, analyzeUnknownCmd)
}

func runExtract(_ *cobra.Command, _ []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	extractor, _, err := env.extractor()
	if err != nil {
		return err
	}

	resID := extractResID
	if resID == 0 {
		resID, _ = services.ResIDFromFileName(extractCVPath)
	}

	profile, err := env.cvParser().ParseFile(extractCVPath, filepath.Base(extractCVPath), resID)
	if err != nil {
		return err
	}
	result := extractor.Extract(profile)

	return writeJSON(os.Stdout, map[string]interface{}{
		"metadata":           profile.Metadata,
		"normalized_skills":  result.NormalizedSkills,
		"unknown_skills":     result.UnknownSkills,
		"dictionary_version": result.DictionaryVersion,
		"stats":              result.Stats(),
	})
}

func runAnalyzeUnknown(_ *cobra.Command, _ []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	extractor, _, err := env.extractor()
	if err != nil {
		return err
	}

	files, err := pdfFiles(analyzeInputDir)
	if err != nil {
		return err
	}

	parser := env.cvParser()
	collector := skills.NewUnknownCollector()
	for _, path := range files {
		profile, err := parser.ParseFile(path, filepath.Base(path), 0)
		if err != nil {
			env.log.Warn("skipping CV", zap.String("file", path), zap.Error(err))
			collector.AddFailure(services.BuildCVID(path))
			continue
		}
		collector.Add(extractor.Extract(profile))
	}

	var out io.Writer = os.Stdout
	if analyzeOutFile != "" {
		f, err := os.Create(analyzeOutFile)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", analyzeOutFile, err)
		}
		defer f.Close()
		out = f
	}

	report := collector.Report(analyzeLimit)
	switch analyzeFormat {
	case "json":
		return writeJSON(out, report)
	case "csv":
		return report.WriteCSV(out)
	case "text":
		return report.WriteText(out)
	default:
		return fmt.Errorf("unknown format %q, expected json, csv or text", analyzeFormat)
	}
}
