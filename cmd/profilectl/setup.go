package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/config"
	"alfredoptarigan/profile-matcher/internal/logger"
	"alfredoptarigan/profile-matcher/internal/services"
	"alfredoptarigan/profile-matcher/internal/skills"
)

type environment struct {
	cfg *config.Config
	log *zap.Logger
}

func loadEnvironment() (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	lg, err := logger.FromLevel(level, cfg.Logging.JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if dictionaryPath != "" {
		cfg.Skills.DictionaryPath = dictionaryPath
	}
	return &environment{cfg: cfg, log: lg}, nil
}

func (e *environment) extractor() (*skills.Extractor, *skills.Dictionary, error) {
	dict, err := skills.Load(e.cfg.Skills.DictionaryPath)
	if err != nil {
		return nil, nil, err
	}
	normalizer := skills.NewNormalizer(dict, skills.WithFuzzyThreshold(e.cfg.Skills.FuzzyThreshold))
	return skills.NewExtractor(normalizer, e.log), dict, nil
}

func (e *environment) cvParser() *services.CVParser {
	return services.NewCVParser(services.NewPDFParserService(e.log), e.log)
}

func (e *environment) vectorStore() (services.QdrantService, error) {
	return services.NewQdrantService(
		e.cfg.Qdrant.URL,
		e.cfg.Qdrant.APIKey,
		e.cfg.Gemini.Dimensions,
		[]services.CollectionSpec{
			services.SkillsCollectionSpec(e.cfg.Qdrant.SkillsCollection),
			services.ExperienceCollectionSpec(e.cfg.Qdrant.ExperienceCollection),
		},
		e.log,
	)
}

// pipeline builds the embedder and Qdrant-backed indexer. The caller closes
// the returned store.
func (e *environment) pipeline(ctx context.Context) (*services.EmbeddingPipeline, services.QdrantService, error) {
	embedder, err := services.NewGeminiService(ctx, e.cfg.Gemini.APIKey, e.cfg.Gemini.EmbeddingModel, e.cfg.Gemini.Dimensions, services.RetryPolicy{
		MaxAttempts: e.cfg.Embedding.MaxRetries,
		BaseDelay:   e.cfg.Embedding.RetryBaseDelay,
		MaxDelay:    e.cfg.Embedding.RetryMaxDelay,
	}, e.log)
	if err != nil {
		return nil, nil, err
	}
	store, err := e.vectorStore()
	if err != nil {
		return nil, nil, err
	}
	p := services.NewEmbeddingPipeline(embedder, store, services.PipelineConfig{
		SkillsCollection:     e.cfg.Qdrant.SkillsCollection,
		ExperienceCollection: e.cfg.Qdrant.ExperienceCollection,
		BatchSize:            e.cfg.Embedding.BatchSize,
	}, e.log)
	return p, store, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	if prettyOutput {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// pdfFiles lists the PDF files under dir, sorted by path.
func pdfFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
