package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cv_skills", cfg.Qdrant.SkillsCollection)
	assert.Equal(t, "cv_experiences", cfg.Qdrant.ExperienceCollection)
	assert.Equal(t, 100, cfg.Embedding.BatchSize)
	assert.Equal(t, 3, cfg.Embedding.MaxRetries)
	assert.Equal(t, time.Second, cfg.Embedding.RetryBaseDelay)
	assert.Equal(t, 0.7, cfg.Search.SimilarityWeight)
	assert.Equal(t, 0.3, cfg.Search.MatchWeight)
	assert.Equal(t, 85, cfg.Skills.FuzzyThreshold)
	assert.Equal(t, "profilebot:availability", cfg.Availability.KeyPrefix)
	assert.Equal(t, time.Hour, cfg.Availability.TTL)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("EMBEDDING_BATCH_SIZE", "25")
	t.Setenv("SEARCH_SIMILARITY_WEIGHT", "0.5")
	t.Setenv("AVAILABILITY_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Embedding.BatchSize)
	assert.Equal(t, 0.5, cfg.Search.SimilarityWeight)
	assert.Equal(t, 30*time.Minute, cfg.Availability.TTL)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("SKILLS_DICTIONARY_PATH: /etc/skills.yaml\nWORKER_CONCURRENCY: 7\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/etc/skills.yaml", cfg.Skills.DictionaryPath)
	assert.Equal(t, 7, cfg.Worker.Concurrency)
}

func TestLoad_RejectsInvalidBatchSize(t *testing.T) {
	t.Setenv("EMBEDDING_BATCH_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMBEDDING_BATCH_SIZE")
}

func TestValidate_NegativeWeights(t *testing.T) {
	cfg := &Config{
		Embedding: EmbeddingConfig{BatchSize: 1, JobBatchSize: 1, MaxRetries: 1},
		Gemini:    GeminiConfig{Dimensions: 768},
		Search:    SearchConfig{SimilarityWeight: -1, MatchWeight: 0.3},
		Skills:    SkillsConfig{FuzzyThreshold: 85},
		Worker:    WorkerConfig{Concurrency: 1},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-negative")
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: "5433", User: "u", Password: "p", DBName: "n"}}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", cfg.GetDatabaseDSN())
}

func TestGetDatabaseDSN_SSLMode(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "require"}}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=require", cfg.GetDatabaseDSN())
}

type recordingPool struct {
	maxOpen, maxIdle int
	lifetime         time.Duration
}

func (p *recordingPool) SetMaxOpenConns(n int)              { p.maxOpen = n }
func (p *recordingPool) SetMaxIdleConns(n int)              { p.maxIdle = n }
func (p *recordingPool) SetConnMaxLifetime(d time.Duration) { p.lifetime = d }

func TestApplyPoolSettings(t *testing.T) {
	pool := &recordingPool{maxOpen: -1, maxIdle: -1}
	ApplyPoolSettings(pool, DatabaseConfig{MaxOpenConns: 12, ConnMaxLifetime: time.Minute})

	assert.Equal(t, 12, pool.maxOpen)
	assert.Equal(t, -1, pool.maxIdle, "zero limits leave the pool default")
	assert.Equal(t, time.Minute, pool.lifetime)
}
