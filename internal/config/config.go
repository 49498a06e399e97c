package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Qdrant       QdrantConfig
	Gemini       GeminiConfig
	Redis        RedisConfig
	Availability AvailabilityConfig
	Skills       SkillsConfig
	Embedding    EmbeddingConfig
	Search       SearchConfig
	Storage      StorageConfig
	Worker       WorkerConfig
	Logging      LoggingConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type QdrantConfig struct {
	URL                  string
	APIKey               string
	SkillsCollection     string
	ExperienceCollection string
}

type GeminiConfig struct {
	APIKey         string
	EmbeddingModel string
	Dimensions     int
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type AvailabilityConfig struct {
	TTL       time.Duration
	KeyPrefix string
	CSVPath   string
}

type SkillsConfig struct {
	DictionaryPath string
	FuzzyThreshold int
}

type EmbeddingConfig struct {
	BatchSize      int
	JobBatchSize   int
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

type SearchConfig struct {
	SimilarityWeight float64
	MatchWeight      float64
	DefaultLimit     int
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

type WorkerConfig struct {
	Concurrency       int
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
	PollInterval      time.Duration
}

type LoggingConfig struct {
	Level string
	JSON  bool
}

var defaults = map[string]interface{}{
	"PORT": "3000",
	"ENV":  "development",

	"DB_HOST":     "localhost",
	"DB_PORT":     "5432",
	"DB_USER":     "postgres",
	"DB_PASSWORD": "postgres",
	"DB_NAME":     "profile_matcher",
	"DB_SSLMODE":  "disable",

	"DB_MAX_OPEN_CONNS":    10,
	"DB_MAX_IDLE_CONNS":    5,
	"DB_CONN_MAX_LIFETIME": "30m",

	"QDRANT_URL":                   "http://localhost:6334",
	"QDRANT_API_KEY":               "",
	"QDRANT_SKILLS_COLLECTION":     "cv_skills",
	"QDRANT_EXPERIENCE_COLLECTION": "cv_experiences",

	"GEMINI_API_KEY":         "",
	"GEMINI_EMBEDDING_MODEL": "text-embedding-004",
	"EMBEDDING_DIMENSIONS":   768,

	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"AVAILABILITY_TTL":        "1h",
	"AVAILABILITY_KEY_PREFIX": "profilebot:availability",
	"AVAILABILITY_CSV_PATH":   "./data/availability.csv",

	"SKILLS_DICTIONARY_PATH": "./data/skills_dictionary.yaml",
	"SKILLS_FUZZY_THRESHOLD": 85,

	"EMBEDDING_BATCH_SIZE":       100,
	"EMBEDDING_JOB_BATCH_SIZE":   500,
	"EMBEDDING_MAX_RETRIES":      3,
	"EMBEDDING_RETRY_BASE_DELAY": "1s",
	"EMBEDDING_RETRY_MAX_DELAY":  "10s",

	"SEARCH_SIMILARITY_WEIGHT": 0.7,
	"SEARCH_MATCH_WEIGHT":      0.3,
	"SEARCH_DEFAULT_LIMIT":     10,

	"UPLOAD_PATH":   "./uploads",
	"MAX_FILE_SIZE": 10485760,

	"WORKER_CONCURRENCY":   3,
	"RETRY_MAX_ATTEMPTS":   3,
	"RETRY_INITIAL_DELAY":  "2s",
	"WORKER_POLL_INTERVAL": "10s",

	"LOG_LEVEL": "info",
	"LOG_JSON":  false,
}

// Load reads .env, an optional YAML file named by CONFIG_FILE, and the process
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment and defaults.")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Qdrant: QdrantConfig{
			URL:                  v.GetString("QDRANT_URL"),
			APIKey:               v.GetString("QDRANT_API_KEY"),
			SkillsCollection:     v.GetString("QDRANT_SKILLS_COLLECTION"),
			ExperienceCollection: v.GetString("QDRANT_EXPERIENCE_COLLECTION"),
		},
		Gemini: GeminiConfig{
			APIKey:         v.GetString("GEMINI_API_KEY"),
			EmbeddingModel: v.GetString("GEMINI_EMBEDDING_MODEL"),
			Dimensions:     v.GetInt("EMBEDDING_DIMENSIONS"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Availability: AvailabilityConfig{
			TTL:       v.GetDuration("AVAILABILITY_TTL"),
			KeyPrefix: v.GetString("AVAILABILITY_KEY_PREFIX"),
			CSVPath:   v.GetString("AVAILABILITY_CSV_PATH"),
		},
		Skills: SkillsConfig{
			DictionaryPath: v.GetString("SKILLS_DICTIONARY_PATH"),
			FuzzyThreshold: v.GetInt("SKILLS_FUZZY_THRESHOLD"),
		},
		Embedding: EmbeddingConfig{
			BatchSize:      v.GetInt("EMBEDDING_BATCH_SIZE"),
			JobBatchSize:   v.GetInt("EMBEDDING_JOB_BATCH_SIZE"),
			MaxRetries:     v.GetInt("EMBEDDING_MAX_RETRIES"),
			RetryBaseDelay: v.GetDuration("EMBEDDING_RETRY_BASE_DELAY"),
			RetryMaxDelay:  v.GetDuration("EMBEDDING_RETRY_MAX_DELAY"),
		},
		Search: SearchConfig{
			SimilarityWeight: v.GetFloat64("SEARCH_SIMILARITY_WEIGHT"),
			MatchWeight:      v.GetFloat64("SEARCH_MATCH_WEIGHT"),
			DefaultLimit:     v.GetInt("SEARCH_DEFAULT_LIMIT"),
		},
		Storage: StorageConfig{
			UploadPath:  v.GetString("UPLOAD_PATH"),
			MaxFileSize: v.GetInt64("MAX_FILE_SIZE"),
		},
		Worker: WorkerConfig{
			Concurrency:       v.GetInt("WORKER_CONCURRENCY"),
			RetryMaxAttempts:  v.GetInt("RETRY_MAX_ATTEMPTS"),
			RetryInitialDelay: v.GetDuration("RETRY_INITIAL_DELAY"),
			PollInterval:      v.GetDuration("WORKER_POLL_INTERVAL"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			JSON:  v.GetBool("LOG_JSON"),
		},
	}
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Embedding.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("EMBEDDING_BATCH_SIZE must be >= 1, got %d", c.Embedding.BatchSize))
	}
	if c.Embedding.JobBatchSize < 1 {
		errs = append(errs, fmt.Errorf("EMBEDDING_JOB_BATCH_SIZE must be >= 1, got %d", c.Embedding.JobBatchSize))
	}
	if c.Embedding.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("EMBEDDING_MAX_RETRIES must be >= 1, got %d", c.Embedding.MaxRetries))
	}
	if c.Gemini.Dimensions < 1 {
		errs = append(errs, fmt.Errorf("EMBEDDING_DIMENSIONS must be >= 1, got %d", c.Gemini.Dimensions))
	}
	if c.Search.SimilarityWeight < 0 || c.Search.MatchWeight < 0 {
		errs = append(errs, errors.New("search weights must be non-negative"))
	}
	if c.Skills.FuzzyThreshold < 0 || c.Skills.FuzzyThreshold > 100 {
		errs = append(errs, fmt.Errorf("SKILLS_FUZZY_THRESHOLD must be within [0,100], got %d", c.Skills.FuzzyThreshold))
	}
	if c.Worker.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("WORKER_CONCURRENCY must be >= 1, got %d", c.Worker.Concurrency))
	}

	return errors.Join(errs...)
}

func (c *Config) GetDatabaseDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		sslMode,
	)
}
