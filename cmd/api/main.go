package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/config"
	"alfredoptarigan/profile-matcher/internal/handlers"
	"alfredoptarigan/profile-matcher/internal/logger"
	"alfredoptarigan/profile-matcher/internal/repositories"
	"alfredoptarigan/profile-matcher/internal/services"
	"alfredoptarigan/profile-matcher/internal/skills"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.FromLevel(cfg.Logging.Level, cfg.Logging.JSON)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx := context.Background()

	db, err := config.InitDatabase(cfg, lg)
	if err != nil {
		lg.Fatal("failed to initialize database", zap.Error(err))
	}

	docRepo := repositories.NewDocumentRepository(db)
	jobRepo := repositories.NewEmbeddingJobRepository(db)

	storageService := services.NewStorageService(cfg.Storage.UploadPath, lg)
	if err := storageService.EnsureUploadDir(); err != nil {
		lg.Fatal("failed to create upload directory", zap.Error(err))
	}

	dict, err := skills.Load(cfg.Skills.DictionaryPath)
	if err != nil {
		lg.Fatal("failed to load skill dictionary", zap.String("path", cfg.Skills.DictionaryPath), zap.Error(err))
	}
	lg.Info("skill dictionary loaded",
		zap.String("version", dict.Version()),
		zap.Int("skills", dict.CanonicalCount()),
		zap.Int("aliases", dict.AliasCount()),
	)

	normalizer := skills.NewNormalizer(dict, skills.WithFuzzyThreshold(cfg.Skills.FuzzyThreshold))
	extractor := skills.NewExtractor(normalizer, lg)
	cvParser := services.NewCVParser(services.NewPDFParserService(lg), lg)

	retry := services.RetryPolicy{
		MaxAttempts: cfg.Embedding.MaxRetries,
		BaseDelay:   cfg.Embedding.RetryBaseDelay,
		MaxDelay:    cfg.Embedding.RetryMaxDelay,
	}

	embedder, err := services.NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.EmbeddingModel, cfg.Gemini.Dimensions, retry, lg)
	if err != nil {
		lg.Fatal("failed to initialize embedder", zap.Error(err))
	}
	lg.Info("embedder ready", zap.String("model", embedder.Model()), zap.Int("dimensions", cfg.Gemini.Dimensions))

	store, err := services.NewQdrantService(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Gemini.Dimensions,
		[]services.CollectionSpec{
			services.SkillsCollectionSpec(cfg.Qdrant.SkillsCollection),
			services.ExperienceCollectionSpec(cfg.Qdrant.ExperienceCollection),
		},
		lg,
	)
	if err != nil {
		lg.Fatal("failed to initialize Qdrant", zap.Error(err))
	}
	defer store.Close()

	if err := store.EnsureCollections(ctx); err != nil {
		lg.Fatal("failed to initialize Qdrant collections", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	availabilityCache := services.NewAvailabilityCache(redisClient, cfg.Availability.KeyPrefix, cfg.Availability.TTL, lg)
	availabilityService := services.NewAvailabilityService(availabilityCache, services.NewAvailabilityLoader(lg), lg)

	pipeline := services.NewEmbeddingPipeline(embedder, store, services.PipelineConfig{
		SkillsCollection:     cfg.Qdrant.SkillsCollection,
		ExperienceCollection: cfg.Qdrant.ExperienceCollection,
		BatchSize:            cfg.Embedding.BatchSize,
	}, lg)

	searchService := services.NewSkillSearchService(
		normalizer,
		embedder,
		store,
		availabilityService,
		cfg.Qdrant.SkillsCollection,
		services.ScoreWeights{Similarity: cfg.Search.SimilarityWeight, Match: cfg.Search.MatchWeight},
		lg,
	)

	jobService := services.NewEmbeddingJobService(
		jobRepo,
		docRepo,
		cvParser,
		extractor,
		pipeline,
		services.RetryPolicy{
			MaxAttempts: cfg.Worker.RetryMaxAttempts,
			BaseDelay:   cfg.Worker.RetryInitialDelay,
			MaxDelay:    cfg.Embedding.RetryMaxDelay,
		},
		cfg.Embedding.JobBatchSize,
		lg,
	)

	worker, err := services.NewWorker(jobRepo, jobService, cfg.Worker.Concurrency, cfg.Worker.PollInterval, lg)
	if err != nil {
		lg.Fatal("failed to initialize worker", zap.Error(err))
	}
	worker.Start(ctx)

	uploadHandler := handlers.NewUploadHandler(docRepo, storageService, cfg.Storage.MaxFileSize, lg)
	skillsHandler := handlers.NewSkillsHandler(extractor, dict)
	searchHandler := handlers.NewSearchHandler(searchService, cfg.Search.DefaultLimit)
	embeddingHandler := handlers.NewEmbeddingHandler(jobService, worker)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService, cfg.Availability.CSVPath)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"qdrant": store.Health,
		"redis":  availabilityCache.Ping,
	}, 3*time.Second, lg)

	app := fiber.New(fiber.Config{
		AppName:      "Profile Matcher API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")
	api.Get("/health", healthHandler.HandleHealth)

	api.Post("/upload", uploadHandler.HandleUpload)

	api.Get("/skills/dictionary", skillsHandler.HandleDictionary)
	api.Post("/skills/extract", skillsHandler.HandleExtract)

	api.Post("/search/skills", searchHandler.HandleSearch)

	api.Post("/embeddings/trigger", embeddingHandler.HandleTriggerAll)
	api.Post("/embeddings/trigger/batch", embeddingHandler.HandleTriggerBatch)
	api.Post("/embeddings/trigger/:res_id", embeddingHandler.HandleTriggerResource)
	api.Post("/embeddings/documents/:id", embeddingHandler.HandleTriggerDocument)
	api.Get("/embeddings/status/:id", embeddingHandler.HandleStatus)
	api.Get("/embeddings/stats", embeddingHandler.HandleStats)

	api.Get("/availability/stats", availabilityHandler.HandleStats)
	api.Post("/availability/bulk", availabilityHandler.HandleBulk)
	api.Post("/availability/refresh", availabilityHandler.HandleRefresh)
	api.Get("/availability/:res_id", availabilityHandler.HandleGet)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Profile Matcher API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/upload",
				"POST /api/v1/skills/extract",
				"POST /api/v1/search/skills",
				"POST /api/v1/embeddings/trigger",
				"GET /api/v1/embeddings/status/:id",
				"GET /api/v1/availability/:res_id",
			},
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		lg.Info("shutting down server")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			lg.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	lg.Info("server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		lg.Fatal("failed to start server", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
