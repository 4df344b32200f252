package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"adfactory/internal/adapter/repo"
	"adfactory/internal/domain"
	"adfactory/internal/http/handlers"
	"adfactory/internal/http/httpapi"
	"adfactory/internal/infra"
	"adfactory/internal/media"
	"adfactory/internal/pipeline"
	imageprovider "adfactory/internal/providers/image"
	"adfactory/internal/providers/llm"
	videoprovider "adfactory/internal/providers/video"
	"adfactory/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeCfg, err := pipeline.LoadConfig(cfg.PipelineConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: pipeline config failed")
	}

	fileStore, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: storage setup failed")
	}

	// Jobs land in Postgres when configured, so a worker fleet can drain
	// them. Without a database the API runs everything in-process.
	var jobs domain.JobStore
	var launch func(job *domain.Job)
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: db connection failed")
		}
		defer pool.Close()
		pg, err := repo.NewJobStorePG(ctx, pool)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: job store setup failed")
		}
		jobs = pg
	} else {
		jobs = repo.NewJobStoreMemory()
		pipe, err := buildPipeline(cfg, pipeCfg, logger, fileStore, jobs)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: pipeline setup failed")
		}
		launch = func(job *domain.Job) {
			go func() {
				if err := pipe.Run(context.Background(), job); err != nil {
					logger.Error().Err(err).Str("job_id", job.ID).Msg("api: pipeline run failed")
				}
			}()
		}
		logger.Info().Msg("api: no DATABASE_URL, running jobs in-process")
	}

	app := &handlers.App{Log: logger, Jobs: jobs, Launch: launch}
	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  []string{"*"},
		RateLimitPerMin: cfg.RateLimitPerMin,
		StoragePath:     cfg.StoragePath,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func buildPipeline(cfg *infra.Config, pipeCfg pipeline.Config, logger infra.Logger, fileStore *storage.FileStore, jobs domain.JobStore) (*pipeline.Pipeline, error) {
	llmClient, err := llm.NewClient(llm.Options{
		APIKey:       cfg.LLMAPIKey,
		Model:        cfg.LLMModel,
		BaseURL:      cfg.LLMBaseURL,
		Organization: cfg.LLMOrg,
		Logger:       &logger,
	})
	if err != nil {
		return nil, err
	}
	comfy, err := imageprovider.NewComfyClient(imageprovider.ComfyOptions{
		BaseURL: cfg.ComfyBaseURL,
		Logger:  &logger,
	})
	if err != nil {
		return nil, err
	}
	keyai, err := videoprovider.NewKeyAIClient(videoprovider.KeyAIOptions{
		APIKey:  cfg.KeyAIAPIKey,
		BaseURL: cfg.KeyAIBaseURL,
		Logger:  &logger,
	})
	if err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.Options{
		Config:  pipeCfg,
		Logger:  logger,
		LLM:     llmClient,
		Images:  comfy,
		Videos:  keyai,
		Store:   fileStore,
		Jobs:    jobs,
		Media:   media.NewRunner(logger, cfg.FFmpegBin, cfg.FFprobeBin),
		WorkDir: cfg.WorkDir,
	}), nil
}
