package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"adfactory/internal/adapter/repo"
	"adfactory/internal/domain"
	"adfactory/internal/infra"
	"adfactory/internal/media"
	"adfactory/internal/pipeline"
	imageprovider "adfactory/internal/providers/image"
	"adfactory/internal/providers/llm"
	videoprovider "adfactory/internal/providers/video"
	"adfactory/internal/storage"
)

const jobPollInterval = 2 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	jobs, err := repo.NewJobStorePG(ctx, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: job store setup failed")
	}

	fileStore, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: storage setup failed")
	}

	pipeCfg, err := pipeline.LoadConfig(cfg.PipelineConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: pipeline config failed")
	}

	llmClient, err := llm.NewClient(llm.Options{
		APIKey:       cfg.LLMAPIKey,
		Model:        cfg.LLMModel,
		BaseURL:      cfg.LLMBaseURL,
		Organization: cfg.LLMOrg,
		Logger:       &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: llm client setup failed")
	}
	comfy, err := imageprovider.NewComfyClient(imageprovider.ComfyOptions{
		BaseURL: cfg.ComfyBaseURL,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: image client setup failed")
	}
	keyai, err := videoprovider.NewKeyAIClient(videoprovider.KeyAIOptions{
		APIKey:  cfg.KeyAIAPIKey,
		BaseURL: cfg.KeyAIBaseURL,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: video client setup failed")
	}

	pipe := pipeline.New(pipeline.Options{
		Config:  pipeCfg,
		Logger:  logger,
		LLM:     llmClient,
		Images:  comfy,
		Videos:  keyai,
		Store:   fileStore,
		Jobs:    jobs,
		Media:   media.NewRunner(logger, cfg.FFmpegBin, cfg.FFprobeBin),
		WorkDir: cfg.WorkDir,
	})

	if err := runLoop(ctx, logger, jobs, pipe); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// runLoop claims queued jobs one at a time and runs them to completion. A
// single worker process handles one job at a time; scale out with more
// processes, the claim query keeps them from colliding.
func runLoop(ctx context.Context, logger infra.Logger, jobs *repo.JobStorePG, pipe *pipeline.Pipeline) error {
	logger.Info().Msg("worker: started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		job, err := jobs.ClaimQueued(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Error().Err(err).Msg("worker: failed to claim job")
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(jobPollInterval):
			}
			continue
		}

		logger.Info().Str("job_id", job.ID).Str("mode", string(job.Mode)).Msg("worker: picked job")
		if err := pipe.Run(ctx, job); err != nil {
			logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: pipeline run failed")
		}
	}
}
