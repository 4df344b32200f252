// Package pipeline implements the ad-factory generation graph: a linear,
// fail-fast sequence of stages operating on one job aggregate. Stages run
// strictly one after another; concurrency lives inside the render stages
// only.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"adfactory/internal/domain"
	"adfactory/internal/infra"
	"adfactory/internal/media"
	imageprovider "adfactory/internal/providers/image"
	"adfactory/internal/providers/llm"
	videoprovider "adfactory/internal/providers/video"
	"adfactory/internal/storage"
	"adfactory/internal/templates"
)

// Pipeline owns the collaborators shared by every job run. It is safe to run
// multiple jobs concurrently: per-job state lives on the run, never here.
type Pipeline struct {
	cfg     Config
	logger  infra.Logger
	llm     llm.Generator
	images  imageprovider.Generator
	videos  videoprovider.Generator
	store   *storage.FileStore
	jobs    domain.JobStore
	media   *media.Runner
	workDir string
	http    *http.Client
}

// Options collects the collaborators for New.
type Options struct {
	Config  Config
	Logger  infra.Logger
	LLM     llm.Generator
	Images  imageprovider.Generator
	Videos  videoprovider.Generator
	Store   *storage.FileStore
	Jobs    domain.JobStore
	Media   *media.Runner
	WorkDir string
	Fetcher *http.Client
}

// New assembles a Pipeline from its collaborators.
func New(opts Options) *Pipeline {
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = &http.Client{Timeout: 120 * time.Second}
	}
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "./work"
	}
	return &Pipeline{
		cfg:     opts.Config,
		logger:  opts.Logger,
		llm:     opts.LLM,
		images:  opts.Images,
		videos:  opts.Videos,
		store:   opts.Store,
		jobs:    opts.Jobs,
		media:   opts.Media,
		workDir: workDir,
		http:    fetcher,
	}
}

// run carries the per-job state one execution needs: the aggregate, its
// resolved template, a scratch directory, and a job-scoped logger.
type run struct {
	p   *Pipeline
	job *domain.Job
	tpl *templates.Template
	dir string
	log infra.Logger
}

type stage struct {
	name domain.Stage
	fn   func(context.Context)
}

func (r *run) sequence() []stage {
	if r.job.Mode.IsPerspective() {
		return []stage{
			{domain.StageIntake, r.intake},
			{domain.StagePerspectives, r.planPerspectives},
			{domain.StageTransitions, r.planTransitions},
			{domain.StageRenderPerspectives, r.renderPerspectives},
			{domain.StageRenderTransitions, r.renderTransitions},
			{domain.StageAssemble, r.assemble},
			{domain.StageQC, r.qualityCheck},
			{domain.StageMetadata, r.metadata},
		}
	}
	return []stage{
		{domain.StageIntake, r.intake},
		{domain.StageAngles, r.angles},
		{domain.StageScripts, r.scripts},
		{domain.StageShots, r.shots},
		{domain.StagePrompts, r.prompts},
		{domain.StageRender, r.render},
		{domain.StageAssemble, r.assemble},
		{domain.StageQC, r.qualityCheck},
		{domain.StageMetadata, r.metadata},
	}
}

// Run executes the full graph for one job. Stage errors land on the job (it
// finishes with status failed); the returned error covers infrastructure
// problems only, such as an unusable work directory.
func (p *Pipeline) Run(ctx context.Context, job *domain.Job) error {
	job.Status = domain.JobStatusRunning
	job.StartedAt = time.Now().UTC()
	if job.TargetCount <= 0 {
		job.TargetCount = p.cfg.DefaultTargetCount
	}

	log := p.logger.With().Str("job_id", job.ID).Str("mode", string(job.Mode)).Logger()

	r := &run{p: p, job: job, log: log}
	tpl, err := templates.Load(job.Mode)
	if err != nil {
		job.Fail(domain.StagePending, err)
		p.finish(ctx, job, log)
		return nil
	}
	r.tpl = tpl

	r.dir = filepath.Join(p.workDir, job.ID)
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		job.Fail(domain.StagePending, fmt.Errorf("create work dir: %w", err))
		p.finish(ctx, job, log)
		return fmt.Errorf("pipeline: create work dir: %w", err)
	}

	for _, st := range r.sequence() {
		if job.Failed() {
			break
		}
		if r.cancelled(ctx) {
			job.Warn("cancellation requested; skipping remaining stages")
			break
		}
		job.CurrentStage = st.name
		log.Info().Str("stage", string(st.name)).Msg("pipeline: stage start")
		started := time.Now()
		st.fn(ctx)
		log.Info().
			Str("stage", string(st.name)).
			Dur("took", time.Since(started)).
			Bool("failed", job.Failed()).
			Msg("pipeline: stage done")
		p.persist(ctx, job, log)
	}

	p.finish(ctx, job, log)
	return nil
}

// cancelled re-reads the cancel flag from the store so an API-side cancel
// lands between stages. In-flight backend calls are not interrupted.
func (r *run) cancelled(ctx context.Context) bool {
	if r.job.CancelRequested {
		return true
	}
	if r.p.jobs == nil {
		return false
	}
	fresh, err := r.p.jobs.Get(ctx, r.job.ID)
	if err != nil {
		return false
	}
	if fresh.CancelRequested {
		r.job.CancelRequested = true
	}
	return r.job.CancelRequested
}

func (p *Pipeline) finish(ctx context.Context, job *domain.Job, log infra.Logger) {
	job.CurrentStage = domain.StageDone
	job.CompletedAt = time.Now().UTC()
	if job.Failed() {
		job.Status = domain.JobStatusFailed
		log.Error().Str("error", job.Error).Msg("pipeline: job failed")
	} else {
		job.Status = domain.JobStatusSucceeded
		log.Info().
			Int("videos", len(job.Videos)).
			Int("warnings", len(job.Warnings)).
			Msg("pipeline: job complete")
	}
	p.persist(ctx, job, log)
}

func (p *Pipeline) persist(ctx context.Context, job *domain.Job, log infra.Logger) {
	if p.jobs == nil {
		return
	}
	job.UpdatedAt = time.Now().UTC()
	if err := p.jobs.Update(ctx, job); err != nil {
		log.Warn().Err(err).Msg("pipeline: persist job state failed")
	}
}
