package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"adfactory/internal/domain"
	imageprovider "adfactory/internal/providers/image"
	videoprovider "adfactory/internal/providers/video"
)

// renderPerspectives fans out one img2img render per planned perspective,
// then uploads the results sequentially so transition rendering can address
// each frame by URL.
func (r *run) renderPerspectives(ctx context.Context) {
	if len(r.job.Perspectives) == 0 {
		r.job.Fail(domain.StageRenderPerspectives, fmt.Errorf("%w: perspectives", domain.ErrMissingUpstream))
		return
	}
	sourceByID := make(map[string]string, len(r.job.SourceImages))
	for _, src := range r.job.SourceImages {
		sourceByID[src.SourceID] = src.LocalPath
	}

	r.job.GeneratedPerspectives = make([]domain.GeneratedPerspective, len(r.job.Perspectives))
	var g errgroup.Group
	g.SetLimit(r.p.cfg.ImageConcurrency)
	for i := range r.job.Perspectives {
		p := r.job.Perspectives[i]
		rec := &r.job.GeneratedPerspectives[i]
		rec.PerspectiveID = p.PerspectiveID
		rec.Status = domain.AssetStatusPending
		srcPath, ok := sourceByID[p.SourceID]
		if !ok {
			rec.Status = domain.AssetStatusFailed
			rec.ErrorMessage = fmt.Sprintf("no source image %s", p.SourceID)
			continue
		}
		g.Go(func() error {
			r.renderPerspective(ctx, rec, p, srcPath)
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for i := range r.job.GeneratedPerspectives {
		rec := &r.job.GeneratedPerspectives[i]
		if rec.Status != domain.AssetStatusSuccess {
			continue
		}
		ok++
		key := fmt.Sprintf("jobs/%s/perspectives/%s%s", r.job.ID, rec.PerspectiveID, filepath.Ext(rec.LocalPath))
		url, err := r.p.store.Upload(ctx, rec.LocalPath, key)
		if err != nil {
			r.job.Warn("render perspectives: upload of %s failed, using local artifact: %v", rec.PerspectiveID, err)
			continue
		}
		rec.ResultURL = url
	}
	r.job.Warn("render perspectives: %d/%d succeeded", ok, len(r.job.Perspectives))
	if ok == 0 {
		r.job.Fail(domain.StageRenderPerspectives, fmt.Errorf("%w: all perspective renders failed", domain.ErrProviderFailure))
	}
}

func (r *run) renderPerspective(ctx context.Context, rec *domain.GeneratedPerspective, p domain.Perspective, srcPath string) {
	rec.Status = domain.AssetStatusRendering
	for attempt := 0; ; attempt++ {
		result, err := r.p.images.GeneratePerspective(ctx, imageprovider.PerspectiveRequest{
			SourceImagePath: srcPath,
			Prompt:          p.Prompt,
			NegativePrompt:  r.tpl.Style.NegativePrompt,
			DenoiseStrength: p.DenoiseStrength,
			RequestID:       p.PerspectiveID,
		})
		if err == nil {
			rec.Status = domain.AssetStatusSuccess
			rec.LocalPath = result.ImagePath
			rec.ErrorMessage = ""
			return
		}
		rec.ErrorMessage = err.Error()
		if attempt >= r.p.cfg.MaxRetries || !r.backoffWait(ctx, attempt) {
			rec.Status = domain.AssetStatusFailed
			return
		}
		rec.RetryCount = attempt + 1
	}
}

// renderTransitions interpolates motion between each pair of rendered
// perspective frames. A transition whose endpoints did not both render is
// failed immediately without a backend call.
func (r *run) renderTransitions(ctx context.Context) {
	if len(r.job.Transitions) == 0 {
		r.job.Fail(domain.StageRenderTransitions, fmt.Errorf("%w: transitions", domain.ErrMissingUpstream))
		return
	}
	frameURL := make(map[string]string, len(r.job.GeneratedPerspectives))
	for _, rec := range r.job.GeneratedPerspectives {
		if rec.Status != domain.AssetStatusSuccess {
			continue
		}
		if rec.ResultURL != "" {
			frameURL[rec.PerspectiveID] = rec.ResultURL
		} else {
			frameURL[rec.PerspectiveID] = rec.LocalPath
		}
	}

	r.job.GeneratedTransitions = make([]domain.GeneratedTransition, len(r.job.Transitions))
	var g errgroup.Group
	g.SetLimit(r.p.cfg.VideoConcurrency)
	for i := range r.job.Transitions {
		t := r.job.Transitions[i]
		rec := &r.job.GeneratedTransitions[i]
		rec.TransitionID = t.TransitionID
		rec.Status = domain.AssetStatusPending
		from, fromOK := frameURL[t.FromPerspectiveID]
		to, toOK := frameURL[t.ToPerspectiveID]
		if !fromOK || !toOK {
			rec.Status = domain.AssetStatusFailed
			rec.ErrorMessage = fmt.Sprintf("missing rendered frame for %s -> %s", t.FromPerspectiveID, t.ToPerspectiveID)
			continue
		}
		g.Go(func() error {
			r.renderTransition(ctx, rec, t, from, to)
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, rec := range r.job.GeneratedTransitions {
		if rec.Status == domain.AssetStatusSuccess {
			ok++
		}
	}
	r.job.Warn("render transitions: %d/%d succeeded", ok, len(r.job.Transitions))
}

func (r *run) renderTransition(ctx context.Context, rec *domain.GeneratedTransition, t domain.Transition, fromURL, toURL string) {
	rec.Status = domain.AssetStatusRendering
	for attempt := 0; ; attempt++ {
		err := r.renderTransitionAttempt(ctx, rec, t, fromURL, toURL)
		if err == nil {
			rec.Status = domain.AssetStatusSuccess
			rec.ErrorMessage = ""
			return
		}
		rec.ErrorMessage = err.Error()
		if attempt >= r.p.cfg.MaxRetries || !r.backoffWait(ctx, attempt) {
			rec.Status = domain.AssetStatusFailed
			return
		}
		rec.RetryCount = attempt + 1
	}
}

func (r *run) renderTransitionAttempt(ctx context.Context, rec *domain.GeneratedTransition, t domain.Transition, fromURL, toURL string) error {
	attemptCtx, cancel := context.WithTimeout(ctx, r.p.cfg.VideoAttemptTimeout())
	defer cancel()
	result, err := r.p.videos.GenerateVideoFromFrames(attemptCtx, videoprovider.FrameRequest{
		StartImageURL: fromURL,
		EndImageURL:   toURL,
		MotionPrompt:  t.MotionPrompt,
		Duration:      t.Duration,
		RequestID:     t.TransitionID,
	})
	if err != nil {
		return err
	}
	localPath := filepath.Join(r.dir, t.TransitionID+".mp4")
	if err := r.fetchFile(attemptCtx, result.VideoURL, localPath); err != nil {
		return fmt.Errorf("download clip: %w", err)
	}
	rec.ResultURL = result.VideoURL
	rec.LocalPath = localPath
	return nil
}
