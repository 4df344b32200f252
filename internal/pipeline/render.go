package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"adfactory/internal/domain"
	imageprovider "adfactory/internal/providers/image"
	videoprovider "adfactory/internal/providers/video"
)

// render is the coordinator for the product pipeline: fan out image renders
// under one concurrency bound, upload the results, then fan out the
// dependent video renders under a second, independent bound. Every request
// leaves this stage as success or failed; individual failures never abort
// the job.
func (r *run) render(ctx context.Context) {
	if len(r.job.Assets) == 0 {
		r.job.Fail(domain.StageRender, fmt.Errorf("%w: asset requests", domain.ErrMissingUpstream))
		return
	}

	// Phase 1: images. Each goroutine owns exactly one request record.
	var ig errgroup.Group
	ig.SetLimit(r.p.cfg.ImageConcurrency)
	for i := range r.job.Assets {
		req := &r.job.Assets[i]
		if req.Type != domain.AssetTypeImage {
			continue
		}
		ig.Go(func() error {
			r.renderImage(ctx, req)
			return nil
		})
	}
	_ = ig.Wait()

	// Phase 2: uploads. Sequential on purpose: upload outcomes append to the
	// job warning log, which only the stage goroutine may touch.
	imageURLByShot := make(map[string]string)
	for i := range r.job.Assets {
		req := &r.job.Assets[i]
		if req.Type != domain.AssetTypeImage || req.Status != domain.AssetStatusSuccess {
			continue
		}
		key := fmt.Sprintf("jobs/%s/images/%s%s", r.job.ID, req.RequestID, filepath.Ext(req.LocalPath))
		url, err := r.p.store.Upload(ctx, req.LocalPath, key)
		if err != nil {
			// Upload failure does not revert render success; the local
			// artifact stays usable for assembly and video conditioning.
			r.job.Warn("render: upload of %s failed, using local artifact: %v", req.RequestID, err)
			imageURLByShot[req.ShotID] = req.LocalPath
			continue
		}
		req.ResultURL = url
		req.UpdatedAt = time.Now().UTC()
		imageURLByShot[req.ShotID] = url
	}

	// Phase 3: videos. A request whose shot produced no image is a hard
	// dependency failure: marked failed up front, zero render attempts.
	var vg errgroup.Group
	vg.SetLimit(r.p.cfg.VideoConcurrency)
	for i := range r.job.Assets {
		req := &r.job.Assets[i]
		if req.Type != domain.AssetTypeVideo {
			continue
		}
		imageURL, ok := imageURLByShot[req.ShotID]
		if !ok {
			req.Status = domain.AssetStatusFailed
			req.ErrorMessage = fmt.Sprintf("no source image available for shot %s", req.ShotID)
			req.UpdatedAt = time.Now().UTC()
			continue
		}
		vg.Go(func() error {
			r.renderVideo(ctx, req, imageURL)
			return nil
		})
	}
	_ = vg.Wait()

	imgOK, imgTotal := r.countAssets(domain.AssetTypeImage)
	vidOK, vidTotal := r.countAssets(domain.AssetTypeVideo)
	r.job.Warn("render: images %d/%d succeeded, videos %d/%d succeeded", imgOK, imgTotal, vidOK, vidTotal)
	r.log.Info().
		Int("images_ok", imgOK).Int("images_total", imgTotal).
		Int("videos_ok", vidOK).Int("videos_total", vidTotal).
		Msg("render: complete")
}

// renderImage drives one image request to a terminal status, retrying
// transient failures with exponential backoff.
func (r *run) renderImage(ctx context.Context, req *domain.AssetRequest) {
	req.Status = domain.AssetStatusRendering
	for attempt := 0; ; attempt++ {
		result, err := r.p.images.GenerateImage(ctx, imageprovider.ImageRequest{
			Prompt:         req.Prompt,
			NegativePrompt: req.NegativePrompt,
			Width:          req.Width,
			Height:         req.Height,
			Style:          r.tpl.Style.Style,
			RequestID:      req.RequestID,
		})
		if err == nil {
			req.Status = domain.AssetStatusSuccess
			req.LocalPath = result.ImagePath
			req.ErrorMessage = ""
			break
		}
		req.ErrorMessage = err.Error()
		if attempt >= r.p.cfg.MaxRetries || !r.backoffWait(ctx, attempt) {
			req.Status = domain.AssetStatusFailed
			break
		}
		req.RetryCount = attempt + 1
	}
	req.UpdatedAt = time.Now().UTC()
}

// renderVideo drives one video request to a terminal status. Each attempt is
// additionally bounded by a wall-clock timeout; expiry counts as a failed
// attempt against the same retry budget. On success the clip is downloaded
// next to the job's other artifacts for assembly.
func (r *run) renderVideo(ctx context.Context, req *domain.AssetRequest, imageURL string) {
	req.Status = domain.AssetStatusRendering
	for attempt := 0; ; attempt++ {
		err := r.renderVideoAttempt(ctx, req, imageURL)
		if err == nil {
			req.Status = domain.AssetStatusSuccess
			req.ErrorMessage = ""
			break
		}
		req.ErrorMessage = err.Error()
		if attempt >= r.p.cfg.MaxRetries || !r.backoffWait(ctx, attempt) {
			req.Status = domain.AssetStatusFailed
			break
		}
		req.RetryCount = attempt + 1
	}
	req.UpdatedAt = time.Now().UTC()
}

func (r *run) renderVideoAttempt(ctx context.Context, req *domain.AssetRequest, imageURL string) error {
	attemptCtx, cancel := context.WithTimeout(ctx, r.p.cfg.VideoAttemptTimeout())
	defer cancel()
	result, err := r.p.videos.GenerateVideo(attemptCtx, videoprovider.VideoRequest{
		ImageURL:    imageURL,
		Prompt:      req.Prompt,
		Duration:    req.Duration,
		AspectRatio: req.AspectRatio,
		RequestID:   req.RequestID,
	})
	if err != nil {
		return err
	}
	localPath := filepath.Join(r.dir, req.RequestID+".mp4")
	if err := r.fetchFile(attemptCtx, result.VideoURL, localPath); err != nil {
		return fmt.Errorf("download clip: %w", err)
	}
	req.ResultURL = result.VideoURL
	req.LocalPath = localPath
	return nil
}

// backoffWait sleeps base*2^attempt without blocking sibling tasks. It
// returns false if the context expired mid-sleep.
func (r *run) backoffWait(ctx context.Context, attempt int) bool {
	select {
	case <-time.After(r.p.cfg.Backoff(attempt)):
		return true
	case <-ctx.Done():
		return false
	}
}

func (r *run) countAssets(kind domain.AssetType) (ok, total int) {
	for _, req := range r.job.Assets {
		if req.Type != kind {
			continue
		}
		total++
		if req.Status == domain.AssetStatusSuccess {
			ok++
		}
	}
	return ok, total
}

// fetchFile downloads a rendered artifact to local disk. Backends that
// already write locally are handled by a plain copy-free stat check.
func (r *run) fetchFile(ctx context.Context, url, dest string) error {
	if _, err := os.Stat(url); err == nil {
		// Already a local path. A failed earlier attempt may have left a
		// partial dest behind, so clear it first.
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("replace file: %w", err)
		}
		return os.Symlink(url, dest)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := r.p.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("download status %d", resp.StatusCode)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return fmt.Errorf("write file: %w", err)
	}
	return out.Close()
}
