package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"adfactory/internal/domain"
	"adfactory/internal/providers/llm"
)

type rawShotPrompt struct {
	ShotID         string `json:"shot_id"`
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	MotionPrompt   string `json:"motion_prompt"`
}

// prompts turns every planned shot into a pair of asset requests: an image
// render against the local backend and a dependent video render against the
// hosted backend. Prompt text comes from one structured-generation call;
// shots the model skipped get a deterministic prompt synthesized from the
// shot plan.
func (r *run) prompts(ctx context.Context) {
	if len(r.job.ShotLists) == 0 {
		r.job.Fail(domain.StagePrompts, fmt.Errorf("%w: shot lists", domain.ErrMissingUpstream))
		return
	}

	var allShots []domain.Shot
	for _, list := range r.job.ShotLists {
		allShots = append(allShots, list.Shots...)
	}
	user := fmt.Sprintf(
		"Visual style: %s\n\nShots (one prompt each, keyed by shot_id):\n%s",
		r.tpl.Style.Style, describeJSON(allShots),
	)
	raw, err := r.p.llm.Generate(ctx, r.tpl.Prompts.ShotPrompts, user)
	if err != nil {
		r.job.Fail(domain.StagePrompts, err)
		return
	}
	var parsed []rawShotPrompt
	if err := llm.Decode(domain.StagePrompts, raw, &parsed); err != nil {
		r.job.Fail(domain.StagePrompts, err)
		return
	}

	known := make(map[string]bool, len(allShots))
	for _, shot := range allShots {
		known[shot.ShotID] = true
	}
	promptByShot := make(map[string]rawShotPrompt, len(parsed))
	for _, sp := range parsed {
		if !known[sp.ShotID] {
			r.job.Warn("prompts: dropped prompt for unknown shot %q", sp.ShotID)
			continue
		}
		promptByShot[sp.ShotID] = sp
	}

	now := time.Now().UTC()
	for _, list := range r.job.ShotLists {
		for _, shot := range list.Shots {
			sp, ok := promptByShot[shot.ShotID]
			if !ok {
				r.job.Warn("prompts: shot %q missing generated prompt, using shot plan text", shot.ShotID)
				sp = rawShotPrompt{ShotID: shot.ShotID, Prompt: r.synthesizePrompt(shot)}
			}
			negative := sp.NegativePrompt
			if negative == "" {
				negative = r.tpl.Style.NegativePrompt
			}
			motion := strings.TrimSpace(sp.MotionPrompt)
			if motion == "" {
				motion = shot.CameraMovement
			}
			r.job.Assets = append(r.job.Assets,
				domain.AssetRequest{
					RequestID:      fmt.Sprintf("%s-img", shot.ShotID),
					ShotID:         shot.ShotID,
					ShotListID:     list.ShotListID,
					Type:           domain.AssetTypeImage,
					Backend:        domain.BackendComfyUI,
					Prompt:         sp.Prompt,
					NegativePrompt: negative,
					Width:          r.tpl.Style.Width,
					Height:         r.tpl.Style.Height,
					AspectRatio:    r.tpl.Style.AspectRatio,
					Status:         domain.AssetStatusPending,
					CreatedAt:      now,
					UpdatedAt:      now,
				},
				domain.AssetRequest{
					RequestID:   fmt.Sprintf("%s-vid", shot.ShotID),
					ShotID:      shot.ShotID,
					ShotListID:  list.ShotListID,
					Type:        domain.AssetTypeVideo,
					Backend:     domain.BackendKeyAI,
					Prompt:      motion,
					AspectRatio: r.tpl.Style.AspectRatio,
					Duration:    shot.Duration,
					Status:      domain.AssetStatusPending,
					CreatedAt:   now,
					UpdatedAt:   now,
				},
			)
		}
	}
	r.log.Info().Int("asset_requests", len(r.job.Assets)).Msg("prompts: asset requests built")
}

func (r *run) synthesizePrompt(shot domain.Shot) string {
	parts := []string{shot.Description, shot.Subject, shot.Background, shot.Lighting, r.tpl.Style.Style}
	var kept []string
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, strings.TrimSpace(part))
		}
	}
	return strings.Join(kept, ", ")
}
