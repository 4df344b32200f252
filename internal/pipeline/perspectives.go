package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"adfactory/internal/domain"
	"adfactory/internal/providers/llm"
)

type rawPerspective struct {
	SourceID        string  `json:"source_id"`
	Name            string  `json:"name"`
	Prompt          string  `json:"prompt"`
	DenoiseStrength float64 `json:"denoise_strength"`
	Order           int     `json:"order"`
}

// planPerspectives asks the model for new camera angles of the registered
// source images, joined back by source_id.
func (r *run) planPerspectives(ctx context.Context) {
	if len(r.job.SourceImages) == 0 {
		r.job.Fail(domain.StagePerspectives, fmt.Errorf("%w: source images", domain.ErrMissingUpstream))
		return
	}

	user := fmt.Sprintf(
		"Source images (keyed by source_id):\n%s\n\nPlan %d perspectives total across the sources.",
		describeJSON(r.job.SourceImages), r.perspectiveTarget(),
	)
	raw, err := r.p.llm.Generate(ctx, r.tpl.Prompts.Perspectives, user)
	if err != nil {
		r.job.Fail(domain.StagePerspectives, err)
		return
	}
	var parsed []rawPerspective
	if err := llm.Decode(domain.StagePerspectives, raw, &parsed); err != nil {
		r.job.Fail(domain.StagePerspectives, err)
		return
	}

	known := make(map[string]bool, len(r.job.SourceImages))
	for _, src := range r.job.SourceImages {
		known[src.SourceID] = true
	}
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].Order < parsed[j].Order })
	for _, rp := range parsed {
		if !known[rp.SourceID] {
			r.job.Warn("perspectives: dropped plan for unknown source %q", rp.SourceID)
			continue
		}
		if strings.TrimSpace(rp.Prompt) == "" {
			r.job.Warn("perspectives: dropped plan %q without prompt", rp.Name)
			continue
		}
		strength := rp.DenoiseStrength
		if strength <= 0 || strength > 1 {
			strength = 0.5
		}
		r.job.Perspectives = append(r.job.Perspectives, domain.Perspective{
			PerspectiveID:   fmt.Sprintf("persp-%d", len(r.job.Perspectives)+1),
			SourceID:        rp.SourceID,
			Name:            rp.Name,
			Prompt:          rp.Prompt,
			DenoiseStrength: strength,
			Order:           len(r.job.Perspectives) + 1,
		})
	}
	if len(r.job.Perspectives) == 0 {
		r.job.Fail(domain.StagePerspectives, fmt.Errorf("%w: no usable perspectives planned", domain.ErrMissingUpstream))
		return
	}
	r.log.Info().Int("perspectives", len(r.job.Perspectives)).Msg("perspectives: planned")
}

// perspectiveTarget sizes the plan: one more perspective than requested
// output clips, since transitions consume perspective pairs.
func (r *run) perspectiveTarget() int {
	n := r.job.TargetCount + 1
	if n < 3 {
		n = 3
	}
	return n
}

type rawTransition struct {
	FromPerspectiveID string  `json:"from_perspective_id"`
	ToPerspectiveID   string  `json:"to_perspective_id"`
	MotionPrompt      string  `json:"motion_prompt"`
	Duration          float64 `json:"duration"`
	Order             int     `json:"order"`
}

// planTransitions asks the model for camera moves between planned
// perspectives; both endpoints must reference known perspectives.
func (r *run) planTransitions(ctx context.Context) {
	if len(r.job.Perspectives) == 0 {
		r.job.Fail(domain.StageTransitions, fmt.Errorf("%w: perspectives", domain.ErrMissingUpstream))
		return
	}

	user := fmt.Sprintf("Perspectives in display order (keyed by perspective_id):\n%s", describeJSON(r.job.Perspectives))
	raw, err := r.p.llm.Generate(ctx, r.tpl.Prompts.Transitions, user)
	if err != nil {
		r.job.Fail(domain.StageTransitions, err)
		return
	}
	var parsed []rawTransition
	if err := llm.Decode(domain.StageTransitions, raw, &parsed); err != nil {
		r.job.Fail(domain.StageTransitions, err)
		return
	}

	known := make(map[string]bool, len(r.job.Perspectives))
	for _, p := range r.job.Perspectives {
		known[p.PerspectiveID] = true
	}
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].Order < parsed[j].Order })
	for _, rt := range parsed {
		if !known[rt.FromPerspectiveID] || !known[rt.ToPerspectiveID] {
			r.job.Warn("transitions: dropped transition %q -> %q referencing unknown perspective",
				rt.FromPerspectiveID, rt.ToPerspectiveID)
			continue
		}
		duration := rt.Duration
		if duration <= 0 {
			duration = 2.5
		}
		r.job.Transitions = append(r.job.Transitions, domain.Transition{
			TransitionID:      fmt.Sprintf("trans-%d", len(r.job.Transitions)+1),
			FromPerspectiveID: rt.FromPerspectiveID,
			ToPerspectiveID:   rt.ToPerspectiveID,
			MotionPrompt:      rt.MotionPrompt,
			Duration:          duration,
			Order:             len(r.job.Transitions) + 1,
		})
	}
	if len(r.job.Transitions) == 0 {
		r.job.Fail(domain.StageTransitions, fmt.Errorf("%w: no usable transitions planned", domain.ErrMissingUpstream))
		return
	}
	r.log.Info().Int("transitions", len(r.job.Transitions)).Msg("transitions: planned")
}
