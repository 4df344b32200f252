package pipeline

import (
	"context"
	"fmt"
	"strings"

	"adfactory/internal/domain"
	"adfactory/internal/providers/llm"
)

// angles generates TargetCount creative angles from the product profile in
// one structured-generation call.
func (r *run) angles(ctx context.Context) {
	if r.job.Profile == nil {
		r.job.Fail(domain.StageAngles, fmt.Errorf("%w: product profile", domain.ErrMissingUpstream))
		return
	}

	user := fmt.Sprintf(
		"Product profile:\n%s\n\nHook patterns to draw from:\n%s\n\nGenerate exactly %d distinct angles.",
		describeJSON(r.job.Profile), describeJSON(r.tpl.AnglePatterns), r.job.TargetCount,
	)
	raw, err := r.p.llm.Generate(ctx, r.tpl.Prompts.Angles, user)
	if err != nil {
		r.job.Fail(domain.StageAngles, err)
		return
	}
	var parsed []domain.CreativeAngle
	if err := llm.Decode(domain.StageAngles, raw, &parsed); err != nil {
		r.job.Fail(domain.StageAngles, err)
		return
	}

	for _, angle := range parsed {
		if strings.TrimSpace(angle.HookText) == "" {
			r.job.Warn("angles: dropped angle %q without hook text", angle.Name)
			continue
		}
		// IDs are reassigned deterministically so downstream joins never
		// depend on model-invented identifiers.
		angle.AngleID = fmt.Sprintf("angle-%d", len(r.job.Angles)+1)
		if angle.Name == "" {
			angle.Name = angle.HookType
		}
		r.job.Angles = append(r.job.Angles, angle)
		if len(r.job.Angles) == r.job.TargetCount {
			break
		}
	}
	if len(r.job.Angles) == 0 {
		r.job.Fail(domain.StageAngles, fmt.Errorf("%w: no usable angles generated", domain.ErrMissingUpstream))
		return
	}
	if len(r.job.Angles) < r.job.TargetCount {
		r.job.Warn("angles: requested %d, got %d usable", r.job.TargetCount, len(r.job.Angles))
	}
	r.log.Info().Int("angles", len(r.job.Angles)).Msg("angles: generated")
}
