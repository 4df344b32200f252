package pipeline

import (
	"context"
	"fmt"
	"strings"

	"adfactory/internal/domain"
	"adfactory/internal/providers/llm"
)

// scripts writes one script package per angle in a single
// structured-generation call, joined back to angles by angle_id.
func (r *run) scripts(ctx context.Context) {
	if len(r.job.Angles) == 0 {
		r.job.Fail(domain.StageScripts, fmt.Errorf("%w: creative angles", domain.ErrMissingUpstream))
		return
	}

	user := fmt.Sprintf(
		"Product profile:\n%s\n\nAngles (one script each, keyed by angle_id):\n%s",
		describeJSON(r.job.Profile), describeJSON(r.job.Angles),
	)
	raw, err := r.p.llm.Generate(ctx, r.tpl.Prompts.Scripts, user)
	if err != nil {
		r.job.Fail(domain.StageScripts, err)
		return
	}
	var parsed []domain.ScriptPackage
	if err := llm.Decode(domain.StageScripts, raw, &parsed); err != nil {
		r.job.Fail(domain.StageScripts, err)
		return
	}

	known := make(map[string]bool, len(r.job.Angles))
	for _, angle := range r.job.Angles {
		known[angle.AngleID] = true
	}
	seen := make(map[string]bool, len(parsed))
	for _, script := range parsed {
		if !known[script.AngleID] {
			r.job.Warn("scripts: dropped script for unknown angle %q", script.AngleID)
			continue
		}
		if seen[script.AngleID] {
			r.job.Warn("scripts: dropped duplicate script for angle %q", script.AngleID)
			continue
		}
		if strings.TrimSpace(script.Voiceover) == "" {
			r.job.Warn("scripts: dropped empty script for angle %q", script.AngleID)
			continue
		}
		seen[script.AngleID] = true
		script.ScriptID = fmt.Sprintf("script-%d", len(r.job.Scripts)+1)
		if script.TargetDuration <= 0 {
			script.TargetDuration = (r.p.cfg.QCMinDurationSec + r.p.cfg.QCMaxDurationSec) / 2
		}
		r.job.Scripts = append(r.job.Scripts, script)
	}
	if len(r.job.Scripts) == 0 {
		r.job.Fail(domain.StageScripts, fmt.Errorf("%w: no usable scripts generated", domain.ErrMissingUpstream))
		return
	}
	for _, angle := range r.job.Angles {
		if !seen[angle.AngleID] {
			r.job.Warn("scripts: angle %q received no script", angle.AngleID)
		}
	}
	r.log.Info().Int("scripts", len(r.job.Scripts)).Msg("scripts: generated")
}
