package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"adfactory/internal/domain"
	"adfactory/internal/providers/llm"
)

// intake normalizes the job's raw input. Product modes call the model once to
// build a ProductProfile; perspective mode registers the uploaded source
// images instead.
func (r *run) intake(ctx context.Context) {
	if r.job.Mode.IsPerspective() {
		r.intakeSourceImages()
		return
	}

	description := strings.TrimSpace(r.job.Input.Description)
	if description == "" {
		r.job.Fail(domain.StageIntake, fmt.Errorf("%w: product description", domain.ErrMissingUpstream))
		return
	}

	raw, err := r.p.llm.Generate(ctx, r.tpl.Prompts.Intake, description)
	if err != nil {
		r.job.Fail(domain.StageIntake, err)
		return
	}
	var profile domain.ProductProfile
	if err := llm.Decode(domain.StageIntake, raw, &profile); err != nil {
		r.job.Fail(domain.StageIntake, err)
		return
	}
	if strings.TrimSpace(profile.Name) == "" {
		r.job.Fail(domain.StageIntake, fmt.Errorf("profile missing product name"))
		return
	}
	if profile.Description == "" {
		profile.Description = description
	}
	r.job.Profile = &profile
	r.log.Info().Str("product", profile.Name).Str("category", profile.Category).Msg("intake: profile ready")
}

func (r *run) intakeSourceImages() {
	if len(r.job.Input.SourceImagePaths) == 0 {
		r.job.Fail(domain.StageIntake, fmt.Errorf("%w: source images", domain.ErrMissingUpstream))
		return
	}
	for i, path := range r.job.Input.SourceImagePaths {
		if _, err := os.Stat(path); err != nil {
			r.job.Warn("intake: source image %q unreadable, skipping: %v", path, err)
			continue
		}
		r.job.SourceImages = append(r.job.SourceImages, domain.SourceImage{
			SourceID:  fmt.Sprintf("src-%d", i+1),
			LocalPath: path,
		})
	}
	if len(r.job.SourceImages) == 0 {
		r.job.Fail(domain.StageIntake, fmt.Errorf("%w: no readable source images", domain.ErrMissingUpstream))
		return
	}
	r.log.Info().Int("sources", len(r.job.SourceImages)).Msg("intake: source images registered")
}

// describeJSON renders a value as compact JSON for inclusion in a user
// prompt. Marshal failures cannot happen for our own types; the fallback
// keeps the prompt usable regardless.
func describeJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
