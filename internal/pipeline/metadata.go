package pipeline

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"adfactory/internal/domain"
	"adfactory/internal/providers/llm"
)

var defaultPlatforms = []string{"tiktok", "instagram_reels", "youtube_shorts"}

var titleCaser = cases.Title(language.English)

// metadata writes per-platform upload packages for every QC-passed video in
// one structured-generation call. QC-failed videos get no metadata; if
// nothing passed, the stage is a no-op with a warning.
func (r *run) metadata(ctx context.Context) {
	var passed []domain.GeneratedVideo
	for _, v := range r.job.Videos {
		if v.QCPassed {
			passed = append(passed, v)
		}
	}
	if len(passed) == 0 {
		r.job.Warn("metadata: no videos passed quality control, skipping upload packages")
		return
	}

	platforms := r.job.Input.Platforms
	if len(platforms) == 0 {
		platforms = defaultPlatforms
	}

	user := fmt.Sprintf(
		"Videos (one package per video per platform, keyed by video_id and platform):\n%s\n\nPlatforms: %s\n\nContext:\n%s",
		describeJSON(passed), strings.Join(platforms, ", "), r.metadataContext(),
	)
	raw, err := r.p.llm.Generate(ctx, r.tpl.Prompts.Metadata, user)
	if err != nil {
		r.job.Fail(domain.StageMetadata, err)
		return
	}
	var parsed []domain.UploadPackage
	if err := llm.Decode(domain.StageMetadata, raw, &parsed); err != nil {
		r.job.Fail(domain.StageMetadata, err)
		return
	}

	byKey := make(map[string]domain.UploadPackage, len(parsed))
	for _, pkg := range parsed {
		byKey[pkg.VideoID+"|"+strings.ToLower(pkg.Platform)] = pkg
	}
	for _, v := range passed {
		for _, platform := range platforms {
			pkg, ok := byKey[v.VideoID+"|"+strings.ToLower(platform)]
			if !ok {
				r.job.Warn("metadata: no package generated for %s on %s, using fallback", v.VideoID, platform)
				pkg = domain.UploadPackage{VideoID: v.VideoID, Platform: platform}
			}
			pkg.PackageID = fmt.Sprintf("pkg-%d", len(r.job.Packages)+1)
			pkg.VideoID = v.VideoID
			pkg.Platform = strings.ToLower(platform)
			if strings.TrimSpace(pkg.Title) == "" {
				pkg.Title = r.fallbackTitle()
			}
			if v.StorageURL != "" && pkg.ThumbnailURL == "" {
				pkg.ThumbnailURL = v.StorageURL
			}
			r.job.Packages = append(r.job.Packages, pkg)
		}
	}
	r.log.Info().Int("packages", len(r.job.Packages)).Msg("metadata: packages ready")
}

func (r *run) metadataContext() string {
	if r.job.Profile != nil {
		return describeJSON(r.job.Profile)
	}
	return describeJSON(r.job.Input)
}

func (r *run) fallbackTitle() string {
	if r.job.Profile != nil && r.job.Profile.Name != "" {
		return titleCaser.String(r.job.Profile.Name)
	}
	return "New Video"
}
