package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"adfactory/internal/domain"
	"adfactory/internal/media"
)

// assemble stitches rendered clips into final vertical videos with ffmpeg.
// One output per shot list in product mode, one single tour video in
// perspective mode. Assembly is best-effort per variation: a broken shot
// list costs one video, not the job.
func (r *run) assemble(ctx context.Context) {
	if r.job.Mode.IsPerspective() {
		r.assemblePerspective(ctx)
		return
	}

	scriptByID := make(map[string]*domain.ScriptPackage, len(r.job.Scripts))
	for i := range r.job.Scripts {
		scriptByID[r.job.Scripts[i].ScriptID] = &r.job.Scripts[i]
	}

	attempted, succeeded := 0, 0
	for _, sl := range r.job.ShotLists {
		script, ok := scriptByID[sl.ScriptID]
		if !ok {
			r.job.Warn("assemble: shot list %s references unknown script %s, skipped", sl.ShotListID, sl.ScriptID)
			continue
		}
		clips, missing, fallback := r.resolveClips(ctx, sl)
		if len(clips) == 0 {
			r.job.Warn("assemble: shot list %s has no usable clips, skipped", sl.ShotListID)
			continue
		}
		if strings.EqualFold(sl.TransitionStyle, "crossfade") {
			r.job.Warn("assemble: crossfade not supported, using straight cuts for %s", sl.ShotListID)
		}

		attempted++
		videoID := fmt.Sprintf("video-%d", len(r.job.Videos)+1)
		out, err := r.assembleOne(ctx, videoID, clips, script)
		if err != nil {
			r.job.Warn("assemble: %s failed: %v", sl.ShotListID, err)
			continue
		}
		succeeded++

		duration, err := r.p.media.ProbeDuration(ctx, out)
		if err != nil {
			r.job.Warn("assemble: probe %s failed, using planned duration: %v", videoID, err)
			duration = sl.TotalDuration
		}

		video := domain.GeneratedVideo{
			VideoID:         videoID,
			AngleID:         sl.AngleID,
			ScriptID:        sl.ScriptID,
			ShotListID:      sl.ShotListID,
			LocalPath:       out,
			DurationSeconds: duration,
			MissingShots:    missing,
			FallbackShots:   fallback,
		}
		key := fmt.Sprintf("jobs/%s/videos/%s.mp4", r.job.ID, videoID)
		if url, err := r.p.store.Upload(ctx, out, key); err != nil {
			r.job.Warn("assemble: upload %s failed, serving local artifact: %v", videoID, err)
		} else {
			video.StorageURL = url
		}
		r.job.Videos = append(r.job.Videos, video)
	}

	if attempted > 0 && succeeded == 0 {
		r.job.Fail(domain.StageAssemble, fmt.Errorf("all %d assembly attempts failed", attempted))
		return
	}
	r.log.Info().Int("videos", succeeded).Int("attempted", attempted).Msg("assemble: complete")
}

// resolveClips picks the best available artifact per shot, in shot order:
// the rendered video clip, else a Ken Burns pan from the rendered still,
// else nothing.
func (r *run) resolveClips(ctx context.Context, sl domain.ShotList) (clips []string, missing, fallback int) {
	assetByID := make(map[string]*domain.AssetRequest, len(r.job.Assets))
	for i := range r.job.Assets {
		assetByID[r.job.Assets[i].RequestID] = &r.job.Assets[i]
	}
	for _, shot := range sl.Shots {
		if vid, ok := assetByID[shot.ShotID+"-vid"]; ok && vid.Status == domain.AssetStatusSuccess && vid.LocalPath != "" {
			clips = append(clips, vid.LocalPath)
			continue
		}
		img, ok := assetByID[shot.ShotID+"-img"]
		if ok && img.Status == domain.AssetStatusSuccess && img.LocalPath != "" {
			out := filepath.Join(r.dir, shot.ShotID+"-kb.mp4")
			duration := shot.Duration
			if duration <= 0 {
				duration = 3.0
			}
			err := r.p.media.KenBurns(ctx, img.LocalPath, out, duration, r.p.cfg.KenBurnsZoom,
				r.p.cfg.OutputWidth, r.p.cfg.OutputHeight, r.p.cfg.FPS)
			if err != nil {
				r.job.Warn("assemble: ken burns for shot %s failed: %v", shot.ShotID, err)
				missing++
				continue
			}
			r.job.Warn("assemble: shot %s uses still-image fallback", shot.ShotID)
			clips = append(clips, out)
			fallback++
			continue
		}
		r.job.Warn("assemble: shot %s has no rendered asset, dropped", shot.ShotID)
		missing++
	}
	return clips, missing, fallback
}

// assembleOne runs the concat -> overlay -> music chain for one variation.
// Overlay and music failures degrade to the previous intermediate file.
func (r *run) assembleOne(ctx context.Context, videoID string, clips []string, script *domain.ScriptPackage) (string, error) {
	base := filepath.Join(r.dir, videoID+"-base.mp4")
	cfg := r.p.cfg
	if err := r.p.media.Concat(ctx, clips, base, cfg.OutputWidth, cfg.OutputHeight, cfg.FPS); err != nil {
		return "", fmt.Errorf("concat: %w", err)
	}
	current := base

	if cues := r.overlayCues(ctx, script, current); len(cues) > 0 {
		withText := filepath.Join(r.dir, videoID+"-text.mp4")
		if err := r.p.media.OverlayText(ctx, current, withText, cues); err != nil {
			r.job.Warn("assemble: text overlay for %s failed, keeping plain cut: %v", videoID, err)
		} else {
			current = withText
		}
	}

	if music := r.musicFile(script.MusicMood); music != "" {
		withMusic := filepath.Join(r.dir, videoID+".mp4")
		if err := r.p.media.MixMusic(ctx, current, music, withMusic, cfg.MusicVolume); err != nil {
			r.job.Warn("assemble: music mix for %s failed, keeping silent video: %v", videoID, err)
		} else {
			current = withMusic
		}
	}
	return current, nil
}

// overlayCues maps the script's timed overlays onto drawtext cues, clamped
// to the assembled duration, plus a trailing CTA card.
func (r *run) overlayCues(ctx context.Context, script *domain.ScriptPackage, videoFile string) []media.TextCue {
	total, err := r.p.media.ProbeDuration(ctx, videoFile)
	if err != nil || total <= 0 {
		total = script.TargetDuration
	}
	window := r.p.cfg.TextWindowSec
	var cues []media.TextCue
	for _, ov := range script.TextOverlays {
		if ov.Text == "" || ov.Time >= total {
			continue
		}
		cues = append(cues, media.TextCue{
			Start:    ov.Time,
			Duration: window,
			Text:     ov.Text,
			Role:     overlayRole(ov.Style),
		})
	}
	if script.CTAText != "" && total > window {
		cues = append(cues, media.TextCue{
			Start:    total - window,
			Duration: window,
			Text:     script.CTAText,
			Role:     domain.OverlayRoleCTA,
		})
	}
	return cues
}

func overlayRole(style string) string {
	switch strings.ToLower(style) {
	case domain.OverlayRoleHook, domain.OverlayRoleCTA:
		return strings.ToLower(style)
	default:
		return domain.OverlayRoleBenefit
	}
}

// musicFile resolves the backing track: an explicit upload wins, otherwise
// a mood-named file from the music library, otherwise none.
func (r *run) musicFile(mood string) string {
	if p := r.job.Input.MusicPath; p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		r.job.Warn("assemble: uploaded music %s unreadable, falling back to library", p)
	}
	if r.p.cfg.MusicDir == "" || mood == "" {
		return ""
	}
	p := filepath.Join(r.p.cfg.MusicDir, strings.ToLower(mood)+".mp3")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// assemblePerspective concatenates the rendered transition clips, in planned
// order, into a single camera-tour video. No text overlays here.
func (r *run) assemblePerspective(ctx context.Context) {
	order := make([]domain.Transition, len(r.job.Transitions))
	copy(order, r.job.Transitions)
	sort.SliceStable(order, func(i, j int) bool { return order[i].Order < order[j].Order })

	clipByTransition := make(map[string]string, len(r.job.GeneratedTransitions))
	for _, rec := range r.job.GeneratedTransitions {
		if rec.Status == domain.AssetStatusSuccess && rec.LocalPath != "" {
			clipByTransition[rec.TransitionID] = rec.LocalPath
		}
	}

	var clips []string
	var used []domain.Transition
	for _, t := range order {
		clip, ok := clipByTransition[t.TransitionID]
		if !ok {
			r.job.Warn("assemble: transition %s unavailable, dropped from tour", t.TransitionID)
			continue
		}
		clips = append(clips, clip)
		used = append(used, t)
	}
	if len(clips) == 0 {
		r.job.Warn("assemble: no transition clips available, nothing to assemble")
		return
	}

	cfg := r.p.cfg
	out := filepath.Join(r.dir, "video-1.mp4")
	if err := r.p.media.Concat(ctx, clips, out, cfg.OutputWidth, cfg.OutputHeight, cfg.FPS); err != nil {
		r.job.Fail(domain.StageAssemble, fmt.Errorf("concat tour: %w", err))
		return
	}
	current := out

	if music := r.musicFile("ambient"); music != "" {
		withMusic := filepath.Join(r.dir, "video-1-music.mp4")
		if err := r.p.media.MixMusic(ctx, current, music, withMusic, cfg.MusicVolume); err != nil {
			r.job.Warn("assemble: music mix failed, keeping silent video: %v", err)
		} else {
			current = withMusic
		}
	}

	duration, err := r.p.media.ProbeDuration(ctx, current)
	if err != nil {
		r.job.Warn("assemble: probe failed, using planned duration: %v", err)
		for _, t := range used {
			duration += t.Duration
		}
	}

	video := domain.GeneratedVideo{
		VideoID:         "video-1",
		LocalPath:       current,
		DurationSeconds: duration,
		MissingShots:    len(order) - len(clips),
	}
	key := fmt.Sprintf("jobs/%s/videos/video-1.mp4", r.job.ID)
	if url, err := r.p.store.Upload(ctx, current, key); err != nil {
		r.job.Warn("assemble: upload failed, serving local artifact: %v", err)
	} else {
		video.StorageURL = url
	}
	r.job.Videos = append(r.job.Videos, video)
}
