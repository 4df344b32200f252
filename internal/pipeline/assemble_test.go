package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"adfactory/internal/domain"
)

func TestResolveClipsPrefersVideo(t *testing.T) {
	r := newTestRun(t, domain.ModeProduct)
	sl := domain.ShotList{
		ShotListID: "shotlist-1",
		Shots: []domain.Shot{
			{ShotID: "shotlist-1-shot-1", Duration: 5},
			{ShotID: "shotlist-1-shot-2", Duration: 5},
		},
	}
	r.job.Assets = []domain.AssetRequest{
		{RequestID: "shotlist-1-shot-1-img", ShotID: "shotlist-1-shot-1", Type: domain.AssetTypeImage,
			Status: domain.AssetStatusSuccess, LocalPath: "/tmp/a.png"},
		{RequestID: "shotlist-1-shot-1-vid", ShotID: "shotlist-1-shot-1", Type: domain.AssetTypeVideo,
			Status: domain.AssetStatusSuccess, LocalPath: "/tmp/a.mp4"},
		// Shot 2 rendered nothing at all.
		{RequestID: "shotlist-1-shot-2-img", ShotID: "shotlist-1-shot-2", Type: domain.AssetTypeImage,
			Status: domain.AssetStatusFailed},
		{RequestID: "shotlist-1-shot-2-vid", ShotID: "shotlist-1-shot-2", Type: domain.AssetTypeVideo,
			Status: domain.AssetStatusFailed},
	}

	clips, missing, fallback := r.resolveClips(context.Background(), sl)

	if len(clips) != 1 || clips[0] != "/tmp/a.mp4" {
		t.Fatalf("clips = %v, want the video clip for shot 1", clips)
	}
	if missing != 1 || fallback != 0 {
		t.Fatalf("missing = %d fallback = %d, want 1 and 0", missing, fallback)
	}
	found := false
	for _, w := range r.job.Warnings {
		if strings.Contains(w, "shotlist-1-shot-2") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no warning recorded for dropped shot: %v", r.job.Warnings)
	}
}

func TestResolveClipsPreservesShotOrder(t *testing.T) {
	r := newTestRun(t, domain.ModeProduct)
	img := filepath.Join(t.TempDir(), "shot3.png")
	if err := os.WriteFile(img, []byte("png"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	sl := domain.ShotList{
		ShotListID: "shotlist-1",
		Shots: []domain.Shot{
			{ShotID: "shotlist-1-shot-1", Duration: 4},
			{ShotID: "shotlist-1-shot-2", Duration: 4},
			{ShotID: "shotlist-1-shot-3", Duration: 4},
			{ShotID: "shotlist-1-shot-4", Duration: 4},
		},
	}
	// Assets are deliberately listed out of shot order, the way concurrent
	// render completion leaves them.
	r.job.Assets = []domain.AssetRequest{
		{RequestID: "shotlist-1-shot-3-img", ShotID: "shotlist-1-shot-3", Type: domain.AssetTypeImage,
			Status: domain.AssetStatusSuccess, LocalPath: img},
		{RequestID: "shotlist-1-shot-3-vid", ShotID: "shotlist-1-shot-3", Type: domain.AssetTypeVideo,
			Status: domain.AssetStatusFailed},
		{RequestID: "shotlist-1-shot-2-vid", ShotID: "shotlist-1-shot-2", Type: domain.AssetTypeVideo,
			Status: domain.AssetStatusSuccess, LocalPath: "/tmp/clip-2.mp4"},
		{RequestID: "shotlist-1-shot-4-img", ShotID: "shotlist-1-shot-4", Type: domain.AssetTypeImage,
			Status: domain.AssetStatusFailed},
		{RequestID: "shotlist-1-shot-4-vid", ShotID: "shotlist-1-shot-4", Type: domain.AssetTypeVideo,
			Status: domain.AssetStatusFailed},
		{RequestID: "shotlist-1-shot-1-vid", ShotID: "shotlist-1-shot-1", Type: domain.AssetTypeVideo,
			Status: domain.AssetStatusSuccess, LocalPath: "/tmp/clip-1.mp4"},
	}

	clips, missing, fallback := r.resolveClips(context.Background(), sl)

	if len(clips) != 3 {
		t.Fatalf("clips = %v, want 3 in shot order", clips)
	}
	if clips[0] != "/tmp/clip-1.mp4" || clips[1] != "/tmp/clip-2.mp4" {
		t.Fatalf("clips = %v, want shot 1 then shot 2 regardless of asset order", clips)
	}
	if !strings.Contains(clips[2], "shotlist-1-shot-3-kb") {
		t.Fatalf("third clip = %q, want synthesized pan for shot 3", clips[2])
	}
	if missing != 1 || fallback != 1 {
		t.Fatalf("missing = %d fallback = %d, want 1 and 1", missing, fallback)
	}
}

func TestResolveClipsStillFallback(t *testing.T) {
	r := newTestRun(t, domain.ModeProduct)
	img := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(img, []byte("png"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	sl := domain.ShotList{
		ShotListID: "shotlist-1",
		Shots:      []domain.Shot{{ShotID: "shotlist-1-shot-1", Duration: 4}},
	}
	r.job.Assets = []domain.AssetRequest{
		{RequestID: "shotlist-1-shot-1-img", ShotID: "shotlist-1-shot-1", Type: domain.AssetTypeImage,
			Status: domain.AssetStatusSuccess, LocalPath: img},
		{RequestID: "shotlist-1-shot-1-vid", ShotID: "shotlist-1-shot-1", Type: domain.AssetTypeVideo,
			Status: domain.AssetStatusFailed},
	}

	clips, missing, fallback := r.resolveClips(context.Background(), sl)

	if len(clips) != 1 {
		t.Fatalf("clips = %v, want synthesized pan clip", clips)
	}
	if missing != 0 || fallback != 1 {
		t.Fatalf("missing = %d fallback = %d, want 0 and 1", missing, fallback)
	}
}

func TestOverlayCues(t *testing.T) {
	r := newTestRun(t, domain.ModeProduct)
	script := &domain.ScriptPackage{
		ScriptID:       "script-1",
		TargetDuration: 12,
		CTAText:        "Shop now",
		TextOverlays: []domain.TextOverlay{
			{Time: 0, Text: "Tired of dull skin?", Style: "hook"},
			{Time: 5, Text: "Brightens in 7 days", Style: "benefit"},
			{Time: 40, Text: "past the end", Style: "benefit"},
			{Time: 8, Text: ""},
		},
	}

	cues := r.overlayCues(context.Background(), script, "nonexistent.mp4")

	if len(cues) != 3 {
		t.Fatalf("cues = %d, want 2 overlays plus cta", len(cues))
	}
	if cues[0].Role != domain.OverlayRoleHook {
		t.Fatalf("first cue role = %q, want hook", cues[0].Role)
	}
	last := cues[len(cues)-1]
	if last.Role != domain.OverlayRoleCTA || last.Text != "Shop now" {
		t.Fatalf("last cue = %+v, want trailing cta", last)
	}
	if last.Start != 12-r.p.cfg.TextWindowSec {
		t.Fatalf("cta start = %v, want %v", last.Start, 12-r.p.cfg.TextWindowSec)
	}
}

func TestOverlayRoleNormalization(t *testing.T) {
	tests := []struct {
		style string
		want  string
	}{
		{"hook", domain.OverlayRoleHook},
		{"HOOK", domain.OverlayRoleHook},
		{"cta", domain.OverlayRoleCTA},
		{"benefit", domain.OverlayRoleBenefit},
		{"sparkly", domain.OverlayRoleBenefit},
		{"", domain.OverlayRoleBenefit},
	}
	for _, tc := range tests {
		if got := overlayRole(tc.style); got != tc.want {
			t.Fatalf("overlayRole(%q) = %q, want %q", tc.style, got, tc.want)
		}
	}
}

func TestMusicFileResolution(t *testing.T) {
	r := newTestRun(t, domain.ModeProduct)
	dir := t.TempDir()
	r.p.cfg.MusicDir = dir
	track := filepath.Join(dir, "upbeat.mp3")
	if err := os.WriteFile(track, []byte("mp3"), 0o644); err != nil {
		t.Fatalf("write track: %v", err)
	}

	if got := r.musicFile("Upbeat"); got != track {
		t.Fatalf("musicFile(Upbeat) = %q, want library track %q", got, track)
	}
	if got := r.musicFile("jazz"); got != "" {
		t.Fatalf("musicFile(jazz) = %q, want empty for unknown mood", got)
	}

	upload := filepath.Join(dir, "custom.mp3")
	if err := os.WriteFile(upload, []byte("mp3"), 0o644); err != nil {
		t.Fatalf("write upload: %v", err)
	}
	r.job.Input.MusicPath = upload
	if got := r.musicFile("upbeat"); got != upload {
		t.Fatalf("musicFile with upload = %q, want uploaded track %q", got, upload)
	}
}

func TestAssemblePerspectiveFallbackDuration(t *testing.T) {
	r := newTestRun(t, domain.ModePerspective)
	r.job.Transitions = []domain.Transition{
		{TransitionID: "trans-1", FromPerspectiveID: "persp-1", ToPerspectiveID: "persp-2", Duration: 6, Order: 1},
		{TransitionID: "trans-2", FromPerspectiveID: "persp-2", ToPerspectiveID: "persp-3", Duration: 6, Order: 2},
	}
	r.job.GeneratedTransitions = []domain.GeneratedTransition{
		{TransitionID: "trans-1", Status: domain.AssetStatusSuccess, LocalPath: "/tmp/trans-1.mp4"},
		{TransitionID: "trans-2", Status: domain.AssetStatusFailed},
	}

	r.assemblePerspective(context.Background())

	if len(r.job.Videos) != 1 {
		t.Fatalf("videos = %d, want 1", len(r.job.Videos))
	}
	v := r.job.Videos[0]
	// The probe stub yields no parsable duration, so the fallback counts only
	// the transitions that made it into the cut.
	if v.DurationSeconds != 6 {
		t.Fatalf("duration = %v, want 6 for the single concatenated transition", v.DurationSeconds)
	}
	if v.MissingShots != 1 {
		t.Fatalf("missing = %d, want 1 for the dropped transition", v.MissingShots)
	}
}

func TestAssembleSkipsWithoutClips(t *testing.T) {
	r := newTestRun(t, domain.ModeProduct)
	r.job.Scripts = []domain.ScriptPackage{{ScriptID: "script-1", AngleID: "angle-1", Voiceover: "v"}}
	r.job.ShotLists = []domain.ShotList{{
		ShotListID: "shotlist-1", ScriptID: "script-1", AngleID: "angle-1",
		Shots: []domain.Shot{{ShotID: "shotlist-1-shot-1", Duration: 5}},
	}}
	// No assets rendered at all.

	r.assemble(context.Background())

	if r.job.Failed() {
		t.Fatalf("assemble with zero attempts set job error %q, want warnings only", r.job.Error)
	}
	if len(r.job.Videos) != 0 {
		t.Fatalf("videos = %d, want 0", len(r.job.Videos))
	}
	if len(r.job.Warnings) == 0 {
		t.Fatalf("no warnings recorded for skipped shot list")
	}
}
