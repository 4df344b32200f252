// Package media wraps the ffmpeg/ffprobe command line tools behind the small
// set of operations the assembler needs: concatenation, Ken Burns synthesis,
// timed text overlay, music mixing, and duration probing.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"adfactory/internal/infra"
)

// TextCue is one timed overlay: visible from Start for Duration seconds.
// Role selects the rendering style (hook/benefit/cta).
type TextCue struct {
	Start    float64
	Duration float64
	Text     string
	Role     string
}

// Runner executes ffmpeg/ffprobe as subprocesses.
type Runner struct {
	ffmpeg  string
	ffprobe string
	logger  infra.Logger
}

// NewRunner returns a Runner using the given binaries, defaulting to the
// tools on PATH.
func NewRunner(logger infra.Logger, ffmpegBin, ffprobeBin string) *Runner {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	return &Runner{ffmpeg: ffmpegBin, ffprobe: ffprobeBin, logger: logger}
}

// Concat joins clips in the given order into one re-encoded video. Cut
// transitions only; a concat list file is written next to the output.
func (r *Runner) Concat(ctx context.Context, clips []string, outFile string, width, height, fps int) error {
	if len(clips) == 0 {
		return fmt.Errorf("media: no clips to concatenate")
	}
	listFile := strings.TrimSuffix(outFile, filepath.Ext(outFile)) + "_concat.txt"
	var lines []string
	for _, clip := range clips {
		lines = append(lines, fmt.Sprintf("file '%s'", clip))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("media: write concat list: %w", err)
	}
	scale := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1", width, height, width, height)
	return r.run(ctx, r.ffmpeg, "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-vf", scale,
		"-r", strconv.Itoa(fps),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-an",
		outFile,
	)
}

// KenBurns synthesizes a clip from a still image with a continuous zoom and
// pan over the requested duration.
func (r *Runner) KenBurns(ctx context.Context, imagePath, outFile string, duration, zoomFactor float64, width, height, fps int) error {
	if duration <= 0 {
		duration = 3.0
	}
	if zoomFactor <= 1.0 {
		zoomFactor = 1.08
	}
	totalFrames := int(duration * float64(fps))
	if totalFrames < 1 {
		totalFrames = 1
	}
	zoomStep := (zoomFactor - 1.0) / float64(totalFrames)
	// Upscale first so zoompan has sub-pixel headroom, then back to target.
	filter := fmt.Sprintf(
		"scale=%d:%d,zoompan=z='min(zoom+%.6f,%.3f)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:fps=%d,scale=%d:%d",
		width*2, height*2, zoomStep, zoomFactor, totalFrames, fps, width, height,
	)
	return r.run(ctx, r.ffmpeg, "-y",
		"-loop", "1",
		"-i", imagePath,
		"-vf", filter,
		"-t", fmt.Sprintf("%.3f", duration),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-an",
		outFile,
	)
}

// OverlayText burns the timed cues into the video, centered near the bottom
// with a readable shadow style that varies by cue role.
func (r *Runner) OverlayText(ctx context.Context, inFile, outFile string, cues []TextCue) error {
	filter := BuildDrawtextFilter(cues)
	if filter == "" {
		return fmt.Errorf("media: no text cues to overlay")
	}
	return r.run(ctx, r.ffmpeg, "-y",
		"-i", inFile,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-c:a", "copy",
		outFile,
	)
}

// MixMusic lays a background track under the video at reduced volume, looped
// and trimmed to the video's duration.
func (r *Runner) MixMusic(ctx context.Context, videoFile, musicFile, outFile string, volume float64) error {
	if volume <= 0 || volume > 1 {
		volume = 0.2
	}
	return r.run(ctx, r.ffmpeg, "-y",
		"-i", videoFile,
		"-stream_loop", "-1",
		"-i", musicFile,
		"-filter_complex", fmt.Sprintf("[1:a]volume=%.2f[bg]", volume),
		"-map", "0:v",
		"-map", "[bg]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outFile,
	)
}

// ProbeDuration reports the container duration of a media file in seconds.
func (r *Runner) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, r.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("media: ffprobe %s: %w", filepath.Base(path), err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("media: parse ffprobe duration: %w", err)
	}
	return dur, nil
}

// BuildDrawtextFilter translates cues into a chained drawtext filter string.
// Exported for tests; an empty result means there was nothing to draw.
func BuildDrawtextFilter(cues []TextCue) string {
	var parts []string
	for _, cue := range cues {
		text := strings.TrimSpace(cue.Text)
		if text == "" {
			continue
		}
		dur := cue.Duration
		if dur <= 0 {
			dur = 3.0
		}
		fontSize, fontColor := styleForRole(cue.Role)
		parts = append(parts, fmt.Sprintf(
			"drawtext=text='%s':fontsize=%d:fontcolor=%s:shadowcolor=black@0.7:shadowx=2:shadowy=2:x=(w-text_w)/2:y=h-260:enable='between(t,%.3f,%.3f)'",
			EscapeText(text), fontSize, fontColor, cue.Start, cue.Start+dur,
		))
	}
	return strings.Join(parts, ",")
}

func styleForRole(role string) (size int, color string) {
	switch role {
	case "hook":
		return 64, "white"
	case "cta":
		return 56, "yellow"
	default: // benefit and anything unrecognized
		return 48, "white"
	}
}

// EscapeText escapes characters that break ffmpeg filter syntax.
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "'", "\\'")
	s = strings.ReplaceAll(s, ":", "\\:")
	s = strings.ReplaceAll(s, ",", "\\,")
	return s
}

func (r *Runner) run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("media: %s: %w: %s", filepath.Base(name), err, tail(stderr.String(), 400))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
