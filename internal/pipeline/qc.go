package pipeline

import (
	"context"
	"fmt"
)

// QCParams carries the scoring policy for one evaluation.
type QCParams struct {
	MinDuration     float64
	MaxDuration     float64
	MissingPenalty  float64
	FallbackPenalty float64
	ShortPenalty    float64
	LongPenalty     float64
}

func (c Config) qcParams() QCParams {
	return QCParams{
		MinDuration:     c.QCMinDurationSec,
		MaxDuration:     c.QCMaxDurationSec,
		MissingPenalty:  c.MissingShotPenalty,
		FallbackPenalty: c.FallbackShotPenalty,
		ShortPenalty:    c.ShortDurationPenalty,
		LongPenalty:     c.LongDurationPenalty,
	}
}

// ScoreVideo computes the deterministic quality score for one assembled
// video. It starts at 1.0, subtracts per-defect penalties, and floors at
// zero. Identical inputs always produce the identical score and issue list.
func ScoreVideo(params QCParams, missing, fallback int, duration float64) (float64, []string) {
	score := 1.0
	var issues []string
	for i := 0; i < missing; i++ {
		score -= params.MissingPenalty
		issues = append(issues, "missing shot")
	}
	for i := 0; i < fallback; i++ {
		score -= params.FallbackPenalty
		issues = append(issues, "fallback used")
	}
	if duration < params.MinDuration {
		score -= params.ShortPenalty
		issues = append(issues, fmt.Sprintf("duration %.1fs below minimum %.1fs", duration, params.MinDuration))
	} else if duration > params.MaxDuration {
		score -= params.LongPenalty
		issues = append(issues, fmt.Sprintf("duration %.1fs above maximum %.1fs", duration, params.MaxDuration))
	}
	if score < 0 {
		score = 0
	}
	return score, issues
}

// qualityCheck scores every assembled video against the pass threshold.
// Failing QC never fails the job; a failed video simply gets no upload
// metadata downstream.
func (r *run) qualityCheck(ctx context.Context) {
	_ = ctx
	if len(r.job.Videos) == 0 {
		r.job.Warn("qc: no videos to evaluate")
		return
	}
	params := r.p.cfg.qcParams()
	passed := 0
	for i := range r.job.Videos {
		v := &r.job.Videos[i]
		v.QCScore, v.QCIssues = ScoreVideo(params, v.MissingShots, v.FallbackShots, v.DurationSeconds)
		v.QCPassed = v.QCScore >= r.p.cfg.QCPassThreshold
		if v.QCPassed {
			passed++
		} else {
			r.job.Warn("qc: %s scored %.2f, below threshold %.2f", v.VideoID, v.QCScore, r.p.cfg.QCPassThreshold)
		}
	}
	r.log.Info().Int("passed", passed).Int("total", len(r.job.Videos)).Msg("qc: complete")
}
