package pipeline

import (
	"context"
	"math"
	"testing"

	"adfactory/internal/domain"
)

func testQCParams() QCParams {
	return DefaultConfig().qcParams()
}

func TestScoreVideo(t *testing.T) {
	tests := []struct {
		name      string
		missing   int
		fallback  int
		duration  float64
		wantScore float64
		wantIssue int
	}{
		{
			name:      "clean video",
			duration:  12.0,
			wantScore: 1.0,
		},
		{
			name:      "one fallback one missing",
			missing:   1,
			fallback:  1,
			duration:  12.0,
			wantScore: 0.80,
			wantIssue: 2,
		},
		{
			name:      "too short",
			duration:  8.5,
			wantScore: 0.80,
			wantIssue: 1,
		},
		{
			name:      "too long",
			duration:  18.0,
			wantScore: 0.90,
			wantIssue: 1,
		},
		{
			name:      "boundary durations incur no penalty",
			duration:  9.0,
			wantScore: 1.0,
		},
		{
			name:      "score floors at zero",
			missing:   10,
			duration:  1.0,
			wantScore: 0.0,
			wantIssue: 11,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			score, issues := ScoreVideo(testQCParams(), tc.missing, tc.fallback, tc.duration)
			if math.Abs(score-tc.wantScore) > 1e-9 {
				t.Fatalf("ScoreVideo() score = %v, want %v", score, tc.wantScore)
			}
			if len(issues) != tc.wantIssue {
				t.Fatalf("ScoreVideo() issues = %d, want %d: %v", len(issues), tc.wantIssue, issues)
			}
		})
	}
}

func TestScoreVideoDeterministic(t *testing.T) {
	params := testQCParams()
	first, firstIssues := ScoreVideo(params, 2, 3, 7.5)
	for i := 0; i < 10; i++ {
		score, issues := ScoreVideo(params, 2, 3, 7.5)
		if score != first {
			t.Fatalf("ScoreVideo() score = %v on run %d, want %v", score, i, first)
		}
		if len(issues) != len(firstIssues) {
			t.Fatalf("ScoreVideo() issue count changed between runs")
		}
	}
}

func TestQualityCheckMarksVideos(t *testing.T) {
	r := newTestRun(t, domain.ModeProduct)
	r.job.Videos = []domain.GeneratedVideo{
		{VideoID: "video-1", DurationSeconds: 12.0},
		{VideoID: "video-2", DurationSeconds: 12.0, MissingShots: 2, FallbackShots: 1},
	}

	r.qualityCheck(context.Background())

	if !r.job.Videos[0].QCPassed {
		t.Fatalf("video-1 QCPassed = false, want true (score %v)", r.job.Videos[0].QCScore)
	}
	if r.job.Videos[1].QCPassed {
		t.Fatalf("video-2 QCPassed = true, want false (score %v)", r.job.Videos[1].QCScore)
	}
	if r.job.Failed() {
		t.Fatalf("qualityCheck set job error %q, want none", r.job.Error)
	}
	if len(r.job.Warnings) == 0 {
		t.Fatalf("qualityCheck recorded no warning for failing video")
	}
}

func TestQualityCheckNoVideos(t *testing.T) {
	r := newTestRun(t, domain.ModeProduct)

	r.qualityCheck(context.Background())

	if r.job.Failed() {
		t.Fatalf("qualityCheck with no videos set job error %q, want warning only", r.job.Error)
	}
	if len(r.job.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", r.job.Warnings)
	}
}
