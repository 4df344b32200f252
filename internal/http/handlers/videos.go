package handlers

import "net/http"

type videoResponse struct {
	VideoID         string   `json:"video_id"`
	AngleID         string   `json:"angle_id,omitempty"`
	ScriptID        string   `json:"script_id,omitempty"`
	URL             string   `json:"url,omitempty"`
	DurationSeconds float64  `json:"duration_seconds"`
	QCScore         float64  `json:"qc_score"`
	QCPassed        bool     `json:"qc_passed"`
	QCIssues        []string `json:"qc_issues,omitempty"`
	MissingShots    int      `json:"missing_shots"`
	FallbackShots   int      `json:"fallback_shots"`
}

// JobVideos lists the assembled videos for a job with their QC verdicts.
func (a *App) JobVideos(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	out := make([]videoResponse, 0, len(job.Videos))
	for _, v := range job.Videos {
		out = append(out, videoResponse{
			VideoID:         v.VideoID,
			AngleID:         v.AngleID,
			ScriptID:        v.ScriptID,
			URL:             v.StorageURL,
			DurationSeconds: v.DurationSeconds,
			QCScore:         v.QCScore,
			QCPassed:        v.QCPassed,
			QCIssues:        v.QCIssues,
			MissingShots:    v.MissingShots,
			FallbackShots:   v.FallbackShots,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"videos": out})
}

// JobPackages lists the per-platform upload packages for a job.
func (a *App) JobPackages(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, map[string]any{"packages": job.Packages})
}
