package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"adfactory/internal/domain"
)

type createJobRequest struct {
	UserID           string   `json:"user_id"`
	Mode             string   `json:"mode"`
	Description      string   `json:"description"`
	SourceImagePaths []string `json:"source_image_paths"`
	Platforms        []string `json:"platforms"`
	MusicPath        string   `json:"music_path"`
	TargetCount      int      `json:"target_count"`
}

type jobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type jobStatusResponse struct {
	JobID        string   `json:"job_id"`
	Status       string   `json:"status"`
	Mode         string   `json:"mode"`
	CurrentStage string   `json:"current_stage"`
	Error        string   `json:"error,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
	VideoCount   int      `json:"video_count"`
	PackageCount int      `json:"package_count"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

// CreateJob validates the submission, persists a queued job, and, when the
// API runs its own pipeline, launches it immediately.
func (a *App) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	mode := domain.Mode(strings.ToLower(strings.TrimSpace(req.Mode)))
	if mode == "" {
		mode = domain.ModeProduct
	}
	if !mode.Valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported mode")
		return
	}
	if mode.IsPerspective() {
		if len(req.SourceImagePaths) == 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "perspective mode requires source_image_paths")
			return
		}
	} else if strings.TrimSpace(req.Description) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "description required")
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = "anonymous"
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:           uuid.NewString(),
		UserID:       userID,
		Mode:         mode,
		Status:       domain.JobStatusQueued,
		CurrentStage: domain.StagePending,
		TargetCount:  req.TargetCount,
		Input: domain.JobInput{
			Description:      req.Description,
			SourceImagePaths: req.SourceImagePaths,
			Platforms:        req.Platforms,
			MusicPath:        req.MusicPath,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.Jobs.Create(r.Context(), job); err != nil {
		a.Log.Error().Err(err).Msg("handlers: create job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue job")
		return
	}
	if a.Launch != nil {
		a.Launch(job)
	}
	a.json(w, http.StatusAccepted, jobResponse{JobID: job.ID, Status: string(job.Status)})
}

// JobStatus returns the job's lifecycle view: stage, terminal error, and the
// full warning log.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, jobStatusResponse{
		JobID:        job.ID,
		Status:       string(job.Status),
		Mode:         string(job.Mode),
		CurrentStage: string(job.CurrentStage),
		Error:        job.Error,
		Warnings:     job.Warnings,
		VideoCount:   len(job.Videos),
		PackageCount: len(job.Packages),
		CreatedAt:    job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    job.UpdatedAt.Format(time.RFC3339),
	})
}

// ListJobs returns the caller's recent jobs, newest first.
func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	jobs, err := a.Jobs.ListByUser(r.Context(), userID, limit)
	if err != nil {
		a.Log.Error().Err(err).Msg("handlers: list jobs failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list jobs")
		return
	}
	out := make([]jobStatusResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, jobStatusResponse{
			JobID:        job.ID,
			Status:       string(job.Status),
			Mode:         string(job.Mode),
			CurrentStage: string(job.CurrentStage),
			Error:        job.Error,
			VideoCount:   len(job.Videos),
			PackageCount: len(job.Packages),
			CreatedAt:    job.CreatedAt.Format(time.RFC3339),
			UpdatedAt:    job.UpdatedAt.Format(time.RFC3339),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"jobs": out})
}

// CancelJob flags the job for cancellation. The pipeline honors the flag
// between stages; a stage already in flight runs to completion first.
func (a *App) CancelJob(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	if job.Status == domain.JobStatusSucceeded || job.Status == domain.JobStatusFailed {
		a.error(w, http.StatusConflict, "conflict", "job already finished")
		return
	}
	job.CancelRequested = true
	if err := a.Jobs.Update(r.Context(), job); err != nil {
		a.Log.Error().Err(err).Msg("handlers: cancel job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to cancel job")
		return
	}
	a.json(w, http.StatusAccepted, jobResponse{JobID: job.ID, Status: string(job.Status)})
}

// DeleteJob removes a finished job record. Artifacts on disk are retained.
func (a *App) DeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if err := a.Jobs.Delete(r.Context(), jobID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Log.Error().Err(err).Msg("handlers: delete job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete job")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) loadJob(w http.ResponseWriter, r *http.Request) (*domain.Job, bool) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return nil, false
	}
	job, err := a.Jobs.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return nil, false
		}
		a.Log.Error().Err(err).Msg("handlers: load job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return nil, false
	}
	return job, true
}
