// Package handlers implements the public API surface: job submission,
// status, cancellation, and result listing.
package handlers

import (
	"encoding/json"
	"net/http"

	"adfactory/internal/domain"
	"adfactory/internal/infra"
)

// App carries the handler dependencies. Launch is how a submitted job begins
// executing: in single-process deployments it hands the job to an in-process
// pipeline goroutine; when a worker fleet drains the queue it is nil and
// jobs wait in the store as queued.
type App struct {
	Log    infra.Logger
	Jobs   domain.JobStore
	Launch func(job *domain.Job)
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, tag, msg string) {
	a.json(w, code, map[string]string{"error": tag, "message": msg})
}
