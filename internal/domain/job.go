package domain

import (
	"fmt"
	"time"
)

// Mode enumerates supported generation pipelines.
type Mode string

const (
	// ModeProduct turns a product brief into scripted UGC-style ads.
	ModeProduct Mode = "product"
	// ModeUGC is the product pipeline tuned for creator-style hooks.
	ModeUGC Mode = "ugc"
	// ModePerspective animates new camera angles of uploaded photos.
	ModePerspective Mode = "perspective"
)

// IsPerspective reports whether the mode runs the image-conditioned pipeline.
func (m Mode) IsPerspective() bool { return m == ModePerspective }

// Valid reports whether the mode is one the factory knows how to run.
func (m Mode) Valid() bool {
	switch m {
	case ModeProduct, ModeUGC, ModePerspective:
		return true
	}
	return false
}

// Stage tags the pipeline step a job last executed.
type Stage string

const (
	StagePending            Stage = "pending"
	StageIntake             Stage = "intake"
	StageAngles             Stage = "angles"
	StageScripts            Stage = "scripts"
	StageShots              Stage = "shots"
	StagePrompts            Stage = "prompts"
	StageRender             Stage = "render"
	StagePerspectives       Stage = "perspectives"
	StageTransitions        Stage = "transitions"
	StageRenderPerspectives Stage = "render_perspectives"
	StageRenderTransitions  Stage = "render_transitions"
	StageAssemble           Stage = "assemble"
	StageQC                 Stage = "qc"
	StageMetadata           Stage = "metadata"
	StageDone               Stage = "done"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// JobInput carries the raw material a job was submitted with.
type JobInput struct {
	Description      string   `json:"description"`
	SourceImagePaths []string `json:"source_image_paths,omitempty"`
	Platforms        []string `json:"platforms,omitempty"`
	MusicPath        string   `json:"music_path,omitempty"`
}

// Job is the root aggregate for one ad-factory run. It owns every entity the
// pipeline produces; stages mutate it in strict sequence, so no field needs
// locking. Error is terminal: once set, the graph short-circuits to done.
type Job struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Mode            Mode      `json:"mode"`
	Status          JobStatus `json:"status"`
	CurrentStage    Stage     `json:"current_stage"`
	TargetCount     int       `json:"target_count"`
	Error           string    `json:"error,omitempty"`
	Warnings        []string  `json:"warnings,omitempty"`
	CancelRequested bool      `json:"cancel_requested,omitempty"`

	Input JobInput `json:"input"`

	Profile   *ProductProfile  `json:"profile,omitempty"`
	Angles    []CreativeAngle  `json:"angles,omitempty"`
	Scripts   []ScriptPackage  `json:"scripts,omitempty"`
	ShotLists []ShotList       `json:"shot_lists,omitempty"`
	Assets    []AssetRequest   `json:"assets,omitempty"`
	Videos    []GeneratedVideo `json:"videos,omitempty"`
	Packages  []UploadPackage  `json:"packages,omitempty"`

	SourceImages          []SourceImage          `json:"source_images,omitempty"`
	Perspectives          []Perspective          `json:"perspectives,omitempty"`
	GeneratedPerspectives []GeneratedPerspective `json:"generated_perspectives,omitempty"`
	Transitions           []Transition           `json:"transitions,omitempty"`
	GeneratedTransitions  []GeneratedTransition  `json:"generated_transitions,omitempty"`

	StartedAt   time.Time `json:"started_at,omitzero"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Warn appends a human-readable notice to the job's chronological warning log.
// Warnings are the only trace of partial failure surfaced to callers.
func (j *Job) Warn(format string, args ...any) {
	j.Warnings = append(j.Warnings, fmt.Sprintf(format, args...))
}

// Fail records a terminal stage error. The first failure wins; later calls
// are demoted to warnings so the original cause stays visible.
func (j *Job) Fail(stage Stage, err error) {
	msg := fmt.Sprintf("stage %s: %v", stage, err)
	if j.Error != "" {
		j.Warn("suppressed error after terminal failure: %s", msg)
		return
	}
	j.Error = msg
}

// Failed reports whether the job carries a terminal error.
func (j *Job) Failed() bool { return j.Error != "" }
