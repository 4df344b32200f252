package domain

import "time"

// AssetType enumerates the kinds of renderable assets.
type AssetType string

const (
	AssetTypeImage AssetType = "image"
	AssetTypeVideo AssetType = "video"
)

// Backend names the generation service an asset request targets.
type Backend string

const (
	BackendComfyUI Backend = "comfyui"
	BackendKeyAI   Backend = "keyai"
)

// AssetStatus is the per-request state machine. Requests enter the render
// coordinator as pending and always leave as success or failed.
type AssetStatus string

const (
	AssetStatusPending   AssetStatus = "pending"
	AssetStatusRendering AssetStatus = "rendering"
	AssetStatusSuccess   AssetStatus = "success"
	AssetStatusFailed    AssetStatus = "failed"
)

// AssetRequest is one generation job for one shot: the unit of concurrency
// control in the render coordinator. Each concurrent task owns exactly one
// request record and never writes to another.
type AssetRequest struct {
	RequestID      string      `json:"request_id"`
	ShotID         string      `json:"shot_id"`
	ShotListID     string      `json:"shot_list_id"`
	Type           AssetType   `json:"asset_type"`
	Backend        Backend     `json:"backend"`
	Prompt         string      `json:"prompt"`
	NegativePrompt string      `json:"negative_prompt,omitempty"`
	Width          int         `json:"width"`
	Height         int         `json:"height"`
	AspectRatio    string      `json:"aspect_ratio,omitempty"`
	Duration       float64     `json:"duration,omitempty"`
	Status         AssetStatus `json:"status"`
	RetryCount     int         `json:"retry_count"`
	LocalPath      string      `json:"local_path,omitempty"`
	ResultURL      string      `json:"result_url,omitempty"`
	ErrorMessage   string      `json:"error_message,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// GeneratedVideo is one assembled output variation with its QC verdict.
type GeneratedVideo struct {
	VideoID         string   `json:"video_id"`
	AngleID         string   `json:"angle_id"`
	ScriptID        string   `json:"script_id"`
	ShotListID      string   `json:"shot_list_id"`
	StorageURL      string   `json:"storage_url,omitempty"`
	LocalPath       string   `json:"local_path,omitempty"`
	DurationSeconds float64  `json:"duration_seconds"`
	QCScore         float64  `json:"qc_score"`
	QCPassed        bool     `json:"qc_passed"`
	QCIssues        []string `json:"qc_issues,omitempty"`
	MissingShots    int      `json:"missing_shots"`
	FallbackShots   int      `json:"fallback_shots"`
}

// UploadPackage is platform-specific upload metadata for one video.
type UploadPackage struct {
	PackageID    string   `json:"package_id"`
	VideoID      string   `json:"video_id"`
	Platform     string   `json:"platform"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Hashtags     []string `json:"hashtags,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
}
