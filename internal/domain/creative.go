package domain

// ProductProfile is the normalized business/product description produced by
// the intake stage. Read-only after intake.
type ProductProfile struct {
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	TargetAudience string   `json:"target_audience"`
	Benefits       []string `json:"benefits"`
	PainPoints     []string `json:"pain_points"`
	USPs           []string `json:"usps"`
	Tone           string   `json:"tone"`
	BrandColors    []string `json:"brand_colors"`
}

// CreativeAngle is one hook/strategy for selling the product. Each angle is
// consumed 1:1 by a script.
type CreativeAngle struct {
	AngleID          string  `json:"angle_id"`
	Name             string  `json:"name"`
	HookType         string  `json:"hook_type"`
	HookText         string  `json:"hook_text"`
	EmotionalTrigger string  `json:"emotional_trigger"`
	TargetSegment    string  `json:"target_segment"`
	Effectiveness    float64 `json:"estimated_effectiveness"`
}

// Overlay roles drive the text style used at assembly time.
const (
	OverlayRoleHook    = "hook"
	OverlayRoleBenefit = "benefit"
	OverlayRoleCTA     = "cta"
)

// TextOverlay is one timed on-screen text cue.
type TextOverlay struct {
	Time  float64 `json:"time"`
	Text  string  `json:"text"`
	Style string  `json:"style"`
}

// ScriptPackage is the voiceover + overlay plan for one angle.
type ScriptPackage struct {
	ScriptID       string        `json:"script_id"`
	AngleID        string        `json:"angle_id"`
	Voiceover      string        `json:"voiceover"`
	TextOverlays   []TextOverlay `json:"text_overlays"`
	CTAText        string        `json:"cta_text"`
	TargetDuration float64       `json:"target_duration"`
	MusicMood      string        `json:"music_mood"`
}

// Shot is one planned camera setup inside a shot list. Shot order is
// preserved end-to-end and drives concatenation order at assembly.
type Shot struct {
	ShotID         string  `json:"shot_id"`
	ShotType       string  `json:"shot_type"`
	Duration       float64 `json:"duration"`
	Description    string  `json:"description"`
	CameraMovement string  `json:"camera_movement"`
	Subject        string  `json:"subject"`
	Background     string  `json:"background"`
	Lighting       string  `json:"lighting"`
}

// ShotList is the ordered shot plan for one script.
type ShotList struct {
	ShotListID      string  `json:"shot_list_id"`
	ScriptID        string  `json:"script_id"`
	AngleID         string  `json:"angle_id"`
	Shots           []Shot  `json:"shots"`
	TotalDuration   float64 `json:"total_duration"`
	TransitionStyle string  `json:"transition_style"`
}
