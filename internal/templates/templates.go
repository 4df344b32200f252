// Package templates holds the mode-specific creative templates: angle
// patterns, shot types, style presets, and the system prompts handed to the
// structured-generation backend. Templates ship embedded so a deployment has
// no runtime file dependency.
package templates

import (
	"embed"
	"encoding/json"
	"fmt"

	"adfactory/internal/domain"
)

//go:embed product.json ugc.json perspective.json
var files embed.FS

// AnglePattern seeds the angle-generation stage with a proven hook shape.
type AnglePattern struct {
	HookType          string   `json:"hook_type"`
	Description       string   `json:"description"`
	EmotionalTriggers []string `json:"emotional_triggers"`
}

// ShotType describes a camera setup the shot planner may use.
type ShotType struct {
	Name            string  `json:"name"`
	TypicalDuration float64 `json:"typical_duration"`
	Description     string  `json:"description"`
}

// StylePreset carries the rendering defaults for a mode.
type StylePreset struct {
	Style          string `json:"style"`
	NegativePrompt string `json:"negative_prompt"`
	AspectRatio    string `json:"aspect_ratio"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

// Prompts holds the per-stage system prompts.
type Prompts struct {
	Intake       string `json:"intake"`
	Angles       string `json:"angles"`
	Scripts      string `json:"scripts"`
	Shots        string `json:"shots"`
	ShotPrompts  string `json:"shot_prompts"`
	Perspectives string `json:"perspectives"`
	Transitions  string `json:"transitions"`
	Metadata     string `json:"metadata"`
}

// Template is everything stage agents need for one generation mode.
type Template struct {
	Mode            string         `json:"mode"`
	AnglePatterns   []AnglePattern `json:"angle_patterns"`
	ShotTypes       []ShotType     `json:"shot_types"`
	Style           StylePreset    `json:"style"`
	TransitionStyle string         `json:"transition_style"`
	Prompts         Prompts        `json:"prompts"`
}

// Load parses the embedded template for the given mode.
func Load(mode domain.Mode) (*Template, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("templates: %w: %q", domain.ErrInvalidMode, mode)
	}
	data, err := files.ReadFile(string(mode) + ".json")
	if err != nil {
		return nil, fmt.Errorf("templates: read %s: %w", mode, err)
	}
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("templates: parse %s: %w", mode, err)
	}
	return &t, nil
}
