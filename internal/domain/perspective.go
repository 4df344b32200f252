package domain

// SourceImage is an uploaded photograph registered by perspective-mode intake.
type SourceImage struct {
	SourceID  string `json:"source_id"`
	LocalPath string `json:"local_path"`
	URL       string `json:"url,omitempty"`
}

// Perspective is a planned new view of a source image, rendered by
// image-conditioned generation.
type Perspective struct {
	PerspectiveID   string  `json:"perspective_id"`
	SourceID        string  `json:"source_id"`
	Name            string  `json:"name"`
	Prompt          string  `json:"prompt"`
	DenoiseStrength float64 `json:"denoise_strength"`
	Order           int     `json:"order"`
}

// GeneratedPerspective tracks the render result for one perspective.
type GeneratedPerspective struct {
	PerspectiveID string      `json:"perspective_id"`
	Status        AssetStatus `json:"status"`
	RetryCount    int         `json:"retry_count"`
	LocalPath     string      `json:"local_path,omitempty"`
	ResultURL     string      `json:"result_url,omitempty"`
	ErrorMessage  string      `json:"error_message,omitempty"`
}

// Transition is a planned motion between two rendered perspectives. The
// start/end perspectives are hard dependencies: if either failed to render,
// the transition fails immediately with no retry.
type Transition struct {
	TransitionID      string  `json:"transition_id"`
	FromPerspectiveID string  `json:"from_perspective_id"`
	ToPerspectiveID   string  `json:"to_perspective_id"`
	MotionPrompt      string  `json:"motion_prompt"`
	Duration          float64 `json:"duration"`
	Order             int     `json:"order"`
}

// GeneratedTransition tracks the render result for one transition clip.
type GeneratedTransition struct {
	TransitionID string      `json:"transition_id"`
	Status       AssetStatus `json:"status"`
	RetryCount   int         `json:"retry_count"`
	LocalPath    string      `json:"local_path,omitempty"`
	ResultURL    string      `json:"result_url,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}
