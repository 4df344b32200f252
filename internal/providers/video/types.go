package video

import "context"

// VideoRequest describes one image-to-video generation: animate a rendered
// still into a short clip.
type VideoRequest struct {
	ImageURL    string
	Prompt      string
	Duration    float64
	AspectRatio string
	RequestID   string
}

// FrameRequest describes a motion-interpolation render between two keyframes.
type FrameRequest struct {
	StartImageURL string
	EndImageURL   string
	MotionPrompt  string
	Duration      float64
	RequestID     string
}

// Result is a successful render: a URL the clip can be downloaded from.
type Result struct {
	VideoURL string
}

// Generator is the contract implemented by all video backends.
type Generator interface {
	GenerateVideo(ctx context.Context, req VideoRequest) (*Result, error)
	GenerateVideoFromFrames(ctx context.Context, req FrameRequest) (*Result, error)
}
