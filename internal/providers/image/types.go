package image

import "context"

// ImageRequest describes one text-conditioned image generation.
type ImageRequest struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Style          string
	RequestID      string
}

// PerspectiveRequest describes one image-conditioned generation: transform a
// source photo in place. DenoiseStrength trades fidelity to the source (low)
// against creative freedom (high).
type PerspectiveRequest struct {
	SourceImagePath string
	Prompt          string
	NegativePrompt  string
	DenoiseStrength float64
	RequestID       string
}

// Result is a successful render: the artifact written to local disk.
type Result struct {
	ImagePath string
}

// Generator is the contract implemented by all image backends.
type Generator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*Result, error)
	GeneratePerspective(ctx context.Context, req PerspectiveRequest) (*Result, error)
}
