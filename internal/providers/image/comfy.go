package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"adfactory/internal/infra"
)

// ComfyOptions configures the ComfyUI bridge client.
type ComfyOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

const comfyDefaultTimeout = 180 * time.Second

// ComfyClient talks to a ComfyUI bridge service that runs workflows on a
// local GPU and reports the rendered file path. Generation is synchronous;
// the bridge holds the request open until the workflow finishes.
type ComfyClient struct {
	baseURL string
	client  *http.Client
	logger  *infra.Logger
}

type comfyGenerateRequest struct {
	Prompt          string  `json:"prompt"`
	NegativePrompt  string  `json:"negative_prompt,omitempty"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	Style           string  `json:"style,omitempty"`
	SourceImage     string  `json:"source_image,omitempty"`
	DenoiseStrength float64 `json:"denoise_strength,omitempty"`
	RequestID       string  `json:"request_id,omitempty"`
}

type comfyGenerateResponse struct {
	Success   bool   `json:"success"`
	ImagePath string `json:"image_path"`
	Error     string `json:"error"`
}

// NewComfyClient validates options and returns a ready client.
func NewComfyClient(opts ComfyOptions) (*ComfyClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("image: comfy base url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: comfyDefaultTimeout}
	}
	return &ComfyClient{baseURL: baseURL, client: client, logger: opts.Logger}, nil
}

// GenerateImage renders one text-conditioned image.
func (c *ComfyClient) GenerateImage(ctx context.Context, req ImageRequest) (*Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("image: prompt is required")
	}
	return c.post(ctx, "/generate", comfyGenerateRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Width:          req.Width,
		Height:         req.Height,
		Style:          req.Style,
		RequestID:      req.RequestID,
	})
}

// GeneratePerspective renders an image-conditioned variant of a source photo.
func (c *ComfyClient) GeneratePerspective(ctx context.Context, req PerspectiveRequest) (*Result, error) {
	if strings.TrimSpace(req.SourceImagePath) == "" {
		return nil, errors.New("image: source image path is required")
	}
	return c.post(ctx, "/img2img", comfyGenerateRequest{
		Prompt:          req.Prompt,
		NegativePrompt:  req.NegativePrompt,
		SourceImage:     req.SourceImagePath,
		DenoiseStrength: req.DenoiseStrength,
		RequestID:       req.RequestID,
	})
}

func (c *ComfyClient) post(ctx context.Context, path string, payload comfyGenerateRequest) (*Result, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("image: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("image: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("image: request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("image: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image: backend status %d", resp.StatusCode)
	}
	var parsed comfyGenerateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("image: decode response: %w", err)
	}
	if !parsed.Success {
		msg := parsed.Error
		if msg == "" {
			msg = "backend reported failure without detail"
		}
		return nil, fmt.Errorf("image: backend: %s", msg)
	}
	if parsed.ImagePath == "" {
		return nil, errors.New("image: backend returned success without image path")
	}
	if c.logger != nil {
		c.logger.Debug().Str("request_id", payload.RequestID).Str("path", parsed.ImagePath).Msg("image: render complete")
	}
	return &Result{ImagePath: parsed.ImagePath}, nil
}

var _ Generator = (*ComfyClient)(nil)
