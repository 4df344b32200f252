package video

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

// KeyAIOptions configures the hosted video backend client.
type KeyAIOptions struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	HTTPClient   *http.Client
	Logger       *infra.Logger
}

const (
	keyaiDefaultBaseURL      = "https://api.keyai.example/v1"
	keyaiDefaultPollInterval = 5 * time.Second
	keyaiDefaultHTTPTimeout  = 60 * time.Second
)

// KeyAIClient drives a hosted image-to-video service with a submit-then-poll
// API. Callers bound the overall wall clock via ctx; this client only polls
// until the task settles or the context expires.
type KeyAIClient struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	client       *http.Client
	logger       *infra.Logger
}

type keyaiSubmitRequest struct {
	ImageURL      string  `json:"image_url,omitempty"`
	StartImageURL string  `json:"start_image_url,omitempty"`
	EndImageURL   string  `json:"end_image_url,omitempty"`
	Prompt        string  `json:"prompt,omitempty"`
	Duration      float64 `json:"duration,omitempty"`
	AspectRatio   string  `json:"aspect_ratio,omitempty"`
	RequestID     string  `json:"request_id,omitempty"`
}

type keyaiSubmitResponse struct {
	TaskID string `json:"task_id"`
	Error  string `json:"error"`
}

type keyaiTaskResponse struct {
	Status   string `json:"status"` // pending | processing | completed | failed
	VideoURL string `json:"video_url"`
	Error    string `json:"error"`
}

// NewKeyAIClient validates options and returns a ready client.
func NewKeyAIClient(opts KeyAIOptions) (*KeyAIClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("video: api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = keyaiDefaultBaseURL
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = keyaiDefaultPollInterval
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: keyaiDefaultHTTPTimeout}
	}
	return &KeyAIClient{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		pollInterval: pollInterval,
		client:       client,
		logger:       opts.Logger,
	}, nil
}

// GenerateVideo animates one still image into a clip.
func (c *KeyAIClient) GenerateVideo(ctx context.Context, req VideoRequest) (*Result, error) {
	if strings.TrimSpace(req.ImageURL) == "" {
		return nil, errors.New("video: image url is required")
	}
	return c.run(ctx, "/generations", keyaiSubmitRequest{
		ImageURL:    req.ImageURL,
		Prompt:      req.Prompt,
		Duration:    req.Duration,
		AspectRatio: req.AspectRatio,
		RequestID:   req.RequestID,
	})
}

// GenerateVideoFromFrames interpolates motion between start and end keyframes.
func (c *KeyAIClient) GenerateVideoFromFrames(ctx context.Context, req FrameRequest) (*Result, error) {
	if strings.TrimSpace(req.StartImageURL) == "" || strings.TrimSpace(req.EndImageURL) == "" {
		return nil, errors.New("video: start and end image urls are required")
	}
	return c.run(ctx, "/interpolations", keyaiSubmitRequest{
		StartImageURL: req.StartImageURL,
		EndImageURL:   req.EndImageURL,
		Prompt:        req.MotionPrompt,
		Duration:      req.Duration,
		RequestID:     req.RequestID,
	})
}

func (c *KeyAIClient) run(ctx context.Context, path string, payload keyaiSubmitRequest) (*Result, error) {
	taskID, err := c.submit(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	if c.logger != nil {
		c.logger.Debug().Str("task_id", taskID).Str("request_id", payload.RequestID).Msg("video: task submitted")
	}
	return c.poll(ctx, path, taskID)
}

func (c *KeyAIClient) submit(ctx context.Context, path string, payload keyaiSubmitRequest) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("video: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return "", fmt.Errorf("video: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("video: submit: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("video: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("video: submit status %d", resp.StatusCode)
	}
	var parsed keyaiSubmitResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("video: decode submit response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("video: backend: %s", parsed.Error)
	}
	if parsed.TaskID == "" {
		return "", errors.New("video: submit returned no task id")
	}
	return parsed.TaskID, nil
}

func (c *KeyAIClient) poll(ctx context.Context, path, taskID string) (*Result, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
		task, err := c.fetchTask(ctx, path, taskID)
		if err != nil {
			return nil, err
		}
		switch task.Status {
		case "completed":
			if task.VideoURL == "" {
				return nil, errors.New("video: task completed without video url")
			}
			return &Result{VideoURL: task.VideoURL}, nil
		case "failed":
			msg := task.Error
			if msg == "" {
				msg = "task failed without detail"
			}
			return nil, fmt.Errorf("video: backend: %s", msg)
		case "pending", "processing":
			// keep polling
		default:
			return nil, fmt.Errorf("video: unknown task status %q", task.Status)
		}
	}
}

func (c *KeyAIClient) fetchTask(ctx context.Context, path, taskID string) (*keyaiTaskResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"/"+taskID, nil)
	if err != nil {
		return nil, fmt.Errorf("video: build poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("video: poll: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("video: read poll response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("video: poll status %d", resp.StatusCode)
	}
	var parsed keyaiTaskResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("video: decode poll response: %w", err)
	}
	return &parsed, nil
}

var _ Generator = (*KeyAIClient)(nil)
