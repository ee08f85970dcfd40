package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"vision-board-backend/internal/models"
)

const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"

	negativePrompt  = "low quality, blurry, distorted, ugly, bad anatomy"
	framesPerSecond = 8
)

type Options struct {
	BaseURL           string
	APIToken          string
	TextToVideoModel  string
	ImageToVideoModel string
	PollInterval      time.Duration
}

// Client is the animation provider backed by Replicate predictions.
type Client struct {
	opts       Options
	httpClient *http.Client
}

type createPredictionRequest struct {
	Version string                 `json:"version"`
	Input   map[string]interface{} `json:"input"`
}

func NewClient(opts Options) *Client {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	return &Client{
		opts: opts,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// TextToVideo renders a short clip from a prompt and blocks until the
// prediction settles.
func (c *Client) TextToVideo(ctx context.Context, prompt string, duration int) (string, error) {
	input := map[string]interface{}{
		"prompt":              prompt,
		"negative_prompt":     negativePrompt,
		"num_frames":          duration * framesPerSecond,
		"num_inference_steps": 20,
		"guidance_scale":      7.5,
		"width":               512,
		"height":              512,
	}
	return c.run(ctx, c.opts.TextToVideoModel, input)
}

// ImageToVideo animates the image at imageURL.
func (c *Client) ImageToVideo(ctx context.Context, imageURL string, duration int) (string, error) {
	input := map[string]interface{}{
		"input_image":      imageURL,
		"video_length":     "14_frames_with_svd",
		"fps":              framesPerSecond,
		"motion_bucket_id": 127,
		"cond_aug":         0.02,
		"decoding_t":       7,
	}
	return c.run(ctx, c.opts.ImageToVideoModel, input)
}

// PredictionStatus reports a single prediction without waiting.
func (c *Client) PredictionStatus(ctx context.Context, predictionID string) (*models.PredictionStatus, error) {
	body, err := c.do(ctx, http.MethodGet, "/predictions/"+predictionID, nil)
	if err != nil {
		return nil, err
	}
	return parsePrediction(body), nil
}

func (c *Client) run(ctx context.Context, model string, input map[string]interface{}) (string, error) {
	id, err := c.createPrediction(ctx, model, input)
	if err != nil {
		return "", err
	}

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		status, err := c.PredictionStatus(ctx, id)
		if err != nil {
			return "", err
		}
		switch status.Status {
		case StatusSucceeded:
			if status.Output == "" {
				return "", fmt.Errorf("prediction %s succeeded without output", id)
			}
			return status.Output, nil
		case StatusFailed, StatusCanceled:
			return "", fmt.Errorf("prediction %s %s: %s", id, status.Status, status.Error)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("prediction %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) createPrediction(ctx context.Context, model string, input map[string]interface{}) (string, error) {
	payload, err := json.Marshal(createPredictionRequest{
		Version: ModelVersion(model),
		Input:   input,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/predictions", payload)
	if err != nil {
		return "", err
	}

	id := gjson.GetBytes(body, "id").String()
	if id == "" {
		return "", fmt.Errorf("prediction id is empty in response, body: %s", string(body))
	}
	return id, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.opts.APIToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("replicate %s %s: status %d, body: %s", method, path, resp.StatusCode, string(body))
	}
	return body, nil
}

// ModelVersion returns the version hash of an "owner/name:version" model id.
// Bare ids are passed through.
func ModelVersion(model string) string {
	if i := strings.LastIndex(model, ":"); i >= 0 {
		return model[i+1:]
	}
	return model
}

func parsePrediction(body []byte) *models.PredictionStatus {
	result := gjson.ParseBytes(body)
	output := result.Get("output")
	if output.IsArray() {
		output = output.Get("0")
	}
	return &models.PredictionStatus{
		ID:     result.Get("id").String(),
		Status: result.Get("status").String(),
		Output: output.String(),
		Error:  result.Get("error").String(),
	}
}
