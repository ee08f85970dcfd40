package models

import "time"

// Envelope is the single response shape used by every endpoint.
type Envelope struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Data      interface{}       `json:"data,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	Timestamp string            `json:"timestamp"`
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type StoryResult struct {
	Story string     `json:"story"`
	Usage TokenUsage `json:"usage"`
}

type PredictionStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

type ProjectData struct {
	Project *Project `json:"project"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

type ProjectListData struct {
	Projects   []Project  `json:"projects"`
	Pagination Pagination `json:"pagination"`
}

type StoryData struct {
	Story            string     `json:"story"`
	Usage            TokenUsage `json:"usage"`
	ImageDescription string     `json:"imageDescription,omitempty"`
	ImageURL         string     `json:"imageUrl,omitempty"`
}

type AudioData struct {
	AudioURL string `json:"audioUrl"`
	Format   string `json:"format"`
}

type AnimationData struct {
	AnimationURL string `json:"animationUrl,omitempty"`
	VideoURL     string `json:"videoUrl,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
	Duration     int    `json:"duration"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
