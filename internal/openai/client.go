package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	"vision-board-backend/internal/models"
)

const (
	storySystemPrompt = "You are a creative storyteller who transforms dreams and ideas into engaging, magical stories. " +
		"Write in a warm, imaginative tone that captures the wonder and emotion of the user's vision."
	describeImagePrompt = "Describe this image in detail. Focus on the visual elements, colors, style, and any objects or scenes depicted. " +
		"Be descriptive and imaginative."
	describeMaxTokens = 300

	AudioFormat = "mp3"
)

type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	MaxTokens   int
	Temperature float32
	TTSModel    string
	TTSVoice    string
}

// Client is the text, vision and speech provider.
type Client struct {
	client *goopenai.Client
	opts   Options
}

func NewClient(opts Options) *Client {
	cfg := goopenai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}
	return &Client{
		client: goopenai.NewClientWithConfig(cfg),
		opts:   opts,
	}
}

// GenerateStory turns dream text and an optional image description into a
// short story.
func (c *Client) GenerateStory(ctx context.Context, dreamText, imageDescription string) (*models.StoryResult, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: storySystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: BuildStoryPrompt(dreamText, imageDescription)},
		},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate story: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("failed to generate story: no choices returned")
	}

	story := strings.TrimSpace(resp.Choices[0].Message.Content)
	if story == "" {
		return nil, fmt.Errorf("failed to generate story: empty completion")
	}

	return &models.StoryResult{
		Story: story,
		Usage: models.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// DescribeImage asks the vision model for a textual description of an image.
func (c *Client) DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)

	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.opts.VisionModel,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role: goopenai.ChatMessageRoleUser,
				MultiContent: []goopenai.ChatMessagePart{
					{Type: goopenai.ChatMessagePartTypeText, Text: describeImagePrompt},
					{Type: goopenai.ChatMessagePartTypeImageURL, ImageURL: &goopenai.ChatMessageImageURL{URL: dataURL}},
				},
			},
		},
		MaxTokens: describeMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to analyze image: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("failed to analyze image: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// SynthesizeSpeech returns mp3 narration of text.
func (c *Client) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          goopenai.SpeechModel(c.opts.TTSModel),
		Input:          text,
		Voice:          goopenai.SpeechVoice(c.opts.TTSVoice),
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate audio: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("failed to generate audio: empty response")
	}
	return audio, nil
}

// BuildStoryPrompt renders the user prompt for story generation.
func BuildStoryPrompt(dreamText, imageDescription string) string {
	var b strings.Builder
	if dreamText != "" {
		fmt.Fprintf(&b, "Transform this dream or idea into a magical story:\n\n%q\n\n", dreamText)
	} else {
		b.WriteString("Transform the scene below into a magical story.\n\n")
	}
	if imageDescription != "" {
		fmt.Fprintf(&b, "The user also uploaded images described as: %q\n\n", imageDescription)
	}
	b.WriteString(`Please create a captivating story that:
- Captures the essence and emotion of the dream
- Is 2-3 paragraphs long
- Has a magical, dreamlike quality
- Includes vivid descriptions and imagery
- Has a satisfying narrative arc
- Is suitable for all ages

Write the story in a warm, engaging tone that brings the dream to life.`)
	return b.String()
}
