package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// UpdateProjectRequest is a partial document. Absent fields are left
// untouched; metadata keys are merged one by one and a JSON null removes
// the key.
type UpdateProjectRequest struct {
	Title        *string                    `json:"title,omitempty"`
	Content      *string                    `json:"content,omitempty"`
	Story        *string                    `json:"story,omitempty"`
	AnimationURL *string                    `json:"animation_url,omitempty"`
	AudioURL     *string                    `json:"audio_url,omitempty"`
	Type         *string                    `json:"type,omitempty"`
	Metadata     map[string]json.RawMessage `json:"metadata,omitempty"`
}

type GenerateStoryRequest struct {
	DreamText string `json:"dreamText" example:"I flew over a purple ocean"`
}

type GenerateAudioRequest struct {
	Text string `json:"text"`
}

type AnimateTextRequest struct {
	Prompt string `json:"prompt"`
	// Duration in seconds, 1-10. Defaults to 3.
	Duration int `json:"duration,omitempty" example:"3"`
}

// ImageInput is an uploaded image that passed the upload policy.
type ImageInput struct {
	Name     string
	MimeType string
	Data     []byte
}

// DreamSubmission is one dream posted by a user.
type DreamSubmission struct {
	UserID uuid.UUID
	Text   string
	Title  string
	Images []ImageInput
	// Metadata carries the journal fields (mood, dreamType, tags, ...).
	Metadata Metadata
	Narrate  bool
}
