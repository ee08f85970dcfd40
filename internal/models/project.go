package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	ProjectTypeDream = "dream"
	DefaultTitle     = "Untitled Dream"
)

// Metadata is the open bag stored alongside a project. A missing key means
// "not set".
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}
	if len(data) == 0 {
		*m = Metadata{}
		return nil
	}
	out := Metadata{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to decode metadata: %w", err)
	}
	*m = out
	return nil
}

// Clone returns a shallow copy so callers can merge without aliasing.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Project is a persisted dream and its generated artifacts.
type Project struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	Title        string    `json:"title" db:"title"`
	Content      string    `json:"content" db:"content"`
	Story        string    `json:"story" db:"story"`
	AnimationURL *string   `json:"animation_url" db:"animation_url"`
	AudioURL     *string   `json:"audio_url" db:"audio_url"`
	Type         string    `json:"type" db:"type"`
	Status       string    `json:"status" db:"status"`
	Metadata     Metadata  `json:"metadata" db:"metadata"`
	ErrorMessage *string   `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UploadedFile is an image staged on local disk for the lifetime of one
// pipeline run.
type UploadedFile struct {
	OriginalName string
	StoredName   string
	LocalPath    string
	Size         int64
	MimeType     string
}

// ProjectFilter narrows a project listing. Zero values mean "no filter".
type ProjectFilter struct {
	Limit     int
	Offset    int
	Mood      string
	DreamType string
	Search    string
	From      *time.Time
	To        *time.Time
	Ascending bool
}

func StringPtr(s string) *string {
	return &s
}
