package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"vision-board-backend/internal/apperror"
	"vision-board-backend/internal/models"
)

const formOverhead = 1 << 20

// Policy bounds the count, size and type of uploaded images.
type Policy struct {
	MaxFileSize  int64
	MaxFiles     int
	AllowedTypes []string
}

func NewPolicy(maxFileSize int64, maxFiles int, allowedTypes []string) *Policy {
	return &Policy{
		MaxFileSize:  maxFileSize,
		MaxFiles:     maxFiles,
		AllowedTypes: allowedTypes,
	}
}

// MaxBodyBytes bounds a whole multipart request.
func (p *Policy) MaxBodyBytes() int64 {
	return int64(p.MaxFiles)*p.MaxFileSize + formOverhead
}

// ReadImages validates every file posted under field and returns their
// contents. Field errors are keyed as field[i].
func (p *Policy) ReadImages(field string, headers []*multipart.FileHeader) ([]models.ImageInput, error) {
	if len(headers) > p.MaxFiles {
		return nil, apperror.Validation("too many files", map[string]string{
			field: fmt.Sprintf("at most %d files are allowed", p.MaxFiles),
		})
	}

	images := make([]models.ImageInput, 0, len(headers))
	fields := map[string]string{}
	for i, header := range headers {
		img, msg := p.read(header)
		if msg != "" {
			fields[fmt.Sprintf("%s[%d]", field, i)] = msg
			continue
		}
		images = append(images, img)
	}
	if len(fields) > 0 {
		return nil, apperror.Validation("invalid upload", fields)
	}
	return images, nil
}

// ReadImage validates a single file posted under field.
func (p *Policy) ReadImage(field string, header *multipart.FileHeader) (*models.ImageInput, error) {
	if header == nil {
		return nil, apperror.Validation("image is required", map[string]string{field: "required"})
	}
	img, msg := p.read(header)
	if msg != "" {
		return nil, apperror.Validation("invalid upload", map[string]string{field: msg})
	}
	return &img, nil
}

// Check validates raw bytes against the size and type rules.
func (p *Policy) Check(declaredType string, data []byte) (string, string) {
	if int64(len(data)) > p.MaxFileSize {
		return "", fmt.Sprintf("file exceeds %s", humanize.IBytes(uint64(p.MaxFileSize)))
	}
	if len(data) == 0 {
		return "", "file is empty"
	}
	if declaredType != "" && declaredType != "application/octet-stream" && !p.allowed(declaredType) {
		return "", fmt.Sprintf("type %s is not allowed", declaredType)
	}
	detected := mimetype.Detect(data)
	if !p.allowed(detected.String()) {
		return "", fmt.Sprintf("content type %s is not allowed", detected.String())
	}
	return normalize(detected.String()), ""
}

func (p *Policy) read(header *multipart.FileHeader) (models.ImageInput, string) {
	if header.Size > p.MaxFileSize {
		return models.ImageInput{}, fmt.Sprintf("file exceeds %s", humanize.IBytes(uint64(p.MaxFileSize)))
	}

	f, err := header.Open()
	if err != nil {
		return models.ImageInput{}, "file could not be read"
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, p.MaxFileSize+1))
	if err != nil {
		return models.ImageInput{}, "file could not be read"
	}

	mimeType, msg := p.Check(header.Header.Get("Content-Type"), data)
	if msg != "" {
		return models.ImageInput{}, msg
	}
	return models.ImageInput{Name: header.Filename, MimeType: mimeType, Data: data}, ""
}

func (p *Policy) allowed(mimeType string) bool {
	mimeType = normalize(mimeType)
	for _, t := range p.AllowedTypes {
		if normalize(t) == mimeType {
			return true
		}
	}
	return false
}

func normalize(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "image/jpg" {
		return "image/jpeg"
	}
	return mimeType
}

// Extension returns the file extension for an allowed image type.
func Extension(mimeType string) string {
	if ext := mimetype.Lookup(normalize(mimeType)); ext != nil {
		return ext.Extension()
	}
	return ""
}
