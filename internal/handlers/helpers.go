package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"vision-board-backend/internal/apperror"
	"vision-board-backend/internal/middleware"
	"vision-board-backend/internal/response"
)

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, apperror.Unauthorized("user id not found"), false)
		return uuid.Nil, false
	}
	return userID, true
}

// projectID parses the :id path parameter. Malformed ids cannot name an
// existing project so they are reported as not found.
func projectID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.NotFound("dream not found"), false)
		return uuid.Nil, false
	}
	return id, true
}

// limitBody caps the request body; reads past max fail with
// *http.MaxBytesError.
func limitBody(c *gin.Context, max int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return apperror.Validation("request too large", map[string]string{"body": "request body exceeds the upload limit"})
	}
	return apperror.Validation("invalid request body", map[string]string{"body": err.Error()})
}

// formFile returns the single file posted under field, or nil when absent.
func formFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, bodyError(err)
	}
	return header, nil
}

func parseDuration(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation("invalid duration", map[string]string{"duration": "must be an integer"})
	}
	return n, nil
}
