package response_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vision-board-backend/internal/apperror"
	"vision-board-backend/internal/models"
	"vision-board-backend/internal/response"
)

func render(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, models.Envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)

	var env models.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestOK(t *testing.T) {
	w, env := render(t, func(c *gin.Context) {
		response.OK(c, "Dream retrieved successfully", gin.H{"id": "1"})
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Dream retrieved successfully", env.Message)
	assert.Nil(t, env.Errors)
	_, err := time.Parse(time.RFC3339, env.Timestamp)
	assert.NoError(t, err)
}

func TestAccepted(t *testing.T) {
	w, env := render(t, func(c *gin.Context) {
		response.Accepted(c, "Dream is being processed", nil)
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, env.Success)
}

func TestError_Validation(t *testing.T) {
	w, env := render(t, func(c *gin.Context) {
		response.Error(c, apperror.Validation("invalid upload", map[string]string{"images[0]": "file is empty"}), true)
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "file is empty", env.Errors["images[0]"])
	assert.NotContains(t, env.Errors, "detail")
}

func TestError_Detail(t *testing.T) {
	cause := errors.New("replicate: 503")

	_, hidden := render(t, func(c *gin.Context) {
		response.Error(c, apperror.Upstream("failed to generate animation", cause), false)
	})
	_, shown := render(t, func(c *gin.Context) {
		response.Error(c, apperror.Upstream("failed to generate animation", cause), true)
	})

	assert.Nil(t, hidden.Errors)
	assert.Equal(t, "replicate: 503", shown.Errors["detail"])
}

func TestError_ForeignError(t *testing.T) {
	w, env := render(t, func(c *gin.Context) {
		response.Error(c, errors.New("boom"), false)
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", env.Message)
	assert.NotContains(t, w.Body.String(), "boom")
}
