package handlers

import (
	"github.com/gin-gonic/gin"
	"vision-board-backend/internal/models"
	"vision-board-backend/internal/response"
	"vision-board-backend/internal/services"
	"vision-board-backend/internal/upload"
)

type StoryHandler struct {
	service    *services.DreamService
	policy     *upload.Policy
	showDetail bool
}

func NewStoryHandler(service *services.DreamService, policy *upload.Policy, showDetail bool) *StoryHandler {
	return &StoryHandler{
		service:    service,
		policy:     policy,
		showDetail: showDetail,
	}
}

// GenerateStory godoc
// @Summary     Generate a story from text
// @Tags        story
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body models.GenerateStoryRequest true "Dream text"
// @Success     200 {object} models.Envelope{data=models.StoryData}
// @Failure     400 {object} models.Envelope
// @Failure     401 {object} models.Envelope
// @Failure     500 {object} models.Envelope
// @Router      /story/generate [post]
func (h *StoryHandler) GenerateStory(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	var req models.GenerateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bodyError(err), false)
		return
	}

	data, err := h.service.GenerateStory(c.Request.Context(), req.DreamText)
	if err != nil {
		response.Error(c, err, h.showDetail)
		return
	}
	response.OK(c, "Story generated successfully", data)
}

// GenerateStoryFromImage godoc
// @Summary     Generate a story from an image
// @Tags        story
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       image formData file true "JPEG or PNG image"
// @Success     200 {object} models.Envelope{data=models.StoryData}
// @Failure     400 {object} models.Envelope
// @Failure     401 {object} models.Envelope
// @Failure     500 {object} models.Envelope
// @Router      /story/generate-from-image [post]
func (h *StoryHandler) GenerateStoryFromImage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	limitBody(c, h.policy.MaxBodyBytes())
	header, err := formFile(c, "image")
	if err != nil {
		response.Error(c, err, false)
		return
	}
	image, err := h.policy.ReadImage("image", header)
	if err != nil {
		response.Error(c, err, false)
		return
	}

	data, err := h.service.GenerateStoryFromImage(c.Request.Context(), userID, *image)
	if err != nil {
		response.Error(c, err, h.showDetail)
		return
	}
	response.OK(c, "Story generated from image successfully", data)
}

// GenerateAudio godoc
// @Summary     Narrate text
// @Tags        story
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body models.GenerateAudioRequest true "Text to narrate"
// @Success     200 {object} models.Envelope{data=models.AudioData}
// @Failure     400 {object} models.Envelope
// @Failure     401 {object} models.Envelope
// @Failure     500 {object} models.Envelope
// @Router      /story/generate-audio [post]
func (h *StoryHandler) GenerateAudio(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.GenerateAudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bodyError(err), false)
		return
	}

	data, err := h.service.GenerateAudio(c.Request.Context(), userID, req.Text)
	if err != nil {
		response.Error(c, err, h.showDetail)
		return
	}
	response.OK(c, "Audio generated successfully", data)
}
