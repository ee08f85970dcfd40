package handlers

import (
	"github.com/gin-gonic/gin"
	"vision-board-backend/internal/models"
	"vision-board-backend/internal/response"
	"vision-board-backend/internal/services"
	"vision-board-backend/internal/upload"
)

type AnimationHandler struct {
	service    *services.DreamService
	policy     *upload.Policy
	showDetail bool
}

func NewAnimationHandler(service *services.DreamService, policy *upload.Policy, showDetail bool) *AnimationHandler {
	return &AnimationHandler{
		service:    service,
		policy:     policy,
		showDetail: showDetail,
	}
}

// GenerateFromText godoc
// @Summary     Animate a text prompt
// @Tags        animation
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body models.AnimateTextRequest true "Prompt and duration"
// @Success     200 {object} models.Envelope{data=models.AnimationData}
// @Failure     400 {object} models.Envelope
// @Failure     401 {object} models.Envelope
// @Failure     500 {object} models.Envelope
// @Router      /animation/generate-from-text [post]
func (h *AnimationHandler) GenerateFromText(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	var req models.AnimateTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bodyError(err), false)
		return
	}

	data, err := h.service.AnimateText(c.Request.Context(), req.Prompt, req.Duration)
	if err != nil {
		response.Error(c, err, h.showDetail)
		return
	}
	response.OK(c, "Animation generated successfully", data)
}

// GenerateFromImage godoc
// @Summary     Animate an image
// @Tags        animation
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       image    formData file true  "JPEG or PNG image"
// @Param       duration formData int  false "Seconds, 1-10 (default 3)"
// @Success     200 {object} models.Envelope{data=models.AnimationData}
// @Failure     400 {object} models.Envelope
// @Failure     401 {object} models.Envelope
// @Failure     500 {object} models.Envelope
// @Router      /animation/generate-from-image [post]
func (h *AnimationHandler) GenerateFromImage(c *gin.Context) {
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
	duration, err := parseDuration(c.PostForm("duration"))
	if err != nil {
		response.Error(c, err, false)
		return
	}

	data, err := h.service.AnimateImage(c.Request.Context(), userID, *image, duration)
	if err != nil {
		response.Error(c, err, h.showDetail)
		return
	}
	response.OK(c, "Video generated from image successfully", data)
}

// GenerateCombined godoc
// @Summary     Animate an image, falling back to a prompt
// @Tags        animation
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       image    formData file   false "JPEG or PNG image"
// @Param       prompt   formData string false "Prompt (required when no image is sent)"
// @Param       duration formData int    false "Seconds, 1-10 (default 3)"
// @Success     200 {object} models.Envelope{data=models.AnimationData}
// @Failure     400 {object} models.Envelope
// @Failure     401 {object} models.Envelope
// @Failure     500 {object} models.Envelope
// @Router      /animation/generate-combined [post]
func (h *AnimationHandler) GenerateCombined(c *gin.Context) {
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
	var image *models.ImageInput
	if header != nil {
		if image, err = h.policy.ReadImage("image", header); err != nil {
			response.Error(c, err, false)
			return
		}
	}
	duration, err := parseDuration(c.PostForm("duration"))
	if err != nil {
		response.Error(c, err, false)
		return
	}

	data, err := h.service.AnimateCombined(c.Request.Context(), userID, image, c.PostForm("prompt"), duration)
	if err != nil {
		response.Error(c, err, h.showDetail)
		return
	}
	response.OK(c, "Animation generated successfully", data)
}

// PredictionStatus godoc
// @Summary     Animation job status
// @Tags        animation
// @Produce     json
// @Security    BearerAuth
// @Param       predictionId path string true "Prediction ID"
// @Success     200 {object} models.Envelope{data=models.PredictionStatus}
// @Failure     401 {object} models.Envelope
// @Failure     500 {object} models.Envelope
// @Router      /animation/status/{predictionId} [get]
func (h *AnimationHandler) PredictionStatus(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	status, err := h.service.PredictionStatus(c.Request.Context(), c.Param("predictionId"))
	if err != nil {
		response.Error(c, err, h.showDetail)
		return
	}
	response.OK(c, "Prediction status retrieved successfully", status)
}
