package handlers

import (
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"vision-board-backend/internal/apperror"
	"vision-board-backend/internal/models"
	"vision-board-backend/internal/response"
	"vision-board-backend/internal/services"
	"vision-board-backend/internal/upload"
)

const dateLayout = "2006-01-02"

type DreamsHandler struct {
	service    *services.DreamService
	policy     *upload.Policy
	showDetail bool
}

func NewDreamsHandler(service *services.DreamService, policy *upload.Policy, showDetail bool) *DreamsHandler {
	return &DreamsHandler{
		service:    service,
		policy:     policy,
		showDetail: showDetail,
	}
}

// dreamForm is the body of a dream submission, multipart or JSON.
type dreamForm struct {
	DreamText   string   `form:"dreamText" json:"dreamText"`
	Title       string   `form:"title" json:"title"`
	Mood        string   `form:"mood" json:"mood"`
	DreamType   string   `form:"dreamType" json:"dreamType"`
	Tags        []string `form:"tags" json:"tags"`
	IsLucid     *bool    `form:"isLucid" json:"isLucid"`
	IsRecurring *bool    `form:"isRecurring" json:"isRecurring"`
	DreamDate   string   `form:"dreamDate" json:"dreamDate"`
	Narrate     *bool    `form:"narrate" json:"narrate"`
}

func (f *dreamForm) metadata() models.Metadata {
	m := models.Metadata{}
	if v := strings.TrimSpace(f.Mood); v != "" {
		m["mood"] = v
	}
	if v := strings.TrimSpace(f.DreamType); v != "" {
		m["dreamType"] = v
	}
	var tags []string
	for _, raw := range f.Tags {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	if len(tags) > 0 {
		m["tags"] = tags
	}
	if f.IsLucid != nil {
		m["isLucid"] = *f.IsLucid
	}
	if f.IsRecurring != nil {
		m["isRecurring"] = *f.IsRecurring
	}
	if v := strings.TrimSpace(f.DreamDate); v != "" {
		m["dreamDate"] = v
	}
	return m
}

// SubmitDream godoc
// @Summary     Submit a dream
// @Description Generates a story, animation and narration for the dream and saves it. With async=true the saved dream is returned as pending and completed in the background.
// @Tags        dreams
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       dreamText formData string false "Dream text (required when no images are sent)"
// @Param       title     formData string false "Title"
// @Param       images    formData file   false "Up to 5 JPEG/PNG images"
// @Param       mood      formData string false "Mood"
// @Param       dreamType formData string false "Dream type"
// @Param       narrate   formData bool   false "Generate narration (default true)"
// @Param       async     query    bool   false "Process in the background"
// @Success     200 {object} models.Envelope{data=models.ProjectData}
// @Success     202 {object} models.Envelope{data=models.ProjectData}
// @Failure     400 {object} models.Envelope
// @Failure     401 {object} models.Envelope
// @Failure     429 {object} models.Envelope
// @Failure     500 {object} models.Envelope
// @Router      /dreams [post]
func (h *DreamsHandler) SubmitDream(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	limitBody(c, h.policy.MaxBodyBytes())

	var form dreamForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, bodyError(err), false)
		return
	}

	var headers []*multipart.FileHeader
	if c.Request.MultipartForm != nil {
		headers = c.Request.MultipartForm.File["images"]
	}
	images, err := h.policy.ReadImages("images", headers)
	if err != nil {
		response.Error(c, err, false)
		return
	}

	async := false
	if raw := c.Query("async"); raw != "" {
		if async, err = strconv.ParseBool(raw); err != nil {
			response.Error(c, apperror.Validation("invalid query", map[string]string{"async": "must be a boolean"}), false)
			return
		}
	}

	sub := models.DreamSubmission{
		UserID:   userID,
		Text:     form.DreamText,
		Title:    form.Title,
		Images:   images,
		Metadata: form.metadata(),
		Narrate:  form.Narrate == nil || *form.Narrate,
	}

	project, err := h.service.SubmitDream(c.Request.Context(), sub, async)
	if err != nil {
		response.Error(c, err, h.showDetail)
		return
	}

	if async {
		response.Accepted(c, "Dream is being processed", models.ProjectData{Project: project})
		return
	}
	response.OK(c, "Dream processed successfully", models.ProjectData{Project: project})
}

// ListDreams godoc
// @Summary     List dreams
// @Description Returns the caller's dreams, newest first unless order=asc.
// @Tags        dreams
// @Produce     json
// @Security    BearerAuth
// @Param       limit  query int    false "Page size, 1 or more (default 50, max 100)"
// @Param       offset query int    false "Offset (default 0)"
// @Param       mood   query string false "Mood filter"
// @Param       type   query string false "Dream type filter"
// @Param       search query string false "Search title, content and story"
// @Param       from   query string false "Created at or after (RFC 3339 or YYYY-MM-DD)"
// @Param       to     query string false "Created at or before (RFC 3339 or YYYY-MM-DD)"
// @Param       order  query string false "asc or desc"
// @Success     200 {object} models.Envelope{data=models.ProjectListData}
// @Failure     400 {object} models.Envelope
// @Failure     401 {object} models.Envelope
// @Router      /dreams [get]
func (h *DreamsHandler) ListDreams(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		response.Error(c, err, false)
		return
	}

	projects, err := h.service.ListProjects(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err, h.showDetail)
		return
	}

	switch {
	case filter.Limit == 0:
		filter.Limit = services.DefaultListLimit
	case filter.Limit > services.MaxListLimit:
		filter.Limit = services.MaxListLimit
	}
	response.OK(c, "Dreams retrieved successfully", models.ProjectListData{
		Projects: projects,
		Pagination: models.Pagination{
			Limit:  filter.Limit,
			Offset: filter.Offset,
			Count:  len(projects),
		},
	})
}

// GetDream godoc
// @Summary     Get a dream
// @Tags        dreams
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Dream ID"
// @Success     200 {object} models.Envelope{data=models.ProjectData}
// @Failure     401 {object} models.Envelope
// @Failure     403 {object} models.Envelope
// @Failure     404 {object} models.Envelope
// @Router      /dreams/{id} [get]
func (h *DreamsHandler) GetDream(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}

	project, err := h.service.GetProject(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err, h.showDetail)
		return
	}
	response.OK(c, "Dream retrieved successfully", models.ProjectData{Project: project})
}

// UpdateDream godoc
// @Summary     Update a dream
// @Description Merges the given fields into the dream. Metadata keys are merged one by one; a null value removes the key.
// @Tags        dreams
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                      true "Dream ID"
// @Param       request body models.UpdateProjectRequest true "Fields to change"
// @Success     200 {object} models.Envelope{data=models.ProjectData}
// @Failure     400 {object} models.Envelope
// @Failure     401 {object} models.Envelope
// @Failure     403 {object} models.Envelope
// @Failure     404 {object} models.Envelope
// @Router      /dreams/{id} [put]
func (h *DreamsHandler) UpdateDream(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}

	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bodyError(err), false)
		return
	}

	project, err := h.service.UpdateProject(c.Request.Context(), userID, id, req)
	if err != nil {
		response.Error(c, err, h.showDetail)
		return
	}
	response.OK(c, "Dream updated successfully", models.ProjectData{Project: project})
}

// DeleteDream godoc
// @Summary     Delete a dream
// @Tags        dreams
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Dream ID"
// @Success     200 {object} models.Envelope
// @Failure     401 {object} models.Envelope
// @Failure     403 {object} models.Envelope
// @Failure     404 {object} models.Envelope
// @Router      /dreams/{id} [delete]
func (h *DreamsHandler) DeleteDream(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteProject(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err, h.showDetail)
		return
	}
	response.OK(c, "Dream deleted successfully", nil)
}

func parseFilter(c *gin.Context) (models.ProjectFilter, error) {
	filter := models.ProjectFilter{
		Mood:      strings.TrimSpace(c.Query("mood")),
		DreamType: strings.TrimSpace(c.Query("type")),
		Search:    strings.TrimSpace(c.Query("search")),
	}
	fields := map[string]string{}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fields["limit"] = "must be a positive integer"
		}
		filter.Limit = n
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields["offset"] = "must be a non-negative integer"
		}
		filter.Offset = n
	}
	if raw := c.Query("from"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			fields["from"] = "must be RFC 3339 or YYYY-MM-DD"
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			fields["to"] = "must be RFC 3339 or YYYY-MM-DD"
		}
		if len(raw) == len(dateLayout) {
			// A bare date includes the whole day.
			t = t.Add(24*time.Hour - time.Microsecond)
		}
		filter.To = &t
	}
	switch strings.ToLower(c.Query("order")) {
	case "", "desc":
	case "asc":
		filter.Ascending = true
	default:
		fields["order"] = "must be asc or desc"
	}

	if len(fields) > 0 {
		return filter, apperror.Validation("invalid query", fields)
	}
	return filter, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, raw)
}
