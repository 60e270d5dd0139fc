package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bit-fotutors/classroom-api/internal/service"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
	"github.com/bit-fotutors/classroom-api/pkg/response"
)

// SubmissionHandler exposes the submission lifecycle endpoints.
type SubmissionHandler struct {
	submissions *service.SubmissionService
	maxFileSize int64
}

// NewSubmissionHandler constructs SubmissionHandler.
func NewSubmissionHandler(submissions *service.SubmissionService, maxFileSize int64) *SubmissionHandler {
	if maxFileSize <= 0 {
		maxFileSize = 20 << 20
	}
	return &SubmissionHandler{submissions: submissions, maxFileSize: maxFileSize}
}

// SubmitFile godoc
// @Summary Hand in a submission
// @Tags Submissions
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param file formData file false "Answer file"
// @Param content formData string false "Text answer"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/file [post]
func (h *SubmissionHandler) SubmitFile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize)

	var content *string
	if text := c.PostForm("content"); text != "" {
		content = &text
	}

	fileHeader, err := c.FormFile("file")
	if err != nil && content == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "a file or text answer is required"))
		return
	}

	var (
		file     multipart.File
		filename string
	)
	if fileHeader != nil {
		opened, openErr := fileHeader.Open()
		if openErr != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "cannot read uploaded file"))
			return
		}
		defer opened.Close() //nolint:errcheck
		file = opened
		filename = fileHeader.Filename
	}

	detail, err := h.submissions.SubmitFile(c.Request.Context(), claims.ActorID, c.Param("id"), filename, file, content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Grade godoc
// @Summary Grade a submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param payload body service.GradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/grade [post]
func (h *SubmissionHandler) Grade(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	detail, err := h.submissions.Grade(c.Request.Context(), claims.ActorID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ListMine godoc
// @Summary List the acting student's submissions
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /submissions [get]
func (h *SubmissionHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	submissions, err := h.submissions.ListForStudent(c.Request.Context(), claims.ActorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}

// DownloadToken godoc
// @Summary Issue a signed download link for an uploaded file
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/download-token [post]
func (h *SubmissionHandler) DownloadToken(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	download, err := h.submissions.DownloadToken(c.Request.Context(), claims.ActorID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, download, nil)
}

// Download godoc
// @Summary Download an uploaded file via a signed token
// @Tags Submissions
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200
// @Router /submissions/download [get]
func (h *SubmissionHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token required"))
		return
	}
	file, name, err := h.submissions.OpenDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.DataFromReader(http.StatusOK, -1, "application/octet-stream", file, nil)
}
