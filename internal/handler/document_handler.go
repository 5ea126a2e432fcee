package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-beasiswa-api/internal/dto"
	"github.com/noah-isme/sma-beasiswa-api/internal/service"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
	"github.com/noah-isme/sma-beasiswa-api/pkg/response"
)

// DocumentHandler exposes document upload and review endpoints.
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler constructs DocumentHandler.
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload godoc
// @Summary Upload a document for a requirement
// @Description Multipart upload; re-uploading a requirement replaces the previous file
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Application ID"
// @Param requirement_id formData string true "Requirement ID"
// @Param file formData file true "Document file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read file"))
		return
	}
	defer file.Close()

	input := service.DocumentUploadInput{
		RequirementID: c.PostForm("requirement_id"),
		FileName:      header.Filename,
		MIMEType:      header.Header.Get("Content-Type"),
		SizeBytes:     header.Size,
		Contents:      file,
	}
	upload, err := h.documents.Upload(c.Request.Context(), actorFromContext(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, upload)
}

// ListByApplication godoc
// @Summary List documents for an application
// @Tags Documents
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/documents [get]
func (h *DocumentHandler) ListByApplication(c *gin.Context) {
	documents, err := h.documents.ListByApplication(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, documents, nil)
}

// DownloadURL godoc
// @Summary Issue a signed download token for a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id}/download-url [get]
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	token, expiresAt, err := h.documents.DownloadToken(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"token": token, "expires_at": expiresAt}, nil)
}

// Download godoc
// @Summary Download a document with a signed token
// @Tags Documents
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /documents/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	file, name, err := h.documents.Open(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	path := file.Name()
	file.Close()
	c.FileAttachment(path, name)
}

// Review godoc
// @Summary Review a document upload
// @Description Admin approval or rejection; rejections carry a reason
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.ReviewDocumentRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /documents/{id}/review [patch]
func (h *DocumentHandler) Review(c *gin.Context) {
	var req dto.ReviewDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	upload, err := h.documents.Review(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, upload, nil)
}
