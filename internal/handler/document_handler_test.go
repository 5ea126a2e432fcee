package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestDocumentHandlerUploadRequiresFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDocumentHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/applications/app-1/documents", strings.NewReader("requirement_id=req-1"))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	handler.Upload(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error["code"])
}

func TestDocumentHandlerReviewRejectsMalformedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDocumentHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/documents/doc-1/review", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Review(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
