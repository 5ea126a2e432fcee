package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-beasiswa-api/internal/dto"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakeDashboardSrv struct {
	stats *dto.DashboardStats
	hit   bool
	err   error
}

func (f *fakeDashboardSrv) Stats(context.Context) (*dto.DashboardStats, bool, error) {
	return f.stats, f.hit, f.err
}

func TestDashboardHandlerStatsSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{
		stats: &dto.DashboardStats{TotalApplications: 42, ActivePrograms: 3},
		hit:   true,
	}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)

	handler.Stats(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Meta["cached"])
	assert.Equal(t, float64(42), envelope.Data["total_applications"])
}

func TestDashboardHandlerStatsError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{
		err: appErrors.Clone(appErrors.ErrInternal, "counters unavailable"),
	}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)

	handler.Stats(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "INTERNAL_ERROR", envelope.Error["code"])
}
