package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-beasiswa-api/internal/dto"
	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
)

type dashboardApplicationCounter interface {
	CountByStatus(ctx context.Context) (map[models.ApplicationStatus]int, error)
}

type dashboardDocumentLister interface {
	CountPending(ctx context.Context) (int, error)
}

type dashboardReportLister interface {
	CountPending(ctx context.Context) (int, error)
}

type dashboardDisbursementSums interface {
	SumProcessed(ctx context.Context) (float64, error)
}

type dashboardProgramCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardService composes the admin dashboard counters with a Redis
// read-through cache. Workflow mutations invalidate the cache pattern, so a
// hit is always current.
type DashboardService struct {
	apps          dashboardApplicationCounter
	documents     dashboardDocumentLister
	reports       dashboardReportLister
	disbursements dashboardDisbursementSums
	programs      dashboardProgramCounter
	cache         dashboardCache
	cacheTTL      time.Duration
	logger        *zap.Logger
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(
	apps dashboardApplicationCounter,
	documents dashboardDocumentLister,
	reports dashboardReportLister,
	disbursements dashboardDisbursementSums,
	programs dashboardProgramCounter,
	cache dashboardCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		apps:          apps,
		documents:     documents,
		reports:       reports,
		disbursements: disbursements,
		programs:      programs,
		cache:         cache,
		cacheTTL:      cacheTTL,
		logger:        logger,
	}
}

const dashboardStatsKey = "dashboard:stats"

// Stats returns the admin counters, served from cache when possible. The
// second return value reports cache utilisation.
func (s *DashboardService) Stats(ctx context.Context) (*dto.DashboardStats, bool, error) {
	if s.cache != nil {
		var cached dto.DashboardStats
		if err := s.cache.Get(ctx, dashboardStatsKey, &cached); err == nil {
			return &cached, true, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	byStatus, err := s.apps.CountByStatus(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count applications")
	}
	stats := &dto.DashboardStats{
		ApplicationsByStatus: make(map[string]int, len(byStatus)),
	}
	for status, count := range byStatus {
		stats.ApplicationsByStatus[string(status)] = count
		stats.TotalApplications += count
	}

	if stats.PendingDocuments, err = s.documents.CountPending(ctx); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending documents")
	}
	if stats.PendingReports, err = s.reports.CountPending(ctx); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending reports")
	}
	if stats.TotalDisbursed, err = s.disbursements.SumProcessed(ctx); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum disbursements")
	}
	if stats.ActivePrograms, err = s.programs.CountActive(ctx); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count programs")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardStatsKey, stats, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return stats, false, nil
}
