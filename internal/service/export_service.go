package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-beasiswa-api/internal/dto"
	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
	"github.com/noah-isme/sma-beasiswa-api/pkg/export"
	"github.com/noah-isme/sma-beasiswa-api/pkg/jobs"
	"github.com/noah-isme/sma-beasiswa-api/pkg/storage"
)

type disbursementExportReader interface {
	ListAll(ctx context.Context, filter models.DisbursementFilter) ([]models.DisbursementExportRow, error)
}

// Export job states, tracked in memory for the lifetime of the process.
const (
	exportStatusQueued   = "QUEUED"
	exportStatusRunning  = "RUNNING"
	exportStatusFinished = "FINISHED"
	exportStatusFailed   = "FAILED"
)

type exportJob struct {
	ID       string
	Format   string
	Filter   models.DisbursementFilter
	Status   string
	Token    string
	Error    string
	Creator  string
	Created  time.Time
	Finished *time.Time
}

// ExportServiceConfig tunes the export worker pool.
type ExportServiceConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
	FileTTL    time.Duration
}

// ExportService renders disbursement exports asynchronously: requests are
// queued, workers render CSV or PDF to local storage, and results are served
// through signed download tokens.
type ExportService struct {
	disbursements disbursementExportReader
	store         *storage.LocalStorage
	signer        *storage.SignedURLSigner
	csv           *export.CSVExporter
	pdf           *export.PDFExporter
	pool          *jobs.Pool[string]
	logger        *zap.Logger

	mu      sync.RWMutex
	tracked map[string]*exportJob
	fileTTL time.Duration
}

// NewExportService constructs an ExportService and its worker queue. Call
// Start before requesting exports and Stop on shutdown.
func NewExportService(
	disbursements disbursementExportReader,
	store *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	cfg ExportServiceConfig,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FileTTL <= 0 {
		cfg.FileTTL = 24 * time.Hour
	}
	s := &ExportService{
		disbursements: disbursements,
		store:         store,
		signer:        signer,
		csv:           export.NewCSVExporter(),
		pdf:           export.NewPDFExporter(),
		logger:        logger,
		tracked:       make(map[string]*exportJob),
		fileTTL:       cfg.FileTTL,
	}
	s.pool = jobs.NewPool("disbursement-export", s.handle, jobs.Options{
		Workers: cfg.Workers,
		Retries: cfg.MaxRetries,
		Backoff: cfg.RetryDelay,
		Logger:  logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.pool.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.pool.Stop()
}

// Request queues a new export and returns its job descriptor.
func (s *ExportService) Request(ctx context.Context, actor Actor, format string, filter models.DisbursementFilter) (*dto.ExportJobResponse, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	job := &exportJob{
		ID:      uuid.NewString(),
		Format:  format,
		Filter:  filter,
		Status:  exportStatusQueued,
		Creator: actor.UserID,
		Created: time.Now().UTC(),
	}
	s.mu.Lock()
	s.tracked[job.ID] = job
	s.mu.Unlock()

	if err := s.pool.Submit(job.ID); err != nil {
		s.mu.Lock()
		delete(s.tracked, job.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}

	s.logger.Info("export queued", zap.String("job_id", job.ID), zap.String("format", format))
	return s.describe(job), nil
}

// Status returns the current state of an export job.
func (s *ExportService) Status(jobID string) (*dto.ExportJobResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.tracked[jobID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return s.describe(job), nil
}

// Open resolves a signed download token to the rendered file.
func (s *ExportService) Open(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "download token is invalid or expired")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	return file, filepath.Base(relPath), nil
}

// CleanupExpired removes rendered files older than the configured TTL.
func (s *ExportService) CleanupExpired() {
	removed, err := s.store.CleanupOlderThan(s.fileTTL)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
}

func (s *ExportService) handle(ctx context.Context, jobID string) error {
	s.mu.Lock()
	tracked, ok := s.tracked[jobID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("export job %s vanished", jobID)
	}
	tracked.Status = exportStatusRunning
	filter := tracked.Filter
	format := tracked.Format
	s.mu.Unlock()

	token, err := s.render(ctx, jobID, format, filter)

	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	tracked.Finished = &now
	if err != nil {
		tracked.Status = exportStatusFailed
		tracked.Error = err.Error()
		return err
	}
	tracked.Status = exportStatusFinished
	tracked.Token = token
	return nil
}

func (s *ExportService) render(ctx context.Context, jobID, format string, filter models.DisbursementFilter) (string, error) {
	rows, err := s.disbursements.ListAll(ctx, filter)
	if err != nil {
		return "", fmt.Errorf("load disbursements: %w", err)
	}

	dataset := export.Dataset{
		Headers: []string{"Reference", "Student", "NIS", "Program", "Amount", "Method", "Date", "Status"},
		Rows:    make([][]string, 0, len(rows)),
	}
	var total float64
	for _, row := range rows {
		dataset.Append(
			row.ReferenceNumber,
			row.StudentName,
			row.StudentNIS,
			row.ProgramName,
			fmt.Sprintf("%.2f", row.Amount),
			row.PaymentMethod,
			row.DisbursementDate.Format("2006-01-02"),
			string(row.Status),
		)
		if row.Status == models.DisbursementStatusProcessed {
			total += row.Amount
		}
	}

	var payload []byte
	switch format {
	case "csv":
		payload, err = s.csv.Render(dataset)
	case "pdf":
		summary := fmt.Sprintf("Total processed: %.2f across %d disbursement(s)", total, len(rows))
		payload, err = s.pdf.Render(dataset, "Scholarship Disbursements", summary)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("render export: %w", err)
	}

	relPath := filepath.Join("exports", fmt.Sprintf("disbursements-%s.%s", jobID, format))
	if _, err := s.store.Save(relPath, payload); err != nil {
		return "", fmt.Errorf("store export: %w", err)
	}

	token, _, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		return "", fmt.Errorf("sign export url: %w", err)
	}
	return token, nil
}

func (s *ExportService) describe(job *exportJob) *dto.ExportJobResponse {
	return &dto.ExportJobResponse{
		JobID:         job.ID,
		Status:        job.Status,
		Format:        job.Format,
		DownloadToken: job.Token,
		Error:         job.Error,
	}
}
