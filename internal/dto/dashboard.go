package dto

// DashboardStats aggregates admin-facing counters. Cached in Redis.
type DashboardStats struct {
	ApplicationsByStatus map[string]int `json:"applications_by_status"`
	TotalApplications    int            `json:"total_applications"`
	PendingDocuments     int            `json:"pending_documents"`
	PendingReports       int            `json:"pending_reports"`
	TotalDisbursed       float64        `json:"total_disbursed"`
	ActivePrograms       int            `json:"active_programs"`
}

// ExportJobResponse describes a queued or finished export job.
type ExportJobResponse struct {
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	Format        string `json:"format"`
	DownloadToken string `json:"download_token,omitempty"`
	Error         string `json:"error,omitempty"`
}
