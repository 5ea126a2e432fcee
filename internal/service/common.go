package service

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	"github.com/noah-isme/sma-beasiswa-api/internal/workflow"
)

// Actor identifies the authenticated caller for ownership and audit checks.
type Actor struct {
	UserID string
	Role   models.UserRole
}

// IsAdmin reports whether the actor holds an administrative role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleSuperAdmin
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// workflowNotifier delivers a decided notification intent. Dispatch is
// best-effort: failures are logged by the implementation, never surfaced to
// the workflow transaction.
type workflowNotifier interface {
	Notify(ctx context.Context, intent *workflow.NotificationIntent)
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// dashboardCachePattern matches every cached dashboard payload. Workflow
// mutations invalidate it so counters never lag a transition.
const dashboardCachePattern = "dashboard:*"
