package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger records security-relevant events as structured log entries.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, tenant, actor, action, resource, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("tenant", tenant),
		slog.String("actor", actor),
		slog.String("status", status),
		slog.String("details", details),
		slog.Time("timestamp", time.Now()),
	)
}

// LogLogin records the outcome of a password grant attempt.
func (al *Logger) LogLogin(ctx context.Context, tenant, username, status string) {
	al.LogAction(ctx, tenant, username, "login", "token", "", status, "")
}

// LogAdminMutation records a tenant/user/role mutation performed through
// the administrative surface.
func (al *Logger) LogAdminMutation(ctx context.Context, action, resource, resourceID, status string) {
	al.LogAction(ctx, "", "admin", action, resource, resourceID, status, "")
}

// LogDenied records a rejected administrative credential check.
func (al *Logger) LogDenied(ctx context.Context, reason string) {
	al.LogAction(ctx, "", "", "access_denied", "admin_api", "", "denied", reason)
}
