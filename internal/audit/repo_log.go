package audit

import (
	"context"
	"log/slog"
)

// LogRepo writes events to a structured logger. It is the fallback sink when
// no broker is configured.
type LogRepo struct {
	log *slog.Logger
}

func NewLogRepo(log *slog.Logger) *LogRepo {
	if log == nil {
		log = slog.Default()
	}
	return &LogRepo{log: log.With("component", "audit")}
}

func (r *LogRepo) Append(ctx context.Context, e Event) error {
	r.log.InfoContext(ctx, "audit event",
		"event_id", e.ID,
		"type", string(e.Type),
		"user_id", e.UserID,
		"username", e.Username,
		"company_id", e.CompanyID,
		"ip", e.IPAddress,
		"message", e.Message,
	)
	return nil
}
