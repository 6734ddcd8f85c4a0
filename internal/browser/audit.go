package browser

import (
	"log/slog"
)

// sensitiveActions carry secrets (seed words, passwords); only their shape is logged.
var sensitiveActions = map[string]bool{
	"fill": true,
}

type actionAuditLogger struct {
	logger *slog.Logger
}

func newActionAuditLogger(base *slog.Logger) *actionAuditLogger {
	return &actionAuditLogger{
		logger: base.With("component", "audit"),
	}
}

// logAction records one UI action. values is how many values the action entered.
func (l *actionAuditLogger) logAction(pageID, action, target string, values int) {
	if l == nil {
		return
	}

	attrs := []any{
		"page", truncateID(pageID),
		"action", action,
		"target", target,
	}

	if sensitiveActions[action] {
		attrs = append(attrs, "values", values, "redacted", true)
		l.logger.Info("page_action", attrs...)
	} else {
		l.logger.Debug("page_action", attrs...)
	}
}

func truncateID(id string) string {
	if len(id) > 13 {
		return id[:13]
	}
	return id
}
