package audit

import (
	"log/slog"
	"time"
)

// Logger emits structured audit entries for security-relevant actions. The
// entries go to the application log; the durable activity trail lives in the
// activities collection.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(requestID, userID, action, resource, resourceID, status string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogDenied(requestID, userID, reason string) {
	al.LogAction(requestID, userID, "access_denied", "api", "", reason)
}
