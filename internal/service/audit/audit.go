// internal/service/audit/audit.go
package audit

import (
	"context"

	"go.uber.org/zap"

	"neusentra-service/internal/domain/auth"
)

// Sink is where audit entries end up (the postgres audit repository in
// production).
type Sink interface {
	Insert(ctx context.Context, entry auth.AuditEntry) error
}

// Service records audit entries with fire-and-forget semantics: sink
// failures are logged with full context but never propagated to the caller.
type Service struct {
	sink   Sink
	logger *zap.Logger
}

func NewService(sink Sink, logger *zap.Logger) *Service {
	return &Service{sink: sink, logger: logger}
}

// Record writes an audit entry. It never returns an error.
func (s *Service) Record(ctx context.Context, entry auth.AuditEntry) {
	if err := s.sink.Insert(ctx, entry); err != nil {
		s.logger.Error("failed to record audit entry",
			zap.String("user_id", entry.UserID),
			zap.String("action", entry.Action),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("audit entry recorded",
		zap.String("user_id", entry.UserID),
		zap.String("action", entry.Action),
	)
}
