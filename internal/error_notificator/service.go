package error_notificator

import (
	"context"

	"github.com/Vovarama1992/go-utils/logger"
)

type Service struct {
	infra Notificator
	log   *logger.ZapLogger
}

func NewService(infra Notificator, log *logger.ZapLogger) *Service {
	return &Service{infra: infra, log: log}
}

// Notify never fails the caller; delivery problems are only logged.
func (s *Service) Notify(ctx context.Context, err error, details string) error {
	if sendErr := s.infra.Notify(ctx, err, details); sendErr != nil {
		s.log.Log(logger.LogEntry{Level: "warn", Message: "error notification not delivered", Service: "error_notificator", Error: sendErr})
	}
	return nil
}
