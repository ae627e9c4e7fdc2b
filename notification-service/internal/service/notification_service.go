package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vinittippanawar/click-clean-waste-reporting/notification-service/internal/mailer"
	"github.com/vinittippanawar/click-clean-waste-reporting/notification-service/internal/model"
)

type NotificationService struct {
	mailer     mailer.Mailer
	adminEmail string
	logger     *slog.Logger
}

func NewNotificationService(m mailer.Mailer, adminEmail string, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		mailer:     m,
		adminEmail: adminEmail,
		logger:     logger.With("component", "notifier"),
	}
}

// NotifyReportCreated mails the admin and, when a contact address was
// given, the reporter.
func (s *NotificationService) NotifyReportCreated(ctx context.Context, msg model.ReportCreatedMessage) error {
	if err := s.mailer.Send(ctx, mailer.AdminReportEmail(s.adminEmail, msg)); err != nil {
		return fmt.Errorf("admin email: %w", err)
	}

	if msg.ContactEmail == "" {
		s.logger.Info("report notified", "report_id", msg.ReportID)
		return nil
	}

	if err := s.mailer.Send(ctx, mailer.ReporterReceiptEmail(msg)); err != nil {
		return fmt.Errorf("reporter email: %w", err)
	}

	s.logger.Info("report notified", "report_id", msg.ReportID, "reporter", msg.ContactEmail)
	return nil
}
