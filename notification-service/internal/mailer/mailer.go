package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"

	"github.com/vinittippanawar/click-clean-waste-reporting/notification-service/internal/model"
)

type Mailer interface {
	Send(ctx context.Context, email model.Email) error
}

// SESMailer sends plain text mail through Amazon SES from a verified sender.
type SESMailer struct {
	client sesiface.SESAPI
	sender string
}

func NewSESMailer(client sesiface.SESAPI, sender string) *SESMailer {
	return &SESMailer{client: client, sender: sender}
}

func (m *SESMailer) Send(ctx context.Context, email model.Email) error {
	_, err := m.client.SendEmailWithContext(ctx, &ses.SendEmailInput{
		Source: aws.String(m.sender),
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(email.To)},
		},
		Message: &ses.Message{
			Subject: &ses.Content{Data: aws.String(email.Subject)},
			Body: &ses.Body{
				Text: &ses.Content{Data: aws.String(email.Body)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send to %s: %w", email.To, err)
	}
	return nil
}

// LogMailer writes mail to the log. Used when no SES account is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("component", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, email model.Email) error {
	m.logger.InfoContext(ctx, "email", "to", email.To, "subject", email.Subject, "body", email.Body)
	return nil
}
