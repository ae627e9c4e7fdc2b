package mailer

import (
	"fmt"

	"github.com/vinittippanawar/click-clean-waste-reporting/notification-service/internal/model"
)

const reporterThanks = "Thank you for submitting a waste report. Authorities will act soon."

// AdminReportEmail lists the report for the admin inbox.
func AdminReportEmail(to string, msg model.ReportCreatedMessage) model.Email {
	body := fmt.Sprintf(`
A new waste report has been submitted.

City: %s
Area: %s
Type: %s
Urgency: %s
Description: %s
Photo: %s
Report ID: %s
`, msg.City, msg.Area, msg.WasteType, msg.Urgency, msg.Description, msg.PhotoKey, msg.ReportID)

	return model.Email{
		To:      to,
		Subject: fmt.Sprintf("New Waste Report #%s", msg.ReportID),
		Body:    body,
	}
}

func ReporterReceiptEmail(msg model.ReportCreatedMessage) model.Email {
	return model.Email{
		To:      msg.ContactEmail,
		Subject: fmt.Sprintf("Report Received (%s)", msg.ReportID),
		Body:    reporterThanks,
	}
}
