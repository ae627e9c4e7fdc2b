package model

// ReportCreatedMessage is the body of a report.created event.
type ReportCreatedMessage struct {
	ReportID     string `json:"report_id"`
	City         string `json:"city"`
	Area         string `json:"area"`
	WasteType    string `json:"waste_type"`
	Urgency      string `json:"urgency"`
	Description  string `json:"description"`
	PhotoKey     string `json:"photo_key"`
	ContactEmail string `json:"contact_email,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// Email is a plain text message to a single recipient.
type Email struct {
	To      string
	Subject string
	Body    string
}

type QueueStats struct {
	Queue     string `json:"queue"`
	Messages  int    `json:"messages"`
	Consumers int    `json:"consumers"`
}
