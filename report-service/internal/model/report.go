package model

type ReportStatus string

const (
	StatusPending ReportStatus = "Pending"
)

const SourceWeb = "web"

// Report is one persisted waste report. Field names follow the wire
// contract of POST /reports so the DynamoDB item matches the request body.
type Report struct {
	ReportID     string       `json:"reportId" dynamodbav:"reportId"`
	Timestamp    int64        `json:"timestamp" dynamodbav:"timestamp"`
	Status       ReportStatus `json:"status" dynamodbav:"status"`
	City         string       `json:"city" dynamodbav:"city"`
	Area         string       `json:"area" dynamodbav:"area"`
	Description  string       `json:"description" dynamodbav:"description"`
	WasteType    string       `json:"wasteType" dynamodbav:"wasteType"`
	Urgency      string       `json:"urgency" dynamodbav:"urgency"`
	PhotoKey     string       `json:"photoKey" dynamodbav:"photoKey"`
	Lat          *float64     `json:"lat,omitempty" dynamodbav:"lat,omitempty"`
	Lng          *float64     `json:"lng,omitempty" dynamodbav:"lng,omitempty"`
	ContactEmail string       `json:"contactEmail,omitempty" dynamodbav:"contactEmail,omitempty"`
	ContactPhone string       `json:"contactPhone,omitempty" dynamodbav:"contactPhone,omitempty"`
	Source       string       `json:"source" dynamodbav:"source"`
}

// Event is a message that must be published once its report is stored.
type Event struct {
	RoutingKey string
	Payload    interface{}
}

// Request/Response DTOs
type UploadURLRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileKey   string `json:"fileKey"`
}

type CreateReportRequest struct {
	City         string   `json:"city"`
	Area         string   `json:"area"`
	Description  string   `json:"description"`
	WasteType    string   `json:"wasteType"`
	Urgency      string   `json:"urgency"`
	PhotoKey     string   `json:"photoKey"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	ContactEmail string   `json:"contactEmail"`
	ContactPhone string   `json:"contactPhone"`
	Source       string   `json:"source"`
}

type CreateReportResponse struct {
	ReportID string `json:"reportId"`
	Message  string `json:"message"`
}
