package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/failure"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/messaging"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/model"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/repository"
)

// ReportStore persists a report together with the events it raises.
type ReportStore interface {
	Create(ctx context.Context, report *model.Report, events ...model.Event) error
	FindByID(ctx context.Context, id string) (*model.Report, error)
}

type ReportService struct {
	store ReportStore
	now   func() time.Time
}

func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store, now: time.Now}
}

// CreateReport checks the required fields, stores a Pending report and
// queues a report.created event for the notification service.
func (s *ReportService) CreateReport(ctx context.Context, req *model.CreateReportRequest) (*model.Report, error) {
	required := []struct {
		name  string
		value string
	}{
		{"city", req.City},
		{"area", req.Area},
		{"description", req.Description},
		{"wasteType", req.WasteType},
		{"urgency", req.Urgency},
		{"photoKey", req.PhotoKey},
	}
	for _, f := range required {
		if f.value == "" {
			return nil, failure.MissingField(f.name)
		}
	}

	source := req.Source
	if source == "" {
		source = model.SourceWeb
	}

	report := &model.Report{
		ReportID:     uuid.NewString(),
		Timestamp:    s.now().Unix(),
		Status:       model.StatusPending,
		City:         req.City,
		Area:         req.Area,
		Description:  req.Description,
		WasteType:    req.WasteType,
		Urgency:      req.Urgency,
		PhotoKey:     req.PhotoKey,
		Lat:          req.Lat,
		Lng:          req.Lng,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Source:       source,
	}

	event := model.Event{
		RoutingKey: messaging.RoutingKeyReportCreated,
		Payload: messaging.ReportCreatedMessage{
			ReportID:     report.ReportID,
			City:         report.City,
			Area:         report.Area,
			WasteType:    report.WasteType,
			Urgency:      report.Urgency,
			Description:  report.Description,
			PhotoKey:     report.PhotoKey,
			ContactEmail: report.ContactEmail,
			Timestamp:    report.Timestamp,
		},
	}

	if err := s.store.Create(ctx, report, event); err != nil {
		return nil, failure.Wrap(err, "create report")
	}

	return report, nil
}

// GetReport looks a report up by id. Ids that are not UUIDs cannot exist
// and are reported as not found.
func (s *ReportService) GetReport(ctx context.Context, id string) (*model.Report, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.ErrReportNotFound
	}
	return s.store.FindByID(ctx, parsed.String())
}
