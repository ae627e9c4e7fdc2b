package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/model"

	_ "github.com/lib/pq"
	"gopkg.in/guregu/null.v3"
)

// ReportRepository stores reports in Postgres. The report row and its
// events are written in the same transaction; the outbox worker publishes
// the events afterwards.
type ReportRepository struct {
	db     *sql.DB
	outbox *OutboxRepository
}

// ErrReportNotFound is returned by FindByID when no report has the id.
var ErrReportNotFound = errors.New("report not found")

func NewReportRepository(db *sql.DB, outbox *OutboxRepository) *ReportRepository {
	return &ReportRepository{db: db, outbox: outbox}
}

func (r *ReportRepository) Create(ctx context.Context, report *model.Report, events ...model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO reports (report_id, created_at, status, city, area, description, waste_type,
			urgency, photo_key, lat, lng, contact_email, contact_phone, source)
		VALUES ($1, to_timestamp($2), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = tx.ExecContext(ctx, query,
		report.ReportID,
		report.Timestamp,
		report.Status,
		report.City,
		report.Area,
		report.Description,
		report.WasteType,
		report.Urgency,
		report.PhotoKey,
		null.FloatFromPtr(report.Lat),
		null.FloatFromPtr(report.Lng),
		null.NewString(report.ContactEmail, report.ContactEmail != ""),
		null.NewString(report.ContactPhone, report.ContactPhone != ""),
		report.Source,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	for _, ev := range events {
		if _, err := r.outbox.Enqueue(ctx, tx, report.ReportID, ev); err != nil {
			return fmt.Errorf("enqueue %s: %w", ev.RoutingKey, err)
		}
	}

	return tx.Commit()
}

func (r *ReportRepository) FindByID(ctx context.Context, id string) (*model.Report, error) {
	query := `
		SELECT report_id, EXTRACT(EPOCH FROM created_at)::bigint, status, city, area, description,
			waste_type, urgency, photo_key, lat, lng, contact_email, contact_phone, source
		FROM reports
		WHERE report_id = $1
	`
	report := &model.Report{}
	var lat, lng null.Float
	var email, phone null.String

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&report.ReportID,
		&report.Timestamp,
		&report.Status,
		&report.City,
		&report.Area,
		&report.Description,
		&report.WasteType,
		&report.Urgency,
		&report.PhotoKey,
		&lat,
		&lng,
		&email,
		&phone,
		&report.Source,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	report.Lat = lat.Ptr()
	report.Lng = lng.Ptr()
	report.ContactEmail = email.ValueOrZero()
	report.ContactPhone = phone.ValueOrZero()

	return report, nil
}
