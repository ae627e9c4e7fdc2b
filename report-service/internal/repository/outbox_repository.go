package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v3"

	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/model"
)

type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "pending"
	OutboxPublished OutboxStatus = "published"
	OutboxFailed    OutboxStatus = "failed"
)

const (
	// An entry is given up on after this many failed publishes.
	maxPublishAttempts = 5
	// A claimed entry that is neither published nor failed within the lease
	// becomes claimable again, e.g. after a crash mid-batch.
	claimLease = 30 * time.Second
)

// OutboxEntry is a report event waiting to be published.
type OutboxEntry struct {
	ID         uuid.UUID
	ReportID   string
	RoutingKey string
	Payload    json.RawMessage
	Attempts   int
	LastError  null.String
	CreatedAt  time.Time
}

// OutboxRepository is the Postgres outbox for report events. Entries are
// written with their report and published later by the outbox worker.
type OutboxRepository struct {
	db    *sql.DB
	lease time.Duration
}

func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db, lease: claimLease}
}

// Enqueue adds ev for reportID inside tx. The entry id later becomes the
// AMQP MessageId.
func (r *OutboxRepository) Enqueue(ctx context.Context, tx *sql.Tx, reportID string, ev model.Event) (uuid.UUID, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode %s payload: %w", ev.RoutingKey, err)
	}

	id := uuid.New()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox_messages (id, report_id, routing_key, payload, status)
		VALUES ($1, $2, $3, $4, $5)`,
		id, reportID, ev.RoutingKey, payload, OutboxPending,
	)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Claim leases up to limit pending entries, oldest first. Entries leased by
// another worker are skipped until their lease runs out.
func (r *OutboxRepository) Claim(ctx context.Context, limit int) ([]OutboxEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE outbox_messages o
		SET locked_until = NOW() + make_interval(secs => $2)
		FROM (
			SELECT id FROM outbox_messages
			WHERE status = $3 AND (locked_until IS NULL OR locked_until < NOW())
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		) due
		WHERE o.id = due.id
		RETURNING o.id, o.report_id, o.routing_key, o.payload, o.retry_count, o.last_error, o.created_at`,
		limit, r.lease.Seconds(), OutboxPending,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.ID, &e.ReportID, &e.RoutingKey, &e.Payload, &e.Attempts, &e.LastError, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_messages
		SET status = $2, published_at = NOW(), locked_until = NULL
		WHERE id = $1`,
		id, OutboxPublished,
	)
	return err
}

// MarkFailed records a failed publish and returns the entry's new status:
// pending while attempts remain, failed after that.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, cause error) (OutboxStatus, error) {
	var status OutboxStatus
	err := r.db.QueryRowContext(ctx, `
		UPDATE outbox_messages
		SET retry_count = retry_count + 1,
		    last_error = $2,
		    locked_until = NULL,
		    status = CASE WHEN retry_count + 1 >= $3 THEN $4 ELSE $5 END
		WHERE id = $1
		RETURNING status`,
		id, cause.Error(), maxPublishAttempts, OutboxFailed, OutboxPending,
	).Scan(&status)
	return status, err
}

// PurgePublished deletes entries published before cutoff.
func (r *OutboxRepository) PurgePublished(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM outbox_messages
		WHERE status = $1 AND published_at < $2`,
		OutboxPublished, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountByStatus reports how many entries are in each status. Statuses with
// no entries are present with a zero count.
func (r *OutboxRepository) CountByStatus(ctx context.Context) (map[OutboxStatus]int, error) {
	counts := map[OutboxStatus]int{OutboxPending: 0, OutboxPublished: 0, OutboxFailed: 0}

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM outbox_messages GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status OutboxStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
