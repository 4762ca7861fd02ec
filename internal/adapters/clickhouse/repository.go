package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

// Repository writes digest telemetry to ClickHouse
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new ClickHouse repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS digest_deliveries (
		sent_at       DateTime64(3, 'UTC'),
		id            UUID,
		subscriber_id String,
		type          LowCardinality(String),
		status        LowCardinality(String),
		error_message String,
		message_id    String,
		local_date    Date
	) ENGINE = MergeTree
	PARTITION BY toYYYYMM(sent_at)
	ORDER BY (sent_at, subscriber_id)
	TTL toDateTime(sent_at) + INTERVAL 1 YEAR`,
	`CREATE TABLE IF NOT EXISTS digest_runs (
		finished_at   DateTime64(3, 'UTC'),
		duration_ms   UInt64,
		processed     UInt32,
		sent          UInt32,
		urgent_sent   UInt32,
		errors        UInt32
	) ENGINE = MergeTree
	ORDER BY finished_at`,
}

// EnsureSchema creates telemetry tables if missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create clickhouse table: %w", err)
		}
	}
	return nil
}

// SaveDeliveries inserts delivery log entries in one batch
func (r *Repository) SaveDeliveries(ctx context.Context, entries []models.DeliveryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	stmt, err := tx.Preparex(`
		INSERT INTO digest_deliveries
		(sent_at, id, subscriber_id, type, status, error_message, message_id, local_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		localDate, err := time.Parse(models.LocalDateLayout, e.LocalDate)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("invalid local date %q: %w", e.LocalDate, err)
		}

		_, err = stmt.ExecContext(ctx,
			e.SentAt.UTC(),
			e.ID.String(),
			e.SubscriberID,
			string(e.Type),
			string(e.Status),
			e.ErrorMessage,
			e.MessageID,
			localDate,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert delivery: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("saved deliveries to ClickHouse",
		zap.Int("count", len(entries)),
	)

	return nil
}

// SaveRun records the totals of one digest run
func (r *Repository) SaveRun(ctx context.Context, stats models.RunStats, finishedAt time.Time, duration time.Duration) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO digest_runs
		(finished_at, duration_ms, processed, sent, urgent_sent, errors)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		finishedAt.UTC(),
		uint64(duration.Milliseconds()),
		uint32(stats.Processed),
		uint32(stats.Sent),
		uint32(stats.UrgentSent),
		uint32(stats.Errors),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}
