package delivery

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/internal/adapters/database"
	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

// Repository persists the delivery log in postgres
type Repository struct {
	db *database.DB
}

// NewRepository creates new delivery log repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Record appends one delivery outcome
func (r *Repository) Record(ctx context.Context, entry models.DeliveryEntry) error {
	_, err := r.db.DB().NamedExecContext(ctx, `
		INSERT INTO delivery_logs (id, subscriber_id, type, status, error_message, message_id, local_date, sent_at)
		VALUES (:id, :subscriber_id, :type, :status, :error_message, :message_id, CAST(:local_date AS DATE), :sent_at)
	`, entry)
	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	return nil
}

// HasSent reports whether a successful delivery exists for the day bucket
func (r *Repository) HasSent(ctx context.Context, key models.DeliveryKey) (bool, error) {
	var exists bool
	err := r.db.DB().GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM delivery_logs
			WHERE subscriber_id = $1 AND type = $2 AND local_date = CAST($3 AS DATE) AND status = 'sent'
		)
	`, key.SubscriberID, string(key.Type), key.LocalDate)
	if err != nil {
		return false, fmt.Errorf("failed to check delivery log: %w", err)
	}
	return exists, nil
}

// ListForSubscriber returns a subscriber's entries, newest first
func (r *Repository) ListForSubscriber(ctx context.Context, subscriberID string, limit int) ([]models.DeliveryEntry, error) {
	var entries []models.DeliveryEntry
	err := r.db.DB().SelectContext(ctx, &entries, `
		SELECT id, subscriber_id, type, status, error_message, message_id,
		       to_char(local_date, 'YYYY-MM-DD') AS local_date, sent_at
		FROM delivery_logs
		WHERE subscriber_id = $1
		ORDER BY sent_at DESC
		LIMIT $2
	`, subscriberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return entries, nil
}

// DeleteOlderThan removes entries sent before cutoff
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.DB().ExecContext(ctx, `DELETE FROM delivery_logs WHERE sent_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune delivery log: %w", err)
	}

	n, _ := res.RowsAffected()
	if n > 0 {
		logger.Info("delivery log pruned",
			zap.Int64("deleted", n),
			zap.Time("cutoff", cutoff),
		)
	}
	return n, nil
}
