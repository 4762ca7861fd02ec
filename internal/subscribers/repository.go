package subscribers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/internal/adapters/database"
	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

// Repository handles subscriber and holdings persistence
type Repository struct {
	db *database.DB
}

// NewRepository creates new subscriber repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

type holdingRow struct {
	SubscriberID string `db:"subscriber_id"`
	models.Holding
}

const subscriberColumns = `id, email, is_active, wants_urgent_alerts, timezone, send_time, created_at, updated_at`

// ListActive returns active subscribers with their holdings in stored order
func (r *Repository) ListActive(ctx context.Context) ([]models.Subscriber, error) {
	var subs []models.Subscriber
	err := r.db.DB().SelectContext(ctx, &subs, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE is_active = true
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscribers: %w", err)
	}

	if len(subs) == 0 {
		return subs, nil
	}

	ids := make([]string, len(subs))
	for i, s := range subs {
		ids[i] = s.ID
	}

	holdings, err := r.loadHoldings(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range subs {
		subs[i].Holdings = holdings[subs[i].ID]
	}

	logger.Debug("active subscribers loaded", zap.Int("count", len(subs)))

	return subs, nil
}

func (r *Repository) loadHoldings(ctx context.Context, subscriberIDs []string) (map[string][]models.Holding, error) {
	var rows []holdingRow
	err := r.db.DB().SelectContext(ctx, &rows, `
		SELECT subscriber_id, ticker, weight_pct
		FROM holdings
		WHERE subscriber_id = ANY($1::uuid[])
		ORDER BY subscriber_id, position, id
	`, pq.Array(subscriberIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	out := make(map[string][]models.Holding, len(subscriberIDs))
	for _, row := range rows {
		out[row.SubscriberID] = append(out[row.SubscriberID], row.Holding)
	}
	return out, nil
}

// GetByID finds subscriber by id, nil when absent
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := r.db.DB().GetContext(ctx, &sub, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE id = $1
	`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}

	holdings, err := r.loadHoldings(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	sub.Holdings = holdings[id]

	return &sub, nil
}

// Upsert creates or updates a subscriber by email and replaces their holdings.
// Returns the subscriber id.
func (r *Repository) Upsert(ctx context.Context, sub *models.Subscriber) (string, error) {
	if err := ValidateSubscriber(sub); err != nil {
		return "", err
	}

	tx, err := r.db.DB().BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	timezone := sub.Timezone
	if timezone == "" {
		timezone = "America/Chicago"
	}
	sendTime := sub.SendTime
	if sendTime == "" {
		sendTime = "07:30"
	}

	var id string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO subscribers (email, is_active, wants_urgent_alerts, timezone, send_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (email) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			wants_urgent_alerts = EXCLUDED.wants_urgent_alerts,
			timezone = EXCLUDED.timezone,
			send_time = EXCLUDED.send_time,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`, sub.Email, sub.IsActive, sub.WantsUrgentAlerts, timezone, sendTime, time.Now()).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert subscriber: %w", err)
	}

	if err := replaceHoldings(ctx, tx, id, sub.Holdings); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit subscriber: %w", err)
	}

	sub.ID = id
	return id, nil
}

// ReplaceHoldings swaps a subscriber's holdings for a new list
func (r *Repository) ReplaceHoldings(ctx context.Context, subscriberID string, holdings []models.Holding) error {
	normalized, err := NormalizeHoldings(holdings)
	if err != nil {
		return err
	}

	tx, err := r.db.DB().BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := replaceHoldings(ctx, tx, subscriberID, normalized); err != nil {
		return err
	}

	return tx.Commit()
}

func replaceHoldings(ctx context.Context, tx *sqlx.Tx, subscriberID string, holdings []models.Holding) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM holdings WHERE subscriber_id = $1`, subscriberID); err != nil {
		return fmt.Errorf("failed to clear holdings: %w", err)
	}

	for i, h := range holdings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO holdings (subscriber_id, ticker, weight_pct, position)
			VALUES ($1, $2, $3, $4)
		`, subscriberID, h.Ticker, h.WeightPct, i)
		if err != nil {
			return fmt.Errorf("failed to insert holding %s: %w", h.Ticker, err)
		}
	}
	return nil
}

// Deactivate stops deliveries for a subscriber
func (r *Repository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.DB().ExecContext(ctx, `
		UPDATE subscribers SET is_active = false, updated_at = $2 WHERE id = $1
	`, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to deactivate subscriber: %w", err)
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("subscriber %s not found", id)
	}
	return nil
}
