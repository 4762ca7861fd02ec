package digest

import (
	"context"
	"time"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

// NewsSource fetches candidate articles for a set of tickers
type NewsSource interface {
	Fetch(ctx context.Context, tickers []string) ([]models.Article, error)
}

// SubscriberStore lists subscribers to process
type SubscriberStore interface {
	ListActive(ctx context.Context) ([]models.Subscriber, error)
}

// DeliveryLog records send outcomes keyed by local day
type DeliveryLog interface {
	Record(ctx context.Context, entry models.DeliveryEntry) error
	HasSent(ctx context.Context, key models.DeliveryKey) (bool, error)
}

// Scorer ranks articles for one portfolio
type Scorer interface {
	ScoreArticles(ctx context.Context, articles []models.Article, holdings []models.Holding) []models.ScoredEvent
}

// Composer renders outbound messages
type Composer interface {
	Daily(sub models.Subscriber, events []models.ScoredEvent, date time.Time) (models.Message, error)
	Urgent(sub models.Subscriber, event models.ScoredEvent) (models.Message, error)
}

// Sender delivers a message; failures come back in the result
type Sender interface {
	Send(ctx context.Context, msg models.Message) models.SendResult
}

// Clock returns the current time
type Clock func() time.Time

// Observer receives run telemetry; it must not block for long
type Observer interface {
	OnDelivery(ctx context.Context, entry models.DeliveryEntry)
	OnRunComplete(ctx context.Context, stats models.RunStats, duration time.Duration)
}
