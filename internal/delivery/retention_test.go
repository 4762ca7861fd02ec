package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

type failingPruner struct{}

func (failingPruner) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, errors.New("db down")
}

func TestRetentionWorker_PrunesOldEntries(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	key := models.DeliveryKey{SubscriberID: "sub-1", Type: models.DeliveryDaily, LocalDate: "2026-01-01"}
	ok := models.SendResult{Success: true}
	require.NoError(t, store.Record(ctx, models.NewDeliveryEntry(key, ok, now.AddDate(0, 0, -40))))
	require.NoError(t, store.Record(ctx, models.NewDeliveryEntry(key, ok, now.AddDate(0, 0, -5))))

	w := NewRetentionWorker(store, 30)
	w.now = func() time.Time { return now }

	require.NoError(t, w.Run(ctx))
	assert.Len(t, store.Entries(), 1)
	assert.Equal(t, "delivery_log_retention", w.Name())
}

func TestRetentionWorker_MinimumRetention(t *testing.T) {
	w := NewRetentionWorker(NewMemoryStore(), 0)
	assert.Equal(t, 48*time.Hour, w.keep)
}

func TestRetentionWorker_Error(t *testing.T) {
	w := NewRetentionWorker(failingPruner{}, 30)
	assert.ErrorContains(t, w.Run(context.Background()), "db down")
}
