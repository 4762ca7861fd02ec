package subscribers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/portfolio-digest/pkg/models"
	"github.com/selivandex/portfolio-digest/test/testdb"
)

func demoSubscriber(email string) *models.Subscriber {
	return &models.Subscriber{
		Email:             email,
		IsActive:          true,
		WantsUrgentAlerts: true,
		Timezone:          "America/Chicago",
		Holdings: []models.Holding{
			{Ticker: "NVDA", WeightPct: models.Weight(15)},
			{Ticker: "VTI", WeightPct: models.Weight(40)},
			{Ticker: "BND", WeightPct: models.NoWeight()},
		},
	}
}

func TestRepository_UpsertAndListActive(t *testing.T) {
	db := testdb.Setup(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	id, err := repo.Upsert(ctx, demoSubscriber("demo@example.com"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	inactive := demoSubscriber("gone@example.com")
	inactive.IsActive = false
	_, err = repo.Upsert(ctx, inactive)
	require.NoError(t, err)

	subs, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	assert.Equal(t, id, subs[0].ID)
	assert.Equal(t, []string{"NVDA", "VTI", "BND"}, subs[0].Tickers())
	assert.True(t, subs[0].Holdings[0].WeightPct.Valid)
	assert.False(t, subs[0].Holdings[2].WeightPct.Valid)
}

func TestRepository_UpsertIsIdempotentByEmail(t *testing.T) {
	db := testdb.Setup(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, demoSubscriber("demo@example.com"))
	require.NoError(t, err)

	again := demoSubscriber("DEMO@example.com")
	again.Holdings = []models.Holding{{Ticker: "AAPL", WeightPct: models.Weight(100)}}
	second, err := repo.Upsert(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	sub, err := repo.GetByID(ctx, first)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, []string{"AAPL"}, sub.Tickers())
}

func TestRepository_ReplaceHoldingsAndDeactivate(t *testing.T) {
	db := testdb.Setup(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	id, err := repo.Upsert(ctx, demoSubscriber("demo@example.com"))
	require.NoError(t, err)

	require.NoError(t, repo.ReplaceHoldings(ctx, id, []models.Holding{{Ticker: "qqq"}}))
	sub, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"QQQ"}, sub.Tickers())

	require.NoError(t, repo.Deactivate(ctx, id))
	subs, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)
}
