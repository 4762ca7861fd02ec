package subscribers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

func TestNormalizeHoldings(t *testing.T) {
	got, err := NormalizeHoldings([]models.Holding{
		{Ticker: " nvda ", WeightPct: models.Weight(15)},
		{Ticker: "VTI", WeightPct: models.NoWeight()},
		{Ticker: "NVDA", WeightPct: models.Weight(99)},
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "NVDA", got[0].Ticker)
	assert.True(t, got[0].WeightPct.Decimal.Equal(models.Weight(15).Decimal))
	assert.Equal(t, "VTI", got[1].Ticker)
	assert.False(t, got[1].WeightPct.Valid)
}

func TestNormalizeHoldings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		holding models.Holding
	}{
		{"too long", models.Holding{Ticker: "TOOLONG"}},
		{"digits", models.Holding{Ticker: "BRK1"}},
		{"empty", models.Holding{Ticker: "  "}},
		{"negative weight", models.Holding{Ticker: "AAPL", WeightPct: models.Weight(-1)}},
		{"weight over 100", models.Holding{Ticker: "AAPL", WeightPct: models.Weight(100.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeHoldings([]models.Holding{tt.holding})
			assert.Error(t, err)
		})
	}
}

func TestValidateSubscriber(t *testing.T) {
	sub := &models.Subscriber{Email: "  Demo@Example.com ", Holdings: []models.Holding{{Ticker: "aapl"}}}
	require.NoError(t, ValidateSubscriber(sub))
	assert.Equal(t, "demo@example.com", sub.Email)
	assert.Equal(t, "AAPL", sub.Holdings[0].Ticker)

	assert.Error(t, ValidateSubscriber(&models.Subscriber{Email: "not-an-email"}))
}
