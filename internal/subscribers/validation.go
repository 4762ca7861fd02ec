package subscribers

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

var validate = validator.New()

var (
	minWeight = decimal.Zero
	maxWeight = decimal.NewFromInt(100)
)

// NormalizeHoldings upper-cases tickers, drops duplicates and validates the result
func NormalizeHoldings(holdings []models.Holding) ([]models.Holding, error) {
	seen := make(map[string]bool, len(holdings))
	out := make([]models.Holding, 0, len(holdings))

	for _, h := range holdings {
		h.Ticker = h.NormalizedTicker()
		if seen[h.Ticker] {
			continue
		}
		if err := validate.Struct(h); err != nil {
			return nil, fmt.Errorf("invalid holding %q: %w", h.Ticker, err)
		}
		if h.WeightPct.Valid && (h.WeightPct.Decimal.LessThan(minWeight) || h.WeightPct.Decimal.GreaterThan(maxWeight)) {
			return nil, fmt.Errorf("invalid holding %q: weight %s outside 0-100", h.Ticker, h.WeightPct.Decimal)
		}
		seen[h.Ticker] = true
		out = append(out, h)
	}

	return out, nil
}

// ValidateSubscriber checks email, timezone and holdings
func ValidateSubscriber(sub *models.Subscriber) error {
	sub.Email = strings.ToLower(strings.TrimSpace(sub.Email))
	if err := validate.Var(sub.Email, "required,email"); err != nil {
		return fmt.Errorf("invalid email %q: %w", sub.Email, err)
	}

	holdings, err := NormalizeHoldings(sub.Holdings)
	if err != nil {
		return err
	}
	sub.Holdings = holdings

	return nil
}
