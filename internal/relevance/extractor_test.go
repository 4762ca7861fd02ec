package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

func holdings(tickers ...string) []models.Holding {
	out := make([]models.Holding, 0, len(tickers))
	for _, t := range tickers {
		out = append(out, models.Holding{Ticker: t, WeightPct: models.Weight(10)})
	}
	return out
}

func TestDirectTickers_WholeToken(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		holdings []models.Holding
		want     []string
	}{
		{"inside longer ticker", "Flows into BNDX hit a record", holdings("BND"), nil},
		{"separated by spaces", "Bond fund rose after BND rebalanced", holdings("BND"), []string{"BND"}},
		{"punctuation neighbours", "(NVDA) shares jumped", holdings("NVDA"), []string{"NVDA"}},
		{"digit neighbour allowed", "T1 wireless", holdings("T"), []string{"T"}},
		{"lowercase text upper-cased", "nvda beats estimates", holdings("NVDA"), []string{"NVDA"}},
		{"second occurrence qualifies", "BNDX and BND both moved", holdings("BND"), []string{"BND"}},
		{"holdings order kept", "AAPL and NVDA", holdings("NVDA", "AAPL"), []string{"NVDA", "AAPL"}},
		{"start and end of text", "AAPL", holdings("AAPL"), []string{"AAPL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DirectTickers(tt.text, tt.holdings))
		})
	}
}

func TestMacroTickers(t *testing.T) {
	h := holdings("NVDA", "VTI", "BND", "XLE")

	t.Run("fed hits bonds and broad market", func(t *testing.T) {
		got := MacroTickers("Federal Reserve signals two rate cuts", h)
		assert.Equal(t, []string{"VTI", "BND"}, got)
	})

	t.Run("oil hits energy ticker by substring", func(t *testing.T) {
		got := MacroTickers("Oil prices spike after OPEC+ cut", h)
		assert.Equal(t, []string{"VTI", "XLE"}, got)
	})

	t.Run("no keyword no match", func(t *testing.T) {
		assert.Empty(t, MacroTickers("NVIDIA launches a new GPU", h))
	})

	t.Run("punctuation normalized", func(t *testing.T) {
		got := MacroTickers("U.S. GDP-growth slows", holdings("VOO"))
		assert.Equal(t, []string{"VOO"}, got)
	})
}

func TestExtract_AffectedOrder(t *testing.T) {
	h := holdings("BND", "NVDA", "VTI")
	m := Extract("NVDA rallies as Federal Reserve holds rates", h)

	assert.Equal(t, []string{"NVDA"}, m.Direct)
	assert.Equal(t, []string{"BND", "VTI"}, m.Macro)
	assert.Equal(t, []string{"NVDA", "BND", "VTI"}, m.Affected())
	assert.False(t, m.Empty())
}

func TestExtract_Idempotent(t *testing.T) {
	h := holdings("NVDA", "VTI", "BND", "AAPL", "AMZN")
	text := "Treasury yields climb; Apple (AAPL) faces China tariff risk"

	first := Extract(text, h)
	second := Extract(text, h)
	assert.Equal(t, first, second)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "opec  cuts  oil", Normalize("OPEC+ cuts; Oil"))
	assert.Equal(t, "s p 500", Normalize("S&P 500"))
}

func TestFirstMacroKeyword(t *testing.T) {
	m, ok := FirstMacroKeyword("Inflation cools while the Federal Reserve waits")
	assert.True(t, ok)
	assert.Equal(t, "federal reserve", m.Keyword)
	assert.Equal(t, "rate-sensitive assets", m.Description)

	_, ok = FirstMacroKeyword("Nothing macro here")
	assert.False(t, ok)
}
