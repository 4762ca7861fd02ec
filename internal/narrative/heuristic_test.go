package narrative

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

func demoHoldings() []models.Holding {
	return []models.Holding{
		{Ticker: "NVDA", WeightPct: models.Weight(15)},
		{Ticker: "VTI", WeightPct: models.Weight(40)},
		{Ticker: "BND", WeightPct: models.Weight(25)},
		{Ticker: "AAPL", WeightPct: models.Weight(10)},
		{Ticker: "AMZN", WeightPct: models.Weight(10)},
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name    string
		article models.Article
		want    string
	}{
		{
			name:    "first two sentences",
			article: models.Article{Description: "Rates held. Markets cheered! Bonds rallied? More later."},
			want:    "Rates held. Markets cheered!",
		},
		{
			name:    "single sentence",
			article: models.Article{Description: "Only one sentence here."},
			want:    "Only one sentence here.",
		},
		{
			name:    "falls back to title",
			article: models.Article{Title: "Apple unveils new phone"},
			want:    "Apple unveils new phone",
		},
		{
			name:    "no split without whitespace",
			article: models.Article{Description: "U.S.GDP rose 2.5% this quarter. Economists expected less. Next week matters."},
			want:    "U.S.GDP rose 2.5% this quarter. Economists expected less.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summary(tt.article))
		})
	}
}

func TestWhyItMatters(t *testing.T) {
	h := demoHoldings()

	t.Run("direct with weight and macro context", func(t *testing.T) {
		a := models.Article{Title: "Federal Reserve holds rates", Description: "NVDA slips."}
		got := WhyItMatters(a, []string{"NVDA", "VTI", "BND"}, h)
		assert.Equal(t,
			"This event directly involves NVDA, VTI, BND (about 80% of your portfolio). "+
				"Changes in federal reserve typically affect your rate-sensitive assets. "+
				"Monitor your positions and consider how this fits your long-term investment plan.",
			got)
	})

	t.Run("names at most three holdings", func(t *testing.T) {
		a := models.Article{Title: "Broad news"}
		got := WhyItMatters(a, []string{"NVDA", "VTI", "BND", "AAPL"}, h)
		assert.True(t, strings.HasPrefix(got, "This event directly involves NVDA, VTI, BND (about 90% of your portfolio)."))
	})

	t.Run("no weight clause without weights", func(t *testing.T) {
		a := models.Article{Title: "Something"}
		got := WhyItMatters(a, []string{"XYZ"}, []models.Holding{{Ticker: "XYZ"}})
		assert.True(t, strings.HasPrefix(got, "This event directly involves XYZ. Monitor"))
	})

	t.Run("generic fallback", func(t *testing.T) {
		got := WhyItMatters(models.Article{Title: "Quiet day"}, nil, h)
		assert.Equal(t, genericWhy+closingWhy, got)
	})

}

func TestTruncateWords(t *testing.T) {
	long := strings.Repeat("word ", 120)
	got := truncateWords(long, maxWhyWords)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, strings.Fields(strings.TrimSuffix(got, "...")), 110)

	assert.Equal(t, "a b c", truncateWords("a  b c", maxWhyWords))
}

func TestHeuristic_Narrate(t *testing.T) {
	articles := []models.Article{
		{Title: "NVIDIA (NVDA) beats earnings estimates", Description: "Shares surge to a record. Analysts cheer."},
		{Title: "Local bakery opens", Description: "Fresh bread daily."},
	}

	events, err := NewHeuristic().Narrate(context.Background(), articles, demoHoldings())
	require.NoError(t, err)
	require.Len(t, events, 2)

	nvda := events[0]
	assert.Equal(t, []string{"NVDA"}, nvda.AffectedHoldings)
	assert.Equal(t, 15, nvda.PortfolioPctAffected)
	assert.Equal(t, 10, nvda.ImpactScore)
	assert.Equal(t, models.ImpactHigh, nvda.ImpactLevel)
	assert.True(t, nvda.IsUrgent)
	assert.Equal(t, "Shares surge to a record. Analysts cheer.", nvda.Summary)

	bakery := events[1]
	assert.Equal(t, 1, bakery.ImpactScore)
	assert.Empty(t, bakery.AffectedHoldings)
	assert.False(t, bakery.IsUrgent)
}

func TestHeuristic_ExposureOnlyFromDirectForSingleHolding(t *testing.T) {
	h := []models.Holding{{Ticker: "NVDA", WeightPct: models.Weight(15)}, {Ticker: "AAPL", WeightPct: models.Weight(10)}}
	events, err := NewHeuristic().Narrate(context.Background(), []models.Article{{Title: "NVDA ships chips"}}, h)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 15, events[0].PortfolioPctAffected)
}

func TestHeuristic_Deterministic(t *testing.T) {
	articles := []models.Article{{Title: "Oil prices spike after OPEC+ cut", Description: "Energy stocks rally."}}
	first, _ := NewHeuristic().Narrate(context.Background(), articles, demoHoldings())
	second, _ := NewHeuristic().Narrate(context.Background(), articles, demoHoldings())
	assert.Equal(t, first, second)
}
