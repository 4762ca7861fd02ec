package news

import (
	"context"
	"time"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

// StubProvider serves a fixed set of demo articles, for local runs without a news API
type StubProvider struct {
	now func() time.Time
}

// NewStubProvider creates the demo provider
func NewStubProvider() *StubProvider {
	return &StubProvider{now: time.Now}
}

func (s *StubProvider) GetName() string {
	return "stub"
}

func (s *StubProvider) IsEnabled() bool {
	return true
}

// FetchLatestNews ignores tickers and returns every demo article stamped with the current time
func (s *StubProvider) FetchLatestNews(_ context.Context, _ []string, _ int) ([]models.Article, error) {
	now := s.now()
	articles := make([]models.Article, len(stubArticles))
	for i, a := range stubArticles {
		a.PublishedAt = now
		articles[i] = a
	}
	return articles, nil
}

var stubArticles = []models.Article{
	{
		Title:       "Federal Reserve holds interest rates steady, signals cautious outlook",
		Description: "The Federal Reserve kept its benchmark interest rate unchanged on Wednesday, citing persistent inflation concerns and a resilient labor market. Fed Chair Jerome Powell indicated the committee will remain data-dependent before making any cuts.",
		URL:         "https://example.com/fed-rates",
		Source:      "Reuters",
		Content:     "The Federal Open Market Committee voted unanimously to maintain the federal funds rate target range. Inflation remains above the 2% target. Markets had largely priced in the hold.",
	},
	{
		Title:       "NVIDIA reports record quarterly earnings, beats analyst estimates",
		Description: "NVIDIA Corp posted quarterly revenue of $36 billion, surpassing Wall Street expectations as AI chip demand continued to surge. The company raised its forward guidance.",
		URL:         "https://example.com/nvda-earnings",
		Source:      "Bloomberg",
		Content:     "NVDA shares rose 8% in after-hours trading. Data center segment revenue hit $30.8 billion. CEO Jensen Huang cited unprecedented demand for Blackwell GPUs.",
	},
	{
		Title:       "Oil prices fall 4% on rising OPEC+ production signals",
		Description: "Crude oil futures dropped sharply after reports that OPEC+ members are considering increasing output quotas at their next meeting, adding supply pressure to an already oversupplied market.",
		URL:         "https://example.com/oil-opec",
		Source:      "Wall Street Journal",
		Content:     "WTI crude fell to $72 per barrel. Energy stocks broadly declined. Analysts say higher oil supply could benefit transportation and consumer discretionary sectors.",
	},
	{
		Title:       "Apple announces major iPhone software update with AI features",
		Description: "Apple unveiled iOS enhancements powered by Apple Intelligence, its on-device AI system, expanding features to more languages and devices. Analysts expect the update to accelerate upgrade cycles.",
		URL:         "https://example.com/aapl-ai",
		Source:      "CNBC",
		Content:     "AAPL rose 2% on the news. The update is available immediately for iPhone 16 and later. New writing tools, image generation, and Siri improvements are included.",
	},
	{
		Title:       "10-year Treasury yield climbs to 4.6% amid inflation concerns",
		Description: "US Treasury yields rose as investors repriced rate cut expectations following hotter-than-expected CPI data. Bond prices fell, impacting rate-sensitive sectors like real estate and utilities.",
		URL:         "https://example.com/treasury-yields",
		Source:      "MarketWatch",
		Content:     "The benchmark 10-year yield hit its highest level in three months. Bond-heavy ETFs such as BND and TLT fell around 1%. REITs and dividend stocks also declined.",
	},
	{
		Title:       "Amazon expands same-day delivery to 15 new cities, pressuring competitors",
		Description: "Amazon announced a major logistics expansion targeting suburban markets, increasing same-day delivery coverage by 30%. The move is expected to pressure brick-and-mortar retailers.",
		URL:         "https://example.com/amzn-logistics",
		Source:      "Financial Times",
		Content:     "AMZN stock rose 1.5%. Walmart and Target shares dipped slightly on competitive concern. Amazon's delivery network now reaches 120 million US households.",
	},
	{
		Title:       "Vanguard Total Stock Market ETF sees record inflows as investors buy the dip",
		Description: "VTI attracted over $2.3 billion in net inflows this week as retail investors took advantage of a broad market pullback, signaling sustained confidence in long-term index investing.",
		URL:         "https://example.com/vti-inflows",
		Source:      "ETF.com",
		Content:     "Passive index funds continue to dominate retail investor flows. VTI is now the second-largest ETF by assets under management. Year-to-date performance remains positive.",
	},
	{
		Title:       "Recession fears rise as manufacturing PMI falls below 50 for third month",
		Description: "The ISM Manufacturing PMI came in at 48.5, below the 50 threshold that separates expansion from contraction, fueling concerns about an economic slowdown in the goods sector.",
		URL:         "https://example.com/pmi-recession",
		Source:      "Reuters",
		Content:     "New orders subindex was the weakest component. Cyclical stocks such as industrials and materials declined. Defensive sectors (utilities, healthcare) outperformed.",
	},
}
