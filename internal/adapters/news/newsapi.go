package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

const (
	newsAPIURL        = "https://newsapi.org/v2/everything"
	newsAPIMaxTickers = 5
	newsAPIFallbackQ  = "stock market economy"
)

// NewsAPIProvider fetches articles from newsapi.org
type NewsAPIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewNewsAPIProvider creates new NewsAPI provider; disabled without a key
func NewNewsAPIProvider(apiKey, baseURL string, timeout time.Duration) *NewsAPIProvider {
	if baseURL == "" {
		baseURL = newsAPIURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &NewsAPIProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (n *NewsAPIProvider) GetName() string {
	return "newsapi"
}

func (n *NewsAPIProvider) IsEnabled() bool {
	return n.apiKey != ""
}

// Query builds the q parameter: first five tickers OR-ed together
func Query(tickers []string) string {
	if len(tickers) == 0 {
		return newsAPIFallbackQ
	}
	if len(tickers) > newsAPIMaxTickers {
		tickers = tickers[:newsAPIMaxTickers]
	}
	return strings.Join(tickers, " OR ")
}

func (n *NewsAPIProvider) FetchLatestNews(ctx context.Context, tickers []string, limit int) ([]models.Article, error) {
	if !n.IsEnabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	params := url.Values{}
	params.Set("q", Query(tickers))
	params.Set("sortBy", "publishedAt")
	params.Set("language", "en")
	params.Set("pageSize", fmt.Sprintf("%d", limit))
	params.Set("apiKey", n.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Status   string `json:"status"`
		Articles []struct {
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Content     string `json:"content"`
		} `json:"articles"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	now := time.Now()
	articles := make([]models.Article, 0, len(result.Articles))
	for _, a := range result.Articles {
		published, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			published = now
		}

		source := a.Source.Name
		if source == "" {
			source = "Unknown"
		}

		articles = append(articles, models.Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      source,
			PublishedAt: published,
			Content:     a.Content,
		})
	}

	logger.Debug("fetched NewsAPI articles",
		zap.Int("count", len(articles)),
	)

	return articles, nil
}
