package news

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/internal/relevance"
	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

// RSSProvider reads configured RSS/Atom feeds and keeps items mentioning a ticker
type RSSProvider struct {
	feeds  []string
	client *http.Client
}

// NewRSSProvider creates new RSS provider; non-http feed URLs are dropped
func NewRSSProvider(feeds []string, timeout time.Duration) *RSSProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	valid := make([]string, 0, len(feeds))
	for _, feed := range feeds {
		feed = strings.TrimSpace(feed)
		if strings.HasPrefix(feed, "http://") || strings.HasPrefix(feed, "https://") {
			valid = append(valid, feed)
		}
	}

	return &RSSProvider{
		feeds:  valid,
		client: &http.Client{Timeout: timeout},
	}
}

func (r *RSSProvider) GetName() string {
	return "rss"
}

func (r *RSSProvider) IsEnabled() bool {
	return len(r.feeds) > 0
}

// FetchLatestNews reads every feed; a feed failing is logged and skipped,
// an error is returned only when all of them fail.
func (r *RSSProvider) FetchLatestNews(ctx context.Context, tickers []string, limit int) ([]models.Article, error) {
	if !r.IsEnabled() {
		return nil, nil
	}

	var (
		articles []models.Article
		lastErr  error
		failed   int
	)

	for _, feedURL := range r.feeds {
		items, err := r.fetchFeed(ctx, feedURL)
		if err != nil {
			failed++
			lastErr = err
			logger.Warn("failed to fetch rss feed",
				zap.String("feed", feedURL),
				zap.Error(err),
			)
			continue
		}

		for _, a := range items {
			if mentionsAny(a.Text(), tickers) {
				articles = append(articles, a)
			}
		}
	}

	if failed == len(r.feeds) {
		return nil, fmt.Errorf("all rss feeds failed: %w", lastErr)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}

	logger.Debug("fetched RSS articles",
		zap.Int("count", len(articles)),
		zap.Int("feeds", len(r.feeds)),
	)

	return articles, nil
}

func (r *RSSProvider) fetchFeed(ctx context.Context, feedURL string) ([]models.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status: %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	now := time.Now()
	articles := make([]models.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		published := now
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		articles = append(articles, models.Article{
			Title:       strings.TrimSpace(item.Title),
			Description: StripHTML(item.Description),
			URL:         item.Link,
			Source:      feed.Title,
			PublishedAt: published,
			Content:     StripHTML(item.Content),
		})
	}

	return articles, nil
}

// mentionsAny reports whether text names any ticker as a whole token; no tickers keeps everything
func mentionsAny(text string, tickers []string) bool {
	if len(tickers) == 0 {
		return true
	}
	for _, t := range tickers {
		if relevance.ContainsTicker(text, t) {
			return true
		}
	}
	return false
}

// StripHTML returns the visible text of an HTML fragment with whitespace collapsed
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc.Find("script, style").Remove()

	return strings.Join(strings.Fields(doc.Text()), " ")
}
