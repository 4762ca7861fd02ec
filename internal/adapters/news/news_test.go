package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

type fakeProvider struct {
	name     string
	enabled  bool
	articles []models.Article
	err      error
	calls    int
}

func (f *fakeProvider) GetName() string { return f.name }
func (f *fakeProvider) IsEnabled() bool { return f.enabled }
func (f *fakeProvider) FetchLatestNews(context.Context, []string, int) ([]models.Article, error) {
	f.calls++
	return f.articles, f.err
}

func TestQuery(t *testing.T) {
	assert.Equal(t, "stock market economy", Query(nil))
	assert.Equal(t, "NVDA OR VTI", Query([]string{"NVDA", "VTI"}))
	assert.Equal(t, "A OR B OR C OR D OR E", Query([]string{"A", "B", "C", "D", "E", "F"}))
}

func TestNewsAPIProvider_Fetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","articles":[
			{"source":{"name":"Reuters"},"title":"NVDA jumps","description":"d","url":"https://x/1","publishedAt":"2025-03-10T12:00:00Z","content":"c"},
			{"source":{},"title":"Other","description":"","url":"https://x/2","publishedAt":"garbage"}
		]}`))
	}))
	defer srv.Close()

	p := NewNewsAPIProvider("key-1", srv.URL, time.Second)
	require.True(t, p.IsEnabled())

	articles, err := p.FetchLatestNews(context.Background(), []string{"NVDA", "VTI"}, 20)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "Reuters", articles[0].Source)
	assert.Equal(t, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), articles[0].PublishedAt.UTC())
	assert.Equal(t, "Unknown", articles[1].Source)
	assert.False(t, articles[1].PublishedAt.IsZero())

	assert.Contains(t, gotQuery, "q=NVDA+OR+VTI")
	assert.Contains(t, gotQuery, "sortBy=publishedAt")
	assert.Contains(t, gotQuery, "language=en")
	assert.Contains(t, gotQuery, "pageSize=20")
	assert.Contains(t, gotQuery, "apiKey=key-1")
}

func TestNewsAPIProvider_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewNewsAPIProvider("key", srv.URL, time.Second)
	_, err := p.FetchLatestNews(context.Background(), nil, 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestNewsAPIProvider_DisabledWithoutKey(t *testing.T) {
	p := NewNewsAPIProvider("", "", 0)
	assert.False(t, p.IsEnabled())

	articles, err := p.FetchLatestNews(context.Background(), []string{"NVDA"}, 20)
	assert.NoError(t, err)
	assert.Empty(t, articles)
}

func TestStubProvider(t *testing.T) {
	p := NewStubProvider()
	articles, err := p.FetchLatestNews(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Len(t, articles, 8)
	assert.Contains(t, articles[1].Title, "NVIDIA")
	for _, a := range articles {
		assert.False(t, a.PublishedAt.IsZero())
	}

	// the shared slice is never stamped
	assert.True(t, stubArticles[0].PublishedAt.IsZero())
}

func TestFallbackSource_FirstNonEmptyWins(t *testing.T) {
	failing := &fakeProvider{name: "a", enabled: true, err: errors.New("boom")}
	empty := &fakeProvider{name: "b", enabled: true}
	disabled := &fakeProvider{name: "c", enabled: false, articles: []models.Article{{Title: "x"}}}
	good := &fakeProvider{name: "d", enabled: true, articles: []models.Article{{Title: "y"}}}
	never := &fakeProvider{name: "e", enabled: true, articles: []models.Article{{Title: "z"}}}

	src := NewFallbackSource(failing, empty, disabled, good, never)
	articles, err := src.Fetch(context.Background(), []string{"NVDA"})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "y", articles[0].Title)
	assert.Zero(t, disabled.calls)
	assert.Zero(t, never.calls)
	assert.Equal(t, []string{"a", "b", "d", "e"}, src.Providers())
}

func TestFallbackSource_AllEmptyIsNotAnError(t *testing.T) {
	src := NewFallbackSource(
		&fakeProvider{name: "a", enabled: true, err: errors.New("boom")},
		&fakeProvider{name: "b", enabled: true},
	)
	articles, err := src.Fetch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, articles)
}

func TestFallbackSource_AllFailed(t *testing.T) {
	src := NewFallbackSource(
		&fakeProvider{name: "a", enabled: true, err: errors.New("first")},
		&fakeProvider{name: "b", enabled: true, err: errors.New("second")},
	)
	_, err := src.Fetch(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second")
}

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Markets</title>
<item><title>BND slips as yields rise</title><link>https://x/1</link>
<description>&lt;p&gt;Bond funds &lt;b&gt;fell&lt;/b&gt;.&lt;/p&gt;</description>
<pubDate>Mon, 10 Mar 2025 12:00:00 GMT</pubDate></item>
<item><title>BNDX flows</title><link>https://x/2</link><description>International bonds</description>
<pubDate>Mon, 10 Mar 2025 13:00:00 GMT</pubDate></item>
<item><title>NVDA rallies</title><link>https://x/3</link><description>Chips</description>
<pubDate>Mon, 10 Mar 2025 14:00:00 GMT</pubDate></item>
</channel></rss>`

func TestRSSProvider_FiltersByWholeTicker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	p := NewRSSProvider([]string{srv.URL, "ftp://ignored"}, time.Second)
	require.True(t, p.IsEnabled())

	articles, err := p.FetchLatestNews(context.Background(), []string{"BND", "NVDA"}, 10)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "NVDA rallies", articles[0].Title, "newest first")
	assert.Equal(t, "BND slips as yields rise", articles[1].Title)
	assert.Equal(t, "Bond funds fell.", articles[1].Description)
	assert.Equal(t, "Markets", articles[1].Source)

	all, err := p.FetchLatestNews(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRSSProvider_AllFeedsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewRSSProvider([]string{srv.URL}, time.Second)
	_, err := p.FetchLatestNews(context.Background(), nil, 0)
	assert.Error(t, err)
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "plain text here", StripHTML("  plain \n text   here "))
	assert.Equal(t, "Hello world & co", StripHTML("<div>Hello <i>world</i> &amp; co<script>x()</script></div>"))
	assert.Equal(t, "", StripHTML(""))
}

type memoryStore struct {
	mu      sync.Mutex
	data    map[string]string
	failGet bool
	sets    int
}

func (m *memoryStore) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryStore) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]string{}
	}
	m.data[key] = string(value.([]byte))
	m.sets++
	return redis.NewStatusResult("OK", nil)
}

type countingSource struct {
	calls    int
	articles []models.Article
}

func (c *countingSource) Fetch(context.Context, []string) ([]models.Article, error) {
	c.calls++
	return c.articles, nil
}

func TestCachedSource(t *testing.T) {
	next := &countingSource{articles: []models.Article{{Title: "NVDA beats", URL: "https://x/1"}}}
	store := &memoryStore{}
	src := NewCachedSource(next, store, time.Minute)

	first, err := src.Fetch(context.Background(), []string{"NVDA", "VTI"})
	require.NoError(t, err)
	second, err := src.Fetch(context.Background(), []string{"vti", "NVDA"})
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first[0].Title, second[0].Title)
	assert.Equal(t, 1, store.sets)
}

func TestCachedSource_ReadFailureFallsThrough(t *testing.T) {
	next := &countingSource{articles: []models.Article{{Title: "x"}}}
	src := NewCachedSource(next, &memoryStore{failGet: true}, 0)

	articles, err := src.Fetch(context.Background(), []string{"NVDA"})
	require.NoError(t, err)
	assert.Len(t, articles, 1)
	assert.Equal(t, 1, next.calls)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey([]string{"NVDA", "VTI"}), CacheKey([]string{" vti", "NVDA", "nvda"}))
	assert.NotEqual(t, CacheKey([]string{"NVDA"}), CacheKey([]string{"VTI"}))
	assert.True(t, strings.HasPrefix(CacheKey(nil), "news:articles:"))
}
