package narrative

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

type fakeCompleter struct {
	reply   string
	err     error
	enabled bool
	calls   int
	user    string
	delay   time.Duration
}

func (f *fakeCompleter) Complete(ctx context.Context, _, user string) (string, error) {
	f.calls++
	f.user = user
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeCompleter) GetName() string { return "fake" }
func (f *fakeCompleter) IsEnabled() bool { return f.enabled }

func sampleArticles(n int) []models.Article {
	out := make([]models.Article, n)
	for i := range out {
		out[i] = models.Article{Title: "Article " + string(rune('A'+i)), Description: "Desc."}
	}
	return out
}

func TestParseReply(t *testing.T) {
	articles := sampleArticles(3)
	reply := "```json\n[" +
		`{"index":1,"summary":"s1","whyItMatters":"w1","affectedHoldings":["nvda","XOM"],"impactScore":9,"impactLevel":"High","isUrgent":true},` +
		`{"index":3,"summary":"s3","whyItMatters":"w3","affectedHoldings":["VTI","BND"],"impactScore":7,"impactLevel":"Low","isUrgent":true},` +
		`{"index":1,"summary":"again","whyItMatters":"dup","affectedHoldings":["AAPL"],"impactScore":3,"impactLevel":"Low","isUrgent":false},` +
		`{"index":4,"summary":"bad","whyItMatters":"","affectedHoldings":[],"impactScore":5,"impactLevel":"Moderate","isUrgent":false},` +
		`{"index":0,"summary":"bad","whyItMatters":"","affectedHoldings":[],"impactScore":5,"impactLevel":"Moderate","isUrgent":false}` +
		"]\n```"

	events, err := ParseReply(reply, articles, demoHoldings())
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "Article A", first.Title)
	assert.Equal(t, "s1", first.Summary, "first entry wins for a repeated index")
	assert.Equal(t, []string{"NVDA"}, first.AffectedHoldings)
	assert.Equal(t, 15, first.PortfolioPctAffected)
	assert.True(t, first.IsUrgent)

	second := events[1]
	assert.Equal(t, "Article C", second.Title)
	assert.Equal(t, 7, second.ImpactScore)
	assert.Equal(t, models.ImpactHigh, second.ImpactLevel, "level is derived from score, not the reply")
	assert.False(t, second.IsUrgent, "urgency cleared below 8")
	assert.Equal(t, 65, second.PortfolioPctAffected)
}

func TestParseReply_Failures(t *testing.T) {
	articles := sampleArticles(2)
	tests := []struct {
		name  string
		reply string
	}{
		{"prose only", "Sorry, nothing relevant today."},
		{"malformed json", `[{"index":1,"summary":]`},
		{"type mismatch", `[{"index":1,"affectedHoldings":"NVDA","impactScore":5}]`},
		{"all indexes out of range", `[{"index":7,"impactScore":5}]`},
		{"empty array", `[]`},
		{"missing narrative text", `[{"index":1,"impactScore":9}]`},
		{"blank why it matters", `[{"index":1,"summary":"s","whyItMatters":"  ","impactScore":6}]`},
		{"missing impact score", `[{"index":1,"summary":"s","whyItMatters":"w"}]`},
		{"fractional impact score", `[{"index":2,"summary":"s","whyItMatters":"w","impactScore":6.5}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReply(tt.reply, articles, demoHoldings())
			assert.Error(t, err)
		})
	}
}

func TestDelegated_PromptFormatting(t *testing.T) {
	c := &fakeCompleter{enabled: true, reply: `[{"index":1,"summary":"s","whyItMatters":"w","affectedHoldings":["NVDA"],"impactScore":8,"impactLevel":"High","isUrgent":false}]`}
	d, err := NewDelegated(c)
	require.NoError(t, err)

	h := []models.Holding{{Ticker: "NVDA", WeightPct: models.Weight(15)}, {Ticker: "BND"}}
	events, err := d.Narrate(context.Background(), sampleArticles(12), h)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Contains(t, c.user, "A user holds: NVDA (15%), BND")
	assert.Contains(t, c.user, "[1] Article A\nDesc.")
	assert.Contains(t, c.user, "[10] Article J")
	assert.NotContains(t, c.user, "[11]")
	assert.Equal(t, "delegated:fake", d.Name())
}

func TestDelegated_Unavailable(t *testing.T) {
	d, err := NewDelegated(&fakeCompleter{enabled: false})
	require.NoError(t, err)

	_, err = d.Narrate(context.Background(), sampleArticles(1), demoHoldings())
	assert.ErrorIs(t, err, ErrDelegateUnavailable)
}

func TestFallback_UsesHeuristicOnAnyFailure(t *testing.T) {
	articles := []models.Article{{Title: "NVDA beats estimates"}}

	cases := map[string]*fakeCompleter{
		"transport error": {enabled: true, err: errors.New("connection refused")},
		"unparseable":     {enabled: true, reply: "no json here"},
		"empty array":     {enabled: true, reply: "[]"},
		"timeout":         {enabled: true, reply: "[]", delay: time.Second},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			d, err := NewDelegated(c)
			require.NoError(t, err)
			gen := NewFallback(d, NewHeuristic(), 50*time.Millisecond)

			events, err := gen.Narrate(context.Background(), articles, demoHoldings())
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, []string{"NVDA"}, events[0].AffectedHoldings)
			assert.Equal(t, 1, c.calls, "no retry")
		})
	}
}

func TestFallback_IncompleteReplyUsesHeuristic(t *testing.T) {
	c := &fakeCompleter{enabled: true, reply: `[{"index":1,"impactScore":9},{"index":1,"summary":"","whyItMatters":"w","impactScore":9}]`}
	d, err := NewDelegated(c)
	require.NoError(t, err)

	articles := []models.Article{{Title: "NVDA beats estimates"}}
	events, err := NewFallback(d, NewHeuristic(), time.Second).Narrate(context.Background(), articles, demoHoldings())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].Summary)
	assert.NotEmpty(t, events[0].WhyItMatters)
	assert.Equal(t, []string{"NVDA"}, events[0].AffectedHoldings)
}

func TestFallback_PrefersPrimary(t *testing.T) {
	c := &fakeCompleter{enabled: true, reply: `[{"index":1,"summary":"from model","whyItMatters":"w","affectedHoldings":["NVDA"],"impactScore":6,"impactLevel":"Moderate","isUrgent":false}]`}
	d, err := NewDelegated(c)
	require.NoError(t, err)

	events, err := NewFallback(d, NewHeuristic(), time.Second).Narrate(context.Background(), []models.Article{{Title: "NVDA"}}, demoHoldings())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "from model", events[0].Summary)
}

func TestSelect(t *testing.T) {
	gen, err := Select(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "heuristic", gen.Name())

	gen, err = Select(&fakeCompleter{enabled: false}, 0)
	require.NoError(t, err)
	assert.Equal(t, "heuristic", gen.Name())

	gen, err = Select(&fakeCompleter{enabled: true}, 0)
	require.NoError(t, err)
	assert.Equal(t, "delegated:fake+heuristic", gen.Name())
}
