package narrative

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/internal/adapters/ai"
	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
	"github.com/selivandex/portfolio-digest/pkg/templates"
)

// MaxDelegatedArticles caps how many articles go into one prompt
const MaxDelegatedArticles = 10

const promptTemplate = "narrate.tmpl"

//go:embed prompts/*.tmpl
var promptFS embed.FS

// delegateEntry is one element of the model's JSON reply
type delegateEntry struct {
	Index            float64  `json:"index"`
	Summary          string   `json:"summary"`
	WhyItMatters     string   `json:"whyItMatters"`
	AffectedHoldings []string `json:"affectedHoldings"`
	ImpactScore      *float64 `json:"impactScore"`
	ImpactLevel      string   `json:"impactLevel"`
	IsUrgent         bool     `json:"isUrgent"`
}

// Delegated asks a language model to pick and explain the relevant articles
type Delegated struct {
	completer Completer
	prompts   templates.Renderer
}

// NewDelegated creates a generator backed by a completion provider
func NewDelegated(completer Completer) (*Delegated, error) {
	manager, err := templates.NewManagerFS(promptFS, "prompts/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to load narrative prompts: %w", err)
	}
	if err := manager.Require(promptTemplate); err != nil {
		return nil, err
	}

	return &Delegated{completer: completer, prompts: manager}, nil
}

func (d *Delegated) Name() string {
	if d.completer == nil {
		return "delegated"
	}
	return "delegated:" + d.completer.GetName()
}

// Narrate sends one prompt covering up to ten articles and validates the reply
func (d *Delegated) Narrate(ctx context.Context, articles []models.Article, holdings []models.Holding) ([]models.ScoredEvent, error) {
	if d.completer == nil || !d.completer.IsEnabled() {
		return nil, ErrDelegateUnavailable
	}
	if len(articles) == 0 {
		return nil, ErrEmptyResult
	}

	window := articles
	if len(window) > MaxDelegatedArticles {
		window = window[:MaxDelegatedArticles]
	}

	systemPrompt, userPrompt, err := d.buildPrompt(window, holdings)
	if err != nil {
		return nil, err
	}

	reply, err := d.completer.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("delegate call failed: %w", err)
	}

	events, err := ParseReply(reply, window, holdings)
	if err != nil {
		return nil, err
	}

	logger.Debug("delegate narrated events",
		zap.String("provider", d.completer.GetName()),
		zap.Int("articles", len(window)),
		zap.Int("events", len(events)),
	)

	return events, nil
}

func (d *Delegated) buildPrompt(articles []models.Article, holdings []models.Holding) (string, string, error) {
	out, err := d.prompts.ExecuteTemplate(promptTemplate, map[string]interface{}{
		"Holdings": FormatHoldings(holdings),
		"Articles": FormatArticles(articles),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to render narrative prompt: %w", err)
	}

	systemPrompt, userPrompt := ai.SplitPrompt(out)
	return systemPrompt, userPrompt, nil
}

// FormatHoldings renders "NVDA (15%), VTI (40%), BND"; zero weights are omitted
func FormatHoldings(holdings []models.Holding) string {
	parts := make([]string, 0, len(holdings))
	for _, h := range holdings {
		w := h.WeightOrZero()
		if w.IsZero() {
			parts = append(parts, h.NormalizedTicker())
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s%%)", h.NormalizedTicker(), w.String()))
	}
	return strings.Join(parts, ", ")
}

// FormatArticles renders numbered articles starting at [1]
func FormatArticles(articles []models.Article) string {
	parts := make([]string, 0, len(articles))
	for i, a := range articles {
		parts = append(parts, fmt.Sprintf("[%d] %s\n%s", i+1, a.Title, a.Description))
	}
	return strings.Join(parts, "\n\n")
}

// ParseReply extracts and validates the model's JSON array. Entries pointing
// outside the article window, repeating an index, or missing narrative text or
// a whole impact score are dropped. Tickers are limited to held ones and
// exposure, level and urgency are recomputed locally.
func ParseReply(reply string, articles []models.Article, holdings []models.Holding) ([]models.ScoredEvent, error) {
	raw := ai.ExtractJSONArray(reply)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON array in reply", ErrEmptyResult)
	}

	var entries []delegateEntry
	if err := json.NewDecoder(bytes.NewReader([]byte(raw))).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode delegate reply: %w", err)
	}

	held := make(map[string]bool, len(holdings))
	for _, h := range holdings {
		held[h.NormalizedTicker()] = true
	}

	limit := len(articles)
	if limit > MaxDelegatedArticles {
		limit = MaxDelegatedArticles
	}

	events := make([]models.ScoredEvent, 0, len(entries))
	used := make(map[int]bool, len(entries))
	for _, e := range entries {
		idx := int(e.Index)
		if float64(idx) != e.Index || idx < 1 || idx > limit {
			logger.Debug("dropping delegate entry with bad index", zap.Float64("index", e.Index))
			continue
		}
		if used[idx] {
			logger.Debug("dropping duplicate delegate entry", zap.Int("index", idx))
			continue
		}

		summary := strings.TrimSpace(e.Summary)
		why := strings.TrimSpace(e.WhyItMatters)
		if summary == "" || why == "" || e.ImpactScore == nil || *e.ImpactScore != math.Trunc(*e.ImpactScore) {
			logger.Debug("dropping incomplete delegate entry", zap.Int("index", idx))
			continue
		}
		used[idx] = true

		events = append(events, models.NewScoredEvent(articles[idx-1], models.Narrative{
			Summary:          summary,
			WhyItMatters:     why,
			AffectedHoldings: keepHeld(e.AffectedHoldings, held),
			ImpactScore:      int(*e.ImpactScore),
			IsUrgent:         e.IsUrgent,
		}, holdings))
	}

	if len(events) == 0 {
		return nil, ErrEmptyResult
	}
	return events, nil
}

func keepHeld(tickers []string, held map[string]bool) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if !held[t] || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
