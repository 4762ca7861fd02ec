package narrative

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/selivandex/portfolio-digest/internal/relevance"
	"github.com/selivandex/portfolio-digest/internal/scoring"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

const (
	maxWhyWords       = 110
	maxNamedHoldings  = 3
	summarySentences  = 2
	genericWhy        = "This market development could affect the broader economy and your investments. "
	closingWhy        = "Monitor your positions and consider how this fits your long-term investment plan."
	truncationEllipse = "..."
)

var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// Heuristic builds events from keyword relevance and impact scoring
type Heuristic struct{}

// NewHeuristic creates the keyword-based generator
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (h *Heuristic) Name() string {
	return "heuristic"
}

// Narrate scores every article; it never fails
func (h *Heuristic) Narrate(_ context.Context, articles []models.Article, holdings []models.Holding) ([]models.ScoredEvent, error) {
	events := make([]models.ScoredEvent, 0, len(articles))
	for _, a := range articles {
		events = append(events, h.event(a, holdings))
	}
	return events, nil
}

func (h *Heuristic) event(article models.Article, holdings []models.Holding) models.ScoredEvent {
	match, score, urgent := scoring.ScoreArticle(article, holdings)
	affected := match.Affected()

	return models.NewScoredEvent(article, models.Narrative{
		Summary:          Summary(article),
		WhyItMatters:     WhyItMatters(article, affected, holdings),
		AffectedHoldings: affected,
		ImpactScore:      score,
		IsUrgent:         urgent,
	}, holdings)
}

// Summary returns the first two sentences of the description, or the title
func Summary(article models.Article) string {
	text := article.Description
	if text == "" {
		text = article.Title
	}

	var sentences []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[start:loc[0]+1])
		start = loc[1]
	}
	sentences = append(sentences, text[start:])

	if len(sentences) > summarySentences {
		sentences = sentences[:summarySentences]
	}
	return strings.TrimSpace(strings.Join(sentences, " "))
}

// WhyItMatters explains the event in plain words, capped at 110 words
func WhyItMatters(article models.Article, affected []string, holdings []models.Holding) string {
	var b strings.Builder

	if len(affected) > 0 {
		named := affected
		if len(named) > maxNamedHoldings {
			named = named[:maxNamedHoldings]
		}
		b.WriteString("This event directly involves ")
		b.WriteString(strings.Join(named, ", "))
		if pct := models.RoundPct(models.ExposurePct(holdings, affected)); pct > 0 {
			fmt.Fprintf(&b, " (about %d%% of your portfolio)", pct)
		}
		b.WriteString(". ")
	}

	if m, ok := relevance.FirstMacroKeyword(article.Headline()); ok {
		fmt.Fprintf(&b, "Changes in %s typically affect your %s. ", m.Keyword, m.Description)
	}

	if b.Len() == 0 {
		b.WriteString(genericWhy)
	}
	b.WriteString(closingWhy)

	return truncateWords(b.String(), maxWhyWords)
}

func truncateWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:max], " ") + truncationEllipse
}
