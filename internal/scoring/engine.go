package scoring

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

const (
	DefaultMinScore  = 2
	DefaultMaxEvents = 5
)

// Narrator turns articles into scored events for one portfolio
type Narrator interface {
	Name() string
	Narrate(ctx context.Context, articles []models.Article, holdings []models.Holding) ([]models.ScoredEvent, error)
}

// Engine ranks articles for a portfolio
type Engine struct {
	narrator  Narrator
	minScore  int
	maxEvents int
}

// Option configures the engine
type Option func(*Engine)

// WithMinScore drops events scoring below min
func WithMinScore(min int) Option {
	return func(e *Engine) {
		if min > 0 {
			e.minScore = min
		}
	}
}

// WithMaxEvents caps the number of events returned
func WithMaxEvents(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxEvents = max
		}
	}
}

// NewEngine creates a scoring engine around a narrator chosen once at startup
func NewEngine(narrator Narrator, opts ...Option) *Engine {
	e := &Engine{
		narrator:  narrator,
		minScore:  DefaultMinScore,
		maxEvents: DefaultMaxEvents,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode returns the active narrator name
func (e *Engine) Mode() string {
	return e.narrator.Name()
}

// ScoreArticles returns at most maxEvents events scoring at least minScore,
// highest score first. Ties keep the order the narrator produced.
func (e *Engine) ScoreArticles(ctx context.Context, articles []models.Article, holdings []models.Holding) []models.ScoredEvent {
	if len(articles) == 0 || len(holdings) == 0 {
		return nil
	}

	events, err := e.narrator.Narrate(ctx, articles, holdings)
	if err != nil {
		logger.Warn("narrator failed, no events produced",
			zap.String("mode", e.narrator.Name()),
			zap.Error(err),
		)
		return nil
	}

	return Rank(events, e.minScore, e.maxEvents)
}

// Rank filters, stable-sorts and truncates events
func Rank(events []models.ScoredEvent, minScore, maxEvents int) []models.ScoredEvent {
	kept := make([]models.ScoredEvent, 0, len(events))
	for _, ev := range events {
		if ev.ImpactScore >= minScore {
			kept = append(kept, ev)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].ImpactScore > kept[j].ImpactScore
	})

	if len(kept) > maxEvents {
		kept = kept[:maxEvents]
	}
	return kept
}
