package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

type fakeNarrator struct {
	events []models.ScoredEvent
	err    error
	calls  int
}

func (f *fakeNarrator) Name() string { return "fake" }

func (f *fakeNarrator) Narrate(_ context.Context, _ []models.Article, _ []models.Holding) ([]models.ScoredEvent, error) {
	f.calls++
	return f.events, f.err
}

func eventsWithScores(scores ...int) []models.ScoredEvent {
	out := make([]models.ScoredEvent, 0, len(scores))
	for i, s := range scores {
		out = append(out, models.NewScoredEvent(
			models.Article{Title: string(rune('a' + i))},
			models.Narrative{ImpactScore: s},
			nil,
		))
	}
	return out
}

func scoresOf(events []models.ScoredEvent) []int {
	out := make([]int, 0, len(events))
	for _, e := range events {
		out = append(out, e.ImpactScore)
	}
	return out
}

func TestEngine_RanksAndTruncates(t *testing.T) {
	n := &fakeNarrator{events: eventsWithScores(9, 2, 7, 5, 1, 8, 3, 6)}
	e := NewEngine(n)

	got := e.ScoreArticles(context.Background(), []models.Article{{Title: "x"}}, demoHoldings())

	assert.Equal(t, []int{9, 8, 7, 6, 5}, scoresOf(got))
}

func TestEngine_StableTies(t *testing.T) {
	n := &fakeNarrator{events: eventsWithScores(5, 7, 5, 7)}
	got := NewEngine(n).ScoreArticles(context.Background(), []models.Article{{Title: "x"}}, demoHoldings())

	require.Len(t, got, 4)
	assert.Equal(t, "b", got[0].Title)
	assert.Equal(t, "d", got[1].Title)
	assert.Equal(t, "a", got[2].Title)
	assert.Equal(t, "c", got[3].Title)
}

func TestEngine_DropsBelowMinScore(t *testing.T) {
	n := &fakeNarrator{events: eventsWithScores(1, 1, 2)}
	got := NewEngine(n).ScoreArticles(context.Background(), []models.Article{{Title: "x"}}, demoHoldings())

	assert.Equal(t, []int{2}, scoresOf(got))
}

func TestEngine_EmptyInputsSkipNarrator(t *testing.T) {
	n := &fakeNarrator{events: eventsWithScores(9)}
	e := NewEngine(n)

	assert.Empty(t, e.ScoreArticles(context.Background(), nil, demoHoldings()))
	assert.Empty(t, e.ScoreArticles(context.Background(), []models.Article{{Title: "x"}}, nil))
	assert.Equal(t, 0, n.calls)
}

func TestEngine_NarratorErrorYieldsNothing(t *testing.T) {
	n := &fakeNarrator{err: errors.New("boom")}
	got := NewEngine(n).ScoreArticles(context.Background(), []models.Article{{Title: "x"}}, demoHoldings())

	assert.Empty(t, got)
	assert.Equal(t, 1, n.calls)
}

func TestEngine_Options(t *testing.T) {
	n := &fakeNarrator{events: eventsWithScores(9, 8, 7, 6, 5, 4)}
	e := NewEngine(n, WithMinScore(6), WithMaxEvents(2))

	got := e.ScoreArticles(context.Background(), []models.Article{{Title: "x"}}, demoHoldings())
	assert.Equal(t, []int{9, 8}, scoresOf(got))
	assert.Equal(t, "fake", e.Mode())
}
