// Package narrative turns articles into scored, explained events for one
// portfolio. Two strategies exist: a keyword heuristic that always works and a
// delegated one that asks a language model, falling back to the heuristic.
package narrative

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

var (
	// ErrDelegateUnavailable is returned when no delegate is configured
	ErrDelegateUnavailable = errors.New("narrative delegate unavailable")
	// ErrEmptyResult is returned when the delegate produced no usable events
	ErrEmptyResult = errors.New("narrative delegate returned no usable events")
)

// DefaultDelegateTimeout bounds a single delegate call
const DefaultDelegateTimeout = 30 * time.Second

// Generator produces scored events for a portfolio
type Generator interface {
	Name() string
	Narrate(ctx context.Context, articles []models.Article, holdings []models.Holding) ([]models.ScoredEvent, error)
}

// Completer is a text completion backend
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GetName() string
	IsEnabled() bool
}

// Select decides the narrative strategy once. A configured delegate yields
// delegate-then-heuristic; otherwise the heuristic alone.
func Select(delegate Completer, timeout time.Duration) (Generator, error) {
	heuristic := NewHeuristic()

	if delegate == nil || !delegate.IsEnabled() {
		logger.Info("narrative mode selected", zap.String("mode", heuristic.Name()))
		return heuristic, nil
	}

	delegated, err := NewDelegated(delegate)
	if err != nil {
		return nil, err
	}

	gen := NewFallback(delegated, heuristic, timeout)
	logger.Info("narrative mode selected", zap.String("mode", gen.Name()))
	return gen, nil
}
