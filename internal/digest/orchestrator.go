// Package digest runs the daily job: for every active subscriber it fetches
// news, ranks events, sends the daily digest and at most one urgent alert per
// local day, and records every send attempt.
package digest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

// Deps are the collaborators of a run
type Deps struct {
	Subscribers SubscriberStore
	News        NewsSource
	Scorer      Scorer
	Composer    Composer
	Sender      Sender
	Log         DeliveryLog
}

// Orchestrator drives one subscriber at a time through the pipeline
type Orchestrator struct {
	deps       Deps
	pacer      Pacer
	clock      Clock
	defaultLoc *time.Location
	observers  []Observer
}

// Option configures the orchestrator
type Option func(*Orchestrator)

// WithPacer overrides the default 600ms fixed delay
func WithPacer(p Pacer) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.pacer = p
		}
	}
}

// WithClock overrides time.Now
func WithClock(c Clock) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithDefaultLocation sets the timezone used when a subscriber's is unknown
func WithDefaultLocation(loc *time.Location) Option {
	return func(o *Orchestrator) {
		if loc != nil {
			o.defaultLoc = loc
		}
	}
}

// WithObserver adds a telemetry observer
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// New creates an orchestrator
func New(deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		deps:       deps,
		pacer:      FixedDelay{Delay: DefaultSendDelay},
		clock:      time.Now,
		defaultLoc: time.UTC,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes every active subscriber sequentially. Per-subscriber failures
// are counted and logged; only failing to list subscribers returns an error.
// A cancelled ctx stops the run between subscribers.
func (o *Orchestrator) Run(ctx context.Context) (models.RunStats, error) {
	var stats models.RunStats
	start := o.clock()

	subs, err := o.deps.Subscribers.ListActive(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list active subscribers: %w", err)
	}

	logger.Info("digest run started", zap.Int("subscribers", len(subs)))

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			logger.Warn("digest run interrupted",
				zap.Int("processed", stats.Processed),
				zap.Int("remaining", len(subs)-stats.Processed),
			)
			o.complete(ctx, stats, start)
			return stats, err
		}

		stats.Add(o.processSubscriber(ctx, sub))
	}

	o.complete(ctx, stats, start)
	return stats, nil
}

func (o *Orchestrator) complete(ctx context.Context, stats models.RunStats, start time.Time) {
	duration := o.clock().Sub(start)

	logger.Info("digest run done",
		zap.Int("processed", stats.Processed),
		zap.Int("sent", stats.Sent),
		zap.Int("urgent", stats.UrgentSent),
		zap.Int("errors", stats.Errors),
		zap.Duration("duration", duration),
	)

	for _, obs := range o.observers {
		obs.OnRunComplete(ctx, stats, duration)
	}
}

// processSubscriber never panics and never returns an error; everything that
// goes wrong ends up in the result.
func (o *Orchestrator) processSubscriber(ctx context.Context, sub models.Subscriber) (res models.SubscriberResult) {
	res.SubscriberID = sub.ID
	loc := sub.Location(o.defaultLoc)
	now := o.clock()
	localDate := models.LocalDate(now, loc)

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic: %v", r)
		}
		if res.Err != nil {
			res.Outcome = models.OutcomeFailed
			o.recordFailure(ctx, sub, localDate, res.Err)
		}
	}()

	err := o.deliver(ctx, sub, now.In(loc), localDate, &res)
	if err != nil {
		res.Err = err
	}
	return res
}

func (o *Orchestrator) deliver(ctx context.Context, sub models.Subscriber, localNow time.Time, localDate string, res *models.SubscriberResult) error {
	articles, err := o.deps.News.Fetch(ctx, sub.Tickers())
	if err != nil {
		return fmt.Errorf("failed to fetch news: %w", err)
	}

	events := o.deps.Scorer.ScoreArticles(ctx, articles, sub.Holdings)
	res.Events = len(events)
	if len(events) == 0 {
		logger.Info("no relevant events",
			zap.String("subscriber_id", sub.ID),
			zap.String("email", sub.Email),
			zap.Int("articles", len(articles)),
		)
		res.Outcome = models.OutcomeNoEvents
		return nil
	}

	msg, err := o.deps.Composer.Daily(sub, events, localNow)
	if err != nil {
		return fmt.Errorf("failed to compose daily digest: %w", err)
	}

	dailyKey := models.DeliveryKey{SubscriberID: sub.ID, Type: models.DeliveryDaily, LocalDate: localDate}
	result := o.send(ctx, dailyKey, msg)
	if err := o.record(ctx, dailyKey, result); err != nil {
		return err
	}
	res.DailySent = result.Success
	res.DailyFailed = !result.Success
	res.Outcome = models.OutcomeDelivered

	if err := o.pacer.Wait(ctx); err != nil {
		return fmt.Errorf("pacer interrupted: %w", err)
	}

	if !sub.WantsUrgentAlerts {
		return nil
	}

	top, ok := TopUrgent(events)
	if !ok {
		return nil
	}

	urgentKey := models.DeliveryKey{SubscriberID: sub.ID, Type: models.DeliveryUrgent, LocalDate: localDate}
	already, err := o.deps.Log.HasSent(ctx, urgentKey)
	if err != nil {
		return fmt.Errorf("failed to check urgent log: %w", err)
	}
	if already {
		logger.Info("urgent alert already sent today",
			zap.String("subscriber_id", sub.ID),
			zap.String("local_date", localDate),
		)
		res.Outcome = models.OutcomeUrgentSkipped
		return nil
	}

	urgentMsg, err := o.deps.Composer.Urgent(sub, top)
	if err != nil {
		return fmt.Errorf("failed to compose urgent alert: %w", err)
	}

	urgentResult := o.send(ctx, urgentKey, urgentMsg)
	if err := o.record(ctx, urgentKey, urgentResult); err != nil {
		return err
	}
	res.UrgentSent = urgentResult.Success
	res.UrgentFailed = !urgentResult.Success
	if urgentResult.Success {
		res.Outcome = models.OutcomeDeliveredWithUrgent
	}

	return nil
}

func (o *Orchestrator) send(ctx context.Context, key models.DeliveryKey, msg models.Message) models.SendResult {
	result := o.deps.Sender.Send(ctx, msg)

	fields := []zap.Field{
		zap.String("subscriber_id", key.SubscriberID),
		zap.String("email", msg.To),
		zap.String("type", string(key.Type)),
	}
	if result.Success {
		logger.Info("message sent", append(fields, zap.String("message_id", result.ID))...)
	} else {
		logger.Warn("message send failed", append(fields, zap.String("error", result.Error))...)
	}
	return result
}

func (o *Orchestrator) record(ctx context.Context, key models.DeliveryKey, result models.SendResult) error {
	entry := models.NewDeliveryEntry(key, result, o.clock())
	if err := o.deps.Log.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record %s delivery: %w", key.Type, err)
	}

	for _, obs := range o.observers {
		obs.OnDelivery(ctx, entry)
	}
	return nil
}

func (o *Orchestrator) recordFailure(ctx context.Context, sub models.Subscriber, localDate string, cause error) {
	logger.Error("subscriber processing failed",
		zap.String("subscriber_id", sub.ID),
		zap.String("email", sub.Email),
		zap.Error(cause),
	)

	key := models.DeliveryKey{SubscriberID: sub.ID, Type: models.DeliveryDaily, LocalDate: localDate}
	recordCtx := ctx
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		var cancel context.CancelFunc
		recordCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
	}

	if err := o.record(recordCtx, key, models.Failed(cause.Error())); err != nil {
		logger.Error("failed to record subscriber failure",
			zap.String("subscriber_id", sub.ID),
			zap.Error(err),
		)
	}
}

// TopUrgent returns the highest-scoring urgent event, earliest on ties
func TopUrgent(events []models.ScoredEvent) (models.ScoredEvent, bool) {
	var urgent []models.ScoredEvent
	for _, e := range events {
		if e.IsUrgent {
			urgent = append(urgent, e)
		}
	}
	if len(urgent) == 0 {
		return models.ScoredEvent{}, false
	}

	sort.SliceStable(urgent, func(i, j int) bool {
		return urgent[i].ImpactScore > urgent[j].ImpactScore
	})
	return urgent[0], true
}
